// Package router resolves request paths to downstream routes.
//
// Routes are an ordered list of path prefixes loaded once at startup.
// Resolution picks the first declared prefix the path starts with:
//
//	table, err := router.NewTable(cfg.Routes, cfg.ServiceNamespace)
//	route, ok := table.Resolve("/api/inventory/items/7")
//	// route.Prefix == "/api/inventory", route.Service == "inventory"
//
// Matching is plain string-prefix matching. There is no segment
// boundary check, no trailing-slash normalization and no longest-match
// rule, so declaration order decides between overlapping prefixes.
package router
