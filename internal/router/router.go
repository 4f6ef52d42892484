package router

import (
	"fmt"
	"strings"

	"github.com/vyrodovalexey/avagate/internal/config"
)

// Route maps a path prefix to a downstream base URL.
type Route struct {
	Prefix string
	Target string
}

// ResolvedRoute is a matched route with its derived service name.
type ResolvedRoute struct {
	Prefix  string
	Target  string
	Service string
}

// Table is an immutable ordered route table. It is safe for concurrent use.
type Table struct {
	routes    []ResolvedRoute
	namespace string
	metrics   *routerMetrics
}

// NewTable builds a table from configured routes, keeping their order.
func NewTable(routes []config.RouteConfig, namespace string) (*Table, error) {
	t := &Table{
		routes:    make([]ResolvedRoute, 0, len(routes)),
		namespace: namespace,
		metrics:   getRouterMetrics(),
	}

	for i, r := range routes {
		if r.Prefix == "" {
			return nil, fmt.Errorf("route %d: prefix is required", i)
		}
		if r.Target == "" {
			return nil, fmt.Errorf("route %q: target is required", r.Prefix)
		}
		t.routes = append(t.routes, ResolvedRoute{
			Prefix:  r.Prefix,
			Target:  strings.TrimSuffix(r.Target, "/"),
			Service: ServiceName(r.Prefix, namespace),
		})
	}

	return t, nil
}

// Resolve returns the first route whose prefix the path starts with.
func (t *Table) Resolve(path string) (ResolvedRoute, bool) {
	for _, r := range t.routes {
		if strings.HasPrefix(path, r.Prefix) {
			t.metrics.resolved.WithLabelValues(r.Service).Inc()
			return r, true
		}
	}
	t.metrics.unmatched.Inc()
	return ResolvedRoute{}, false
}

// Routes returns a copy of the routes in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	for i, r := range t.routes {
		out[i] = Route{Prefix: r.Prefix, Target: r.Target}
	}
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// ServiceName derives the circuit identity of a route prefix: the
// namespace is removed and surrounding slashes trimmed, so
// "/api/inventory" becomes "inventory".
func ServiceName(prefix, namespace string) string {
	name := strings.Trim(strings.TrimPrefix(prefix, namespace), "/")
	if name == "" {
		return strings.Trim(prefix, "/")
	}
	return name
}
