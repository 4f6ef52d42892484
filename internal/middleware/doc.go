// Package middleware provides HTTP middleware wrapped around the gateway
// pipeline.
//
//   - Logging: one structured "http request" line per request
//   - Recovery: turns handler panics into 500 responses
//   - ClientIPExtractor: trusted proxy aware client address
//
// Middleware functions follow the standard Go pattern:
//
//	handler := middleware.Recovery(logger)(
//	    middleware.Logging(logger, middleware.WithClientIP(extractor))(pipeline),
//	)
//
// Chain composes the same thing left to right.
package middleware
