// Package util provides shared error types, HTTP helpers and
// validation functions for the gateway.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrRouteNotFound.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., GatewayError, proxy.ForwardError). Each
//     type implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
//
// # Client-facing errors
//
// Every error the gateway answers with is a *GatewayError. It carries
// the HTTP status and the public message, and is rendered as
//
//	{"error": "<message>"}
//
// by WriteError:
//
//	util.WriteError(w, util.ErrRouteNotFound)
//
// # HTTP Utilities
//
// Response writer wrappers for status code capture:
//
//	w := util.NewStatusCapturingResponseWriter(responseWriter)
//	handler.ServeHTTP(w, r)
//	statusCode := w.StatusCode
package util
