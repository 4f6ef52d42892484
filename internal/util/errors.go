package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a client-facing gateway error.
type Kind string

// Error kinds.
const (
	KindInvalidCredential  Kind = "invalid_credential"
	KindCredentialRequired Kind = "credential_required"
	KindRouteNotFound      Kind = "route_not_found"
	KindRateLimited        Kind = "rate_limited"
	KindCircuitOpen        Kind = "circuit_open"
	KindBadGateway         Kind = "bad_gateway"
	KindMethodNotAllowed   Kind = "method_not_allowed"
	KindInternal           Kind = "internal"
)

// GatewayError is an error the gateway reports to its caller.
type GatewayError struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a GatewayError of the same kind.
func (e *GatewayError) Is(target error) bool {
	var t *GatewayError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// WithCause returns a copy of e wrapping cause.
func (e *GatewayError) WithCause(cause error) *GatewayError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// NewGatewayError creates a new GatewayError.
func NewGatewayError(kind Kind, status int, message string) *GatewayError {
	return &GatewayError{Kind: kind, Status: status, Message: message}
}

// Client-facing sentinel errors.
var (
	ErrInvalidCredential = NewGatewayError(
		KindInvalidCredential, http.StatusUnauthorized, "Invalid API key")
	ErrCredentialRequired = NewGatewayError(
		KindCredentialRequired, http.StatusUnauthorized, "API key required")
	ErrRouteNotFound = NewGatewayError(
		KindRouteNotFound, http.StatusNotFound, "No route found")
	ErrRateLimited = NewGatewayError(
		KindRateLimited, http.StatusTooManyRequests, "Too many requests")
	ErrCircuitOpen = NewGatewayError(
		KindCircuitOpen, http.StatusServiceUnavailable, "Service temporarily unavailable")
	ErrBadGateway = NewGatewayError(
		KindBadGateway, http.StatusBadGateway, "Bad Gateway")
	ErrMethodNotAllowed = NewGatewayError(
		KindMethodNotAllowed, http.StatusMethodNotAllowed, "Method not allowed")
	ErrInternal = NewGatewayError(
		KindInternal, http.StatusInternalServerError, "internal server error")
)

// ErrConfigInvalid is returned when configuration fails validation.
var ErrConfigInvalid = errors.New("invalid configuration")

// AsGatewayError converts err to a GatewayError. Errors that are not
// GatewayErrors become ErrInternal wrapping err.
func AsGatewayError(err error) *GatewayError {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return ErrInternal.WithCause(err)
}
