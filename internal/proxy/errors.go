package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Forward operations.
const (
	OpBuildRequest = "build_request"
	OpRoundTrip    = "round_trip"
	OpReadBody     = "read_body"
)

// ForwardError describes a failed downstream call.
type ForwardError struct {
	Op      string // Operation that failed
	Service string // Downstream service name
	Target  string // Downstream URL
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *ForwardError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("forward error [%s] service=%s target=%s: %v",
			e.Op, e.Service, e.Target, e.Cause)
	}
	return fmt.Sprintf("forward error [%s] service=%s: %v", e.Op, e.Service, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ForwardError) Unwrap() error {
	return e.Cause
}

// IsTimeout reports whether the failure was a timeout.
func (e *ForwardError) IsTimeout() bool {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Cause, &netErr) && netErr.Timeout()
}
