package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayError_Sentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     *GatewayError
		status  int
		message string
	}{
		{"invalid credential", ErrInvalidCredential, http.StatusUnauthorized, "Invalid API key"},
		{"credential required", ErrCredentialRequired, http.StatusUnauthorized, "API key required"},
		{"route not found", ErrRouteNotFound, http.StatusNotFound, "No route found"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "Too many requests"},
		{"circuit open", ErrCircuitOpen, http.StatusServiceUnavailable, "Service temporarily unavailable"},
		{"bad gateway", ErrBadGateway, http.StatusBadGateway, "Bad Gateway"},
		{"method not allowed", ErrMethodNotAllowed, http.StatusMethodNotAllowed, "Method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.message, tt.err.Message)
		})
	}
}

func TestGatewayError_Is(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	err := ErrBadGateway.WithCause(cause)

	assert.True(t, errors.Is(err, ErrBadGateway))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrCircuitOpen))
	assert.Nil(t, ErrBadGateway.Cause, "WithCause must not mutate the sentinel")

	wrapped := fmt.Errorf("forward: %w", err)
	assert.True(t, errors.Is(wrapped, ErrBadGateway))
}

func TestGatewayError_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "route_not_found: No route found", ErrRouteNotFound.Error())
	assert.Equal(t,
		"bad_gateway: Bad Gateway: boom",
		ErrBadGateway.WithCause(errors.New("boom")).Error())
}

func TestAsGatewayError(t *testing.T) {
	t.Parallel()

	t.Run("gateway error passes through", func(t *testing.T) {
		t.Parallel()
		assert.Same(t, ErrRateLimited, AsGatewayError(fmt.Errorf("x: %w", ErrRateLimited)))
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("unexpected")
		gwErr := AsGatewayError(cause)
		assert.Equal(t, http.StatusInternalServerError, gwErr.Status)
		assert.ErrorIs(t, gwErr, cause)
	})
}
