// Package store provides counter storage backends for rate limiting.
package store

import (
	"context"
	"errors"
	"time"
)

// Store holds fixed-window request counters keyed by client.
type Store interface {
	// IncrementWithExpiry increments the counter for key. When the increment
	// creates the counter, its expiry is set to window in the same atomic
	// step. It returns the new count and the time left until the counter
	// expires.
	IncrementWithExpiry(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)

	// Close closes the store and releases resources.
	Close() error
}

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("store closed")
