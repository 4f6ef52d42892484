package store

import (
	"context"
	"sync"
	"time"
)

// DefaultCleanupInterval is how often expired counters are swept.
const DefaultCleanupInterval = time.Minute

// entry represents a counter with its expiration.
type entry struct {
	value      int64
	expiration time.Time
}

// MemoryStore implements Store in process memory. Counters are not
// shared between gateway instances.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string]*entry
	now     func() time.Time
	closed  bool
	done    chan struct{}
	stopped chan struct{}
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	cleanupInterval time.Duration
	now             func() time.Time
}

// WithCleanupInterval sets how often expired counters are removed.
// A non-positive interval disables the janitor.
func WithCleanupInterval(interval time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.cleanupInterval = interval
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	o := memoryOptions{
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &MemoryStore{
		data:    make(map[string]*entry),
		now:     o.now,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go s.startCleanup(o.cleanupInterval)
	} else {
		close(s.stopped)
	}

	return s
}

// IncrementWithExpiry implements Store.
func (s *MemoryStore) IncrementWithExpiry(
	ctx context.Context,
	key string,
	window time.Duration,
) (int64, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, 0, ErrStoreClosed
	}

	now := s.now()
	e, ok := s.data[key]
	if !ok || now.After(e.expiration) {
		e = &entry{expiration: now.Add(window)}
		s.data[key] = e
	}
	e.value++

	return e.value, e.expiration.Sub(now), nil
}

// Len returns the number of stored counters, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Close stops the janitor. Close is idempotent.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	<-s.stopped
	return nil
}

// startCleanup periodically removes expired counters.
func (s *MemoryStore) startCleanup(interval time.Duration) {
	defer close(s.stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.done:
			return
		}
	}
}

// removeExpired deletes every counter whose window has ended.
func (s *MemoryStore) removeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.data {
		if now.After(e.expiration) {
			delete(s.data, key)
			removed++
		}
	}
	return removed
}
