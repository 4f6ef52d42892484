package ratelimit

import (
	"context"
	"time"

	"github.com/vyrodovalexey/avagate/internal/observability"
	"github.com/vyrodovalexey/avagate/internal/ratelimit/store"
)

// DefaultTimeout bounds a single store call.
const DefaultTimeout = 250 * time.Millisecond

// Decision is the outcome of a rate limit check.
type Decision int

const (
	// Allowed means the request is within its quota.
	Allowed Decision = iota
	// Rejected means the quota for the current window is exhausted.
	Rejected
	// Indeterminate means the store could not be consulted. The request
	// is let through.
	Indeterminate
)

// String returns the string representation of the decision.
func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Rejected:
		return "rejected"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// Limit represents rate limit configuration.
type Limit struct {
	// Requests is the maximum number of requests allowed in the window.
	Requests int64

	// Window is the fixed window length.
	Window time.Duration
}

// Result represents the result of a rate limit check.
type Result struct {
	Decision Decision
	Limit    Limit

	// Count is the number of requests seen in the current window.
	Count int64

	// Remaining is the number of requests left in the current window.
	Remaining int64

	// RetryAfter is the time until the window resets. Set only when rejected.
	RetryAfter time.Duration

	// Err is the store error behind an Indeterminate decision.
	Err error
}

// Allowed reports whether the request may proceed.
func (r Result) Allowed() bool {
	return r.Decision != Rejected
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds.
func (r Result) RetryAfterSeconds() int64 {
	if r.RetryAfter <= 0 {
		return 0
	}
	return int64((r.RetryAfter + time.Second - 1) / time.Second)
}

// Limiter checks requests against per-key fixed windows.
type Limiter struct {
	store   store.Store
	timeout time.Duration
	logger  observability.Logger
	metrics *Metrics
}

// Option is a functional option for configuring the limiter.
type Option func(*Limiter)

// WithTimeout bounds each store call. Non-positive values disable the bound.
func WithTimeout(d time.Duration) Option {
	return func(l *Limiter) {
		l.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

// WithMetrics sets the limiter metrics.
func WithMetrics(m *Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

// NewLimiter creates a limiter over the given store.
func NewLimiter(s store.Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:   s,
		timeout: DefaultTimeout,
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request for key and decides whether it is allowed.
func (l *Limiter) Check(ctx context.Context, key string, limit Limit) Result {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	count, ttl, err := l.store.IncrementWithExpiry(ctx, key, limit.Window)
	if err != nil {
		l.logger.WithContext(ctx).Error("rate limit store unavailable, allowing request",
			observability.String("key", logKey(key)),
			observability.Error(err),
		)
		l.metrics.record(Indeterminate)
		return Result{Decision: Indeterminate, Limit: limit, Err: err}
	}

	res := Result{
		Decision:  Allowed,
		Limit:     limit,
		Count:     count,
		Remaining: max(limit.Requests-count, 0),
	}

	if count > limit.Requests {
		res.Decision = Rejected
		res.RetryAfter = ttl
		if res.RetryAfter <= 0 {
			res.RetryAfter = limit.Window
		}
		l.logger.WithContext(ctx).Debug("rate limit exceeded",
			observability.String("key", logKey(key)),
			observability.Int64("count", count),
			observability.Int64("limit", limit.Requests),
		)
	}

	l.metrics.record(res.Decision)
	return res
}
