package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/avagate/internal/auth/apikey"
	"github.com/vyrodovalexey/avagate/internal/observability"
	"github.com/vyrodovalexey/avagate/internal/ratelimit/store"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// blockingStore never answers until the context is done.
type blockingStore struct{}

func (blockingStore) IncrementWithExpiry(ctx context.Context, _ string, _ time.Duration) (int64, time.Duration, error) {
	<-ctx.Done()
	return 0, 0, ctx.Err()
}

func (blockingStore) Close() error { return nil }

// ============================================================
// Result
// ============================================================

func TestResult_RetryAfterSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		after time.Duration
		want  int64
	}{
		{name: "zero", after: 0, want: 0},
		{name: "sub second rounds up", after: 100 * time.Millisecond, want: 1},
		{name: "exact seconds", after: 2 * time.Second, want: 2},
		{name: "fraction rounds up", after: 59*time.Second + time.Millisecond, want: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Result{RetryAfter: tt.after}.RetryAfterSeconds())
		})
	}
}

func TestResult_Allowed(t *testing.T) {
	t.Parallel()

	assert.True(t, Result{Decision: Allowed}.Allowed())
	assert.True(t, Result{Decision: Indeterminate}.Allowed())
	assert.False(t, Result{Decision: Rejected}.Allowed())
}

func TestDecision_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "allowed", Allowed.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "indeterminate", Indeterminate.String())
	assert.Equal(t, "unknown", Decision(42).String())
}

// ============================================================
// Limiter with memory store
// ============================================================

func TestLimiter_WindowBoundary_Memory(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	s := store.NewMemoryStore(store.WithClock(clock.Now), store.WithCleanupInterval(0))
	defer s.Close()

	limiter := NewLimiter(s)
	limit := Limit{Requests: 3, Window: 10 * time.Second}
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		res := limiter.Check(ctx, "anonymous:10.0.0.1", limit)
		require.Equal(t, Allowed, res.Decision, "request %d", i)
		assert.Equal(t, i, res.Count)
		assert.Equal(t, 3-i, res.Remaining)
	}

	clock.Advance(4 * time.Second)
	res := limiter.Check(ctx, "anonymous:10.0.0.1", limit)
	assert.Equal(t, Rejected, res.Decision)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, 6*time.Second, res.RetryAfter)
	assert.LessOrEqual(t, res.RetryAfterSeconds(), int64(10))

	clock.Advance(6*time.Second + time.Millisecond)
	res = limiter.Check(ctx, "anonymous:10.0.0.1", limit)
	assert.Equal(t, Allowed, res.Decision)
	assert.Equal(t, int64(1), res.Count)
}

func TestLimiter_KeysAreIsolated(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore(store.WithCleanupInterval(0))
	defer s.Close()

	limiter := NewLimiter(s)
	limit := Limit{Requests: 1, Window: time.Minute}
	ctx := context.Background()

	assert.True(t, limiter.Check(ctx, "anonymous:10.0.0.1", limit).Allowed())
	assert.False(t, limiter.Check(ctx, "anonymous:10.0.0.1", limit).Allowed())
	assert.True(t, limiter.Check(ctx, "anonymous:10.0.0.2", limit).Allowed())
}

func TestLimiter_Concurrent(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore(store.WithCleanupInterval(0))
	defer s.Close()

	limiter := NewLimiter(s)
	limit := Limit{Requests: 50, Window: time.Minute}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Check(context.Background(), "k", limit).Decision == Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

// ============================================================
// Fail open
// ============================================================

func TestLimiter_FailOpen_ClosedStore(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	s := store.NewMemoryStore(store.WithCleanupInterval(0))
	require.NoError(t, s.Close())

	limiter := NewLimiter(s, WithLogger(observability.NewZapLogger(zap.New(core))))
	res := limiter.Check(context.Background(), "k", Limit{Requests: 1, Window: time.Minute})

	assert.Equal(t, Indeterminate, res.Decision)
	assert.True(t, res.Allowed())
	assert.True(t, errors.Is(res.Err, store.ErrStoreClosed))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "k", logs.All()[0].ContextMap()["key"])
}

func TestLimiter_LogsNoCredential(t *testing.T) {
	t.Parallel()

	const credential = "sk_live_SECRET"
	key := IdentifiedKeyPrefix + credential

	s := store.NewMemoryStore(store.WithCleanupInterval(0))
	core, logs := observer.New(zapcore.DebugLevel)
	limiter := NewLimiter(s, WithLogger(observability.NewZapLogger(zap.New(core))))
	limit := Limit{Requests: 1, Window: time.Minute}
	ctx := context.Background()

	limiter.Check(ctx, key, limit)
	require.False(t, limiter.Check(ctx, key, limit).Allowed(), "second request is rejected and logged")

	require.NoError(t, s.Close())
	require.Equal(t, Indeterminate, limiter.Check(ctx, key, limit).Decision, "closed store fails open and logs")

	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		for field, value := range entry.ContextMap() {
			assert.NotContains(t, fmt.Sprint(value), credential, "%s in %q", field, entry.Message)
		}
		assert.Equal(t, IdentifiedKeyPrefix+apikey.HashKey(credential)[:12], entry.ContextMap()["key"])
	}
}

func TestLimiter_FailOpen_Timeout(t *testing.T) {
	t.Parallel()

	limiter := NewLimiter(blockingStore{}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	res := limiter.Check(context.Background(), "k", Limit{Requests: 1, Window: time.Minute})

	assert.Equal(t, Indeterminate, res.Decision)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

// ============================================================
// Limiter with redis store
// ============================================================

func newRedisLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewLimiter(store.NewRedisStoreFromClient(client, "test:", nil)), mr
}

func TestLimiter_WindowBoundary_Redis(t *testing.T) {
	t.Parallel()

	limiter, mr := newRedisLimiter(t)
	limit := Limit{Requests: 2, Window: 5 * time.Second}
	ctx := context.Background()

	assert.Equal(t, Allowed, limiter.Check(ctx, "identified:abc", limit).Decision)
	assert.Equal(t, Allowed, limiter.Check(ctx, "identified:abc", limit).Decision)

	res := limiter.Check(ctx, "identified:abc", limit)
	assert.Equal(t, Rejected, res.Decision)
	assert.Equal(t, int64(3), res.Count)
	assert.Greater(t, res.RetryAfterSeconds(), int64(0))
	assert.LessOrEqual(t, res.RetryAfterSeconds(), int64(5))

	mr.FastForward(5*time.Second + time.Millisecond)

	res = limiter.Check(ctx, "identified:abc", limit)
	assert.Equal(t, Allowed, res.Decision)
	assert.Equal(t, int64(1), res.Count)
}

func TestLimiter_FailOpen_RedisDown(t *testing.T) {
	t.Parallel()

	limiter, mr := newRedisLimiter(t)
	mr.Close()

	res := limiter.Check(context.Background(), "k", Limit{Requests: 1, Window: time.Minute})

	assert.Equal(t, Indeterminate, res.Decision)
	assert.Error(t, res.Err)
}

// ============================================================
// Metrics
// ============================================================

func TestLimiter_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	assert.Same(t, m.decisions, NewMetrics(reg).decisions)

	s := store.NewMemoryStore(store.WithCleanupInterval(0))
	defer s.Close()

	limiter := NewLimiter(s, WithMetrics(m))
	limit := Limit{Requests: 1, Window: time.Minute}
	limiter.Check(context.Background(), "k", limit)
	limiter.Check(context.Background(), "k", limit)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("rejected")))
}
