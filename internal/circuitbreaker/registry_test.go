package circuitbreaker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRegistry_NilConfig(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)

	assert.Equal(t, DefaultThreshold, r.config.Threshold)
	assert.Equal(t, DefaultCooldown, r.config.Cooldown)
}

func TestNewRegistry_InvalidConfigFallsBack(t *testing.T) {
	t.Parallel()

	cfg := &Config{Threshold: 0, Cooldown: -time.Second}
	r := NewRegistry(cfg)

	assert.Equal(t, DefaultThreshold, r.config.Threshold)
	assert.Equal(t, DefaultCooldown, r.config.Cooldown)
	assert.Equal(t, 0, cfg.Threshold, "caller config is not mutated")
}

func TestRegistry_CustomConfig(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	r := NewRegistry(DefaultConfig().WithThreshold(1).WithCooldown(time.Second), WithClock(clock.Now))

	r.RecordFailure("svc")
	assert.True(t, r.IsOpen("svc"))

	clock.Advance(1001 * time.Millisecond)
	assert.False(t, r.IsOpen("svc"))
}

func TestRegistry_GetOrCreate(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)

	assert.Nil(t, r.Get("svc"))
	c := r.GetOrCreate("svc")
	assert.Same(t, c, r.GetOrCreate("svc"))
	assert.Same(t, c, r.Get("svc"))
	assert.Equal(t, "svc", c.Name())
}

func TestRegistry_GetOrCreate_Concurrent(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	results := make([]*Circuit, 32)

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.GetOrCreate("svc")
		}(i)
	}
	wg.Wait()

	for _, c := range results {
		assert.Same(t, results[0], c)
	}
}

func TestRegistry_CircuitsAreIndependent(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	r.RecordFailure("orders")
	r.IsOpen("inventory")

	assert.Equal(t, 1, r.Get("orders").Stats().FailureCount)
	assert.Equal(t, 0, r.Get("inventory").Stats().FailureCount)
	assert.Equal(t, "closed", r.Get("inventory").Stats().State)
}
