package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/vyrodovalexey/avagate/internal/observability"
)

// Prometheus metrics for Redis store operations
var (
	redisStoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_store_operations_total",
			Help: "Total number of Redis store operations",
		},
		[]string{"operation", "status"},
	)

	redisStoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_store_operation_duration_seconds",
			Help:    "Duration of Redis store operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	redisStoreConnectionRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_store_connection_retries_total",
			Help: "Total number of Redis connection retry attempts",
		},
	)
)

// incrementWithExpiryScript increments a window counter and reports its TTL.
// KEYS[1] = key
// ARGV[1] = window in milliseconds
// A counter left without an expiry (for example by a crash between INCR
// and PEXPIRE on an older deployment) is given one so it cannot live forever.
var incrementWithExpiryScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return {count, ttl}
`)

// RedisStore implements Store using Redis. Counters are shared by every
// gateway instance using the same Redis and prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger observability.Logger
	closed bool
	mu     sync.Mutex
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	// URL is a redis:// or rediss:// connection string. When set it
	// overrides Address, Password and DB.
	URL string

	Address  string
	Password string
	DB       int
	Prefix   string

	// Connection pool settings
	PoolSize     int
	MinIdleConns int
	MaxRetries   int

	// Timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// InitialBackoff is the first wait between startup connection attempts.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between startup connection attempts.
	MaxBackoff time.Duration

	// ConnectionRetries is the number of retries after the first attempt.
	ConnectionRetries int

	// Logger for the Redis store.
	Logger observability.Logger
}

// DefaultRedisConfig returns a RedisConfig with default values.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Address:           "localhost:6379",
		Prefix:            "avagate:",
		PoolSize:          10,
		MinIdleConns:      2,
		MaxRetries:        0,
		DialTimeout:       10 * time.Second,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        3 * time.Second,
		ConnectionRetries: 10,
	}
}

// NewRedisStore connects to Redis, retrying with bounded exponential
// backoff. It fails once the retries are exhausted or ctx is done.
func NewRedisStore(ctx context.Context, config *RedisConfig) (*RedisStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	opts, err := buildRedisOptions(config)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	if err := connectWithRetry(ctx, client, config, logger); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisStoreFromClient(client, config.Prefix, logger), nil
}

// NewRedisStoreFromClient wraps an existing client without checking connectivity.
func NewRedisStoreFromClient(client *redis.Client, prefix string, logger observability.Logger) *RedisStore {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// buildRedisOptions converts the config into client options.
func buildRedisOptions(config *RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	if config.URL != "" {
		parsed, err := redis.ParseURL(config.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     config.Address,
			Password: config.Password,
			DB:       config.DB,
		}
	}

	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.MinIdleConns > 0 {
		opts.MinIdleConns = config.MinIdleConns
	}
	if config.MaxRetries != 0 {
		opts.MaxRetries = config.MaxRetries
	}
	if config.DialTimeout > 0 {
		opts.DialTimeout = config.DialTimeout
	}
	if config.ReadTimeout > 0 {
		opts.ReadTimeout = config.ReadTimeout
	}
	if config.WriteTimeout > 0 {
		opts.WriteTimeout = config.WriteTimeout
	}

	return opts, nil
}

// newConnectBackOff builds the startup retry policy.
func newConnectBackOff(ctx context.Context, config *RedisConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = config.InitialBackoff
	if b.InitialInterval <= 0 {
		b.InitialInterval = 100 * time.Millisecond
	}
	b.MaxInterval = config.MaxBackoff
	if b.MaxInterval <= 0 {
		b.MaxInterval = 3 * time.Second
	}
	b.MaxElapsedTime = 0

	retries := config.ConnectionRetries
	if retries < 0 {
		retries = 0
	}

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// connectWithRetry pings Redis until it answers or the policy gives up.
func connectWithRetry(
	ctx context.Context,
	client *redis.Client,
	config *RedisConfig,
	logger observability.Logger,
) error {
	attempts := 0
	operation := func() error {
		attempts++
		pingCtx, cancel := context.WithTimeout(ctx, config.DialTimeout)
		defer cancel()
		return client.Ping(pingCtx).Err()
	}

	notify := func(err error, wait time.Duration) {
		redisStoreConnectionRetries.Inc()
		logger.Warn("redis connection failed, retrying",
			observability.String("address", client.Options().Addr),
			observability.Int("attempt", attempts),
			observability.Duration("backoff", wait),
			observability.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, newConnectBackOff(ctx, config), notify); err != nil {
		return fmt.Errorf("failed to connect to redis after %d attempts: %w", attempts, err)
	}

	logger.Info("connected to redis",
		observability.String("address", client.Options().Addr),
		observability.Int("attempts", attempts),
	)
	return nil
}

// prefixKey adds the prefix to the key.
func (s *RedisStore) prefixKey(key string) string {
	return s.prefix + key
}

// IncrementWithExpiry implements Store using a Lua script for atomicity.
func (s *RedisStore) IncrementWithExpiry(
	ctx context.Context,
	key string,
	window time.Duration,
) (int64, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, fmt.Errorf("context error before redis incr with expiry: %w", err)
	}

	start := time.Now()
	windowMs := window.Milliseconds()
	if windowMs < 1 {
		windowMs = 1
	}

	result, err := incrementWithExpiryScript.Run(ctx, s.client, []string{s.prefixKey(key)}, windowMs).Result()
	redisStoreOperationDuration.WithLabelValues("increment_with_expiry").Observe(time.Since(start).Seconds())

	if err != nil {
		redisStoreOperationsTotal.WithLabelValues("increment_with_expiry", "error").Inc()
		return 0, 0, fmt.Errorf("redis script error: %w", err)
	}

	count, ttlMs, err := parseCountTTL(result)
	if err != nil {
		redisStoreOperationsTotal.WithLabelValues("increment_with_expiry", "error").Inc()
		return 0, 0, err
	}

	redisStoreOperationsTotal.WithLabelValues("increment_with_expiry", "success").Inc()
	return count, time.Duration(ttlMs) * time.Millisecond, nil
}

// parseCountTTL decodes the {count, ttl} reply of the increment script.
func parseCountTTL(result interface{}) (count, ttlMs int64, err error) {
	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("redis script returned unexpected reply: %v", result)
	}
	count, ok = values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("redis script returned unexpected count type: %T", values[0])
	}
	ttlMs, ok = values[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("redis script returned unexpected ttl type: %T", values[1])
	}
	return count, ttlMs, nil
}

// Close implements Store.
// Close is idempotent - calling it multiple times is safe.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
