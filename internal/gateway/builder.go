package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/avagate/internal/auth"
	"github.com/vyrodovalexey/avagate/internal/auth/apikey"
	"github.com/vyrodovalexey/avagate/internal/circuitbreaker"
	"github.com/vyrodovalexey/avagate/internal/config"
	"github.com/vyrodovalexey/avagate/internal/metrics"
	"github.com/vyrodovalexey/avagate/internal/metrics/downstream"
	"github.com/vyrodovalexey/avagate/internal/middleware"
	"github.com/vyrodovalexey/avagate/internal/observability"
	"github.com/vyrodovalexey/avagate/internal/proxy"
	"github.com/vyrodovalexey/avagate/internal/ratelimit"
	"github.com/vyrodovalexey/avagate/internal/ratelimit/store"
	"github.com/vyrodovalexey/avagate/internal/router"
)

// Gateway is a fully wired gateway instance.
type Gateway struct {
	Config   *config.GatewayConfig
	Pipeline *Pipeline
	// Handler is the pipeline wrapped in recovery, access logging and,
	// when a tracer is set, server spans.
	Handler  http.Handler
	Counters *metrics.Store
	Circuits *circuitbreaker.Registry
	Store    store.Store

	logger observability.Logger
}

type buildOptions struct {
	logger     observability.Logger
	tracer     *observability.Tracer
	registerer prometheus.Registerer
	store      store.Store
	clock      func() time.Time
	httpClient *http.Client
}

// BuildOption is a functional option for New.
type BuildOption func(*buildOptions)

// WithBuildLogger sets the logger shared by all components.
func WithBuildLogger(logger observability.Logger) BuildOption {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// WithBuildTracer enables tracing of inbound and downstream requests.
func WithBuildTracer(t *observability.Tracer) BuildOption {
	return func(o *buildOptions) {
		o.tracer = t
	}
}

// WithRegisterer registers component metrics with reg.
func WithRegisterer(reg prometheus.Registerer) BuildOption {
	return func(o *buildOptions) {
		o.registerer = reg
	}
}

// WithStore uses s instead of creating the configured rate limit store.
func WithStore(s store.Store) BuildOption {
	return func(o *buildOptions) {
		o.store = s
	}
}

// WithClock sets the clock used by the circuit registry.
func WithClock(now func() time.Time) BuildOption {
	return func(o *buildOptions) {
		o.clock = now
	}
}

// WithHTTPClient sets the client used for downstream calls.
func WithHTTPClient(c *http.Client) BuildOption {
	return func(o *buildOptions) {
		o.httpClient = c
	}
}

// New wires a gateway from configuration. It connects to the rate limit
// store, so it may block while Redis is retried.
func New(ctx context.Context, cfg *config.GatewayConfig, opts ...BuildOption) (*Gateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	o := &buildOptions{logger: observability.NopLogger()}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger

	routes, err := router.NewTable(cfg.Routes, cfg.ServiceNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to build route table: %w", err)
	}

	keys, err := auth.NewKeyStore(cfg.APIKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to load api keys: %w", err)
	}

	counterStore := o.store
	if counterStore == nil {
		counterStore, err = newStore(ctx, cfg.RateLimitStore, logger)
		if err != nil {
			return nil, err
		}
	}

	counters := metrics.NewStore()

	registryOpts := []circuitbreaker.Option{circuitbreaker.WithLogger(logger)}
	if o.clock != nil {
		registryOpts = append(registryOpts, circuitbreaker.WithClock(o.clock))
	}
	circuits := circuitbreaker.NewRegistry(
		circuitbreaker.DefaultConfig().
			WithThreshold(cfg.CircuitBreaker.Threshold).
			WithCooldown(cfg.CircuitBreaker.Cooldown.Duration()),
		registryOpts...,
	)

	identifierOpts := []auth.IdentifierOption{
		auth.WithLogger(logger),
	}
	limiterOpts := []ratelimit.Option{
		ratelimit.WithLogger(logger),
		ratelimit.WithTimeout(cfg.RateLimitStore.Timeout.Duration()),
	}
	forwarderOpts := []proxy.Option{
		proxy.WithLogger(logger),
		proxy.WithTimeout(cfg.Forwarder.Timeout.Duration()),
		proxy.WithCorrelationHeader(cfg.Headers.CorrelationID),
	}
	if o.httpClient != nil {
		forwarderOpts = append(forwarderOpts, proxy.WithHTTPClient(o.httpClient))
	}
	if o.tracer != nil {
		forwarderOpts = append(forwarderOpts, proxy.WithTracer(o.tracer))
	}
	if o.registerer != nil {
		if err := registerCollector(o.registerer, counters); err != nil {
			_ = counterStore.Close()
			return nil, err
		}
		authMetrics := auth.NewMetrics("gateway")
		authMetrics.MustRegister(o.registerer)
		identifierOpts = append(identifierOpts, auth.WithMetrics(authMetrics))

		limiterOpts = append(limiterOpts, ratelimit.WithMetrics(ratelimit.NewMetrics(o.registerer)))

		dm := downstream.NewMetrics()
		dm.MustRegister(o.registerer)
		forwarderOpts = append(forwarderOpts, proxy.WithMetrics(dm))
	}

	extractor := middleware.NewClientIPExtractor(cfg.TrustedProxies)

	pipeline, err := NewPipeline(Components{
		Identifier: auth.NewIdentifier(keys,
			append(identifierOpts, auth.WithExtractor(apikey.NewHeaderExtractor(cfg.Headers.APIKey)))...),
		Policy:    auth.NewPolicy(cfg.ProtectedPrefixes),
		Limiter:   ratelimit.NewLimiter(counterStore, limiterOpts...),
		Limits:    ratelimit.NewPolicy(cfg.RateLimits),
		Routes:    routes,
		Forwarder: proxy.NewForwarder(circuits, counters, forwarderOpts...),
		Counters:  counters,
	},
		WithLogger(logger),
		WithCorrelationHeader(cfg.Headers.CorrelationID),
		WithClientIP(extractor.Extract),
	)
	if err != nil {
		_ = counterStore.Close()
		return nil, err
	}

	var handler http.Handler = pipeline
	if o.tracer != nil {
		handler = observability.TracingMiddleware(o.tracer)(handler)
	}
	handler = middleware.Chain(handler,
		middleware.Recovery(logger),
		middleware.Logging(logger,
			middleware.WithClientIP(extractor),
			middleware.WithCorrelationHeader(cfg.Headers.CorrelationID),
		),
	)

	logger.Info("gateway configured",
		observability.Int("routes", routes.Len()),
		observability.Int("api_keys", keys.Count()),
		observability.Int("protected_prefixes", len(cfg.ProtectedPrefixes)),
		observability.String("store", cfg.RateLimitStore.Type),
	)

	return &Gateway{
		Config:   cfg,
		Pipeline: pipeline,
		Handler:  handler,
		Counters: counters,
		Circuits: circuits,
		Store:    counterStore,
		logger:   logger,
	}, nil
}

// Close releases the rate limit store.
func (g *Gateway) Close() error {
	if g.Store == nil {
		return nil
	}
	g.logger.Info("closing rate limit store")
	if err := g.Store.Close(); err != nil {
		return fmt.Errorf("failed to close rate limit store: %w", err)
	}
	return nil
}

func newStore(ctx context.Context, cfg config.RateLimitStoreConfig, logger observability.Logger) (store.Store, error) {
	switch cfg.Type {
	case config.StoreRedis:
		rc := store.DefaultRedisConfig()
		rc.URL = cfg.Redis.URL
		if cfg.Redis.Address != "" {
			rc.Address = cfg.Redis.Address
		}
		rc.Password = cfg.Redis.Password
		rc.DB = cfg.Redis.DB
		rc.Prefix = cfg.Redis.Prefix
		if cfg.Redis.PoolSize > 0 {
			rc.PoolSize = cfg.Redis.PoolSize
		}
		rc.DialTimeout = cfg.Redis.DialTimeout.Duration()
		rc.ConnectionRetries = cfg.Redis.ConnectRetries
		rc.InitialBackoff = cfg.Redis.InitialBackoff.Duration()
		rc.MaxBackoff = cfg.Redis.MaxBackoff.Duration()
		rc.Logger = logger

		s, err := store.NewRedisStore(ctx, rc)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}
		return s, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	return nil
}
