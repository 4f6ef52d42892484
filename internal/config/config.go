package config

import "time"

// Rate limit store types.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Default values.
const (
	DefaultPort             = 3000
	DefaultMetricsPort      = 9091
	DefaultMetricsPath      = "/metrics"
	DefaultAPIKeyHeader     = "X-API-Key"
	DefaultCorrelationID    = "X-Correlation-ID"
	DefaultServiceNamespace = "/api/"

	DefaultAnonymousLimit  = 10
	DefaultIdentifiedLimit = 100
	DefaultRateLimitWindow = 60 * time.Second
	DefaultStoreTimeout    = 250 * time.Millisecond

	DefaultFailureThreshold = 3
	DefaultCooldown         = 30 * time.Second
	DefaultForwardTimeout   = 3 * time.Second

	DefaultRedisPrefix         = "avagate:"
	DefaultRedisDialTimeout    = 10 * time.Second
	DefaultRedisConnectRetries = 10
	DefaultRedisInitialBackoff = 100 * time.Millisecond
	DefaultRedisMaxBackoff     = 3 * time.Second
)

// GatewayConfig is the root configuration of the gateway.
type GatewayConfig struct {
	Server            ServerConfig         `yaml:"server" json:"server"`
	Logging           LoggingConfig        `yaml:"logging" json:"logging"`
	Headers           HeadersConfig        `yaml:"headers" json:"headers"`
	ServiceNamespace  string               `yaml:"serviceNamespace" json:"serviceNamespace"`
	Routes            []RouteConfig        `yaml:"routes" json:"routes"`
	APIKeys           []APIKeyConfig       `yaml:"apiKeys" json:"apiKeys"`
	ProtectedPrefixes []string             `yaml:"protectedPrefixes" json:"protectedPrefixes"`
	TrustedProxies    []string             `yaml:"trustedProxies" json:"trustedProxies"`
	RateLimits        RateLimitsConfig     `yaml:"rateLimits" json:"rateLimits"`
	RateLimitStore    RateLimitStoreConfig `yaml:"rateLimitStore" json:"rateLimitStore"`
	CircuitBreaker    CircuitBreakerConfig `yaml:"circuitBreaker" json:"circuitBreaker"`
	Forwarder         ForwarderConfig      `yaml:"forwarder" json:"forwarder"`
	Metrics           MetricsConfig        `yaml:"metrics" json:"metrics"`
	Tracing           TracingConfig        `yaml:"tracing" json:"tracing"`
}

// ServerConfig configures the public HTTP listener.
type ServerConfig struct {
	Port            int      `yaml:"port" json:"port"`
	ReadTimeout     Duration `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout" json:"writeTimeout"`
	IdleTimeout     Duration `yaml:"idleTimeout" json:"idleTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// HeadersConfig names the headers the gateway reads and writes.
type HeadersConfig struct {
	APIKey        string `yaml:"apiKey" json:"apiKey"`
	CorrelationID string `yaml:"correlationId" json:"correlationId"`
}

// RouteConfig maps a path prefix to a downstream base URL.
type RouteConfig struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	Target string `yaml:"target" json:"target"`
}

// APIKeyConfig is one known client credential.
type APIKeyConfig struct {
	Key  string `yaml:"key" json:"key"`
	Name string `yaml:"name" json:"name"`
}

// RateLimitsConfig holds the quota for each client type.
type RateLimitsConfig struct {
	Anonymous  LimitConfig `yaml:"anonymous" json:"anonymous"`
	Identified LimitConfig `yaml:"identified" json:"identified"`
}

// LimitConfig is a fixed-window quota.
type LimitConfig struct {
	Limit  int64    `yaml:"limit" json:"limit"`
	Window Duration `yaml:"window" json:"window"`
}

// RateLimitStoreConfig selects and configures the counter store.
type RateLimitStoreConfig struct {
	Type    string      `yaml:"type" json:"type"`
	Timeout Duration    `yaml:"timeout" json:"timeout"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig configures the Redis counter store.
// URL, when set, takes precedence over Address, Password and DB.
type RedisConfig struct {
	URL            string   `yaml:"url" json:"url"`
	Address        string   `yaml:"address" json:"address"`
	Password       string   `yaml:"password" json:"-"`
	DB             int      `yaml:"db" json:"db"`
	Prefix         string   `yaml:"prefix" json:"prefix"`
	PoolSize       int      `yaml:"poolSize" json:"poolSize"`
	DialTimeout    Duration `yaml:"dialTimeout" json:"dialTimeout"`
	ConnectRetries int      `yaml:"connectRetries" json:"connectRetries"`
	InitialBackoff Duration `yaml:"initialBackoff" json:"initialBackoff"`
	MaxBackoff     Duration `yaml:"maxBackoff" json:"maxBackoff"`
}

// CircuitBreakerConfig configures per-service circuits.
type CircuitBreakerConfig struct {
	Threshold int      `yaml:"threshold" json:"threshold"`
	Cooldown  Duration `yaml:"cooldown" json:"cooldown"`
}

// ForwarderConfig configures downstream calls.
type ForwarderConfig struct {
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint" json:"otlpEndpoint"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
	ServiceName  string  `yaml:"serviceName" json:"serviceName"`
}

// DefaultConfig returns a configuration with every default applied and no routes.
func DefaultConfig() *GatewayConfig {
	cfg := &GatewayConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *GatewayConfig) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	setDuration(&c.Server.ReadTimeout, 30*time.Second)
	setDuration(&c.Server.WriteTimeout, 30*time.Second)
	setDuration(&c.Server.IdleTimeout, 120*time.Second)
	setDuration(&c.Server.ShutdownTimeout, 30*time.Second)

	setString(&c.Logging.Level, "info")
	setString(&c.Logging.Format, "json")
	setString(&c.Logging.Output, "stdout")

	setString(&c.Headers.APIKey, DefaultAPIKeyHeader)
	setString(&c.Headers.CorrelationID, DefaultCorrelationID)
	setString(&c.ServiceNamespace, DefaultServiceNamespace)

	if c.RateLimits.Anonymous.Limit == 0 {
		c.RateLimits.Anonymous.Limit = DefaultAnonymousLimit
	}
	setDuration(&c.RateLimits.Anonymous.Window, DefaultRateLimitWindow)
	if c.RateLimits.Identified.Limit == 0 {
		c.RateLimits.Identified.Limit = DefaultIdentifiedLimit
	}
	setDuration(&c.RateLimits.Identified.Window, DefaultRateLimitWindow)

	setString(&c.RateLimitStore.Type, StoreMemory)
	setDuration(&c.RateLimitStore.Timeout, DefaultStoreTimeout)
	setString(&c.RateLimitStore.Redis.Prefix, DefaultRedisPrefix)
	setDuration(&c.RateLimitStore.Redis.DialTimeout, DefaultRedisDialTimeout)
	if c.RateLimitStore.Redis.ConnectRetries == 0 {
		c.RateLimitStore.Redis.ConnectRetries = DefaultRedisConnectRetries
	}
	setDuration(&c.RateLimitStore.Redis.InitialBackoff, DefaultRedisInitialBackoff)
	setDuration(&c.RateLimitStore.Redis.MaxBackoff, DefaultRedisMaxBackoff)

	if c.CircuitBreaker.Threshold == 0 {
		c.CircuitBreaker.Threshold = DefaultFailureThreshold
	}
	setDuration(&c.CircuitBreaker.Cooldown, DefaultCooldown)

	setDuration(&c.Forwarder.Timeout, DefaultForwardTimeout)

	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	setString(&c.Metrics.Path, DefaultMetricsPath)

	setString(&c.Tracing.ServiceName, "avagate")
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setDuration(dst *Duration, def time.Duration) {
	if *dst == 0 {
		*dst = Duration(def)
	}
}
