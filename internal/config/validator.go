package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/vyrodovalexey/avagate/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Unwrap lets errors.Is match util.ErrConfigInvalid.
func (e ValidationErrors) Unwrap() error {
	return util.ErrConfigInvalid
}

// Validator validates gateway configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a gateway configuration.
func ValidateConfig(config *GatewayConfig) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *GatewayConfig) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&config.Server, config.Metrics)
	v.validateHeaders(&config.Headers)
	v.validateRoutes(config.Routes)
	v.validateAPIKeys(config.APIKeys)
	v.validateTrustedProxies(config.TrustedProxies)
	v.validateLimit("rateLimits.anonymous", config.RateLimits.Anonymous)
	v.validateLimit("rateLimits.identified", config.RateLimits.Identified)
	v.validateStore(&config.RateLimitStore)
	v.validateCircuitBreaker(&config.CircuitBreaker)

	if err := util.ValidatePositiveDuration(config.Forwarder.Timeout.Duration()); err != nil {
		v.addError("forwarder.timeout", err.Error())
	}

	if config.Tracing.SamplingRate < 0 || config.Tracing.SamplingRate > 1 {
		v.addError("tracing.samplingRate", "must be between 0 and 1")
	}

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServer(server *ServerConfig, metrics MetricsConfig) {
	if err := util.ValidatePort(server.Port); err != nil {
		v.addError("server.port", err.Error())
	}
	if metrics.Enabled {
		if err := util.ValidatePort(metrics.Port); err != nil {
			v.addError("metrics.port", err.Error())
		} else if metrics.Port == server.Port {
			v.addError("metrics.port", "must differ from server.port")
		}
		if !strings.HasPrefix(metrics.Path, "/") {
			v.addError("metrics.path", "must start with /")
		}
	}
}

func (v *Validator) validateHeaders(headers *HeadersConfig) {
	if err := util.ValidateHeaderName(headers.APIKey); err != nil {
		v.addError("headers.apiKey", err.Error())
	}
	if err := util.ValidateHeaderName(headers.CorrelationID); err != nil {
		v.addError("headers.correlationId", err.Error())
	}
}

func (v *Validator) validateRoutes(routes []RouteConfig) {
	seen := make(map[string]bool, len(routes))
	for i, route := range routes {
		path := fmt.Sprintf("routes[%d]", i)

		if !strings.HasPrefix(route.Prefix, "/") {
			v.addError(path+".prefix", "must start with /")
		}
		if seen[route.Prefix] {
			v.addError(path+".prefix", fmt.Sprintf("duplicate prefix %q", route.Prefix))
		}
		seen[route.Prefix] = true

		if err := util.ValidateURL(route.Target); err != nil {
			v.addError(path+".target", err.Error())
		}
	}
}

func (v *Validator) validateAPIKeys(keys []APIKeyConfig) {
	seen := make(map[string]bool, len(keys))
	for i, key := range keys {
		path := fmt.Sprintf("apiKeys[%d]", i)

		if err := util.ValidateNonEmpty(key.Key, "key"); err != nil {
			v.addError(path+".key", err.Error())
			continue
		}
		if seen[key.Key] {
			v.addError(path+".key", "duplicate API key")
		}
		seen[key.Key] = true

		if err := util.ValidateNonEmpty(key.Name, "name"); err != nil {
			v.addError(path+".name", err.Error())
		}
	}
}

func (v *Validator) validateTrustedProxies(cidrs []string) {
	for i, cidr := range cidrs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				v.addError(fmt.Sprintf("trustedProxies[%d]", i), fmt.Sprintf("invalid CIDR or IP %q", cidr))
			}
		}
	}
}

func (v *Validator) validateLimit(path string, limit LimitConfig) {
	if limit.Limit <= 0 {
		v.addError(path+".limit", "must be positive")
	}
	if err := util.ValidatePositiveDuration(limit.Window.Duration()); err != nil {
		v.addError(path+".window", err.Error())
	}
}

func (v *Validator) validateStore(store *RateLimitStoreConfig) {
	switch store.Type {
	case StoreMemory:
	case StoreRedis:
		if store.Redis.URL == "" && store.Redis.Address == "" {
			v.addError("rateLimitStore.redis", "url or address is required")
		}
		if store.Redis.ConnectRetries < 0 {
			v.addError("rateLimitStore.redis.connectRetries", "cannot be negative")
		}
	default:
		v.addError("rateLimitStore.type", fmt.Sprintf("unknown store type %q", store.Type))
	}

	if err := util.ValidatePositiveDuration(store.Timeout.Duration()); err != nil {
		v.addError("rateLimitStore.timeout", err.Error())
	}
}

func (v *Validator) validateCircuitBreaker(cb *CircuitBreakerConfig) {
	if cb.Threshold <= 0 {
		v.addError("circuitBreaker.threshold", "must be positive")
	}
	if err := util.ValidatePositiveDuration(cb.Cooldown.Duration()); err != nil {
		v.addError("circuitBreaker.cooldown", err.Error())
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
