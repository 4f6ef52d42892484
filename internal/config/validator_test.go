package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avagate/internal/util"
)

func validConfig() *GatewayConfig {
	cfg := DefaultConfig()
	cfg.Routes = []RouteConfig{
		{Prefix: "/api/inventory", Target: "http://inventory:4001"},
	}
	cfg.APIKeys = []APIKeyConfig{{Key: "k1", Name: "partner"}}
	return cfg
}

func TestValidateConfig_Valid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateConfig(validConfig()))
}

func TestValidateConfig_Nil(t *testing.T) {
	t.Parallel()

	err := ValidateConfig(nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration is nil")
}

func TestValidateConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*GatewayConfig)
		wantPath string
	}{
		{
			name:     "route without leading slash",
			mutate:   func(c *GatewayConfig) { c.Routes[0].Prefix = "api/x" },
			wantPath: "routes[0].prefix",
		},
		{
			name: "duplicate route prefix",
			mutate: func(c *GatewayConfig) {
				c.Routes = append(c.Routes, RouteConfig{Prefix: "/api/inventory", Target: "http://b:1"})
			},
			wantPath: "routes[1].prefix",
		},
		{
			name:     "relative target",
			mutate:   func(c *GatewayConfig) { c.Routes[0].Target = "inventory" },
			wantPath: "routes[0].target",
		},
		{
			name:     "empty api key",
			mutate:   func(c *GatewayConfig) { c.APIKeys[0].Key = "" },
			wantPath: "apiKeys[0].key",
		},
		{
			name:     "api key without name",
			mutate:   func(c *GatewayConfig) { c.APIKeys[0].Name = "" },
			wantPath: "apiKeys[0].name",
		},
		{
			name:     "non-positive limit",
			mutate:   func(c *GatewayConfig) { c.RateLimits.Anonymous.Limit = -1 },
			wantPath: "rateLimits.anonymous.limit",
		},
		{
			name:     "unknown store",
			mutate:   func(c *GatewayConfig) { c.RateLimitStore.Type = "etcd" },
			wantPath: "rateLimitStore.type",
		},
		{
			name:     "redis without address",
			mutate:   func(c *GatewayConfig) { c.RateLimitStore.Type = StoreRedis },
			wantPath: "rateLimitStore.redis",
		},
		{
			name:     "bad trusted proxy",
			mutate:   func(c *GatewayConfig) { c.TrustedProxies = []string{"not-an-ip"} },
			wantPath: "trustedProxies[0]",
		},
		{
			name:     "bad threshold",
			mutate:   func(c *GatewayConfig) { c.CircuitBreaker.Threshold = -2 },
			wantPath: "circuitBreaker.threshold",
		},
		{
			name:     "bad header name",
			mutate:   func(c *GatewayConfig) { c.Headers.APIKey = "X API" },
			wantPath: "headers.apiKey",
		},
		{
			name: "metrics port collides",
			mutate: func(c *GatewayConfig) {
				c.Metrics.Enabled = true
				c.Metrics.Port = c.Server.Port
			},
			wantPath: "metrics.port",
		},
		{
			name:     "sampling rate out of range",
			mutate:   func(c *GatewayConfig) { c.Tracing.SamplingRate = 2 },
			wantPath: "tracing.samplingRate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, util.ErrConfigInvalid))

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			paths := make([]string, 0, len(verrs))
			for _, e := range verrs {
				paths = append(paths, e.Path)
			}
			assert.Contains(t, paths, tt.wantPath)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
	assert.Equal(t, "a: bad", ValidationErrors{{Path: "a", Message: "bad"}}.Error())
	multi := ValidationErrors{{Path: "a", Message: "x"}, {Message: "y"}}.Error()
	assert.Contains(t, multi, "2 validation errors")
	assert.Contains(t, multi, "2. y")
}
