package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "gateway.yaml")

	configContent := `
server:
  port: 8080
routes:
  - prefix: /api/inventory
    target: http://inventory:4001
  - prefix: /api/orders
    target: http://orders:4002
apiKeys:
  - key: secret-1
    name: partner
protectedPrefixes:
  - /api/orders
rateLimits:
  anonymous:
    limit: 5
    window: 30s
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o600))

	cfg, err := NewLoader().Load(configPath)

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	require.Len(t, cfg.Routes, 2)
	assert.Equal(t, "/api/inventory", cfg.Routes[0].Prefix, "declaration order is kept")
	assert.Equal(t, "/api/orders", cfg.Routes[1].Prefix)
	assert.Equal(t, []string{"/api/orders"}, cfg.ProtectedPrefixes)
	assert.Equal(t, int64(5), cfg.RateLimits.Anonymous.Limit)
	assert.Equal(t, 30*time.Second, cfg.RateLimits.Anonymous.Window.Duration())
	assert.Equal(t, int64(DefaultIdentifiedLimit), cfg.RateLimits.Identified.Limit)
}

func TestLoader_Load_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().Load("/nonexistent/path/gateway.yaml")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoader_LoadFromReader_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().LoadFromReader(strings.NewReader("routes: [unterminated"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoader_LoadFromReader_InvalidDuration(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().LoadFromReader(strings.NewReader("forwarder:\n  timeout: soon\n"))

	assert.Error(t, err)
}

func TestLoader_SubstituteEnvVars(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"REDIS_URL": "redis://cache:6379/2",
		"EMPTY":     "",
	}
	loader := NewLoader(WithLookupEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}))

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set variable", "url: ${REDIS_URL}", "url: redis://cache:6379/2"},
		{"default used", "prefix: ${REDIS_PREFIX:-gw:}", "prefix: gw:"},
		{"set but empty wins over default", "v: ${EMPTY:-x}", "v: "},
		{"unset without default", "v: ${MISSING}", "v: "},
		{"escaped dollar", "v: $${REDIS_URL}", "v: ${REDIS_URL}"},
		{"no variables", "plain: text", "plain: text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, loader.substituteEnvVars(tt.input))
		})
	}
}

func TestLoadConfigFromReader_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfigFromReader(strings.NewReader("routes: []\n"))

	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultAPIKeyHeader, cfg.Headers.APIKey)
	assert.Equal(t, DefaultCorrelationID, cfg.Headers.CorrelationID)
	assert.Equal(t, DefaultServiceNamespace, cfg.ServiceNamespace)
	assert.Equal(t, StoreMemory, cfg.RateLimitStore.Type)
	assert.Equal(t, DefaultStoreTimeout, cfg.RateLimitStore.Timeout.Duration())
	assert.Equal(t, DefaultFailureThreshold, cfg.CircuitBreaker.Threshold)
	assert.Equal(t, DefaultCooldown, cfg.CircuitBreaker.Cooldown.Duration())
	assert.Equal(t, DefaultForwardTimeout, cfg.Forwarder.Timeout.Duration())
	assert.Equal(t, int64(DefaultAnonymousLimit), cfg.RateLimits.Anonymous.Limit)
	assert.Equal(t, DefaultRateLimitWindow, cfg.RateLimits.Anonymous.Window.Duration())
	assert.Equal(t, DefaultRedisConnectRetries, cfg.RateLimitStore.Redis.ConnectRetries)
	assert.Equal(t, DefaultRedisInitialBackoff, cfg.RateLimitStore.Redis.InitialBackoff.Duration())
	assert.Equal(t, DefaultRedisMaxBackoff, cfg.RateLimitStore.Redis.MaxBackoff.Duration())
}

func TestResolveConfigPath(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	resolved, err := ResolveConfigPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	_, err = ResolveConfigPath(filepath.Join(tmpDir, "missing.yaml"))
	assert.Error(t, err)
}
