package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vyrodovalexey/avagate/internal/auth"
	"github.com/vyrodovalexey/avagate/internal/config"
)

func TestClientKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		client auth.Client
		ip     string
		want   string
	}{
		{name: "anonymous by ip", client: auth.Anonymous(), ip: "10.0.0.1", want: "anonymous:10.0.0.1"},
		{name: "identified by key", client: auth.Identified("abc", "partner"), ip: "10.0.0.1", want: "identified:abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClientKey(tt.client, tt.ip))
		})
	}
}

func TestPolicy_LimitFor(t *testing.T) {
	t.Parallel()

	p := NewPolicy(config.DefaultConfig().RateLimits)

	assert.Equal(t, Limit{Requests: 10, Window: time.Minute}, p.LimitFor(auth.Anonymous()))
	assert.Equal(t, Limit{Requests: 100, Window: time.Minute}, p.LimitFor(auth.Identified("k", "n")))
}

func TestLogKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "anonymous:10.0.0.1", logKey("anonymous:10.0.0.1"))
	assert.Equal(t, "identified:2bb80d537b1d", logKey("identified:secret"))
	assert.NotContains(t, logKey("identified:secret"), "secret")
}
