package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avagate/internal/auth/apikey"
	"github.com/vyrodovalexey/avagate/internal/config"
	"github.com/vyrodovalexey/avagate/internal/util"
)

// ============================================================
// Client
// ============================================================

func TestClientType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "anonymous", ClientAnonymous.String())
	assert.Equal(t, "identified", ClientIdentified.String())
}

func newTestIdentifier(t *testing.T, opts ...IdentifierOption) *Identifier {
	t.Helper()

	store, err := NewKeyStore([]config.APIKeyConfig{
		{Key: "partner-key", Name: "partner"},
		{Key: "unnamed-key"},
	})
	require.NoError(t, err)
	return NewIdentifier(store, opts...)
}

func TestIdentifier_Identify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		wantType ClientType
		wantName string
		wantErr  error
	}{
		{name: "absent key is anonymous", wantType: ClientAnonymous},
		{name: "known key", key: "partner-key", wantType: ClientIdentified, wantName: "partner"},
		{name: "known key without name", key: "unnamed-key", wantType: ClientIdentified, wantName: "client-2"},
		{name: "unknown key", key: "bogus", wantType: ClientAnonymous, wantErr: util.ErrInvalidCredential},
		{name: "blank key is anonymous", key: "   ", wantType: ClientAnonymous},
		{name: "padded known key", key: " partner-key ", wantType: ClientIdentified, wantName: "partner"},
	}

	id := newTestIdentifier(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tt.key != "" {
				r.Header.Set(apikey.DefaultHeader, tt.key)
			}

			client, err := id.Identify(r)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, http.StatusUnauthorized, util.AsGatewayError(err).Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, client.Type)
			assert.Equal(t, tt.wantName, client.Name)
			if tt.key != "" {
				assert.Equal(t, tt.key, client.Key)
			}
		})
	}
}

func TestIdentifier_CustomHeader(t *testing.T) {
	t.Parallel()

	id := newTestIdentifier(t, WithExtractor(apikey.NewHeaderExtractor("X-Token")))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Token", "partner-key")
	r.Header.Set(apikey.DefaultHeader, "bogus")

	client, err := id.Identify(r)

	require.NoError(t, err)
	assert.True(t, client.IsIdentified())
}

func TestIdentifier_Metrics(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	reg := prometheus.NewRegistry()
	m.MustRegister(reg)
	m.MustRegister(reg)

	id := newTestIdentifier(t, WithMetrics(m))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, _ = id.Identify(r)
	r.Header.Set(apikey.DefaultHeader, "bogus")
	_, _ = id.Identify(r)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.identifyTotal.WithLabelValues("anonymous")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.identifyTotal.WithLabelValues("invalid")))
}

func TestNewKeyStore_Duplicate(t *testing.T) {
	t.Parallel()

	_, err := NewKeyStore([]config.APIKeyConfig{
		{Key: "same", Name: "a"},
		{Key: "same", Name: "b"},
	})

	assert.ErrorIs(t, err, apikey.ErrKeyDuplicate)
}

// ============================================================
// Policy
// ============================================================

func TestPolicy_Authorize(t *testing.T) {
	t.Parallel()

	p := NewPolicy([]string{"/api/admin", ""})

	tests := []struct {
		name    string
		client  Client
		path    string
		wantErr bool
	}{
		{name: "anonymous on open path", client: Anonymous(), path: "/api/orders"},
		{name: "anonymous on protected path", client: Anonymous(), path: "/api/admin/users", wantErr: true},
		{name: "identified on protected path", client: Identified("k", "n"), path: "/api/admin/users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := p.Authorize(tt.client, tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, util.ErrCredentialRequired)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicy_Empty(t *testing.T) {
	t.Parallel()

	p := NewPolicy(nil)

	assert.False(t, p.IsProtected("/anything"))
	assert.NoError(t, p.Authorize(Anonymous(), "/anything"))
}
