package apikey

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderExtractor_Extract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		value   string
		want    string
		wantErr error
	}{
		{name: "present", header: "X-API-Key", value: "abc", want: "abc"},
		{name: "trimmed", header: "X-API-Key", value: "  abc ", want: "abc"},
		{name: "absent", header: "X-API-Key", wantErr: ErrMissingAPIKeyHeader},
		{name: "whitespace only", header: "X-API-Key", value: "   ", wantErr: ErrMissingAPIKeyHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/", nil)
			if tt.value != "" {
				r.Header.Set(tt.header, tt.value)
			}

			got, err := NewHeaderExtractor("").Extract(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderExtractor_CustomHeader(t *testing.T) {
	t.Parallel()

	e := NewHeaderExtractor("X-Client-Token")
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Client-Token", "tok")

	got, err := e.Extract(r)

	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.Equal(t, "X-Client-Token", e.Header())
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	require.NoError(t, s.Add("k1", "partner"))
	assert.ErrorIs(t, s.Add("k1", "other"), ErrKeyDuplicate)
	assert.Equal(t, 1, s.Count())

	key, err := s.Lookup(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, "partner", key.Name)
	assert.Equal(t, HashKey("k1"), key.KeyHash)
	assert.NotContains(t, key.KeyHash, "k1")

	_, err = s.Lookup(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestHashKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b",
		HashKey("secret"))
}
