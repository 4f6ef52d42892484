package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vyrodovalexey/avagate/internal/auth/apikey"
	"github.com/vyrodovalexey/avagate/internal/config"
	"github.com/vyrodovalexey/avagate/internal/observability"
	"github.com/vyrodovalexey/avagate/internal/util"
)

// Identifier resolves the client behind a request.
type Identifier struct {
	extractor apikey.Extractor
	store     apikey.Store
	logger    observability.Logger
	metrics   *Metrics
}

// IdentifierOption is a functional option for configuring the identifier.
type IdentifierOption func(*Identifier)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) IdentifierOption {
	return func(i *Identifier) {
		i.logger = logger
	}
}

// WithExtractor overrides the API key extractor.
func WithExtractor(e apikey.Extractor) IdentifierOption {
	return func(i *Identifier) {
		i.extractor = e
	}
}

// WithMetrics sets the identification metrics.
func WithMetrics(m *Metrics) IdentifierOption {
	return func(i *Identifier) {
		i.metrics = m
	}
}

// NewIdentifier creates an identifier backed by the given key store.
func NewIdentifier(store apikey.Store, opts ...IdentifierOption) *Identifier {
	i := &Identifier{
		extractor: apikey.NewHeaderExtractor(apikey.DefaultHeader),
		store:     store,
		logger:    observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// NewKeyStore builds an API key store from configuration.
func NewKeyStore(keys []config.APIKeyConfig) (*apikey.MemoryStore, error) {
	store := apikey.NewMemoryStore()
	for idx, k := range keys {
		name := k.Name
		if name == "" {
			name = fmt.Sprintf("client-%d", idx+1)
		}
		if err := store.Add(k.Key, name); err != nil {
			return nil, fmt.Errorf("api key %q: %w", name, err)
		}
	}
	return store, nil
}

// Identify returns the client behind r. An absent key yields the
// anonymous client; an unknown key yields util.ErrInvalidCredential.
func (i *Identifier) Identify(r *http.Request) (Client, error) {
	key, err := i.extractor.Extract(r)
	if errors.Is(err, apikey.ErrMissingAPIKeyHeader) {
		i.metrics.record("anonymous")
		return Anonymous(), nil
	}
	if err != nil {
		i.metrics.record("error")
		return Anonymous(), util.ErrInvalidCredential.WithCause(err)
	}

	found, err := i.store.Lookup(r.Context(), key)
	if err != nil {
		i.metrics.record("invalid")
		i.logger.WithContext(r.Context()).Debug("unknown API key presented",
			observability.String("path", r.URL.Path),
		)
		return Anonymous(), util.ErrInvalidCredential.WithCause(err)
	}

	i.metrics.record("identified")
	return Identified(key, found.Name), nil
}
