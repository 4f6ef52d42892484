package circuitbreaker

import (
	"sync"
	"time"

	"github.com/vyrodovalexey/avagate/internal/observability"
)

// Registry holds one circuit per service name. Circuits are created on
// first use and never removed.
type Registry struct {
	circuits sync.Map
	config   Config
	now      func() time.Time
	logger   observability.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source. Tests use it to step through cooldowns.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a new circuit registry.
func NewRegistry(config *Config, opts ...Option) *Registry {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	cfg.Validate()

	r := &Registry{
		config: cfg,
		now:    time.Now,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the circuit for a service, or nil if none exists yet.
func (r *Registry) Get(name string) *Circuit {
	value, ok := r.circuits.Load(name)
	if !ok {
		return nil
	}
	return value.(*Circuit)
}

// GetOrCreate returns the circuit for a service, creating it closed.
func (r *Registry) GetOrCreate(name string) *Circuit {
	if value, ok := r.circuits.Load(name); ok {
		return value.(*Circuit)
	}

	c := newCircuit(name, r.config, r.now, r.logger)

	actual, loaded := r.circuits.LoadOrStore(name, c)
	if loaded {
		return actual.(*Circuit)
	}

	r.logger.Debug("created circuit",
		observability.String("service", name),
	)

	return c
}

// RecordFailure records a downstream failure for the service.
func (r *Registry) RecordFailure(service string) {
	r.GetOrCreate(service).RecordFailure()
}

// RecordSuccess records a downstream success for the service.
func (r *Registry) RecordSuccess(service string) {
	r.GetOrCreate(service).RecordSuccess()
}

// IsOpen reports whether requests to the service must be rejected.
func (r *Registry) IsOpen(service string) bool {
	return r.GetOrCreate(service).IsOpen()
}
