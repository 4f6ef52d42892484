package circuitbreaker

import (
	"sync"
	"time"

	"github.com/vyrodovalexey/avagate/internal/observability"
)

// State represents the state of a circuit.
type State int

const (
	// StateClosed indicates requests are forwarded.
	StateClosed State = iota

	// StateOpen indicates requests are rejected without a downstream call.
	StateOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time view of a circuit.
type Stats struct {
	Name         string    `json:"name"`
	State        string    `json:"state"`
	FailureCount int       `json:"failureCount"`
	LastFailure  time.Time `json:"lastFailure"`
}

// Circuit tracks the health of one downstream service.
type Circuit struct {
	name   string
	config Config
	now    func() time.Time
	logger observability.Logger

	mu           sync.Mutex
	state        State
	failureCount int
	lastFailure  time.Time
}

func newCircuit(name string, config Config, now func() time.Time, logger observability.Logger) *Circuit {
	RecordState(name, StateClosed)
	return &Circuit{
		name:   name,
		config: config,
		now:    now,
		logger: logger,
		state:  StateClosed,
	}
}

// Name returns the service name of the circuit.
func (c *Circuit) Name() string {
	return c.name
}

// RecordFailure counts a failure and opens the circuit at the threshold.
func (c *Circuit) RecordFailure() {
	c.mu.Lock()
	c.failureCount++
	c.lastFailure = c.now()
	from := c.state
	if c.failureCount >= c.config.Threshold {
		c.state = StateOpen
	}
	to, count := c.state, c.failureCount
	c.mu.Unlock()

	RecordFailure(c.name)
	if from != to {
		c.logger.Warn("circuit opened",
			observability.String("service", c.name),
			observability.Int("failures", count),
		)
		c.stateChanged(from, to)
	}
}

// RecordSuccess closes the circuit and clears all failures.
func (c *Circuit) RecordSuccess() {
	c.mu.Lock()
	from := c.state
	c.reset()
	c.mu.Unlock()

	RecordSuccess(c.name)
	if from != StateClosed {
		c.logger.Info("circuit closed after success",
			observability.String("service", c.name),
		)
		c.stateChanged(from, StateClosed)
	}
}

// IsOpen reports whether requests must be rejected. An open circuit whose
// last failure is more than the cooldown ago is closed and reported as
// closed.
func (c *Circuit) IsOpen() bool {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return false
	}
	if c.now().Sub(c.lastFailure) > c.config.Cooldown {
		c.reset()
		c.mu.Unlock()

		c.logger.Info("circuit closed after cooldown",
			observability.String("service", c.name),
		)
		c.stateChanged(StateOpen, StateClosed)
		return false
	}
	c.mu.Unlock()

	RecordRejected(c.name)
	return true
}

// State returns the stored state without applying the cooldown.
func (c *Circuit) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns a snapshot of the circuit.
func (c *Circuit) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Name:         c.name,
		State:        c.state.String(),
		FailureCount: c.failureCount,
		LastFailure:  c.lastFailure,
	}
}

// reset must be called with mu held.
func (c *Circuit) reset() {
	c.state = StateClosed
	c.failureCount = 0
	c.lastFailure = time.Time{}
}

func (c *Circuit) stateChanged(from, to State) {
	RecordStateChange(c.name, from, to)
	if c.config.OnStateChange != nil {
		c.config.OnStateChange(c.name, from, to)
	}
}
