// Package circuitbreaker provides per-service circuit breakers for the
// gateway. A circuit opens after a number of consecutive downstream
// failures and closes unconditionally once a cooldown has elapsed since
// the last failure. There is no half-open state.
package circuitbreaker

import (
	"time"
)

// Default values.
const (
	DefaultThreshold = 3
	DefaultCooldown  = 30 * time.Second
)

// Config holds configuration for a circuit.
type Config struct {
	// Threshold is the number of failures that opens the circuit.
	Threshold int

	// Cooldown is how long after the last failure an open circuit closes.
	// The circuit closes only once strictly more than Cooldown has elapsed.
	Cooldown time.Duration

	// OnStateChange is called after the circuit changes state, outside its lock.
	OnStateChange func(name string, from, to State)
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Threshold: DefaultThreshold,
		Cooldown:  DefaultCooldown,
	}
}

// Validate replaces out-of-range values with defaults.
func (c *Config) Validate() {
	if c.Threshold < 1 {
		c.Threshold = DefaultThreshold
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
}

// WithThreshold sets the failure threshold.
func (c *Config) WithThreshold(n int) *Config {
	c.Threshold = n
	return c
}

// WithCooldown sets the cooldown duration.
func (c *Config) WithCooldown(d time.Duration) *Config {
	c.Cooldown = d
	return c
}

// WithOnStateChange sets the state change callback.
func (c *Config) WithOnStateChange(fn func(name string, from, to State)) *Config {
	c.OnStateChange = fn
	return c
}
