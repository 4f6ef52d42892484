package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts limiter decisions.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics creates limiter metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "ratelimit",
				Name:      "decisions_total",
				Help:      "Total number of rate limit decisions",
			},
			[]string{"decision"},
		),
	}
	if reg != nil {
		if err := reg.Register(m.decisions); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				m.decisions = are.ExistingCollector.(*prometheus.CounterVec)
			} else {
				panic(err)
			}
		}
	}
	return m
}

func (m *Metrics) record(d Decision) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(d.String()).Inc()
}
