package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains client identification metrics.
type Metrics struct {
	identifyTotal *prometheus.CounterVec
}

// NewMetrics creates identification metrics in the given namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gateway"
	}
	return &Metrics{
		identifyTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "identify_total",
				Help:      "Total number of client identification attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// MustRegister registers the collectors, tolerating prior registration.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	if err := reg.Register(m.identifyTotal); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}

func (m *Metrics) record(outcome string) {
	if m == nil {
		return
	}
	m.identifyTotal.WithLabelValues(outcome).Inc()
}
