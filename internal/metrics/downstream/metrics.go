// Package downstream provides Prometheus metrics for calls the gateway
// makes to downstream services.
package downstream

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "gateway"
	subsystem = "downstream"
)

// Error types recorded by RecordError.
const (
	ErrorTypeTimeout = "timeout"
	ErrorTypeNetwork = "network"
	ErrorTypeCircuit = "circuit_open"
)

// Metrics holds downstream call metrics.
type Metrics struct {
	RequestsTotal           *prometheus.CounterVec
	ResponseDurationSeconds *prometheus.HistogramVec
	ErrorsTotal             *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// NewMetrics creates unregistered downstream metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total number of requests sent to downstream services",
			},
			[]string{"service", "method", "status_code"},
		),
		ResponseDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "response_duration_seconds",
				Help:      "Duration of downstream responses in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "method", "status_code"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "errors_total",
				Help:      "Total number of downstream calls that produced no response, by type",
			},
			[]string{"service", "error_type"},
		),
	}
}

// GetMetrics returns the singleton instance, registered with the
// default Prometheus registerer.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = NewMetrics()
		metricsInstance.MustRegister(prometheus.DefaultRegisterer)
	})
	return metricsInstance
}

// MustRegister registers all collectors with the given registerer.
// AlreadyRegisteredError is silently ignored.
func (m *Metrics) MustRegister(registerer prometheus.Registerer) {
	for _, c := range m.collectors() {
		if err := registerer.Register(c); err != nil {
			if !isAlreadyRegistered(err) {
				panic(err)
			}
		}
	}
}

// RecordRequest records a downstream call that produced a response.
func (m *Metrics) RecordRequest(service, method string, statusCode int, duration time.Duration) {
	sc := strconv.Itoa(statusCode)
	m.RequestsTotal.WithLabelValues(service, method, sc).Inc()
	m.ResponseDurationSeconds.WithLabelValues(service, method, sc).Observe(duration.Seconds())
}

// RecordError records a downstream call that produced no response.
func (m *Metrics) RecordError(service, errorType string) {
	m.ErrorsTotal.WithLabelValues(service, errorType).Inc()
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequestsTotal,
		m.ResponseDurationSeconds,
		m.ErrorsTotal,
	}
}

// isAlreadyRegistered returns true if the error indicates the
// collector was already registered with the registry.
func isAlreadyRegistered(err error) bool {
	var are prometheus.AlreadyRegisteredError
	return errors.As(err, &are)
}
