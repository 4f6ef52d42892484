package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Name identifies a request counter.
type Name string

// Counter names. They are also the JSON keys of a Snapshot.
const (
	TotalRequests          Name = "total_requests"
	RateLimitedRequests    Name = "rate_limited_requests"
	CircuitBlockedRequests Name = "circuit_blocked_requests"
	DownstreamFailures     Name = "downstream_failures"
	SuccessfulRequests     Name = "successful_requests"
)

// Names lists every counter in snapshot order.
var Names = []Name{
	TotalRequests,
	RateLimitedRequests,
	CircuitBlockedRequests,
	DownstreamFailures,
	SuccessfulRequests,
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	TotalRequests          int64 `json:"total_requests"`
	RateLimitedRequests    int64 `json:"rate_limited_requests"`
	CircuitBlockedRequests int64 `json:"circuit_blocked_requests"`
	DownstreamFailures     int64 `json:"downstream_failures"`
	SuccessfulRequests     int64 `json:"successful_requests"`
}

// Get returns the value of the named counter, or 0 for unknown names.
func (s Snapshot) Get(name Name) int64 {
	switch name {
	case TotalRequests:
		return s.TotalRequests
	case RateLimitedRequests:
		return s.RateLimitedRequests
	case CircuitBlockedRequests:
		return s.CircuitBlockedRequests
	case DownstreamFailures:
		return s.DownstreamFailures
	case SuccessfulRequests:
		return s.SuccessfulRequests
	default:
		return 0
	}
}

// Store is a fixed set of atomic counters. The zero value is not usable;
// create one with NewStore.
type Store struct {
	counters map[Name]*atomic.Int64
	descs    map[Name]*prometheus.Desc
}

// NewStore creates a Store with every counter at zero.
func NewStore() *Store {
	s := &Store{
		counters: make(map[Name]*atomic.Int64, len(Names)),
		descs:    make(map[Name]*prometheus.Desc, len(Names)),
	}
	for _, name := range Names {
		s.counters[name] = new(atomic.Int64)
		s.descs[name] = prometheus.NewDesc(
			prometheus.BuildFQName("gateway", "", string(name)),
			"Gateway counter "+string(name),
			nil, nil,
		)
	}
	return s
}

// Inc increments the named counter. Unknown names are ignored.
func (s *Store) Inc(name Name) {
	if c, ok := s.counters[name]; ok {
		c.Add(1)
	}
}

// Get returns the current value of the named counter.
func (s *Store) Get(name Name) int64 {
	if c, ok := s.counters[name]; ok {
		return c.Load()
	}
	return 0
}

// Snapshot copies the counters. Each counter is read atomically; the
// set as a whole is not read under a single lock.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		TotalRequests:          s.Get(TotalRequests),
		RateLimitedRequests:    s.Get(RateLimitedRequests),
		CircuitBlockedRequests: s.Get(CircuitBlockedRequests),
		DownstreamFailures:     s.Get(DownstreamFailures),
		SuccessfulRequests:     s.Get(SuccessfulRequests),
	}
}

// Reset sets every counter to zero.
func (s *Store) Reset() {
	for _, c := range s.counters {
		c.Store(0)
	}
}

// Describe implements prometheus.Collector.
func (s *Store) Describe(ch chan<- *prometheus.Desc) {
	for _, name := range Names {
		ch <- s.descs[name]
	}
}

// Collect implements prometheus.Collector.
func (s *Store) Collect(ch chan<- prometheus.Metric) {
	for _, name := range Names {
		ch <- prometheus.MustNewConstMetric(
			s.descs[name], prometheus.CounterValue, float64(s.Get(name)),
		)
	}
}

// Compile-time interface assertion.
var _ prometheus.Collector = (*Store)(nil)
