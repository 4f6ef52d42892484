// Package metrics provides the gateway's request counters.
//
// Store holds five monotonic counters that describe how requests left
// the gateway. They are served as JSON on the operational metrics path
// and exported to Prometheus by registering the Store as a collector:
//
//	m := metrics.NewStore()
//	prometheus.MustRegister(m)
//	m.Inc(metrics.TotalRequests)
//
// Sub-package downstream carries per-service latency and status
// histograms for calls made by the forwarder.
package metrics
