package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vyrodovalexey/avagate/internal/config"
	"github.com/vyrodovalexey/avagate/internal/gateway"
	"github.com/vyrodovalexey/avagate/internal/observability"
)

// metricsHandler serves the Prometheus exposition format.
func metricsHandler(path string, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// newMetricsServer creates the metrics HTTP server.
func newMetricsServer(
	cfg config.MetricsConfig,
	gatherer prometheus.Gatherer,
	logger observability.Logger,
) *gateway.Server {
	path := cfg.Path
	if path == "" {
		path = config.DefaultMetricsPath
	}

	logger.Info("metrics endpoint configured",
		observability.Int("port", cfg.Port),
		observability.String("metrics_path", path),
	)

	return gateway.NewServer("metrics", fmt.Sprintf(":%d", cfg.Port), metricsHandler(path, gatherer),
		gateway.WithServerLogger(logger),
	)
}
