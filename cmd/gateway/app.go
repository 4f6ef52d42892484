package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/avagate/internal/config"
	"github.com/vyrodovalexey/avagate/internal/gateway"
	"github.com/vyrodovalexey/avagate/internal/observability"
)

// application holds all application components.
type application struct {
	config        *config.GatewayConfig
	gateway       *gateway.Gateway
	server        *gateway.Server
	metricsServer *gateway.Server
	tracer        *observability.Tracer
}

// initApplication wires all components. It blocks while the rate limit
// store connects.
func initApplication(
	ctx context.Context,
	cfg *config.GatewayConfig,
	logger observability.Logger,
) (*application, error) {
	return newApplication(ctx, cfg, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func newApplication(
	ctx context.Context,
	cfg *config.GatewayConfig,
	logger observability.Logger,
	reg prometheus.Registerer,
	gatherer prometheus.Gatherer,
) (*application, error) {
	tracer, err := initTracer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	opts := []gateway.BuildOption{
		gateway.WithBuildLogger(logger),
		gateway.WithRegisterer(reg),
	}
	if tracer.Enabled() {
		opts = append(opts, gateway.WithBuildTracer(tracer))
	}

	gw, err := gateway.New(ctx, cfg, opts...)
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, err
	}

	app := &application{
		config:  cfg,
		gateway: gw,
		tracer:  tracer,
		server: gateway.NewServer("gateway", fmt.Sprintf(":%d", cfg.Server.Port), gw.Handler,
			gateway.WithServerLogger(logger),
			gateway.WithServerTimeouts(cfg.Server),
		),
	}

	if cfg.Metrics.Enabled {
		app.metricsServer = newMetricsServer(cfg.Metrics, gatherer, logger)
	}

	return app, nil
}

// initTracer initializes the tracer.
func initTracer(cfg *config.GatewayConfig) (*observability.Tracer, error) {
	return observability.NewTracer(observability.TracerConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Enabled:      cfg.Tracing.Enabled,
	})
}
