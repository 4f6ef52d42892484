package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/avagate/internal/observability"
)

// runGateway starts the servers and blocks until a shutdown signal.
func runGateway(app *application, logger observability.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.start(ctx); err != nil {
		shutdown(app, logger)
		fatalWithSync(logger, "failed to start gateway", observability.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("received shutdown signal")

	shutdown(app, logger)
}

// start binds the gateway listener and, when enabled, the metrics listener.
func (app *application) start(ctx context.Context) error {
	if err := app.server.Start(ctx); err != nil {
		return err
	}
	if app.metricsServer != nil {
		if err := app.metricsServer.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// shutdown stops the servers first, then releases the store and tracer.
func shutdown(app *application, logger observability.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout.Duration())
	defer cancel()

	if app.metricsServer != nil {
		if err := app.metricsServer.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop metrics server gracefully", observability.Error(err))
		}
	}

	if err := app.server.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop gateway gracefully", observability.Error(err))
	}

	if err := app.gateway.Close(); err != nil {
		logger.Error("failed to close gateway", observability.Error(err))
	}

	if err := app.tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	logger.Info("gateway stopped")
}
