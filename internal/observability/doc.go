// Package observability provides logging and tracing functionality
// for the API Gateway.
//
// # Logging
//
// The Logger interface provides structured logging backed by zap:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("request processed",
//	    observability.String("method", "GET"),
//	    observability.Int("status", 200),
//	)
//
// Request-scoped loggers pick up the correlation ID stored with
// ContextWithCorrelationID through Logger.WithContext.
//
// # Tracing
//
// OpenTelemetry tracing with OTLP gRPC export:
//
//	tracer, err := observability.NewTracer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(ctx)
//
// W3C trace context is extracted from inbound requests by
// TracingMiddleware and injected into downstream calls with
// InjectTraceContext.
package observability
