package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/vyrodovalexey/avagate/internal/observability"
	"github.com/vyrodovalexey/avagate/internal/util"
)

// LoggingOption configures the logging middleware.
type LoggingOption func(*loggingConfig)

type loggingConfig struct {
	correlationHeader string
	clientIP          func(*http.Request) string
}

// WithCorrelationHeader sets the response header the correlation id is read from.
func WithCorrelationHeader(name string) LoggingOption {
	return func(c *loggingConfig) {
		if name != "" {
			c.correlationHeader = name
		}
	}
}

// WithClientIP sets the extractor used for the client_ip field.
func WithClientIP(e *ClientIPExtractor) LoggingOption {
	return func(c *loggingConfig) {
		if e != nil {
			c.clientIP = e.Extract
		}
	}
}

// Logging returns a middleware that logs HTTP requests.
func Logging(logger observability.Logger, opts ...LoggingOption) func(http.Handler) http.Handler {
	cfg := &loggingConfig{
		correlationHeader: HeaderXCorrelationID,
		clientIP:          NewClientIPExtractor(nil).Extract,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := util.NewStatusCapturingResponseWriter(w)

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			status := rw.StatusCode
			GetMiddlewareMetrics().requestDuration.
				WithLabelValues(r.Method, strconv.Itoa(status)).
				Observe(duration.Seconds())

			fields := []observability.Field{
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("query", r.URL.RawQuery),
				observability.Int("status", status),
				observability.Int("size", rw.BytesWritten),
				observability.Duration("duration", duration),
				observability.String("client_ip", cfg.clientIP(r)),
				observability.String("user_agent", r.UserAgent()),
				observability.String("correlation_id", rw.Header().Get(cfg.correlationHeader)),
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
		})
	}
}
