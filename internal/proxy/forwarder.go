package proxy

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avagate/internal/config"
	"github.com/vyrodovalexey/avagate/internal/metrics"
	"github.com/vyrodovalexey/avagate/internal/metrics/downstream"
	"github.com/vyrodovalexey/avagate/internal/observability"
	"github.com/vyrodovalexey/avagate/internal/router"
	"github.com/vyrodovalexey/avagate/internal/util"
)

// DefaultTimeout is the downstream call timeout.
const DefaultTimeout = 3 * time.Second

// hopHeaders are headers that should not be forwarded.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Circuits is the circuit state the forwarder consults and updates.
type Circuits interface {
	IsOpen(service string) bool
	RecordFailure(service string)
	RecordSuccess(service string)
}

// Counters receives request outcome counts.
type Counters interface {
	Inc(name metrics.Name)
}

// Response is a response ready to be written to the client.
type Response struct {
	Status int
	Header http.Header
	Body   []byte

	// Err is set when the response was synthesized because of a failure.
	Err error
}

// Write writes the response to w.
func (r *Response) Write(w http.ResponseWriter) {
	for k, vv := range r.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(r.Status)
	if len(r.Body) > 0 {
		_, _ = w.Write(r.Body)
	}
}

// Forwarder relays requests to downstream services.
type Forwarder struct {
	circuits          Circuits
	counters          Counters
	client            *http.Client
	timeout           time.Duration
	correlationHeader string
	logger            observability.Logger
	tracer            *observability.Tracer
	metrics           *downstream.Metrics
}

// Option is a functional option for configuring the forwarder.
type Option func(*Forwarder)

// WithTimeout sets the downstream call timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Forwarder) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithHTTPClient sets the HTTP client used for downstream calls.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Forwarder) {
		f.client = c
	}
}

// WithCorrelationHeader sets the header carrying the correlation id downstream.
func WithCorrelationHeader(name string) Option {
	return func(f *Forwarder) {
		if name != "" {
			f.correlationHeader = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(f *Forwarder) {
		f.logger = logger
	}
}

// WithTracer enables client spans for downstream calls.
func WithTracer(t *observability.Tracer) Option {
	return func(f *Forwarder) {
		f.tracer = t
	}
}

// WithMetrics sets the downstream call metrics.
func WithMetrics(m *downstream.Metrics) Option {
	return func(f *Forwarder) {
		f.metrics = m
	}
}

// NewForwarder creates a forwarder.
func NewForwarder(circuits Circuits, counters Counters, opts ...Option) *Forwarder {
	f := &Forwarder{
		circuits:          circuits,
		counters:          counters,
		timeout:           DefaultTimeout,
		correlationHeader: config.DefaultCorrelationID,
		logger:            observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = newHTTPClient()
	}
	return f
}

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 32
	return &http.Client{
		Transport: transport,
		// Redirects are relayed to the client, not followed.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Forward sends r to the route's target and returns the response to relay.
func (f *Forwarder) Forward(
	ctx context.Context,
	route router.ResolvedRoute,
	r *http.Request,
	correlationID string,
) *Response {
	service := route.Service
	if service == "" {
		service = router.ServiceName(route.Prefix, config.DefaultServiceNamespace)
	}
	logger := f.logger.WithContext(ctx).With(observability.String("service", service))

	if f.circuits.IsOpen(service) {
		f.counters.Inc(metrics.CircuitBlockedRequests)
		f.recordError(service, downstream.ErrorTypeCircuit)
		logger.Warn("circuit open, request blocked")
		return errorResponse(util.ErrCircuitOpen)
	}

	target, err := downstreamURL(route, r.URL)
	if err != nil {
		return f.fail(logger, service, &ForwardError{Op: OpBuildRequest, Service: service, Target: route.Target, Cause: err})
	}

	// The caller going away must not count against the service, so only
	// the forwarder timeout bounds the call.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	if f.tracer != nil {
		var span trace.Span
		ctx, span = f.tracer.StartSpan(ctx, "forward "+service,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.full", target),
				attribute.String("gateway.service", service),
			),
		)
		defer span.End()
		resp := f.do(ctx, logger, service, target, r, correlationID)
		span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
		if resp.Err != nil {
			span.RecordError(resp.Err)
		}
		if resp.Status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(resp.Status))
		}
		return resp
	}

	return f.do(ctx, logger, service, target, r, correlationID)
}

func (f *Forwarder) do(
	ctx context.Context,
	logger observability.Logger,
	service, target string,
	r *http.Request,
	correlationID string,
) *Response {
	body := r.Body
	if body == nil {
		body = http.NoBody
	}
	outReq, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return f.fail(logger, service, &ForwardError{Op: OpBuildRequest, Service: service, Target: target, Cause: err})
	}
	outReq.ContentLength = r.ContentLength
	outReq.Header = outboundHeader(r, f.correlationHeader, correlationID)
	if f.tracer != nil {
		observability.InjectTraceContext(ctx, outReq.Header)
	}

	start := time.Now()
	resp, err := f.client.Do(outReq)
	if err != nil {
		return f.fail(logger, service, &ForwardError{Op: OpRoundTrip, Service: service, Target: target, Cause: err})
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return f.fail(logger, service, &ForwardError{Op: OpReadBody, Service: service, Target: target, Cause: err})
	}
	duration := time.Since(start)

	if f.metrics != nil {
		f.metrics.RecordRequest(service, r.Method, resp.StatusCode, duration)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		f.counters.Inc(metrics.DownstreamFailures)
		f.circuits.RecordFailure(service)
		logger.Warn("downstream returned server error",
			observability.Int("status", resp.StatusCode),
			observability.Duration("duration", duration),
		)
	} else {
		f.counters.Inc(metrics.SuccessfulRequests)
		f.circuits.RecordSuccess(service)
	}

	header := resp.Header.Clone()
	removeHopHeaders(header)
	// Body was buffered, so the downstream framing no longer applies.
	header.Del("Content-Length")

	return &Response{Status: resp.StatusCode, Header: header, Body: respBody}
}

func (f *Forwarder) fail(logger observability.Logger, service string, err *ForwardError) *Response {
	f.counters.Inc(metrics.DownstreamFailures)
	f.circuits.RecordFailure(service)

	errType := downstream.ErrorTypeNetwork
	if err.IsTimeout() {
		errType = downstream.ErrorTypeTimeout
	}
	f.recordError(service, errType)

	logger.Error("downstream call failed",
		observability.String("op", err.Op),
		observability.String("error_type", errType),
		observability.Error(err.Cause),
	)

	resp := errorResponse(util.ErrBadGateway)
	resp.Err = err
	return resp
}

func (f *Forwarder) recordError(service, errType string) {
	if f.metrics != nil {
		f.metrics.RecordError(service, errType)
	}
}

func errorResponse(gwErr *util.GatewayError) *Response {
	header := make(http.Header)
	header.Set(util.HeaderContentType, util.ContentTypeJSON)
	return &Response{Status: gwErr.Status, Header: header, Body: util.ErrorJSON(gwErr), Err: gwErr}
}

// downstreamURL joins the route target with the request path minus the
// matched prefix and keeps the original query. Escaped segments such as
// %2F pass through unchanged.
func downstreamURL(route router.ResolvedRoute, in *url.URL) (string, error) {
	target, err := url.Parse(route.Target)
	if err != nil {
		return "", err
	}
	escaped := in.EscapedPath()
	if !strings.HasPrefix(escaped, route.Prefix) {
		// prefix itself arrived percent-encoded
		escaped = (&url.URL{Path: in.Path}).EscapedPath()
	}
	rawPath := target.EscapedPath() + strings.TrimPrefix(escaped, route.Prefix)
	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", err
	}
	target.Path = path
	target.RawPath = rawPath
	target.RawQuery = in.RawQuery
	return target.String(), nil
}

func outboundHeader(r *http.Request, correlationHeader, correlationID string) http.Header {
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	removeHopHeaders(header)

	if clientIP, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if prior := header.Get("X-Forwarded-For"); prior != "" {
			clientIP = prior + ", " + clientIP
		}
		header.Set("X-Forwarded-For", clientIP)
	}
	header.Set("X-Forwarded-Host", r.Host)
	header.Set(correlationHeader, correlationID)
	return header
}

// removeHopHeaders drops hop-by-hop headers, including any named by Connection.
func removeHopHeaders(h http.Header) {
	for _, v := range h.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		h.Del(name)
	}
}
