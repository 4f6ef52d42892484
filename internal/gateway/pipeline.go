package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/vyrodovalexey/avagate/internal/auth"
	"github.com/vyrodovalexey/avagate/internal/config"
	"github.com/vyrodovalexey/avagate/internal/metrics"
	"github.com/vyrodovalexey/avagate/internal/observability"
	"github.com/vyrodovalexey/avagate/internal/proxy"
	"github.com/vyrodovalexey/avagate/internal/ratelimit"
	"github.com/vyrodovalexey/avagate/internal/router"
	"github.com/vyrodovalexey/avagate/internal/util"
)

// HeaderRetryAfter is the Retry-After header name.
const HeaderRetryAfter = "Retry-After"

// RequestContext carries per-request state between stages.
type RequestContext struct {
	Request       *http.Request
	CorrelationID string
	Client        auth.Client
	Route         router.ResolvedRoute
	ClientIP      string
	Operational   Operational
	Logger        observability.Logger
}

// Context returns the request context.
func (rc *RequestContext) Context() context.Context {
	return rc.Request.Context()
}

// Outcome is the result of a stage.
type Outcome struct {
	response *proxy.Response
}

// Continue lets the request proceed to the next stage.
func Continue() Outcome {
	return Outcome{}
}

// Respond ends the pipeline with resp.
func Respond(resp *proxy.Response) Outcome {
	return Outcome{response: resp}
}

// Reject ends the pipeline with the error's status and JSON body.
// Extra headers are added to the response.
func Reject(err *util.GatewayError, header http.Header) Outcome {
	h := make(http.Header, len(header)+1)
	for k, vv := range header {
		h[k] = append([]string(nil), vv...)
	}
	h.Set(util.HeaderContentType, util.ContentTypeJSON)
	return Outcome{response: &proxy.Response{
		Status: err.Status,
		Header: h,
		Body:   util.ErrorJSON(err),
		Err:    err,
	}}
}

// Terminal reports whether the outcome ends the pipeline.
func (o Outcome) Terminal() bool {
	return o.response != nil
}

// Response returns the terminal response, or nil.
func (o Outcome) Response() *proxy.Response {
	return o.response
}

// Stage is one step of the pipeline.
type Stage struct {
	Name string
	Run  func(rc *RequestContext) Outcome
}

// Forwarder sends a routed request downstream.
type Forwarder interface {
	Forward(ctx context.Context, route router.ResolvedRoute, r *http.Request, correlationID string) *proxy.Response
}

// Components are the collaborators the pipeline is built from.
type Components struct {
	Identifier *auth.Identifier
	Policy     *auth.Policy
	Limiter    *ratelimit.Limiter
	Limits     ratelimit.Policy
	Routes     *router.Table
	Forwarder  Forwarder
	Counters   *metrics.Store
}

func (c Components) validate() error {
	switch {
	case c.Identifier == nil:
		return errors.New("identifier is required")
	case c.Policy == nil:
		return errors.New("policy is required")
	case c.Limiter == nil:
		return errors.New("limiter is required")
	case c.Routes == nil:
		return errors.New("route table is required")
	case c.Forwarder == nil:
		return errors.New("forwarder is required")
	case c.Counters == nil:
		return errors.New("metrics store is required")
	}
	return nil
}

// Pipeline is the gateway request handler.
type Pipeline struct {
	components        Components
	stages            []Stage
	correlationHeader string
	clientIP          func(*http.Request) string
	newID             func() string
	logger            observability.Logger
}

// Option is a functional option for configuring the pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithCorrelationHeader sets the correlation id header name.
func WithCorrelationHeader(name string) Option {
	return func(p *Pipeline) {
		if name != "" {
			p.correlationHeader = name
		}
	}
}

// WithClientIP sets the function resolving the client address.
func WithClientIP(fn func(*http.Request) string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.clientIP = fn
		}
	}
}

// WithIDGenerator sets the correlation id generator.
func WithIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// NewPipeline creates the pipeline.
func NewPipeline(c Components, opts ...Option) (*Pipeline, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		components:        c,
		correlationHeader: config.DefaultCorrelationID,
		clientIP:          remoteIP,
		newID:             newCorrelationID,
		logger:            observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.stages = []Stage{
		{Name: "correlation", Run: p.correlate},
		{Name: "identify", Run: p.identify},
		{Name: "protect", Run: p.protect},
		{Name: "ratelimit", Run: p.rateLimit},
		{Name: "resolve", Run: p.resolve},
		{Name: "dispatch", Run: p.dispatch},
	}

	return p, nil
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// ServeHTTP implements http.Handler.
func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := &RequestContext{
		Request:     r,
		Operational: classify(r.URL.Path),
		Logger:      p.logger,
	}

	for _, stage := range p.stages {
		out := stage.Run(rc)
		if out.Terminal() {
			p.write(w, rc, out.Response())
			return
		}
	}

	// dispatch always terminates
	p.write(w, rc, Reject(util.ErrInternal, nil).Response())
}

func (p *Pipeline) write(w http.ResponseWriter, rc *RequestContext, resp *proxy.Response) {
	if rc.CorrelationID != "" {
		w.Header().Set(p.correlationHeader, rc.CorrelationID)
	}
	resp.Write(w)
}

// retryAfterHeader returns the Retry-After header for a rejected result.
func retryAfterHeader(res ratelimit.Result) http.Header {
	h := make(http.Header, 1)
	h.Set(HeaderRetryAfter, strconv.FormatInt(res.RetryAfterSeconds(), 10))
	return h
}
