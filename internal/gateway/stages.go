package gateway

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/avagate/internal/metrics"
	"github.com/vyrodovalexey/avagate/internal/observability"
	"github.com/vyrodovalexey/avagate/internal/ratelimit"
	"github.com/vyrodovalexey/avagate/internal/util"
)

func newCorrelationID() string {
	return uuid.New().String()
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (p *Pipeline) correlate(rc *RequestContext) Outcome {
	id := strings.TrimSpace(rc.Request.Header.Get(p.correlationHeader))
	if id == "" {
		id = p.newID()
	}
	rc.CorrelationID = id

	ctx := observability.ContextWithCorrelationID(rc.Context(), id)
	rc.Request = rc.Request.WithContext(ctx)
	rc.Logger = p.logger.WithContext(ctx)
	rc.ClientIP = p.clientIP(rc.Request)
	return Continue()
}

func (p *Pipeline) identify(rc *RequestContext) Outcome {
	if rc.Operational == OperationalHealth {
		return Continue()
	}

	client, err := p.components.Identifier.Identify(rc.Request)
	if err != nil {
		rc.Logger.Debug("client identification failed",
			observability.String("client_ip", rc.ClientIP),
			observability.Error(err),
		)
		return Reject(util.AsGatewayError(err), nil)
	}

	rc.Client = client
	if client.IsIdentified() {
		rc.Logger = rc.Logger.With(observability.String("client", client.Name))
	}
	return Continue()
}

func (p *Pipeline) protect(rc *RequestContext) Outcome {
	switch rc.Operational {
	case OperationalHealth:
		return Continue()
	case OperationalMetricsReset:
		if !rc.Client.IsIdentified() {
			return Reject(util.ErrCredentialRequired, nil)
		}
		return Continue()
	}

	if err := p.components.Policy.Authorize(rc.Client, rc.Request.URL.Path); err != nil {
		rc.Logger.Debug("anonymous request to protected path",
			observability.String("path", rc.Request.URL.Path),
		)
		return Reject(util.AsGatewayError(err), nil)
	}
	return Continue()
}

func (p *Pipeline) rateLimit(rc *RequestContext) Outcome {
	if rc.Operational != OperationalNone {
		return Continue()
	}

	p.components.Counters.Inc(metrics.TotalRequests)

	key := ratelimit.ClientKey(rc.Client, rc.ClientIP)
	res := p.components.Limiter.Check(rc.Context(), key, p.components.Limits.LimitFor(rc.Client))
	if res.Allowed() {
		return Continue()
	}

	p.components.Counters.Inc(metrics.RateLimitedRequests)
	rc.Logger.Warn("rate limit exceeded",
		observability.String("client_type", rc.Client.Type.String()),
		observability.Int64("count", res.Count),
		observability.Int64("retry_after_seconds", res.RetryAfterSeconds()),
	)
	return Reject(util.ErrRateLimited, retryAfterHeader(res))
}

func (p *Pipeline) resolve(rc *RequestContext) Outcome {
	if rc.Operational != OperationalNone {
		return Continue()
	}

	route, ok := p.components.Routes.Resolve(rc.Request.URL.Path)
	if !ok {
		return Reject(util.ErrRouteNotFound, nil)
	}
	rc.Route = route
	rc.Logger = rc.Logger.With(observability.String("service", route.Service))
	return Continue()
}

func (p *Pipeline) dispatch(rc *RequestContext) Outcome {
	if rc.Operational != OperationalNone {
		return p.operational(rc)
	}
	return Respond(p.components.Forwarder.Forward(rc.Context(), rc.Route, rc.Request, rc.CorrelationID))
}
