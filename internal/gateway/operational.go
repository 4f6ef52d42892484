package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/vyrodovalexey/avagate/internal/observability"
	"github.com/vyrodovalexey/avagate/internal/proxy"
	"github.com/vyrodovalexey/avagate/internal/util"
)

// Operational paths.
const (
	PathHealth       = "/health"
	PathMetrics      = "/health/metrics"
	PathMetricsReset = "/health/metrics/reset"
)

// Operational identifies an endpoint answered by the gateway itself.
type Operational int

const (
	// OperationalNone is a routed request.
	OperationalNone Operational = iota
	// OperationalHealth is the liveness endpoint.
	OperationalHealth
	// OperationalMetrics is the counter snapshot endpoint.
	OperationalMetrics
	// OperationalMetricsReset zeroes the counters.
	OperationalMetricsReset
)

func classify(path string) Operational {
	switch path {
	case PathHealth:
		return OperationalHealth
	case PathMetrics:
		return OperationalMetrics
	case PathMetricsReset:
		return OperationalMetricsReset
	default:
		return OperationalNone
	}
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

func (p *Pipeline) operational(rc *RequestContext) Outcome {
	method := rc.Request.Method

	switch rc.Operational {
	case OperationalHealth:
		if !isRead(method) {
			return Reject(util.ErrMethodNotAllowed, allowHeader("GET, HEAD"))
		}
		return Respond(jsonResponse(http.StatusOK, HealthResponse{Status: "ok"}))

	case OperationalMetrics:
		if !isRead(method) {
			return Reject(util.ErrMethodNotAllowed, allowHeader("GET, HEAD"))
		}
		return Respond(jsonResponse(http.StatusOK, p.components.Counters.Snapshot()))

	case OperationalMetricsReset:
		if method != http.MethodPost {
			return Reject(util.ErrMethodNotAllowed, allowHeader("POST"))
		}
		p.components.Counters.Reset()
		rc.Logger.Info("metrics reset", observability.String("client", rc.Client.Name))
		return Respond(jsonResponse(http.StatusOK, p.components.Counters.Snapshot()))
	}

	return Reject(util.ErrRouteNotFound, nil)
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func allowHeader(methods string) http.Header {
	h := make(http.Header, 1)
	h.Set("Allow", methods)
	return h
}

func jsonResponse(status int, v any) *proxy.Response {
	body, err := json.Marshal(v)
	if err != nil {
		return Reject(util.ErrInternal.WithCause(err), nil).Response()
	}
	h := make(http.Header, 1)
	h.Set(util.HeaderContentType, util.ContentTypeJSON)
	return &proxy.Response{Status: status, Header: h, Body: body}
}
