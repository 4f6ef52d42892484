package ratelimit

import (
	"strings"

	"github.com/vyrodovalexey/avagate/internal/auth"
	"github.com/vyrodovalexey/avagate/internal/auth/apikey"
	"github.com/vyrodovalexey/avagate/internal/config"
)

// Key prefixes per client type.
const (
	IdentifiedKeyPrefix = "identified:"
	AnonymousKeyPrefix  = "anonymous:"
)

// ClientKey returns the counter key for a client. Identified clients are
// counted by credential, anonymous clients by origin address.
func ClientKey(c auth.Client, clientIP string) string {
	if c.IsIdentified() {
		return IdentifiedKeyPrefix + c.Key
	}
	return AnonymousKeyPrefix + clientIP
}

// logKey returns a key safe to log: the credential of an identified key is
// replaced by a short prefix of its hash.
func logKey(key string) string {
	credential, ok := strings.CutPrefix(key, IdentifiedKeyPrefix)
	if !ok {
		return key
	}
	return IdentifiedKeyPrefix + apikey.HashKey(credential)[:12]
}

// Policy holds the limits applied per client type.
type Policy struct {
	Anonymous  Limit
	Identified Limit
}

// NewPolicy builds a policy from configuration.
func NewPolicy(cfg config.RateLimitsConfig) Policy {
	return Policy{
		Anonymous:  limitFromConfig(cfg.Anonymous),
		Identified: limitFromConfig(cfg.Identified),
	}
}

// LimitFor returns the limit for the client's type.
func (p Policy) LimitFor(c auth.Client) Limit {
	if c.IsIdentified() {
		return p.Identified
	}
	return p.Anonymous
}

func limitFromConfig(c config.LimitConfig) Limit {
	return Limit{Requests: c.Limit, Window: c.Window.Duration()}
}
