// Package ratelimit enforces per-client fixed-window request quotas.
//
// The Limiter counts requests in a store.Store and never fails a
// request because the store is unavailable: store errors produce an
// Indeterminate decision, which is treated as allowed.
//
//	limiter := ratelimit.NewLimiter(store.NewMemoryStore())
//	res := limiter.Check(ctx, ratelimit.ClientKey(client, ip), policy.LimitFor(client))
//	if !res.Allowed() {
//	    w.Header().Set("Retry-After", strconv.FormatInt(res.RetryAfterSeconds(), 10))
//	}
package ratelimit
