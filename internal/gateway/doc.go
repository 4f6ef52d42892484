// Package gateway assembles the request pipeline and the HTTP server
// that hosts it.
//
// A request passes through an ordered list of stages:
//
//  1. correlation: read or generate the correlation id
//  2. identify: resolve the client from its API key
//  3. protect: require an identified client on protected prefixes
//  4. ratelimit: count the request against the client's quota
//  5. resolve: find the downstream route
//  6. dispatch: answer operational paths locally or forward
//
// Each stage returns an Outcome. The first terminal outcome is written
// to the client, with the correlation id header stamped on it.
//
// /health skips stages 2 to 5. /health/metrics and
// /health/metrics/reset skip stages 4 and 5.
package gateway
