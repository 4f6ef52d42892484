// Package proxy forwards routed requests to downstream services.
//
// The Forwarder consults the service's circuit before each call, strips
// the matched route prefix from the path, relays the downstream response
// verbatim and feeds the outcome back into the circuit and the request
// counters. Network failures and timeouts become 502 responses; retries
// are never attempted.
package proxy
