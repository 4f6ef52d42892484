// Package auth identifies gateway clients and enforces which path
// prefixes require an identified client.
//
// A request without an API key is anonymous. A request with a key the
// gateway does not know is rejected, it never falls back to anonymous.
package auth
