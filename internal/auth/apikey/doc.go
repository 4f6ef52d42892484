// Package apikey extracts and looks up client API keys.
//
// Keys are held as SHA-256 hashes so plaintext credentials do not stay
// in memory after startup:
//
//	store := apikey.NewMemoryStore()
//	store.Add("s3cr3t", "partner-portal")
//	key, err := store.Lookup(ctx, "s3cr3t")
package apikey
