package apikey

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
)

// Store errors.
var (
	ErrKeyNotFound  = errors.New("API key not found")
	ErrKeyDuplicate = errors.New("API key already registered")
)

// APIKey is a known credential.
type APIKey struct {
	Name    string
	KeyHash string
}

// Store looks up API keys.
type Store interface {
	Lookup(ctx context.Context, key string) (*APIKey, error)
}

// HashKey returns the hex SHA-256 hash of key.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// MemoryStore is an in-memory implementation of the Store interface.
type MemoryStore struct {
	keys map[string]*APIKey
	mu   sync.RWMutex
}

// NewMemoryStore creates a new in-memory API key store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys: make(map[string]*APIKey),
	}
}

// Add registers a plaintext key under a client name.
func (s *MemoryStore) Add(key, name string) error {
	hash := HashKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[hash]; exists {
		return ErrKeyDuplicate
	}
	s.keys[hash] = &APIKey{Name: name, KeyHash: hash}
	return nil
}

// Lookup returns the registered key matching the plaintext key.
func (s *MemoryStore) Lookup(_ context.Context, key string) (*APIKey, error) {
	hash := HashKey(key)

	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.keys[hash]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return k, nil
}

// Count returns the number of API keys in the store.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
