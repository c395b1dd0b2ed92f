// Package settings holds operator-editable preferences that override the
// technical defaults loaded from configuration.
package settings

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemoryStore is a process-local key/value settings store.
// Keys are case-insensitive; values are stored as given.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewInMemoryStore creates a store seeded with initial values
func NewInMemoryStore(initial map[string]string) *InMemoryStore {
	s := &InMemoryStore{values: make(map[string]string, len(initial))}
	for k, v := range initial {
		s.values[normalizeKey(k)] = v
	}
	return s
}

// Get returns the value stored under key. ok is false for unset keys.
func (s *InMemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[normalizeKey(key)]
	return v, ok, nil
}

// Set stores value under key
func (s *InMemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[normalizeKey(key)] = value
	return nil
}

// Delete removes key. Deleting an unset key is a no-op.
func (s *InMemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, normalizeKey(key))
	return nil
}

// Keys returns every set key in sorted order
func (s *InMemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
