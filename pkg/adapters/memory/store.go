package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/rillweb/pkg/domain"
)

// CacheStore implements ports.CacheStore in memory.
// Safe for concurrent use.
type CacheStore struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewCacheStore creates a new in-memory cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		data: make(map[string][]byte),
	}
}

// Get retrieves a value from memory.
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	// Copy on read so callers can't mutate the stored bytes.
	return append([]byte(nil), val...), nil
}

// Set stores a copy of value.
func (s *CacheStore) Set(ctx context.Context, key string, value []byte) error {
	copied := append([]byte(nil), value...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Delete removes keys.
func (s *CacheStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// Keys returns the stored keys starting with prefix, sorted.
func (s *CacheStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
