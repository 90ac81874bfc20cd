package cart

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store. MaxBytes bounds the total stored size
// across keys the way a browser bounds localStorage; zero means unbounded.
type MemoryStore struct {
	values   map[string][]byte
	maxBytes int
	mu       sync.RWMutex
}

// NewMemoryStore creates a new MemoryStore with the given byte quota.
func NewMemoryStore(maxBytes int) *MemoryStore {
	return &MemoryStore{
		values:   make(map[string][]byte),
		maxBytes: maxBytes,
	}
}

// Get returns the value stored under key, or (nil, nil) when absent.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores value under key, enforcing the byte quota across all keys.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxBytes > 0 {
		total := len(value)
		for k, v := range s.values {
			if k != key {
				total += len(v)
			}
		}
		if total > s.maxBytes {
			return fmt.Errorf("%d bytes over a %d byte quota: %w", total, s.maxBytes, ErrQuotaExceeded)
		}
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}
