// Package session holds the workflow's intermediate artifacts for the
// lifetime of one run: extraction token and preview, monitoring job id,
// summary, and result previews. The store itself is a flat string
// mapping; compound values are JSON-encoded at the edge.
package session

import (
	"context"
	"sync"
)

// Store is the flat key/value contract. Put overwrites; Get reports
// absence via the bool rather than an error.
type Store interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
}

// MemoryStore is the in-process backend, used by default and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}
