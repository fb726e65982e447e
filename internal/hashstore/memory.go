package hashstore

import (
	"context"
	"maps"
	"sync"

	"github.com/leg100/roster/internal"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory store of hashes. Its contents are lost when the
// process exits.
type MemoryStore struct {
	mu     sync.Mutex
	hashes map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hashes: make(map[string]map[string]string)}
}

func (s *MemoryStore) GetAll(ctx context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, ok := s.hashes[key]
	if !ok {
		return nil, internal.ErrResourceNotFound
	}
	return maps.Clone(hash), nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, fields map[string]string, cond Condition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.hashes[key]
	if err := cond.check(exists); err != nil {
		return err
	}
	// a hash with no fields does not exist
	if len(fields) == 0 {
		delete(s.hashes, key)
		return nil
	}
	s.hashes[key] = maps.Clone(fields)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hashes[key]; !ok {
		return internal.ErrResourceNotFound
	}
	delete(s.hashes, key)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
