package persistence

import (
	"context"
	"sync"

	"github.com/petrijr/stepform/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe SnapshotStore backed by a map.
// Snapshots are copied on the way in and out so callers never share a
// FormState with the store.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]api.Snapshot
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		snapshots: make(map[string]api.Snapshot),
	}
}

func (s *InMemoryStore) Save(ctx context.Context, key string, snap api.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap.StorageKey = key
	snap.FormState = snap.FormState.Clone()
	s.snapshots[key] = snap
	return nil
}

func (s *InMemoryStore) Load(ctx context.Context, key string) (api.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return api.Snapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[key]
	if !ok {
		return api.Snapshot{}, ErrSnapshotNotFound
	}

	snap.FormState = snap.FormState.Clone()
	return snap, nil
}

func (s *InMemoryStore) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, key)
	return nil
}

// Keys returns the storage keys currently held.
func (s *InMemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.snapshots))
	for k := range s.snapshots {
		keys = append(keys, k)
	}
	return keys
}
