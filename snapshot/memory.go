package snapshot

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and single-process use.
// Snapshots are stored by value; callers cannot mutate stored copies
// through the pointers they pass to Save or receive from Load, except
// through reference types inside the payload.
type MemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]Snapshot[T]
}

// NewMemoryStore creates a new in-memory Store.
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{
		items: make(map[string]Snapshot[T]),
	}
}

// Load retrieves a snapshot. Returns (nil, nil) if the key doesn't exist.
func (s *MemoryStore[T]) Load(_ context.Context, key string) (*Snapshot[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

// Save stores a copy of snap.
func (s *MemoryStore[T]) Save(_ context.Context, snap *Snapshot[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[snap.Key] = *snap
	return nil
}

// Delete removes a snapshot.
func (s *MemoryStore[T]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Len returns the number of stored snapshots.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// compile-time interface check
var _ Store[any] = (*MemoryStore[any])(nil)
