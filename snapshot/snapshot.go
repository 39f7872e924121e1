package snapshot

import (
	"context"
	"time"
)

// Snapshot is the durable copy of a session's draft under its storage key.
type Snapshot[T any] struct {
	Key     string    `json:"key"`
	Payload T         `json:"payload"`
	SavedAt time.Time `json:"saved_at"`
}

// Store persists snapshots by key.
//
// The key is an opaque string; the caller decides the key schema
// (see auth.SessionKey).
type Store[T any] interface {
	// Load retrieves a snapshot. Returns (nil, nil) if the key doesn't exist.
	Load(ctx context.Context, key string) (*Snapshot[T], error)
	// Save replaces the snapshot stored under s.Key.
	Save(ctx context.Context, s *Snapshot[T]) error
	// Delete removes a snapshot. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
