package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/profilewizard/snapshot"
)

// SnapshotStore keeps wizard snapshots in Redis so a draft started on one
// device resumes on another. Values are encoded by a snapshot.Codec.
type SnapshotStore[T any] struct {
	client    *Client
	keyPrefix string
	ttl       time.Duration
	codec     snapshot.Codec[T]
}

// StoreOption configures a SnapshotStore.
type StoreOption[T any] func(*SnapshotStore[T])

// WithTTL expires stored snapshots after d. Every save refreshes the TTL.
func WithTTL[T any](d time.Duration) StoreOption[T] {
	return func(s *SnapshotStore[T]) { s.ttl = d }
}

// WithCodec replaces the default JSON codec.
func WithCodec[T any](c snapshot.Codec[T]) StoreOption[T] {
	return func(s *SnapshotStore[T]) { s.codec = c }
}

// NewSnapshotStore creates a SnapshotStore backed by the given client.
// Keys are prefixed with the client's configured KeyPrefix and the TTL
// defaults to the configured SnapshotTTL.
func NewSnapshotStore[T any](client *Client, opts ...StoreOption[T]) *SnapshotStore[T] {
	cfg := client.Config()
	s := &SnapshotStore[T]{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.SnapshotTTL,
		codec:     snapshot.JSONCodec[T]{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SnapshotStore[T]) fullKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Load decodes the snapshot for key. Returns (nil, nil) if the key doesn't exist.
func (s *SnapshotStore[T]) Load(ctx context.Context, key string) (*snapshot.Snapshot[T], error) {
	raw, err := s.client.GetBytes(ctx, s.fullKey(key))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot store load %q: %w", key, err)
	}
	return s.codec.Decode(key, raw)
}

// Save encodes snap and stores it, refreshing the TTL.
func (s *SnapshotStore[T]) Save(ctx context.Context, snap *snapshot.Snapshot[T]) error {
	data, err := s.codec.Encode(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.fullKey(snap.Key), data, s.ttl); err != nil {
		return fmt.Errorf("snapshot store save %q: %w", snap.Key, err)
	}
	return nil
}

// Delete removes the key.
func (s *SnapshotStore[T]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.fullKey(key)); err != nil {
		return fmt.Errorf("snapshot store delete %q: %w", key, err)
	}
	return nil
}

// compile-time interface check
var _ snapshot.Store[any] = (*SnapshotStore[any])(nil)
