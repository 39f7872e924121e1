package snapshot

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

const fileExt = ".snapshot"

// FileStore keeps one document per key under a base directory. Saves write
// a temporary file and rename it into place, so a crash mid-write never
// leaves a truncated snapshot behind.
type FileStore[T any] struct {
	basePath string
	codec    Codec[T]
}

// NewFileStore creates the base directory if needed. A nil codec stores
// plain JSON.
func NewFileStore[T any](basePath string, codec Codec[T]) (*FileStore[T], error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("snapshot: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("snapshot: create base directory: %w", err)
	}
	if codec == nil {
		codec = JSONCodec[T]{}
	}
	return &FileStore[T]{basePath: abs, codec: codec}, nil
}

// path maps a key to a file name. Keys are escaped so separators such as
// ':' and '/' never reach the filesystem.
func (s *FileStore[T]) path(key string) string {
	return filepath.Join(s.basePath, url.QueryEscape(key)+fileExt)
}

// Load reads the snapshot for key. Returns (nil, nil) if no file exists.
func (s *FileStore[T]) Load(_ context.Context, key string) (*Snapshot[T], error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: read file: %w", err)
	}
	return s.codec.Decode(key, data)
}

// Save atomically replaces the snapshot file for snap.Key.
func (s *FileStore[T]) Save(ctx context.Context, snap *Snapshot[T]) error {
	data, err := s.codec.Encode(snap)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("snapshot: write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("snapshot: sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(snap.Key)); err != nil {
		return fmt.Errorf("snapshot: rename file: %w", err)
	}
	return nil
}

// Delete removes the snapshot file. Returns nil if the file does not exist.
func (s *FileStore[T]) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("snapshot: delete file: %w", err)
	}
	return nil
}

// compile-time check
var _ Store[any] = (*FileStore[any])(nil)
