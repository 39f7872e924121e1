package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/kbukum/profilewizard/encryption"
)

// Codec converts snapshots to and from their stored byte form.
type Codec[T any] interface {
	Encode(s *Snapshot[T]) ([]byte, error)
	Decode(key string, data []byte) (*Snapshot[T], error)
}

// JSONCodec stores snapshots as plain JSON documents.
type JSONCodec[T any] struct{}

// Encode implements Codec.
func (JSONCodec[T]) Encode(s *Snapshot[T]) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal %q: %w", s.Key, err)
	}
	return data, nil
}

// Decode implements Codec. The stored key must match the requested one.
func (JSONCodec[T]) Decode(key string, data []byte) (*Snapshot[T], error) {
	var s Snapshot[T]
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal %q: %w", key, err)
	}
	if s.Key != key {
		return nil, fmt.Errorf("snapshot: stored key %q does not match %q", s.Key, key)
	}
	return &s, nil
}

// EncryptedCodec seals the JSON document with an encryption.Encryptor.
// The snapshot key is the additional data, so a sealed snapshot only
// opens under the key it was written for.
type EncryptedCodec[T any] struct {
	enc   encryption.Encryptor
	plain JSONCodec[T]
}

// NewEncryptedCodec wraps JSON encoding with enc.
func NewEncryptedCodec[T any](enc encryption.Encryptor) *EncryptedCodec[T] {
	return &EncryptedCodec[T]{enc: enc}
}

// Encode implements Codec.
func (c *EncryptedCodec[T]) Encode(s *Snapshot[T]) ([]byte, error) {
	data, err := c.plain.Encode(s)
	if err != nil {
		return nil, err
	}
	sealed, err := c.enc.Seal(data, []byte(s.Key))
	if err != nil {
		return nil, fmt.Errorf("snapshot: seal %q: %w", s.Key, err)
	}
	return sealed, nil
}

// Decode implements Codec.
func (c *EncryptedCodec[T]) Decode(key string, data []byte) (*Snapshot[T], error) {
	plain, err := c.enc.Open(data, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %q: %w", key, err)
	}
	return c.plain.Decode(key, plain)
}

// CodecFor returns an EncryptedCodec when enc is set and a JSONCodec otherwise.
func CodecFor[T any](enc encryption.Encryptor) Codec[T] {
	if enc == nil {
		return JSONCodec[T]{}
	}
	return NewEncryptedCodec[T](enc)
}
