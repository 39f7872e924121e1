package encryption

import (
	"errors"
	"fmt"
)

// Encryptor seals and opens opaque payloads with an AEAD cipher. The
// additional data is authenticated but not stored; callers pass the storage
// key so a ciphertext cannot be replayed under another key.
type Encryptor interface {
	Seal(plaintext, additionalData []byte) ([]byte, error)
	Open(ciphertext, additionalData []byte) ([]byte, error)
	Algorithm() Algorithm
}

// Algorithm names a supported AEAD cipher.
type Algorithm string

const (
	AlgorithmAESGCM   Algorithm = "aes-256-gcm"
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

const minKeyLen = 16

// Config enables at-rest encryption of snapshots. An empty Key disables it.
type Config struct {
	Key       string    `yaml:"key" mapstructure:"key"`
	Algorithm Algorithm `yaml:"algorithm" mapstructure:"algorithm"`
}

// Enabled reports whether a key is configured.
func (c *Config) Enabled() bool { return c.Key != "" }

// ApplyDefaults selects AES-256-GCM when no algorithm is set.
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmAESGCM
	}
}

// Validate rejects unknown algorithms and short keys.
func (c *Config) Validate() error {
	if _, ok := ciphers[c.Algorithm]; !ok && c.Algorithm != "" {
		return fmt.Errorf("encryption: unsupported algorithm %q", c.Algorithm)
	}
	if c.Enabled() && len(c.Key) < minKeyLen {
		return fmt.Errorf("encryption: key must be at least %d characters", minKeyLen)
	}
	return nil
}

// Option configures New.
type Option func(*Algorithm)

// WithAlgorithm selects the cipher. The default is AES-256-GCM.
func WithAlgorithm(alg Algorithm) Option {
	return func(a *Algorithm) { *a = alg }
}

// New derives a cipher key from passphrase and returns an Encryptor for it.
// Each algorithm derives its own key, so one passphrase never yields the
// same key bytes for two ciphers.
func New(passphrase string, opts ...Option) (Encryptor, error) {
	if passphrase == "" {
		return nil, errors.New("encryption: empty key")
	}
	alg := AlgorithmAESGCM
	for _, opt := range opts {
		opt(&alg)
	}
	enc, err := newAEAD(passphrase, alg)
	if err != nil {
		return nil, err
	}
	return enc, nil
}

// FromConfig returns the Encryptor cfg describes, or nil when it is disabled.
func FromConfig(cfg Config) (Encryptor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, nil
	}
	return New(cfg.Key, WithAlgorithm(cfg.Algorithm))
}
