package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	keySize  = 32
	hkdfSalt = "profilewizard"
)

var ciphers = map[Algorithm]func(key []byte) (cipher.AEAD, error){
	AlgorithmAESGCM: func(key []byte) (cipher.AEAD, error) {
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	},
	AlgorithmChaCha20: chacha20poly1305.New,
}

// aeadEncryptor writes nonce || ciphertext || tag.
type aeadEncryptor struct {
	aead cipher.AEAD
	alg  Algorithm
}

func newAEAD(passphrase string, alg Algorithm) (*aeadEncryptor, error) {
	build, ok := ciphers[alg]
	if !ok {
		return nil, fmt.Errorf("encryption: unsupported algorithm %q", alg)
	}
	key, err := deriveKey(passphrase, alg)
	if err != nil {
		return nil, err
	}
	aead, err := build(key)
	if err != nil {
		return nil, fmt.Errorf("encryption: %s: %w", alg, err)
	}
	return &aeadEncryptor{aead: aead, alg: alg}, nil
}

// deriveKey stretches passphrase with HKDF-SHA256, using the algorithm name
// as context.
func deriveKey(passphrase string, alg Algorithm) ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(passphrase), []byte(hkdfSalt), []byte(alg)), key); err != nil {
		return nil, fmt.Errorf("encryption: derive key: %w", err)
	}
	return key, nil
}

func (e *aeadEncryptor) Algorithm() Algorithm { return e.alg }

// Seal encrypts plaintext under a fresh random nonce.
func (e *aeadEncryptor) Seal(plaintext, additionalData []byte) ([]byte, error) {
	n := e.aead.NonceSize()
	out := make([]byte, n, n+len(plaintext)+e.aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("encryption: nonce: %w", err)
	}
	return e.aead.Seal(out, out[:n], plaintext, additionalData), nil
}

// Open authenticates and decrypts a payload produced by Seal.
func (e *aeadEncryptor) Open(ciphertext, additionalData []byte) ([]byte, error) {
	n := e.aead.NonceSize()
	if len(ciphertext) < n+e.aead.Overhead() {
		return nil, errors.New("encryption: ciphertext too short")
	}
	plaintext, err := e.aead.Open(nil, ciphertext[:n], ciphertext[n:], additionalData)
	if err != nil {
		return nil, fmt.Errorf("encryption: open: %w", err)
	}
	return plaintext, nil
}
