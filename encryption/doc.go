// Package encryption seals snapshot payloads at rest with AES-256-GCM or
// ChaCha20-Poly1305. Keys are derived from a passphrase with HKDF-SHA256.
//
//	enc, err := encryption.New("a long passphrase", encryption.WithAlgorithm(encryption.AlgorithmChaCha20))
//	sealed, err := enc.Seal(payload, []byte(key))
//	payload, err = enc.Open(sealed, []byte(key))
package encryption
