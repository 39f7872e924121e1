package encryption

import (
	"bytes"
	"testing"
)

var algorithms = []Algorithm{AlgorithmAESGCM, AlgorithmChaCha20}

func TestSealOpenRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"json", []byte(`{"step":2,"skills":[{"name":"Go"}]}`)},
		{"empty", []byte{}},
		{"unicode", []byte("こんにちは世界")},
		{"binary", []byte{0, 1, 2, 255}},
	}

	for _, alg := range algorithms {
		enc, err := New("a passphrase long enough", WithAlgorithm(alg))
		if err != nil {
			t.Fatalf("New(%s) failed: %v", alg, err)
		}
		if enc.Algorithm() != alg {
			t.Errorf("expected algorithm %s, got %s", alg, enc.Algorithm())
		}
		for _, tc := range tests {
			t.Run(string(alg)+"/"+tc.name, func(t *testing.T) {
				sealed, err := enc.Seal(tc.plaintext, []byte("wizard:u1"))
				if err != nil {
					t.Fatalf("Seal failed: %v", err)
				}
				if len(tc.plaintext) > 0 && bytes.Contains(sealed, tc.plaintext) {
					t.Error("sealed payload leaks plaintext")
				}
				opened, err := enc.Open(sealed, []byte("wizard:u1"))
				if err != nil {
					t.Fatalf("Open failed: %v", err)
				}
				if !bytes.Equal(opened, tc.plaintext) {
					t.Errorf("expected %q, got %q", tc.plaintext, opened)
				}
			})
		}
	}
}

func TestSealUsesFreshNonce(t *testing.T) {
	enc, _ := New("a passphrase long enough")
	a, _ := enc.Seal([]byte("same"), nil)
	b, _ := enc.Seal([]byte("same"), nil)
	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext should differ")
	}
}

func TestOpen_WrongAdditionalData(t *testing.T) {
	enc, _ := New("a passphrase long enough")
	sealed, _ := enc.Seal([]byte("draft"), []byte("wizard:u1"))
	if _, err := enc.Open(sealed, []byte("wizard:u2")); err == nil {
		t.Fatal("expected failure when opening under another key")
	}
}

func TestOpen_WrongKey(t *testing.T) {
	for _, alg := range algorithms {
		a, _ := New("first passphrase 123", WithAlgorithm(alg))
		b, _ := New("second passphrase 456", WithAlgorithm(alg))
		sealed, _ := a.Seal([]byte("secret"), nil)
		if _, err := b.Open(sealed, nil); err == nil {
			t.Errorf("%s: expected failure with wrong key", alg)
		}
	}
}

func TestOpen_TooShort(t *testing.T) {
	enc, _ := New("a passphrase long enough")
	if _, err := enc.Open([]byte("short"), nil); err == nil {
		t.Fatal("expected error for truncated ciphertext")
	}
}

func TestDeriveKey_PerAlgorithm(t *testing.T) {
	a, err := deriveKey("pass", AlgorithmAESGCM)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := deriveKey("pass", AlgorithmChaCha20)
	if len(a) != keySize || bytes.Equal(a, b) {
		t.Error("expected distinct 32-byte keys per algorithm")
	}
	again, _ := deriveKey("pass", AlgorithmAESGCM)
	if !bytes.Equal(a, again) {
		t.Error("key derivation must be deterministic")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := New("a passphrase long enough", WithAlgorithm("rot13")); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantNil bool
		wantErr bool
	}{
		{"disabled", Config{}, true, false},
		{"aes default", Config{Key: "0123456789abcdef"}, false, false},
		{"chacha", Config{Key: "0123456789abcdef", Algorithm: AlgorithmChaCha20}, false, false},
		{"short key", Config{Key: "short"}, true, true},
		{"bad algorithm", Config{Key: "0123456789abcdef", Algorithm: "des"}, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := FromConfig(tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tc.wantErr)
			}
			if (enc == nil) != tc.wantNil {
				t.Errorf("encryptor nil = %v, want %v", enc == nil, tc.wantNil)
			}
		})
	}
}
