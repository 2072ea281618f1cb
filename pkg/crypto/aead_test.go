package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewGCMKeySize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"aes-256", SymmetricKeySize, false},
		{"aes-128 rejected", 16, true},
		{"empty", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGCM(make([]byte, tt.size))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewGCM() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidKey) {
				t.Errorf("NewGCM() error = %v, want ErrInvalidKey", err)
			}
		})
	}
}

func TestSealOpenGCM(t *testing.T) {
	key, err := NewSymmetricKey()
	if err != nil {
		t.Fatalf("NewSymmetricKey() error = %v", err)
	}
	aead, err := NewGCM(key)
	if err != nil {
		t.Fatalf("NewGCM() error = %v", err)
	}

	for _, plaintext := range [][]byte{{}, []byte("Hello World"), []byte("héllo ✓ 日本語")} {
		nonce, _ := GenerateNonce(NonceSize)

		ciphertext, tag, err := SealGCM(aead, nonce, plaintext)
		if err != nil {
			t.Fatalf("SealGCM() error = %v", err)
		}
		if len(tag) != TagSize {
			t.Errorf("tag length = %d, want %d", len(tag), TagSize)
		}
		if len(ciphertext) != len(plaintext) {
			t.Errorf("ciphertext length = %d, want %d", len(ciphertext), len(plaintext))
		}

		opened, err := OpenGCM(aead, nonce, ciphertext, tag)
		if err != nil {
			t.Fatalf("OpenGCM() error = %v", err)
		}
		if !bytes.Equal(opened, plaintext) {
			t.Errorf("OpenGCM() = %q, want %q", opened, plaintext)
		}
	}
}

func TestOpenGCMTampered(t *testing.T) {
	key, _ := NewSymmetricKey()
	aead, _ := NewGCM(key)
	nonce, _ := GenerateNonce(NonceSize)

	ciphertext, tag, err := SealGCM(aead, nonce, []byte("Hello World"))
	if err != nil {
		t.Fatalf("SealGCM() error = %v", err)
	}

	flip := func(b []byte, i int) []byte {
		out := bytes.Clone(b)
		out[i] ^= 0x01
		return out
	}

	tests := []struct {
		name       string
		nonce      []byte
		ciphertext []byte
		tag        []byte
	}{
		{"flipped ciphertext", nonce, flip(ciphertext, 0), tag},
		{"flipped tag", nonce, ciphertext, flip(tag, TagSize-1)},
		{"flipped nonce", flip(nonce, 3), ciphertext, tag},
		{"short tag", nonce, ciphertext, tag[:8]},
		{"short nonce", nonce[:8], ciphertext, tag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := OpenGCM(aead, tt.nonce, tt.ciphertext, tt.tag); err == nil {
				t.Error("OpenGCM() expected error, got nil")
			}
		})
	}
}
