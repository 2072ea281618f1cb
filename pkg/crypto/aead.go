package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// AES-256 requires 32-byte keys
	SymmetricKeySize = 32

	// AES-GCM nonce size (96 bits / 12 bytes is standard)
	NonceSize = 12

	// GCM authentication tag size
	TagSize = 16
)

// NewSymmetricKey generates a random AES-256 key
func NewSymmetricKey() ([]byte, error) {
	key := make([]byte, SymmetricKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// NewGCM creates an AES-256-GCM AEAD for key
func NewGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != SymmetricKeySize {
		return nil, fmt.Errorf("%w: symmetric key must be %d bytes, got %d", ErrInvalidKey, SymmetricKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// SealGCM encrypts plaintext and returns the ciphertext and the detached tag
func SealGCM(aead cipher.AEAD, nonce, plaintext []byte) (ciphertext, tag []byte, err error) {
	if len(nonce) != aead.NonceSize() {
		return nil, nil, fmt.Errorf("invalid nonce size: expected %d, got %d", aead.NonceSize(), len(nonce))
	}

	// GCM.Seal appends the auth tag to the ciphertext
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - aead.Overhead()
	return sealed[:split], sealed[split:], nil
}

// OpenGCM verifies the tag and decrypts ciphertext
func OpenGCM(aead cipher.AEAD, nonce, ciphertext, tag []byte) ([]byte, error) {
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size: expected %d, got %d", aead.NonceSize(), len(nonce))
	}
	if len(tag) != aead.Overhead() {
		return nil, fmt.Errorf("invalid tag size: expected %d, got %d", aead.Overhead(), len(tag))
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
