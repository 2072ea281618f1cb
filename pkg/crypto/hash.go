package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Hash generates a BLAKE2b-256 hash
func Hash(data []byte) ([]byte, error) {
	hash, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}

	hash.Write(data)
	return hash.Sum(nil), nil
}

// HashString generates a BLAKE2b hash and returns hex string
func HashString(data []byte) (string, error) {
	hash, err := Hash(data)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(hash), nil
}

// Fingerprint returns the hex BLAKE2b-256 digest of the PKIX encoding of key.
// Peers can compare fingerprints out of band; the protocol never checks them.
func Fingerprint(key *rsa.PublicKey) (string, error) {
	der, err := ExportPublicKey(key)
	if err != nil {
		return "", err
	}
	return HashString(der)
}

// GenerateNonce generates a random nonce
func GenerateNonce(size int) ([]byte, error) {
	nonce := make([]byte, size)
	_, err := rand.Read(nonce)
	if err != nil {
		return nil, err
	}
	return nonce, nil
}
