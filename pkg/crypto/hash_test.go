package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string // BLAKE2b-256 in hex
	}{
		{
			name:     "empty input",
			input:    []byte{},
			expected: "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		},
		{
			name:     "simple string",
			input:    []byte("hello world"),
			expected: "256c83b297114d201b30179f3f0ef0cace9783622da5974326b436178aeef610",
		},
		{
			name:  "handshake payload",
			input: []byte(`{"version":"ADTP/2.0","method":"read","headers":{},"uri":"/","content":""}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := Hash(tt.input)
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if len(sum) != 32 {
				t.Errorf("Hash() length = %d, want 32", len(sum))
			}
			if tt.expected != "" && hex.EncodeToString(sum) != tt.expected {
				t.Errorf("Hash() = %x, want %s", sum, tt.expected)
			}

			again, _ := Hash(tt.input)
			if !bytes.Equal(sum, again) {
				t.Error("Hash() not consistent between calls")
			}
		})
	}
}

func TestHashString(t *testing.T) {
	input := []byte("test data")

	hashStr, err := HashString(input)
	if err != nil {
		t.Fatalf("HashString() error = %v", err)
	}
	if len(hashStr) != 64 {
		t.Errorf("HashString() length = %d, want 64", len(hashStr))
	}

	sum, _ := Hash(input)
	if hashStr != hex.EncodeToString(sum) {
		t.Errorf("HashString() = %s, want %x", hashStr, sum)
	}
}

func TestFingerprint(t *testing.T) {
	a, err := GenerateRSAKeyPair(testKeyBits)
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair() error = %v", err)
	}
	b, err := GenerateRSAKeyPair(testKeyBits)
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair() error = %v", err)
	}

	fpA, err := Fingerprint(&a.PublicKey)
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	fpB, _ := Fingerprint(&b.PublicKey)

	if len(fpA) != 64 {
		t.Errorf("Fingerprint() length = %d, want 64", len(fpA))
	}
	if fpA == fpB {
		t.Error("distinct keys produced the same fingerprint")
	}

	// The fingerprint covers the exported form, so a re-imported key matches.
	encoded, _ := EncodePublicKey(&a.PublicKey)
	imported, _ := DecodePublicKey(encoded)
	if fp, _ := Fingerprint(imported); fp != fpA {
		t.Errorf("Fingerprint(imported) = %s, want %s", fp, fpA)
	}
}

func TestGenerateNonce(t *testing.T) {
	for _, size := range []int{0, NonceSize, SymmetricKeySize, 64} {
		nonce, err := GenerateNonce(size)
		if err != nil {
			t.Fatalf("GenerateNonce(%d) error = %v", size, err)
		}
		if len(nonce) != size {
			t.Errorf("GenerateNonce(%d) length = %d", size, len(nonce))
		}
		if size == 0 {
			continue
		}

		other, _ := GenerateNonce(size)
		if bytes.Equal(nonce, other) {
			t.Errorf("GenerateNonce(%d) produced identical nonces", size)
		}
	}
}
