package secure

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZentaChain/adtp/pkg/crypto"
	"github.com/ZentaChain/adtp/pkg/protocol"
)

const testKeyBits = 1024

// newPair returns the client and server ends of one session
func newPair(t *testing.T) (client, server *Channel) {
	t.Helper()

	clientKey, err := crypto.GenerateRSAKeyPair(testKeyBits)
	require.NoError(t, err)
	serverKey, err := crypto.GenerateRSAKeyPair(testKeyBits)
	require.NoError(t, err)
	symmetric, err := crypto.NewSymmetricKey()
	require.NoError(t, err)

	client, err = NewChannel(clientKey, &serverKey.PublicKey, symmetric)
	require.NoError(t, err)
	server, err = NewChannel(serverKey, &clientKey.PublicKey, symmetric)
	require.NoError(t, err)
	return client, server
}

func TestNewChannelMissingKeys(t *testing.T) {
	key, err := crypto.GenerateRSAKeyPair(testKeyBits)
	require.NoError(t, err)
	sym, _ := crypto.NewSymmetricKey()

	_, err = NewChannel(nil, &key.PublicKey, sym)
	assert.ErrorIs(t, err, ErrMissingKey)
	_, err = NewChannel(key, nil, sym)
	assert.ErrorIs(t, err, ErrMissingKey)
	_, err = NewChannel(key, &key.PublicKey, nil)
	assert.ErrorIs(t, err, ErrMissingKey)
	_, err = NewChannel(key, &key.PublicKey, sym[:16])
	assert.ErrorIs(t, err, crypto.ErrInvalidKey)
}

func TestRequestRoundTrip(t *testing.T) {
	client, server := newPair(t)

	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"ascii", "Hello World"},
		{"multi-byte", "héllo wörld ✓ 日本語 🚀"},
		{"json-looking", `{"a":[1,2,{"b":"}"}]}`},
		{"large", strings.Repeat("0123456789", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := protocol.NewRequest(protocol.MethodCreate, "/items").SetContent(tt.content)
			require.NoError(t, req.AddHeader("x-trace", "42"))

			sealed, err := client.SealRequest(req)
			require.NoError(t, err)

			assert.True(t, sealed.Headers.Has(protocol.HeaderNonce))
			assert.True(t, sealed.Headers.Has(protocol.HeaderTag))
			if tt.content != "" {
				assert.NotContains(t, string(sealed.Build()), tt.content)
			}

			// The caller's message is untouched.
			assert.Equal(t, tt.content, req.Content)
			assert.False(t, req.Headers.Has(protocol.HeaderNonce))

			// Survive the wire.
			parsed, err := protocol.ParseRequest(sealed.Build())
			require.NoError(t, err)

			opened, err := server.OpenRequest(parsed)
			require.NoError(t, err)
			assert.True(t, opened.Equal(req), "got %s, want %s", opened, req)
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	client, server := newPair(t)

	resp := protocol.NewResponse(protocol.StatusOK).SetContent("created")
	sealed, err := server.SealResponse(resp)
	require.NoError(t, err)

	opened, err := client.OpenResponse(sealed)
	require.NoError(t, err)
	assert.Equal(t, "created", opened.Content)
	assert.Equal(t, 0, opened.Headers.Len())
}

func TestWrongDirectionFails(t *testing.T) {
	client, _ := newPair(t)

	// A nonce sealed for the server cannot be opened with the client key.
	sealed, err := client.SealRequest(protocol.NewRequest(protocol.MethodRead, "/").SetContent("x"))
	require.NoError(t, err)

	_, err = client.OpenRequest(sealed)
	assert.ErrorIs(t, err, ErrTamperedMessage)
}

func TestTamperDetection(t *testing.T) {
	client, server := newPair(t)

	req := protocol.NewRequest(protocol.MethodCreate, "/items").SetContent("Hello World")
	sealed, err := client.SealRequest(req)
	require.NoError(t, err)

	flipBase64 := func(s string, i int) string {
		raw, err := base64.StdEncoding.DecodeString(s)
		require.NoError(t, err)
		raw[i] ^= 0x01
		return base64.StdEncoding.EncodeToString(raw)
	}
	nonce, _ := sealed.Header(protocol.HeaderNonce)
	tag, _ := sealed.Header(protocol.HeaderTag)

	tests := []struct {
		name   string
		mutate func(r *protocol.Request)
	}{
		{"flipped ciphertext", func(r *protocol.Request) { r.Content = flipBase64(r.Content, 0) }},
		{"flipped tag", func(r *protocol.Request) { r.Headers.Set(protocol.HeaderTag, flipBase64(tag, 5)) }},
		{"flipped nonce", func(r *protocol.Request) { r.Headers.Set(protocol.HeaderNonce, flipBase64(nonce, 10)) }},
		{"truncated tag", func(r *protocol.Request) {
			raw, _ := base64.StdEncoding.DecodeString(tag)
			r.Headers.Set(protocol.HeaderTag, base64.StdEncoding.EncodeToString(raw[:12]))
		}},
		{"missing nonce", func(r *protocol.Request) { r.Headers.Del(protocol.HeaderNonce) }},
		{"missing tag", func(r *protocol.Request) { r.Headers.Del(protocol.HeaderTag) }},
		{"content not base64", func(r *protocol.Request) { r.Content = "Hello World" }},
		{"nonce not base64", func(r *protocol.Request) { r.Headers.Set(protocol.HeaderNonce, "%%%") }},
		{"tag not base64", func(r *protocol.Request) { r.Headers.Set(protocol.HeaderTag, "%%%") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := sealed.Clone()
			tt.mutate(tampered)

			_, err := server.OpenRequest(tampered)
			assert.ErrorIs(t, err, ErrTamperedMessage)
		})
	}
}

func TestWrongNonceSizeRejected(t *testing.T) {
	client, server := newPair(t)

	sealed, err := client.SealRequest(protocol.NewRequest(protocol.MethodRead, "/").SetContent("x"))
	require.NoError(t, err)

	// A correctly encrypted nonce of the wrong length must not reach GCM.
	short, err := crypto.RSAEncrypt(make([]byte, 8), client.peer)
	require.NoError(t, err)
	sealed.Headers.Set(protocol.HeaderNonce, base64.StdEncoding.EncodeToString(short))

	_, err = server.OpenRequest(sealed)
	assert.ErrorIs(t, err, ErrTamperedMessage)
}

func TestNonceUniqueness(t *testing.T) {
	client, server := newPair(t)

	const n = 50
	seenNonces := make(map[string]struct{}, n)
	seenContent := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		sealed, err := client.SealRequest(protocol.NewRequest(protocol.MethodAppend, "/log").SetContent("same"))
		require.NoError(t, err)

		// Decrypt the nonce the way the server would to compare raw values.
		encNonce, _ := sealed.Header(protocol.HeaderNonce)
		rsaNonce, _ := base64.StdEncoding.DecodeString(encNonce)
		nonce, err := crypto.RSADecrypt(rsaNonce, server.local)
		require.NoError(t, err)

		seenNonces[string(nonce)] = struct{}{}
		seenContent[sealed.Content] = struct{}{}
	}

	assert.Len(t, seenNonces, n)
	assert.Len(t, seenContent, n, "identical plaintexts must not produce identical ciphertexts")
}

func TestReservedHeader(t *testing.T) {
	client, _ := newPair(t)

	for _, name := range []string{protocol.HeaderNonce, protocol.HeaderTag} {
		req := protocol.NewRequest(protocol.MethodCreate, "/items").SetContent("x")
		require.NoError(t, req.AddHeader(name, "caller-value"))

		_, err := client.SealRequest(req)
		assert.ErrorIs(t, err, ErrReservedHeader, name)
	}
}
