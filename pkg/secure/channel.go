// Package secure wraps ADTP message content in per-message AES-256-GCM.
//
// The sender draws a fresh 96-bit nonce for every message, encrypts it with
// the peer's RSA public key and carries it in the "nonce" header next to the
// detached GCM tag in the "tag" header. Content becomes base64(ciphertext).
package secure

import (
	"crypto/cipher"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/ZentaChain/adtp/pkg/crypto"
	"github.com/ZentaChain/adtp/pkg/protocol"
)

var (
	// ErrTamperedMessage covers every receive-side failure: missing or
	// undecodable headers, RSA failure, wrong sizes and tag mismatch.
	ErrTamperedMessage = errors.New("secure: message failed authentication")

	// ErrReservedHeader is returned when a caller sets nonce or tag itself
	ErrReservedHeader = errors.New("secure: nonce and tag headers are reserved")

	ErrMissingKey = errors.New("secure: channel requires local, peer and symmetric keys")
)

// Channel seals and opens message content for one established session.
// It holds no per-message state and is safe for concurrent use.
type Channel struct {
	local *rsa.PrivateKey
	peer  *rsa.PublicKey
	aead  cipher.AEAD
}

// NewChannel builds a channel from the keys agreed during the handshake
func NewChannel(local *rsa.PrivateKey, peer *rsa.PublicKey, symmetric []byte) (*Channel, error) {
	if local == nil || peer == nil || len(symmetric) == 0 {
		return nil, ErrMissingKey
	}

	aead, err := crypto.NewGCM(symmetric)
	if err != nil {
		return nil, fmt.Errorf("secure: %w", err)
	}

	return &Channel{local: local, peer: peer, aead: aead}, nil
}

// Seal encrypts content, adds the nonce and tag headers to h and returns
// the encoded ciphertext.
func (c *Channel) Seal(h *protocol.Headers, content string) (string, error) {
	if h.Has(protocol.HeaderNonce) || h.Has(protocol.HeaderTag) {
		return "", ErrReservedHeader
	}

	nonce, err := crypto.GenerateNonce(crypto.NonceSize)
	if err != nil {
		return "", fmt.Errorf("secure: generate nonce: %w", err)
	}

	ciphertext, tag, err := crypto.SealGCM(c.aead, nonce, []byte(content))
	if err != nil {
		return "", fmt.Errorf("secure: seal: %w", err)
	}

	sealedNonce, err := crypto.RSAEncrypt(nonce, c.peer)
	if err != nil {
		return "", fmt.Errorf("secure: encrypt nonce: %w", err)
	}

	h.Set(protocol.HeaderNonce, base64.StdEncoding.EncodeToString(sealedNonce))
	h.Set(protocol.HeaderTag, base64.StdEncoding.EncodeToString(tag))
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open authenticates and decrypts content. On success the nonce and tag
// headers are removed from h.
func (c *Channel) Open(h *protocol.Headers, content string) (string, error) {
	encNonce, ok := h.Get(protocol.HeaderNonce)
	if !ok {
		return "", fmt.Errorf("%w: missing %s header", ErrTamperedMessage, protocol.HeaderNonce)
	}
	encTag, ok := h.Get(protocol.HeaderTag)
	if !ok {
		return "", fmt.Errorf("%w: missing %s header", ErrTamperedMessage, protocol.HeaderTag)
	}

	sealedNonce, err := base64.StdEncoding.DecodeString(encNonce)
	if err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrTamperedMessage, err)
	}
	tag, err := base64.StdEncoding.DecodeString(encTag)
	if err != nil {
		return "", fmt.Errorf("%w: tag: %v", ErrTamperedMessage, err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", fmt.Errorf("%w: content: %v", ErrTamperedMessage, err)
	}

	nonce, err := crypto.RSADecrypt(sealedNonce, c.local)
	if err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrTamperedMessage, err)
	}

	plaintext, err := crypto.OpenGCM(c.aead, nonce, ciphertext, tag)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTamperedMessage, err)
	}

	h.Del(protocol.HeaderNonce)
	h.Del(protocol.HeaderTag)
	return string(plaintext), nil
}

// SealRequest returns an encrypted copy of req
func (c *Channel) SealRequest(req *protocol.Request) (*protocol.Request, error) {
	out := req.Clone()
	content, err := c.Seal(out.Headers, out.Content)
	if err != nil {
		return nil, err
	}
	out.Content = content
	return out, nil
}

// OpenRequest returns a decrypted copy of req
func (c *Channel) OpenRequest(req *protocol.Request) (*protocol.Request, error) {
	out := req.Clone()
	content, err := c.Open(out.Headers, out.Content)
	if err != nil {
		return nil, err
	}
	out.Content = content
	return out, nil
}

// SealResponse returns an encrypted copy of resp
func (c *Channel) SealResponse(resp *protocol.Response) (*protocol.Response, error) {
	out := resp.Clone()
	content, err := c.Seal(out.Headers, out.Content)
	if err != nil {
		return nil, err
	}
	out.Content = content
	return out, nil
}

// OpenResponse returns a decrypted copy of resp
func (c *Channel) OpenResponse(resp *protocol.Response) (*protocol.Response, error) {
	out := resp.Clone()
	content, err := c.Open(out.Headers, out.Content)
	if err != nil {
		return nil, err
	}
	out.Content = content
	return out, nil
}
