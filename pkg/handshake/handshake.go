// Package handshake establishes session keys between two ADTP peers.
//
// The exchange is trust-on-first-use: neither side authenticates the public
// key it receives, so an on-path attacker can substitute keys. Fingerprints
// are exposed for out-of-band comparison only.
//
//	client                                   server
//	read   /ADTPS/server-public-key  ->
//	                                 <-  ok  base64(server key)
//	create /ADTPS/client-public-key  ->                 (repeated until ok,
//	                                 <-  ok             at most MaxAttempts)
//	create /ADTPS/aes-key            ->                 (no reply)
package handshake

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ZentaChain/adtp/pkg/crypto"
	"github.com/ZentaChain/adtp/pkg/protocol"
)

// DefaultMaxAttempts bounds client-public-key submissions
const DefaultMaxAttempts = 5

// Keys is the material each side holds once the handshake completes.
// Symmetric is identical on both ends.
type Keys struct {
	Local     *rsa.PrivateKey
	Peer      *rsa.PublicKey
	Symmetric []byte
}

// Options tunes a handshake
type Options struct {
	// KeyBits is the RSA size for keys generated during the exchange
	KeyBits int

	// MaxAttempts is the total number of client-public-key submissions
	// allowed. 1 disables retry.
	MaxAttempts int

	Logger *zap.Logger
}

// DefaultOptions returns the default handshake options
func DefaultOptions() Options {
	return Options{
		KeyBits:     crypto.DefaultKeyBits,
		MaxAttempts: DefaultMaxAttempts,
		Logger:      zap.NewNop(),
	}
}

func (o Options) withDefaults() Options {
	if o.KeyBits <= 0 {
		o.KeyBits = crypto.DefaultKeyBits
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Initiate runs the client side of the handshake over t
func Initiate(ctx context.Context, t ClientTransport, opts Options) (*Keys, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With(zap.String("role", "client"))

	// Step 1: fetch the server key.
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	req := protocol.NewRequest(protocol.MethodRead, protocol.PathServerPublicKey)
	req.Headers.Set(protocol.HeaderRequestContentType, protocol.ContentTypeText)
	if err := t.SendRequest(req); err != nil {
		return nil, classify(StepServerKey, err)
	}
	resp, err := t.ReceiveResponse()
	if err != nil {
		return nil, classify(StepServerKey, err)
	}
	if resp.Status != protocol.StatusOK {
		return nil, &RejectedError{Step: StepServerKey, Attempts: 1, Status: resp.Status, Reason: resp.Content}
	}
	serverKey, err := crypto.DecodePublicKey(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("handshake: %s: %w", StepServerKey, err)
	}
	log.Debug("Received server public key", zap.String("fingerprint", fingerprint(serverKey)))

	// Step 2: submit our key, bounded retry on rejection.
	local, err := crypto.GenerateRSAKeyPair(opts.KeyBits)
	if err != nil {
		return nil, fmt.Errorf("handshake: generate key: %w", err)
	}
	encoded, err := crypto.EncodePublicKey(&local.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("handshake: export key: %w", err)
	}

	submit := protocol.NewRequest(protocol.MethodCreate, protocol.PathClientPublicKey).SetContent(encoded)
	submit.Headers.Set(protocol.HeaderContentType, protocol.ContentTypeText)

	var last *protocol.Response
	accepted := false
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		if err := t.SendRequest(submit); err != nil {
			return nil, classify(StepClientKey, err)
		}
		last, err = t.ReceiveResponse()
		if err != nil {
			return nil, classify(StepClientKey, err)
		}
		if last.Status == protocol.StatusOK {
			accepted = true
			break
		}
		log.Warn("Client public key rejected",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", opts.MaxAttempts),
			zap.String("status", string(last.Status)))
	}
	if !accepted {
		return nil, &RejectedError{
			Step:     StepClientKey,
			Attempts: opts.MaxAttempts,
			Status:   last.Status,
			Reason:   last.Content,
		}
	}

	// Step 3: deliver the symmetric key. The server does not reply.
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	symmetric, err := crypto.NewSymmetricKey()
	if err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	wrapped, err := crypto.RSAEncrypt([]byte(base64.StdEncoding.EncodeToString(symmetric)), serverKey)
	if err != nil {
		return nil, fmt.Errorf("handshake: %s: %w", StepSymmetricKey, err)
	}
	keyReq := protocol.NewRequest(protocol.MethodCreate, protocol.PathSymmetricKey).
		SetContent(base64.StdEncoding.EncodeToString(wrapped))
	keyReq.Headers.Set(protocol.HeaderContentType, protocol.ContentTypeText)
	if err := t.SendRequest(keyReq); err != nil {
		return nil, classify(StepSymmetricKey, err)
	}

	log.Debug("Handshake complete")
	return &Keys{Local: local, Peer: serverKey, Symmetric: symmetric}, nil
}

// Accept runs the server side of the handshake over t
func Accept(ctx context.Context, t ServerTransport, opts Options) (*Keys, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With(zap.String("role", "server"))

	// Keys are generated per connection and never reused.
	local, err := crypto.GenerateRSAKeyPair(opts.KeyBits)
	if err != nil {
		return nil, fmt.Errorf("handshake: generate key: %w", err)
	}

	// Step 1: publish our key.
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	req, err := t.ReceiveRequest()
	if err != nil {
		return nil, classify(StepServerKey, err)
	}
	if req.Method != protocol.MethodRead || req.URI != protocol.PathServerPublicKey {
		_ = t.SendResponse(protocol.NewResponse(protocol.StatusBadRequest).SetContent("expected server public key request"))
		return nil, unexpected(StepServerKey, req)
	}
	encoded, err := crypto.EncodePublicKey(&local.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("handshake: export key: %w", err)
	}
	resp := protocol.NewResponse(protocol.StatusOK).SetContent(encoded)
	resp.Headers.Set(protocol.HeaderContentType, protocol.ContentTypeText)
	if err := t.SendResponse(resp); err != nil {
		return nil, classify(StepServerKey, err)
	}

	// Step 2: take the client key, answering bad-request until it is valid.
	var peer *rsa.PublicKey
	var reason string
	for attempt := 1; attempt <= opts.MaxAttempts && peer == nil; attempt++ {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		req, err := t.ReceiveRequest()
		if err != nil {
			return nil, classify(StepClientKey, err)
		}

		switch {
		case req.Method != protocol.MethodCreate || req.URI != protocol.PathClientPublicKey:
			reason = fmt.Sprintf("expected create %s", protocol.PathClientPublicKey)
		default:
			key, err := crypto.DecodePublicKey(req.Content)
			if err != nil {
				reason = err.Error()
				break
			}
			peer = key
		}

		if peer == nil {
			log.Warn("Rejected client public key submission",
				zap.Int("attempt", attempt),
				zap.String("reason", reason))
			if err := t.SendResponse(protocol.NewResponse(protocol.StatusBadRequest).SetContent(reason)); err != nil {
				return nil, classify(StepClientKey, err)
			}
			continue
		}

		ack := protocol.NewResponse(protocol.StatusOK)
		ack.Headers.Set(protocol.HeaderContentType, protocol.ContentTypeText)
		if err := t.SendResponse(ack); err != nil {
			return nil, classify(StepClientKey, err)
		}
	}
	if peer == nil {
		return nil, &RejectedError{
			Step:     StepClientKey,
			Attempts: opts.MaxAttempts,
			Status:   protocol.StatusBadRequest,
			Reason:   reason,
		}
	}
	log.Debug("Received client public key", zap.String("fingerprint", fingerprint(peer)))

	// Step 3: unwrap the symmetric key.
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	req, err = t.ReceiveRequest()
	if err != nil {
		return nil, classify(StepSymmetricKey, err)
	}
	if req.Method != protocol.MethodCreate || req.URI != protocol.PathSymmetricKey {
		return nil, unexpected(StepSymmetricKey, req)
	}
	symmetric, err := unwrapSymmetricKey(req.Content, local)
	if err != nil {
		return nil, fmt.Errorf("handshake: %s: %w", StepSymmetricKey, err)
	}

	log.Debug("Handshake complete")
	return &Keys{Local: local, Peer: peer, Symmetric: symmetric}, nil
}

// unwrapSymmetricKey reverses base64(RSA(UTF-8(base64(key))))
func unwrapSymmetricKey(content string, local *rsa.PrivateKey) ([]byte, error) {
	wrapped, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedMessage, err)
	}
	inner, err := crypto.RSADecrypt(wrapped, local)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(inner) {
		return nil, fmt.Errorf("%w: key text is not UTF-8", ErrUnexpectedMessage)
	}
	key, err := base64.StdEncoding.DecodeString(string(inner))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedMessage, err)
	}
	if len(key) != crypto.SymmetricKeySize {
		return nil, fmt.Errorf("%w: symmetric key is %d bytes", crypto.ErrInvalidKey, len(key))
	}
	return key, nil
}

func unexpected(step string, req *protocol.Request) error {
	return fmt.Errorf("handshake: %s: %w: %s %s", step, ErrUnexpectedMessage, req.Method, req.URI)
}

// classify maps transport deadline expiry to ErrHandshakeTimeout
func classify(step string, err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("handshake: %s: %w: %v", step, ErrHandshakeTimeout, err)
	}
	return fmt.Errorf("handshake: %s: %w", step, err)
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("handshake: %w", ErrHandshakeTimeout)
		}
		return fmt.Errorf("handshake: %w", err)
	}
	return nil
}

func fingerprint(key *rsa.PublicKey) string {
	fp, err := crypto.Fingerprint(key)
	if err != nil {
		return ""
	}
	return fp
}
