package network

import (
	"time"

	"go.uber.org/zap"

	"github.com/ZentaChain/adtp/pkg/crypto"
	"github.com/ZentaChain/adtp/pkg/framing"
	"github.com/ZentaChain/adtp/pkg/handshake"
)

// DefaultHandshakeTimeout bounds the whole key exchange
const DefaultHandshakeTimeout = 30 * time.Second

type config struct {
	logger           *zap.Logger
	keyBits          int
	maxAttempts      int
	handshakeTimeout time.Duration
	maxFrameSize     int
	readSize         int
	recorder         Recorder
}

func newConfig(opts []Option) config {
	cfg := config{
		logger:           zap.NewNop(),
		keyBits:          crypto.DefaultKeyBits,
		maxAttempts:      handshake.DefaultMaxAttempts,
		handshakeTimeout: DefaultHandshakeTimeout,
		maxFrameSize:     framing.DefaultMaxFrameSize,
		readSize:         framing.DefaultReadSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c config) handshakeOptions() handshake.Options {
	return handshake.Options{
		KeyBits:     c.keyBits,
		MaxAttempts: c.maxAttempts,
		Logger:      c.logger,
	}
}

func (c config) framingOptions() []framing.Option {
	return []framing.Option{
		framing.WithMaxFrameSize(c.maxFrameSize),
		framing.WithReadSize(c.readSize),
	}
}

// Option configures clients, listeners and server sessions
type Option func(*config)

func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithKeyBits sets the RSA size for per-connection keys
func WithKeyBits(bits int) Option {
	return func(c *config) {
		if bits > 0 {
			c.keyBits = bits
		}
	}
}

// WithHandshakeAttempts bounds client-public-key submissions
func WithHandshakeAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithHandshakeTimeout sets the deadline for the key exchange. Zero disables it.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.handshakeTimeout = d
		}
	}
}

func WithMaxFrameSize(n int) Option {
	return func(c *config) { c.maxFrameSize = n }
}

func WithReadSize(n int) Option {
	return func(c *config) { c.readSize = n }
}

// WithRecorder reports session open and close events to r
func WithRecorder(r Recorder) Option {
	return func(c *config) { c.recorder = r }
}
