// Package config loads ADTP node settings from YAML
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ZentaChain/adtp/pkg/crypto"
	"github.com/ZentaChain/adtp/pkg/framing"
	"github.com/ZentaChain/adtp/pkg/handshake"
	"github.com/ZentaChain/adtp/pkg/network"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds everything needed to run a listener or a client
type Config struct {
	ListenAddr string          `yaml:"listen_addr"`
	Mode       string          `yaml:"mode"`
	Handshake  HandshakeConfig `yaml:"handshake"`
	Framing    FramingConfig   `yaml:"framing"`
	StatusAddr string          `yaml:"status_addr"` // empty disables the status API
	LedgerPath string          `yaml:"ledger_path"` // empty disables the ledger
	Retention  time.Duration   `yaml:"ledger_retention"`
	Log        LogConfig       `yaml:"log"`
}

type HandshakeConfig struct {
	KeyBits     int           `yaml:"key_bits"`
	MaxAttempts int           `yaml:"max_attempts"`
	Timeout     time.Duration `yaml:"timeout"`
}

type FramingConfig struct {
	MaxFrameSize int `yaml:"max_frame_size"`
	ReadSize     int `yaml:"read_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ListenAddr: "/ip4/127.0.0.1/tcp/4000",
		Mode:       "secure",
		Handshake: HandshakeConfig{
			KeyBits:     crypto.DefaultKeyBits,
			MaxAttempts: handshake.DefaultMaxAttempts,
			Timeout:     network.DefaultHandshakeTimeout,
		},
		Framing: FramingConfig{
			MaxFrameSize: framing.DefaultMaxFrameSize,
			ReadSize:     framing.DefaultReadSize,
		},
		Retention: 30 * 24 * time.Hour,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen_addr is required", ErrInvalidConfig)
	}
	if _, err := network.ParseAddr(c.ListenAddr); err != nil {
		return fmt.Errorf("%w: listen_addr: %v", ErrInvalidConfig, err)
	}
	if _, err := network.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("%w: mode: %v", ErrInvalidConfig, err)
	}
	if c.Handshake.KeyBits < 1024 {
		return fmt.Errorf("%w: handshake.key_bits must be at least 1024", ErrInvalidConfig)
	}
	if c.Handshake.MaxAttempts < 1 {
		return fmt.Errorf("%w: handshake.max_attempts must be at least 1", ErrInvalidConfig)
	}
	if c.Handshake.Timeout < 0 {
		return fmt.Errorf("%w: handshake.timeout must not be negative", ErrInvalidConfig)
	}
	if c.Framing.MaxFrameSize <= 0 || c.Framing.ReadSize <= 0 {
		return fmt.Errorf("%w: framing sizes must be positive", ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format must be console or json", ErrInvalidConfig)
	}
	return nil
}

// NetworkOptions converts the config to session options
func (c *Config) NetworkOptions() []network.Option {
	return []network.Option{
		network.WithKeyBits(c.Handshake.KeyBits),
		network.WithHandshakeAttempts(c.Handshake.MaxAttempts),
		network.WithHandshakeTimeout(c.Handshake.Timeout),
		network.WithMaxFrameSize(c.Framing.MaxFrameSize),
		network.WithReadSize(c.Framing.ReadSize),
	}
}
