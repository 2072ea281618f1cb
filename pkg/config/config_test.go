package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adtp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
listen_addr: 0.0.0.0:5000
mode: insecure
handshake:
  max_attempts: 2
  timeout: 5s
status_addr: 127.0.0.1:9090
ledger_path: /tmp/adtp.db
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.ListenAddr)
	assert.Equal(t, "insecure", cfg.Mode)
	assert.Equal(t, 2, cfg.Handshake.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Handshake.Timeout)
	assert.Equal(t, "127.0.0.1:9090", cfg.StatusAddr)
	assert.Equal(t, "json", cfg.Log.Format)

	// Untouched keys keep defaults.
	assert.Equal(t, Default().Handshake.KeyBits, cfg.Handshake.KeyBits)
	assert.Equal(t, Default().Framing, cfg.Framing)
	assert.Len(t, cfg.NetworkOptions(), 5)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad mode", "mode: tls\n"},
		{"bad address", "listen_addr: /nope/1\n"},
		{"small key", "handshake:\n  key_bits: 512\n"},
		{"zero attempts", "handshake:\n  max_attempts: 0\n"},
		{"negative timeout", "handshake:\n  timeout: -1s\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"zero frame size", "framing:\n  max_frame_size: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "listen_addr: [unclosed\n"))
	assert.Error(t, err)
}
