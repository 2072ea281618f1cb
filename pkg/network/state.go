package network

import (
	"errors"
	"fmt"
)

// State is the lifecycle of one connection
type State int32

const (
	StateUnconnected State = iota
	StateConnected
	StateHandshaking
	StateSecured
	StateInsecure
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnected:
		return "connected"
	case StateHandshaking:
		return "handshaking"
	case StateSecured:
		return "secured"
	case StateInsecure:
		return "insecure"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Mode selects whether a connection runs the handshake
type Mode int

const (
	ModeSecure Mode = iota
	ModeInsecure
)

func (m Mode) String() string {
	if m == ModeInsecure {
		return "insecure"
	}
	return "secure"
}

// ParseMode converts "secure" or "insecure" to a Mode
func ParseMode(s string) (Mode, error) {
	switch s {
	case "secure", "":
		return ModeSecure, nil
	case "insecure":
		return ModeInsecure, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

var (
	ErrNotConnected     = errors.New("network: session is not connected")
	ErrAlreadyConnected = errors.New("network: client is already connected")
	ErrSessionFailed    = errors.New("network: session failed and must be discarded")
	ErrSessionClosed    = errors.New("network: session closed")
	ErrListenerClosed   = errors.New("network: listener closed")
)
