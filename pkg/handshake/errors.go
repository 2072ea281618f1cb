package handshake

import (
	"errors"
	"fmt"

	"github.com/ZentaChain/adtp/pkg/protocol"
)

var (
	// ErrHandshakeRejected matches every *RejectedError
	ErrHandshakeRejected = errors.New("handshake rejected")

	ErrHandshakeTimeout  = errors.New("handshake timed out")
	ErrUnexpectedMessage = errors.New("unexpected handshake message")
)

// Handshake step names used in errors and logs
const (
	StepServerKey    = "server-public-key"
	StepClientKey    = "client-public-key"
	StepSymmetricKey = "aes-key"
)

// RejectedError reports a step the peer refused until the attempt bound ran out
type RejectedError struct {
	Step     string
	Attempts int
	Status   protocol.Status
	Reason   string
}

func (e *RejectedError) Error() string {
	msg := fmt.Sprintf("handshake rejected at %s after %d attempt(s): %s", e.Step, e.Attempts, e.Status)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is makes errors.Is(err, ErrHandshakeRejected) true for any RejectedError
func (e *RejectedError) Is(target error) bool {
	return target == ErrHandshakeRejected
}
