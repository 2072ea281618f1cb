package network

import "time"

// Recorder persists connection events. Implementations must be safe for
// concurrent use; errors are logged and never fail the session.
type Recorder interface {
	RecordOpen(id, remote, mode, fingerprint string, at time.Time) error
	RecordClose(id, outcome, errText string, at time.Time) error
}

// Close outcomes
const (
	OutcomeClosed     = "closed"
	OutcomePeerClosed = "peer-closed"
	OutcomeFailed     = "failed"
)
