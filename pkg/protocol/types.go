package protocol

import "fmt"

// Version is the protocol revision carried in every message
type Version string

// Protocol versions
const (
	Version2       Version = "ADTP/2.0"
	CurrentVersion         = Version2
)

// Supported reports whether v is a version this implementation speaks
func (v Version) Supported() bool {
	return v == Version2
}

// Method is a request verb
type Method string

// Request methods
const (
	MethodCheck   Method = "check"
	MethodRead    Method = "read"
	MethodCreate  Method = "create"
	MethodUpdate  Method = "update"
	MethodAppend  Method = "append"
	MethodDestroy Method = "destroy"
	MethodAuth    Method = "auth"
)

var methods = map[Method]struct{}{
	MethodCheck:   {},
	MethodRead:    {},
	MethodCreate:  {},
	MethodUpdate:  {},
	MethodAppend:  {},
	MethodDestroy: {},
	MethodAuth:    {},
}

// Valid reports whether m is one of the wire tokens
func (m Method) Valid() bool {
	_, ok := methods[m]
	return ok
}

// ParseMethod converts a wire token to a Method
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown method %q", s)
	}
	return m, nil
}

// MarshalText implements encoding.TextMarshaler
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Method) UnmarshalText(b []byte) error {
	parsed, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Status is a response outcome
type Status string

// Response statuses
const (
	StatusSwitchProtocols Status = "switch-protocols"
	StatusOK              Status = "ok"
	StatusPending         Status = "pending"
	StatusRedirect        Status = "redirect"
	StatusDenied          Status = "denied"
	StatusBadRequest      Status = "bad-request"
	StatusUnauthorized    Status = "unauthorized"
	StatusNotFound        Status = "not-found"
	StatusTooManyRequests Status = "too-many-requests"
	StatusInternalError   Status = "internal-error"
)

var statuses = map[Status]struct{}{
	StatusSwitchProtocols: {},
	StatusOK:              {},
	StatusPending:         {},
	StatusRedirect:        {},
	StatusDenied:          {},
	StatusBadRequest:      {},
	StatusUnauthorized:    {},
	StatusNotFound:        {},
	StatusTooManyRequests: {},
	StatusInternalError:   {},
}

// Valid reports whether s is one of the wire tokens
func (s Status) Valid() bool {
	_, ok := statuses[s]
	return ok
}

// ParseStatus converts a wire token to a Status
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Handshake resource paths
const (
	PathServerPublicKey = "/ADTPS/server-public-key"
	PathClientPublicKey = "/ADTPS/client-public-key"
	PathSymmetricKey    = "/ADTPS/aes-key"
)

// Reserved header names
const (
	HeaderNonce              = "nonce"
	HeaderTag                = "tag"
	HeaderContentType        = "content-type"
	HeaderRequestContentType = "request-content-type"
)

// ContentTypeText is the advisory content type used during the handshake
const ContentTypeText = "text/plain"
