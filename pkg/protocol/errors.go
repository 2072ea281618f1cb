package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrParse matches every *ParseError via errors.Is
	ErrParse = errors.New("malformed message")

	ErrDuplicateHeader = errors.New("duplicate header")
)

// ParseError describes why a byte sequence is not a valid message.
// It does not distinguish truncated input from malformed input; framing
// decides that before the parser runs.
type ParseError struct {
	Kind  string // "request" or "response"
	Field string // offending field, empty when the whole document is bad
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("protocol: malformed %s: field %q: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("protocol: malformed %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrParse) true for any ParseError
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
