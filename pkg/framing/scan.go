// Package framing finds message boundaries in an ADTP byte stream.
//
// ADTP messages are JSON objects written back to back with no length prefix.
// A frame ends at the brace that closes the top-level object. The scanner
// tracks nesting, string and escape state so braces inside strings do not
// count, and it resumes where it stopped when more bytes arrive.
package framing

import (
	"errors"
	"fmt"
)

// Result is the outcome of scanning a buffer
type Result int

const (
	// Incomplete means more bytes are needed
	Incomplete Result = iota
	// Complete means a whole frame is at the start of the buffer
	Complete
	// Invalid means the buffer can never become a valid frame
	Invalid
)

func (r Result) String() string {
	switch r {
	case Incomplete:
		return "incomplete"
	case Complete:
		return "complete"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// maxDepth bounds object/array nesting inside one frame
const maxDepth = 32

var ErrInvalidFrame = errors.New("framing: invalid frame")

// scanner is an incremental JSON object boundary detector
type scanner struct {
	pos      int    // next byte to examine
	started  bool   // opening brace seen
	stack    []byte // open brackets
	inString bool
	escaped  bool
}

func (s *scanner) reset() {
	s.pos = 0
	s.started = false
	s.stack = s.stack[:0]
	s.inString = false
	s.escaped = false
}

// scan continues from the previous position. buf must be the same bytes as
// the previous call, possibly with more appended.
func (s *scanner) scan(buf []byte) (Result, int, error) {
	for s.pos < len(buf) {
		c := buf[s.pos]
		s.pos++

		if !s.started {
			if isSpace(c) {
				continue
			}
			if c != '{' {
				return Invalid, 0, fmt.Errorf("%w: unexpected byte %q before message", ErrInvalidFrame, c)
			}
			s.started = true
			s.stack = append(s.stack, '{')
			continue
		}

		if s.inString {
			switch {
			case s.escaped:
				s.escaped = false
			case c == '\\':
				s.escaped = true
			case c == '"':
				s.inString = false
			case c < 0x20:
				return Invalid, 0, fmt.Errorf("%w: control character in string", ErrInvalidFrame)
			}
			continue
		}

		switch c {
		case '"':
			s.inString = true
		case '{', '[':
			if len(s.stack) >= maxDepth {
				return Invalid, 0, fmt.Errorf("%w: nesting deeper than %d", ErrInvalidFrame, maxDepth)
			}
			s.stack = append(s.stack, c)
		case '}', ']':
			open := s.stack[len(s.stack)-1]
			if (open == '{' && c != '}') || (open == '[' && c != ']') {
				return Invalid, 0, fmt.Errorf("%w: mismatched %q", ErrInvalidFrame, c)
			}
			s.stack = s.stack[:len(s.stack)-1]
			if len(s.stack) == 0 {
				return Complete, s.pos, nil
			}
		}
	}
	return Incomplete, 0, nil
}

// Scan reports whether buf starts with a complete frame. On Complete the
// returned count covers any leading whitespace plus the frame itself.
func Scan(buf []byte) (Result, int, error) {
	var s scanner
	return s.scan(buf)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
