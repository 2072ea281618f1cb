package framing

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/ZentaChain/adtp/pkg/protocol"
)

const (
	DefaultReadSize     = 4096
	DefaultMaxFrameSize = 16 << 20

	// maxEmptyReads bounds consecutive (0, nil) reads
	maxEmptyReads = 100
)

var (
	ErrConnectionClosed = errors.New("framing: connection closed before a complete message was received")
	ErrFrameTooLarge    = errors.New("framing: frame exceeds maximum size")
)

// Reader assembles complete frames from an unaligned byte stream.
// It is not safe for concurrent use.
type Reader struct {
	src     io.Reader
	buf     []byte
	chunk   []byte
	maxSize int
	sc      scanner
	eof     bool
}

// Option configures a Reader
type Option func(*Reader)

// WithReadSize sets how many bytes are requested per read
func WithReadSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.chunk = make([]byte, n)
		}
	}
}

// WithMaxFrameSize bounds the bytes buffered for a single frame
func WithMaxFrameSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxSize = n
		}
	}
}

// NewReader creates a frame reader over src
func NewReader(src io.Reader, opts ...Option) *Reader {
	r := &Reader{
		src:     src,
		chunk:   make([]byte, DefaultReadSize),
		maxSize: DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Buffered returns the number of bytes held after the last frame
func (r *Reader) Buffered() int {
	return len(r.buf)
}

// Next blocks until one complete frame is available and returns it.
// Bytes following the frame stay buffered for the next call.
func (r *Reader) Next() ([]byte, error) {
	empty := 0
	for {
		if len(r.buf) > 0 {
			res, n, err := r.sc.scan(r.buf)
			switch res {
			case Complete:
				frame := make([]byte, n)
				copy(frame, r.buf[:n])
				r.buf = append(r.buf[:0], r.buf[n:]...)
				r.sc.reset()
				return frame, nil
			case Invalid:
				return nil, err
			}
			if len(r.buf) > r.maxSize {
				return nil, fmt.Errorf("%w (%d bytes)", ErrFrameTooLarge, r.maxSize)
			}
		}

		if r.eof {
			return nil, ErrConnectionClosed
		}

		n, err := r.src.Read(r.chunk)
		if n > 0 {
			r.buf = append(r.buf, r.chunk[:n]...)
			empty = 0
		}
		switch {
		case err == nil && n == 0:
			empty++
			if empty >= maxEmptyReads {
				return nil, io.ErrNoProgress
			}
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
			// Scan what arrived with the error before giving up.
			r.eof = true
		case err != nil:
			return nil, fmt.Errorf("framing: read: %w", err)
		}
	}
}

// ReadRequest reads and decodes the next request
func (r *Reader) ReadRequest() (*protocol.Request, error) {
	frame, err := r.Next()
	if err != nil {
		return nil, err
	}
	return protocol.ParseRequest(frame)
}

// ReadResponse reads and decodes the next response
func (r *Reader) ReadResponse() (*protocol.Response, error) {
	frame, err := r.Next()
	if err != nil {
		return nil, err
	}
	return protocol.ParseResponse(frame)
}

// Builder is implemented by protocol.Request and protocol.Response
type Builder interface {
	Build() []byte
}

// WriteMessage writes the encoding of m to w
func WriteMessage(w io.Writer, m Builder) error {
	data := m.Build()
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return fmt.Errorf("framing: write: %w", err)
		}
		data = data[n:]
	}
	return nil
}
