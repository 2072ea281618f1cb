package handshake

import (
	"fmt"
	"io"

	"github.com/ZentaChain/adtp/pkg/framing"
	"github.com/ZentaChain/adtp/pkg/protocol"
)

// ClientTransport is the unencrypted message path used by the initiating side
type ClientTransport interface {
	SendRequest(req *protocol.Request) error
	ReceiveResponse() (*protocol.Response, error)
}

// ServerTransport is the unencrypted message path used by the accepting side
type ServerTransport interface {
	SendResponse(resp *protocol.Response) error
	ReceiveRequest() (*protocol.Request, error)
}

// Stream carries handshake messages over a byte stream. It implements both
// transports so either side of a connection can use it.
type Stream struct {
	W io.Writer
	R *framing.Reader
}

// NewStream wraps rw with a frame reader
func NewStream(rw io.ReadWriter, opts ...framing.Option) *Stream {
	return &Stream{W: rw, R: framing.NewReader(rw, opts...)}
}

func (s *Stream) SendRequest(req *protocol.Request) error {
	if err := framing.WriteMessage(s.W, req); err != nil {
		return fmt.Errorf("send %s %s: %w", req.Method, req.URI, err)
	}
	return nil
}

func (s *Stream) ReceiveResponse() (*protocol.Response, error) {
	return s.R.ReadResponse()
}

func (s *Stream) SendResponse(resp *protocol.Response) error {
	if err := framing.WriteMessage(s.W, resp); err != nil {
		return fmt.Errorf("send %s: %w", resp.Status, err)
	}
	return nil
}

func (s *Stream) ReceiveRequest() (*protocol.Request, error) {
	return s.R.ReadRequest()
}
