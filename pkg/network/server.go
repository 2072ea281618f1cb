package network

import (
	"context"
	"net"

	"github.com/ZentaChain/adtp/pkg/protocol"
)

// ServerSession is the accepting side of one ADTP connection
type ServerSession struct {
	s *session
}

// NewServerSession runs the server side of a session over conn. On error
// the connection is closed.
func NewServerSession(ctx context.Context, conn net.Conn, mode Mode, opts ...Option) (*ServerSession, error) {
	s := newSession(conn, newConfig(opts), mode)
	if err := s.establish(ctx, accept); err != nil {
		_ = s.close()
		return nil, err
	}
	return &ServerSession{s: s}, nil
}

// Receive blocks for the next request
func (ss *ServerSession) Receive() (*protocol.Request, error) {
	return ss.s.receiveRequest()
}

// Send writes a response
func (ss *ServerSession) Send(resp *protocol.Response) error {
	return ss.s.sendResponse(resp)
}

func (ss *ServerSession) ID() string { return ss.s.id }

func (ss *ServerSession) RemoteAddr() string { return remoteAddr(ss.s.raw) }

func (ss *ServerSession) State() State { return ss.s.State() }

func (ss *ServerSession) Mode() Mode { return ss.s.mode }

// PeerFingerprint returns the fingerprint of the client key, empty when insecure
func (ss *ServerSession) PeerFingerprint() string { return ss.s.peerFingerprint() }

func (ss *ServerSession) Close() error { return ss.s.close() }
