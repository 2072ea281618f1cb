package network

import (
	"context"
	"net"
	"sync"

	"github.com/ZentaChain/adtp/pkg/protocol"
)

// Client is the connecting side of an ADTP session
type Client struct {
	cfg config

	mu   sync.Mutex
	sess *session
}

// NewClient creates an unconnected client
func NewClient(opts ...Option) *Client {
	return &Client{cfg: newConfig(opts)}
}

// ConnectSecure dials addr and runs the handshake. ctx bounds the dial and
// the handshake.
func (c *Client) ConnectSecure(ctx context.Context, addr string) error {
	return c.connect(ctx, addr, ModeSecure)
}

// ConnectInsecure dials addr without a handshake. Messages travel in clear.
func (c *Client) ConnectInsecure(ctx context.Context, addr string) error {
	return c.connect(ctx, addr, ModeInsecure)
}

func (c *Client) connect(ctx context.Context, addr string, mode Mode) error {
	if err := c.reserve(); err != nil {
		return err
	}
	conn, err := dial(ctx, addr)
	if err != nil {
		c.release(nil)
		return err
	}
	return c.attach(ctx, conn, mode)
}

// ConnectConn runs the client side of a session over an existing connection
func (c *Client) ConnectConn(ctx context.Context, conn net.Conn, mode Mode) error {
	if err := c.reserve(); err != nil {
		return err
	}
	return c.attach(ctx, conn, mode)
}

// reserve claims the client for one connection attempt. A failed or closed
// session is replaced.
func (c *Client) reserve() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil {
		switch c.sess.State() {
		case StateFailed, StateClosed:
			_ = c.sess.close()
		default:
			return ErrAlreadyConnected
		}
	}
	c.sess = &session{}
	c.sess.state.Store(int32(StateUnconnected))
	return nil
}

func (c *Client) release(s *session) {
	c.mu.Lock()
	c.sess = s
	c.mu.Unlock()
}

func (c *Client) attach(ctx context.Context, conn net.Conn, mode Mode) error {
	s := newSession(conn, c.cfg, mode)
	c.release(s)

	if err := s.establish(ctx, initiate); err != nil {
		// The session stays Failed until Close; only the socket is released.
		_ = conn.Close()
		return err
	}
	return nil
}

func (c *Client) current() (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.raw == nil {
		return nil, ErrNotConnected
	}
	return c.sess, nil
}

// Send writes a request, encrypting it on a secured session
func (c *Client) Send(req *protocol.Request) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	return s.sendRequest(req)
}

// Receive blocks for the next response, decrypting it on a secured session
func (c *Client) Receive() (*protocol.Response, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	return s.receiveResponse()
}

// Do sends req and waits for its response
func (c *Client) Do(req *protocol.Request) (*protocol.Response, error) {
	if err := c.Send(req); err != nil {
		return nil, err
	}
	return c.Receive()
}

// State reports the lifecycle state of the current session
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return StateUnconnected
	}
	return c.sess.State()
}

// PeerFingerprint returns the fingerprint of the server key, empty when insecure
func (c *Client) PeerFingerprint() string {
	s, err := c.current()
	if err != nil {
		return ""
	}
	return s.peerFingerprint()
}

// SessionID returns the identifier of the current session
func (c *Client) SessionID() string {
	s, err := c.current()
	if err != nil {
		return ""
	}
	return s.id
}

// Close closes the connection. The client may connect again afterwards.
func (c *Client) Close() error {
	s, err := c.current()
	if err != nil {
		return nil
	}
	return s.close()
}
