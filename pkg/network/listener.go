package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	manet "github.com/multiformats/go-multiaddr/net"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ZentaChain/adtp/pkg/framing"
	"github.com/ZentaChain/adtp/pkg/protocol"
)

// Handler answers one decrypted request
type Handler interface {
	ServeADTP(req *protocol.Request) *protocol.Response
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(req *protocol.Request) *protocol.Response

func (f HandlerFunc) ServeADTP(req *protocol.Request) *protocol.Response {
	return f(req)
}

// Stats is a snapshot of listener counters
type Stats struct {
	Accepted uint64 `json:"accepted"`
	Active   int    `json:"active"`
	Secured  uint64 `json:"secured"`
	Insecure uint64 `json:"insecure"`
	Failed   uint64 `json:"failed"`
}

// Listener accepts ADTP connections. Each accepted connection gets its own
// session; sessions share no mutable state.
type Listener struct {
	cfg config
	ln  manet.Listener
	log *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool

	accepted atomic.Uint64
	secured  atomic.Uint64
	insecure atomic.Uint64
	failed   atomic.Uint64

	wg sync.WaitGroup
}

// Listen opens a TCP listener on addr (multiaddr or host:port)
func Listen(addr string, opts ...Option) (*Listener, error) {
	m, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}
	ln, err := manet.Listen(m)
	if err != nil {
		return nil, fmt.Errorf("network: listen %s: %w", m, err)
	}

	cfg := newConfig(opts)
	l := &Listener{
		cfg:      cfg,
		ln:       ln,
		log:      cfg.logger,
		sessions: make(map[string]*session),
	}
	l.log.Info("Listening", zap.String("addr", ln.Multiaddr().String()))
	return l, nil
}

// Addr returns the bound address as a multiaddr string
func (l *Listener) Addr() string {
	return l.ln.Multiaddr().String()
}

// NetAddr returns the bound address as host:port
func (l *Listener) NetAddr() net.Addr {
	return l.ln.Addr()
}

// AcceptSecure waits for a connection and runs the server handshake
func (l *Listener) AcceptSecure(ctx context.Context) (*ServerSession, error) {
	return l.Accept(ctx, ModeSecure)
}

// AcceptInsecure waits for a connection without a handshake
func (l *Listener) AcceptInsecure(ctx context.Context) (*ServerSession, error) {
	return l.Accept(ctx, ModeInsecure)
}

// Accept waits for the next connection and establishes it in mode. ctx
// bounds the handshake, not the wait.
func (l *Listener) Accept(ctx context.Context, mode Mode) (*ServerSession, error) {
	raw, err := l.ln.Accept()
	if err != nil {
		if l.isClosed() {
			return nil, ErrListenerClosed
		}
		return nil, fmt.Errorf("network: accept: %w", err)
	}
	return l.establish(ctx, raw, mode)
}

func (l *Listener) establish(ctx context.Context, raw net.Conn, mode Mode) (*ServerSession, error) {
	l.accepted.Add(1)

	s := newSession(raw, l.cfg, mode)
	if !l.track(s) {
		_ = raw.Close()
		return nil, ErrListenerClosed
	}
	s.onClose = l.untrack

	if err := s.establish(ctx, accept); err != nil {
		l.failed.Add(1)
		_ = s.close()
		return nil, err
	}

	if mode == ModeSecure {
		l.secured.Add(1)
	} else {
		l.insecure.Add(1)
	}
	return &ServerSession{s: s}, nil
}

// Serve accepts connections until ctx is done or the listener is closed,
// answering each request with h. Connections are served concurrently.
func (l *Listener) Serve(ctx context.Context, mode Mode, h Handler) error {
	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	for {
		raw, err := l.ln.Accept()
		if err != nil {
			if l.isClosed() {
				l.wg.Wait()
				return nil
			}
			return fmt.Errorf("network: accept: %w", err)
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.serveConn(ctx, raw, mode, h)
		}()
	}
}

func (l *Listener) serveConn(ctx context.Context, raw net.Conn, mode Mode, h Handler) {
	ss, err := l.establish(ctx, raw, mode)
	if err != nil {
		l.log.Warn("Connection rejected",
			zap.String("remote", remoteAddr(raw)),
			zap.Error(err))
		return
	}
	defer ss.Close()

	for {
		req, err := ss.Receive()
		if err != nil {
			if !errors.Is(err, framing.ErrConnectionClosed) && ss.State() != StateClosed {
				l.log.Warn("Receive failed", zap.String("session", ss.ID()), zap.Error(err))
			}
			return
		}

		resp := h.ServeADTP(req)
		if resp == nil {
			resp = protocol.NewResponse(protocol.StatusInternalError)
		}
		if err := ss.Send(resp); err != nil {
			l.log.Warn("Send failed", zap.String("session", ss.ID()), zap.Error(err))
			return
		}
	}
}

func (l *Listener) track(s *session) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.sessions[s.id] = s
	return true
}

func (l *Listener) untrack(s *session) {
	l.mu.Lock()
	delete(l.sessions, s.id)
	l.mu.Unlock()
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Stats returns a snapshot of the listener counters
func (l *Listener) Stats() Stats {
	l.mu.Lock()
	active := len(l.sessions)
	l.mu.Unlock()

	return Stats{
		Accepted: l.accepted.Load(),
		Active:   active,
		Secured:  l.secured.Load(),
		Insecure: l.insecure.Load(),
		Failed:   l.failed.Load(),
	}
}

// Close stops accepting and closes every live session
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	live := make([]*session, 0, len(l.sessions))
	for _, s := range l.sessions {
		live = append(live, s)
	}
	l.mu.Unlock()

	err := l.ln.Close()
	for _, s := range live {
		err = multierr.Append(err, s.close())
	}
	l.log.Info("Listener closed", zap.Int("sessions_closed", len(live)))
	return err
}
