package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ZentaChain/adtp/pkg/crypto"
	"github.com/ZentaChain/adtp/pkg/framing"
	"github.com/ZentaChain/adtp/pkg/handshake"
	"github.com/ZentaChain/adtp/pkg/protocol"
	"github.com/ZentaChain/adtp/pkg/secure"
)

// session owns one transport connection. Sends and receives are serialized
// independently, so one sender and one receiver may run concurrently.
type session struct {
	id      string
	raw     net.Conn
	frames  *framing.Reader
	channel *secure.Channel
	mode    Mode
	cfg     config
	log     *zap.Logger

	state  atomic.Int32
	sendMu sync.Mutex
	recvMu sync.Mutex

	peerFP atomic.Pointer[string]

	errMu   sync.Mutex
	lastErr error

	recorded  atomic.Bool
	closeOnce sync.Once
	onClose   func(*session)
}

// newSession wraps raw. mode must not change once the session is shared.
func newSession(raw net.Conn, cfg config, mode Mode) *session {
	id := uuid.NewString()
	s := &session{
		id:     id,
		raw:    raw,
		frames: framing.NewReader(raw, cfg.framingOptions()...),
		mode:   mode,
		cfg:    cfg,
		log: cfg.logger.With(
			zap.String("session", id),
			zap.String("remote", remoteAddr(raw))),
	}
	s.state.Store(int32(StateConnected))
	return s
}

type handshakeFunc func(ctx context.Context, stream *handshake.Stream, opts handshake.Options) (*handshake.Keys, error)

func initiate(ctx context.Context, stream *handshake.Stream, opts handshake.Options) (*handshake.Keys, error) {
	return handshake.Initiate(ctx, stream, opts)
}

func accept(ctx context.Context, stream *handshake.Stream, opts handshake.Options) (*handshake.Keys, error) {
	return handshake.Accept(ctx, stream, opts)
}

// establish moves a connected session to Secured or Insecure
func (s *session) establish(ctx context.Context, run handshakeFunc) error {
	if s.mode == ModeInsecure {
		s.setState(StateInsecure)
		s.log.Info("Session established", zap.String("mode", s.mode.String()))
		s.recordOpen()
		return nil
	}

	s.setState(StateHandshaking)
	disarm := s.armDeadline(ctx)
	keys, err := run(ctx, &handshake.Stream{W: s.raw, R: s.frames}, s.cfg.handshakeOptions())
	if cancelled := disarm(); cancelled && err == nil {
		err = fmt.Errorf("handshake: %w", handshake.ErrHandshakeTimeout)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", err, ctxErr)
		}
		return s.fail(err)
	}

	channel, err := secure.NewChannel(keys.Local, keys.Peer, keys.Symmetric)
	if err != nil {
		return s.fail(err)
	}
	s.channel = channel
	if fp, err := crypto.Fingerprint(keys.Peer); err == nil {
		s.peerFP.Store(&fp)
	}

	s.setState(StateSecured)
	s.log.Info("Session established",
		zap.String("mode", s.mode.String()),
		zap.String("peer_fingerprint", s.peerFingerprint()))
	s.recordOpen()
	return nil
}

// armDeadline applies the handshake timeout and the context to the
// connection. The returned func clears both and reports whether the
// context fired.
func (s *session) armDeadline(ctx context.Context) func() bool {
	deadline, ok := ctx.Deadline()
	if t := s.cfg.handshakeTimeout; t > 0 {
		if d := time.Now().Add(t); !ok || d.Before(deadline) {
			deadline, ok = d, true
		}
	}
	if ok {
		_ = s.raw.SetDeadline(deadline)
	}

	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = s.raw.SetDeadline(time.Unix(1, 0))
		close(fired)
	})

	return func() bool {
		cancelled := false
		if !stop() {
			<-fired
			cancelled = true
		}
		_ = s.raw.SetDeadline(time.Time{})
		return cancelled
	}
}

func (s *session) State() State {
	return State(s.state.Load())
}

func (s *session) setState(st State) {
	s.state.Store(int32(st))
}

func (s *session) usable() error {
	switch s.State() {
	case StateSecured, StateInsecure:
		return nil
	case StateFailed:
		return ErrSessionFailed
	case StateClosed:
		return ErrSessionClosed
	default:
		return ErrNotConnected
	}
}

// fail marks the session unusable and returns err
func (s *session) fail(err error) error {
	s.errMu.Lock()
	if s.lastErr == nil {
		s.lastErr = err
	}
	s.errMu.Unlock()

	for {
		cur := s.state.Load()
		if State(cur) == StateClosed || State(cur) == StateFailed {
			break
		}
		if s.state.CompareAndSwap(cur, int32(StateFailed)) {
			s.log.Warn("Session failed", zap.Error(err))
			break
		}
	}
	return err
}

func (s *session) write(m framing.Builder) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if err := framing.WriteMessage(s.raw, m); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *session) sendRequest(req *protocol.Request) error {
	if err := s.usable(); err != nil {
		return err
	}
	out := req
	if s.channel != nil {
		sealed, err := s.channel.SealRequest(req)
		if err != nil {
			return err
		}
		out = sealed
	}
	return s.write(out)
}

func (s *session) sendResponse(resp *protocol.Response) error {
	if err := s.usable(); err != nil {
		return err
	}
	out := resp
	if s.channel != nil {
		sealed, err := s.channel.SealResponse(resp)
		if err != nil {
			return err
		}
		out = sealed
	}
	return s.write(out)
}

func (s *session) receiveRequest() (*protocol.Request, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	s.recvMu.Lock()
	defer s.recvMu.Unlock()

	req, err := s.frames.ReadRequest()
	if err != nil {
		return nil, s.fail(err)
	}
	if s.channel != nil {
		if req, err = s.channel.OpenRequest(req); err != nil {
			return nil, s.fail(err)
		}
	}
	return req, nil
}

func (s *session) receiveResponse() (*protocol.Response, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	s.recvMu.Lock()
	defer s.recvMu.Unlock()

	resp, err := s.frames.ReadResponse()
	if err != nil {
		return nil, s.fail(err)
	}
	if s.channel != nil {
		if resp, err = s.channel.OpenResponse(resp); err != nil {
			return nil, s.fail(err)
		}
	}
	return resp, nil
}

func (s *session) close() error {
	var err error
	s.closeOnce.Do(func() {
		prev := State(s.state.Swap(int32(StateClosed)))
		if err = s.raw.Close(); errors.Is(err, net.ErrClosed) {
			err = nil
		}

		outcome, errText := OutcomeClosed, ""
		if prev == StateFailed {
			s.errMu.Lock()
			lastErr := s.lastErr
			s.errMu.Unlock()

			if errors.Is(lastErr, framing.ErrConnectionClosed) {
				outcome = OutcomePeerClosed
			} else {
				outcome = OutcomeFailed
				if lastErr != nil {
					errText = lastErr.Error()
				}
			}
		}

		s.recordOpen()
		if rec := s.cfg.recorder; rec != nil {
			if rerr := rec.RecordClose(s.id, outcome, errText, time.Now()); rerr != nil {
				s.log.Warn("Failed to record session close", zap.Error(rerr))
			}
		}
		if s.onClose != nil {
			s.onClose(s)
		}
		s.log.Debug("Session closed", zap.String("outcome", outcome))
	})
	return err
}

// recordOpen reports the session once; failed handshakes are reported at close
func (s *session) recordOpen() {
	rec := s.cfg.recorder
	if rec == nil || !s.recorded.CompareAndSwap(false, true) {
		return
	}
	if err := rec.RecordOpen(s.id, remoteAddr(s.raw), s.mode.String(), s.peerFingerprint(), time.Now()); err != nil {
		s.log.Warn("Failed to record session open", zap.Error(err))
	}
}

// peerFingerprint is empty until a secure handshake completes
func (s *session) peerFingerprint() string {
	if fp := s.peerFP.Load(); fp != nil {
		return *fp
	}
	return ""
}

func remoteAddr(c net.Conn) string {
	if addr := c.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
