package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/navien/internal/logging"
	"github.com/muurk/navien/internal/protocol"
)

// ConnectionState represents the session connection state
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

// String returns the state name
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("ConnectionState(%d)", int32(s))
	}
}

var (
	// ErrAlreadyConnected is returned by Connect when the session is not disconnected
	ErrAlreadyConnected = errors.New("session already connected")
	// ErrNotConnected is returned by Send and Execute without an open connection
	ErrNotConnected = errors.New("session not connected")
	// ErrInvalidIdentification is returned when an identification field contains '$' or a newline
	ErrInvalidIdentification = errors.New("invalid identification field")
)

const identSeparator = "$"

// Session is one status/command connection to a single controller
// through the relay.
//
// A Session moves Disconnected → Connecting → Connected and back to
// Disconnected on Close or on any transport or frame error. It never
// reconnects by itself. Sends are serialized in caller order.
type Session struct {
	userID string
	opts   *sessionOptions
	logger *zap.Logger

	state atomic.Int32

	// mu guards conn, last, the in-flight connect and state transitions
	// out of Connecting
	mu       sync.Mutex
	conn     net.Conn
	last     *protocol.DeviceState
	abort    context.CancelFunc
	aborting bool

	// sendMu serializes writes on conn
	sendMu sync.Mutex

	metrics *Metrics
}

// New creates a disconnected session for userID
func New(userID string, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Session{
		userID:  userID,
		opts:    o,
		logger:  o.logger.With(zap.String("component", "session")),
		metrics: &Metrics{},
	}
}

// State returns the current connection state
func (s *Session) State() ConnectionState {
	return ConnectionState(s.state.Load())
}

// Stats returns a snapshot of the session counters
func (s *Session) Stats() Stats {
	return s.metrics.Snapshot()
}

// LastState returns the state decoded by the last successful Connect, or nil
func (s *Session) LastState() *protocol.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// IdentificationLine builds the line sent right after connecting
func IdentificationLine(userID, clientLabel, mac string) (string, error) {
	for name, v := range map[string]string{"user id": userID, "client label": clientLabel, "mac": mac} {
		if v == "" || strings.ContainsAny(v, identSeparator+"\r\n") {
			return "", fmt.Errorf("%w: %s %q", ErrInvalidIdentification, name, v)
		}
	}
	return userID + identSeparator + clientLabel + identSeparator + mac + "\n", nil
}

// Connect opens the relay socket, identifies as the session's user for the
// controller mac, reads one status frame and decodes it.
//
// On any error the connection is closed and the session is Disconnected
// again. Frame errors are returned as *protocol.FrameError so callers can
// tell a failure marker (protocol.ErrTransientRead) from a short read.
//
// A Close during Connect aborts it; the session stays Connecting until
// Connect has unwound, so no second Connect can overlap it.
func (s *Session) Connect(ctx context.Context, mac string) (*protocol.DeviceState, error) {
	if !s.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return nil, ErrAlreadyConnected
	}

	start := time.Now()
	s.metrics.ConnectAttempts.Inc()

	ctx, abort := context.WithCancel(ctx)
	defer abort()
	s.mu.Lock()
	s.abort = abort
	if s.aborting {
		// Close arrived before abort was registered
		abort()
	}
	s.mu.Unlock()

	state, err := s.connect(ctx, mac)

	// Leave Connecting in one step so a concurrent Close sees either
	// Connecting with aborting unset, or the final state
	s.mu.Lock()
	aborted := s.aborting
	s.abort = nil
	s.aborting = false
	var conn net.Conn
	if err == nil && !aborted {
		s.last = state
		s.state.Store(int32(StateConnected))
	} else {
		conn = s.conn
		s.conn = nil
		s.state.Store(int32(StateDisconnected))
	}
	s.mu.Unlock()

	if err != nil || aborted {
		s.metrics.ConnectFailures.Inc()
		_ = s.closeConn(conn)
		if aborted {
			return nil, fmt.Errorf("connect %s: %w", mac, net.ErrClosed)
		}
		return nil, err
	}

	s.metrics.ConnectSuccesses.Inc()
	s.metrics.connectLatency.record(time.Since(start))
	s.logger.Info("Session connected",
		zap.String("mac", mac),
		zap.String("device_id", state.DeviceID.String()),
		zap.Stringer("mode", state.CurrentMode),
	)

	return state, nil
}

func (s *Session) connect(ctx context.Context, mac string) (*protocol.DeviceState, error) {
	line, err := IdentificationLine(s.userID, s.opts.clientLabel, mac)
	if err != nil {
		return nil, err
	}

	if s.opts.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.opts.timeout)
			defer cancel()
		}
	}

	conn, err := s.opts.dialer.DialContext(ctx, "tcp", s.opts.address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.opts.address, err)
	}

	s.mu.Lock()
	if s.aborting {
		s.mu.Unlock()
		_ = conn.Close()
		return nil, fmt.Errorf("dial %s: %w", s.opts.address, net.ErrClosed)
	}
	s.conn = conn
	s.mu.Unlock()

	logging.LogConnection(s.opts.address, "connected")

	// Unblock the read below when ctx ends
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write([]byte(line)); err != nil {
		return nil, s.ctxErr(ctx, fmt.Errorf("write identification: %w", err))
	}
	s.metrics.BytesSent.Add(int64(len(line)))
	s.logger.Debug("Identification sent", zap.String("mac", mac), zap.String("label", s.opts.clientLabel))

	buf := make([]byte, s.opts.readBufferSize)
	n, err := conn.Read(buf)
	if n == 0 && err != nil {
		return nil, s.ctxErr(ctx, fmt.Errorf("read status frame: %w", err))
	}
	s.metrics.BytesReceived.Add(int64(n))
	s.metrics.recordActivity()
	logging.LogRawBytes("Status frame", buf[:n])

	if !stop() {
		// ctx fired after the read completed and may have set a deadline
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	_ = conn.SetDeadline(time.Time{})

	state, err := protocol.DecodeState(buf[:n])
	if err != nil {
		switch {
		case errors.Is(err, protocol.ErrTransientRead):
			s.metrics.TransientReads.Inc()
			s.logger.Warn("Relay sent failure marker", zap.String("mac", mac))
		case errors.Is(err, protocol.ErrTruncatedFrame):
			s.metrics.TruncatedFrames.Inc()
		}
		return nil, err
	}
	s.metrics.FramesDecoded.Inc()

	if err := state.UnsupportedRoomData(); err != nil {
		s.metrics.ExtraRoomFrames.Inc()
		s.logger.Warn("Status frame has room data this client cannot decode",
			zap.Uint8("room_count", state.RoomCount),
			zap.Int("extra_bytes", len(state.ExtraRoomData)),
		)
	}

	return state, nil
}

// ctxErr prefers the context's error when it caused err
func (s *Session) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	return err
}

// Send writes frame verbatim. No response is awaited; the next status
// frame is the only confirmation. A write error closes the session.
func (s *Session) Send(frame []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if s.State() != StateConnected {
		return ErrNotConnected
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	if s.opts.timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.opts.timeout))
		defer func() { _ = conn.SetWriteDeadline(time.Time{}) }()
	}

	n, err := conn.Write(frame)
	s.metrics.BytesSent.Add(int64(n))
	if err != nil {
		s.metrics.SendFailures.Inc()
		s.logger.Warn("Send failed, closing session", zap.Error(err))
		_ = s.teardown(StateConnected)
		return fmt.Errorf("send: %w", err)
	}

	s.metrics.CommandsSent.Inc()
	s.metrics.recordActivity()
	logging.LogRawBytes("Command frame", frame)

	return nil
}

// Execute encodes cmd for the device decoded on this connection and sends it
func (s *Session) Execute(cmd protocol.Command) error {
	if s.State() != StateConnected {
		return ErrNotConnected
	}
	last := s.LastState()
	if last == nil {
		return ErrNotConnected
	}

	s.logger.Debug("Executing command", zap.Stringer("command", cmd))
	return s.Send(cmd.Encode(last.DeviceID))
}

// Close closes the connection. Closing a disconnected session is a no-op.
// Closing a connecting session aborts the connect, which then returns an
// error wrapping net.ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.State() != StateConnecting {
		s.mu.Unlock()
		return s.teardown(StateConnected)
	}

	s.aborting = true
	abort := s.abort
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if abort != nil {
		abort()
	}
	return s.closeConn(conn)
}

// teardown moves the session from the given state to Disconnected and
// closes the connection. It does nothing when the session has already
// left that state.
func (s *Session) teardown(from ConnectionState) error {
	s.mu.Lock()
	if !s.state.CompareAndSwap(int32(from), int32(StateDisconnected)) {
		s.mu.Unlock()
		return nil
	}
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	return s.closeConn(conn)
}

func (s *Session) closeConn(conn net.Conn) error {
	if conn == nil {
		return nil
	}

	s.metrics.Disconnects.Inc()
	logging.LogConnection(s.opts.address, "closed")
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
