package session

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/navien/internal/logging"
	"github.com/muurk/navien/internal/relay"
)

const (
	// DefaultPort is the relay's status/command socket port
	DefaultPort = "6001"

	// DefaultAddress is the relay socket address
	DefaultAddress = relay.DefaultHost + ":" + DefaultPort

	// DefaultClientLabel is the client label sent in the identification line
	DefaultClientLabel = "iPhone1.0"

	// DefaultReadBufferSize bounds the single status read after identification
	DefaultReadBufferSize = 1024
)

// Dialer opens stream connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type sessionOptions struct {
	address        string
	dialer         Dialer
	clientLabel    string
	readBufferSize int
	timeout        time.Duration
	logger         *zap.Logger
}

func defaultOptions() *sessionOptions {
	return &sessionOptions{
		address:        DefaultAddress,
		dialer:         &net.Dialer{},
		clientLabel:    DefaultClientLabel,
		readBufferSize: DefaultReadBufferSize,
		logger:         logging.GetLogger(),
	}
}

// Option is a functional option for configuring a Session
type Option func(*sessionOptions)

// WithAddress sets the relay socket address (host:port)
func WithAddress(addr string) Option {
	return func(o *sessionOptions) {
		o.address = addr
	}
}

// WithDialer replaces the dialer used to reach the relay
func WithDialer(d Dialer) Option {
	return func(o *sessionOptions) {
		if d != nil {
			o.dialer = d
		}
	}
}

// WithClientLabel sets the client label sent in the identification line
func WithClientLabel(label string) Option {
	return func(o *sessionOptions) {
		o.clientLabel = label
	}
}

// WithReadBufferSize sets the size of the single status read
func WithReadBufferSize(n int) Option {
	return func(o *sessionOptions) {
		if n > 0 {
			o.readBufferSize = n
		}
	}
}

// WithTimeout bounds connect, the status read and each send when the
// caller's context has no deadline. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *sessionOptions) {
		o.timeout = d
	}
}

// WithLogger sets the logger (default: logging.GetLogger())
func WithLogger(l *zap.Logger) Option {
	return func(o *sessionOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
