package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/navien/internal/logging"
	"github.com/muurk/navien/internal/protocol"
	"github.com/muurk/navien/internal/session"
)

// Defaults for Config fields left zero
const (
	DefaultListen       = ":8080"
	DefaultPollInterval = 60 * time.Second
	DefaultCycleTimeout = 15 * time.Second
	DefaultRefreshDelay = 2 * time.Second
	DefaultQueueSize    = 32
)

// ErrQueueFull is returned by Enqueue when too many commands are waiting
var ErrQueueFull = errors.New("command queue full")

// Link is an open connection to the controller for one cycle
type Link interface {
	Execute(cmd protocol.Command) error
	Close() error
}

// Connector opens a Link and returns the status frame read on connect
type Connector interface {
	Connect(ctx context.Context) (Link, *protocol.DeviceState, error)
}

// SessionConnector connects through the relay with a single reusable
// session, so its counters accumulate across cycles.
type SessionConnector struct {
	MAC     string
	session *session.Session
}

// NewSessionConnector creates a connector for the controller mac
func NewSessionConnector(userID, mac string, opts ...session.Option) *SessionConnector {
	return &SessionConnector{MAC: mac, session: session.New(userID, opts...)}
}

// Connect implements Connector
func (c *SessionConnector) Connect(ctx context.Context) (Link, *protocol.DeviceState, error) {
	state, err := c.session.Connect(ctx, c.MAC)
	if err != nil {
		return nil, nil, err
	}
	return c.session, state, nil
}

// Stats returns the session counters
func (c *SessionConnector) Stats() session.Stats {
	return c.session.Stats()
}

// Config configures a Bridge
type Config struct {
	Listen       string        // host:port for HTTP and WebSocket
	PollInterval time.Duration // time between status cycles
	CycleTimeout time.Duration // bound on one connect/read/execute/close cycle
	RefreshDelay time.Duration // wait before re-reading status after commands
	QueueSize    int           // pending command limit

	// Advertise announces the bridge over mDNS as InstanceName
	Advertise    bool
	InstanceName string

	Logger *zap.Logger
}

func (c *Config) setDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.CycleTimeout <= 0 {
		c.CycleTimeout = DefaultCycleTimeout
	}
	if c.RefreshDelay <= 0 {
		c.RefreshDelay = DefaultRefreshDelay
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.InstanceName == "" {
		c.InstanceName = "navien-bridge"
	}
	if c.Logger == nil {
		c.Logger = logging.GetLogger()
	}
}

// CommandResult reports the outcome of one queued request
type CommandResult struct {
	ID        string `json:"id,omitempty"`
	Operation string `json:"operation"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

type pendingCommand struct {
	id  string
	req protocol.Request
}

// Bridge polls one controller and fans its state out to WebSocket
// clients. Commands from clients are queued and executed in arrival order
// on the next cycle.
type Bridge struct {
	config    Config
	connector Connector
	logger    *zap.Logger
	hub       *hub

	mu      sync.Mutex
	pending []pendingCommand
	last    *protocol.DeviceState
	lastErr error
	lastAt  time.Time

	wake chan struct{}

	metrics Metrics
}

// New creates a Bridge reading from connector
func New(config Config, connector Connector) *Bridge {
	config.setDefaults()
	logger := config.Logger.With(zap.String("component", "bridge"))
	b := &Bridge{
		config:    config,
		connector: connector,
		logger:    logger,
		hub:       newHub(logger),
		wake:      make(chan struct{}, 1),
	}
	b.hub.dropped = &b.metrics.MessagesDropped
	return b
}

// LastState returns the most recent decoded state and when it was read
func (b *Bridge) LastState() (*protocol.DeviceState, time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.lastAt
}

// Enqueue queues req for the next cycle and wakes the poll loop. An empty
// id is replaced by a generated one; the id in use is returned.
func (b *Bridge) Enqueue(id string, req protocol.Request) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if _, err := protocol.ParseOperation(req.Operation); err != nil {
		return id, err
	}

	b.mu.Lock()
	if len(b.pending) >= b.config.QueueSize {
		b.mu.Unlock()
		return id, ErrQueueFull
	}
	b.pending = append(b.pending, pendingCommand{id: id, req: req})
	b.mu.Unlock()

	b.metrics.CommandsQueued.Inc()
	b.signal()
	return id, nil
}

func (b *Bridge) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Poll runs status cycles until ctx is done: one immediately, then every
// PollInterval, and early whenever commands are queued.
func (b *Bridge) Poll(ctx context.Context) {
	ticker := time.NewTicker(b.config.PollInterval)
	defer ticker.Stop()

	b.Cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Cycle(ctx)
		case <-b.wake:
			b.Cycle(ctx)
		}
	}
}

// Cycle connects, reads the status frame, executes every queued command
// in order and closes. The state and command results are broadcast.
func (b *Bridge) Cycle(ctx context.Context) {
	b.mu.Lock()
	cmds := b.pending
	b.pending = nil
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, b.config.CycleTimeout)
	defer cancel()

	b.metrics.Polls.Inc()
	link, state, err := b.connector.Connect(ctx)
	if err != nil {
		b.metrics.PollFailures.Inc()
		b.logger.Warn("Status cycle failed", zap.Error(err))

		b.mu.Lock()
		b.lastErr = err
		b.mu.Unlock()

		b.hub.broadcast(envelope{Type: TypeError, Error: err.Error()})
		for _, c := range cmds {
			b.finish(CommandResult{ID: c.id, Operation: c.req.Operation, Error: fmt.Sprintf("not sent: %v", err)})
		}
		return
	}

	if extra := state.UnsupportedRoomData(); extra != nil {
		b.logger.Warn("Status frame carries extra room data", zap.Error(extra))
	}

	b.mu.Lock()
	b.last = state
	b.lastErr = nil
	b.lastAt = time.Now()
	b.mu.Unlock()
	b.hub.broadcast(envelope{Type: TypeState, Data: state})

	for _, c := range cmds {
		b.finish(b.execute(link, state, c))
	}

	if err := link.Close(); err != nil {
		b.logger.Debug("Close failed", zap.Error(err))
	}

	if len(cmds) > 0 {
		time.AfterFunc(b.config.RefreshDelay, b.signal)
	}
}

func (b *Bridge) execute(link Link, state *protocol.DeviceState, c pendingCommand) CommandResult {
	result := CommandResult{ID: c.id, Operation: c.req.Operation}

	cmd, err := c.req.Build(state)
	if err == nil {
		err = link.Execute(cmd)
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}

	b.logger.Info("Command sent", zap.String("operation", c.req.Operation), zap.String("id", c.id))
	result.OK = true
	return result
}

func (b *Bridge) finish(r CommandResult) {
	if r.OK {
		b.metrics.CommandsSent.Inc()
	} else {
		b.metrics.CommandFailures.Inc()
		b.logger.Warn("Command failed", zap.String("operation", r.Operation), zap.String("error", r.Error))
	}
	b.hub.broadcast(envelope{Type: TypeResult, Data: r})
}
