package bridge

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/navien/internal/logging"
	"github.com/muurk/navien/internal/protocol"
	"github.com/muurk/navien/internal/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound messages buffered per client before it is dropped
	sendBuffer = 16
)

// Message types
const (
	TypeState   = "state"
	TypeResult  = "result"
	TypeError   = "error"
	TypeCommand = "command"
	TypeAck     = "ack"
)

// envelope is every message exchanged with WebSocket clients
type envelope struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// inbound is a client message. Only TypeCommand is accepted.
type inbound struct {
	Type string           `json:"type"`
	ID   string           `json:"id,omitempty"`
	Data protocol.Request `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bridge is a LAN service without browser sessions to protect
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	addr string
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// hub tracks connected clients
type hub struct {
	logger  *zap.Logger
	dropped *session.Counter

	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub(logger *zap.Logger) *hub {
	return &hub{logger: logger, clients: make(map[*client]struct{})}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast queues msg for every client. Clients whose buffer is full are
// disconnected.
func (h *hub) broadcast(msg envelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("Client too slow, dropping", zap.String("remote_addr", c.addr))
			if h.dropped != nil {
				h.dropped.Inc()
			}
			delete(h.clients, c)
			c.close()
		}
	}
}

// sendTo queues msg for one client
func (h *hub) sendTo(c *client, msg envelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// handleWebSocket upgrades the request and serves one client: the last
// known state is sent at once, then broadcasts follow. Commands read
// from the client are queued on the bridge.
func (b *Bridge) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, addr: r.RemoteAddr, send: make(chan []byte, sendBuffer)}
	b.hub.add(c)
	b.metrics.ClientsAccepted.Inc()
	logging.LogConnection(c.addr, "websocket_connected")

	if state, _ := b.LastState(); state != nil {
		b.hub.sendTo(c, envelope{Type: TypeState, Data: state})
	}

	go b.writeLoop(c)
	b.readLoop(c)
}

func (b *Bridge) readLoop(c *client) {
	defer func() {
		b.hub.remove(c)
		logging.LogConnection(c.addr, "websocket_closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Debug("WebSocket read failed", zap.String("remote_addr", c.addr), zap.Error(err))
			}
			return
		}
		logging.LogWebSocketMessage(c.addr, "received", websocket.TextMessage, data)

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			b.hub.sendTo(c, envelope{Type: TypeError, Error: "invalid JSON: " + err.Error()})
			continue
		}
		if msg.Type != TypeCommand {
			b.hub.sendTo(c, envelope{Type: TypeError, ID: msg.ID, Error: "unsupported message type " + strconv.Quote(msg.Type)})
			continue
		}
		id, err := b.Enqueue(msg.ID, msg.Data)
		if err != nil {
			b.hub.sendTo(c, envelope{Type: TypeError, ID: id, Error: err.Error()})
			continue
		}
		b.hub.sendTo(c, envelope{Type: TypeAck, ID: id})
	}
}

func (b *Bridge) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeAll disconnects every client
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
