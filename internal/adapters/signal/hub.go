// Package signal pushes roster changes to browsers over websockets.
package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicebridge/internal/domain"
	"github.com/dkeye/voicebridge/internal/metrics"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

const sendBuffer = 32

type Frame []byte

type WsSignalConn struct {
	conn        *websocket.Conn
	send        chan Frame
	clientToken string

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// Hub fans roster events out to every connected browser. A client that
// cannot keep up is disconnected.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*WsSignalConn]struct{}
	snapshot func() any
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*WsSignalConn]struct{})}
}

// SetSnapshot sets the roster sent to a client right after it connects.
func (h *Hub) SetSnapshot(fn func() any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = fn
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Publish implements orch.EventPublisher.
func (h *Hub) Publish(ev domain.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("marshal event")
		return
	}

	h.mu.RLock()
	conns := make([]*WsSignalConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.TrySend(b); errors.Is(err, ErrBackpressure) {
			log.Warn().Str("module", "signal").Str("client", c.clientToken).Msg("slow client dropped")
			h.remove(c)
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Hub) HandleEvents(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	log.Info().Str("module", "signal").Str("client", token).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn:        ws,
		send:        make(chan Frame, sendBuffer),
		clientToken: token,
	}
	h.add(conn)
	h.sendRoster(conn)

	ctx, cancel := context.WithCancel(ctx)
	go h.writePump(ctx, conn)
	go func() {
		defer cancel()
		h.readPump(ctx, conn)
	}()
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[*WsSignalConn]struct{})
	h.mu.Unlock()
	for c := range conns {
		c.Close()
	}
	metrics.EventStreamClients.Set(0)
}

func (h *Hub) add(c *WsSignalConn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	metrics.EventStreamClients.Set(float64(n))
}

func (h *Hub) remove(c *WsSignalConn) {
	h.mu.Lock()
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()
	c.Close()
	metrics.EventStreamClients.Set(float64(n))
}

func (h *Hub) sendRoster(c *WsSignalConn) {
	h.mu.RLock()
	fn := h.snapshot
	h.mu.RUnlock()
	if fn == nil {
		return
	}
	h.sendJSON(c, struct {
		Type   string `json:"type"`
		Roster any    `json:"roster"`
	}{Type: "roster", Roster: fn()})
}
