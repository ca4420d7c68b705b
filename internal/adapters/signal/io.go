package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

func (h *Hub) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("client", c.clientToken).Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (h *Hub) readPump(ctx context.Context, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("client", c.clientToken).Msg("readPump closing")
		h.remove(c)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("client", c.clientToken).Msg("readPump read error")
				}
				return
			}
			h.handleMessage(c, data)
		}
	}
}

func (h *Hub) handleMessage(c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		h.sendJSON(c, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}

	switch env.Type {
	case "ping":
		h.sendJSON(c, map[string]any{"type": "pong"})
	case "whoami":
		h.sendJSON(c, map[string]any{"type": "whoami", "clientToken": c.clientToken})
	case "roster":
		h.sendRoster(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown message")
	}
}

func (h *Hub) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
