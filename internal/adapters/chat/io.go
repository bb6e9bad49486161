package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
)

const writeWait = 5 * time.Second

// InboundFrame is the only application frame a client may send.
type InboundFrame struct {
	Message string `json:"message"`
}

func (ctl *Controller) writePump(ctx context.Context, c *wsChatConn) {
	ticker := time.NewTicker(ctl.pingPeriod())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "chat").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "chat").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "chat").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "chat").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cid domain.ConnID, room domain.RoomName, sess core.Session, c *wsChatConn) {
	defer func() {
		log.Info().Str("module", "chat").Str("cid", string(cid)).Msg("readPump closing")
		sess.Close()
	}()

	if ctl.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.ReadLimit)
	}
	pongWait := ctl.pingPeriod() * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "chat").Str("cid", string(cid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "chat").Str("cid", string(cid)).Msg("readPump read error")
				return
			}
			ctl.handleFrame(cid, room, data)
		}
	}
}

func (ctl *Controller) handleFrame(cid domain.ConnID, room domain.RoomName, data []byte) {
	var f InboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		// One bad frame does not cost the whole session: drop and move on.
		log.Warn().Err(err).Str("module", "chat").Str("cid", string(cid)).Msg("malformed frame dropped")
		return
	}
	if f.Message == "" {
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(cid) {
		log.Warn().Str("module", "chat").Str("cid", string(cid)).Msg("rate limit exceeded, frame dropped")
		return
	}
	ctl.Hub.Broadcast(domain.Inbound{Room: room, Sender: cid, Text: f.Message})
}

func (ctl *Controller) pingPeriod() time.Duration {
	if ctl.PingPeriod <= 0 {
		return 54 * time.Second
	}
	return ctl.PingPeriod
}
