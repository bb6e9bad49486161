// Package chat is the websocket transport adapter: it accepts a connection
// into a room, decodes inbound frames and hands them to the hub. All
// translation and fan-out logic lives behind the hub, not here.
package chat

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
)

type Controller struct {
	Hub        *app.Hub
	Registry   *app.Registry
	Translator core.Translator
	Limiter    *MessageRateLimiter

	ReadLimit   int64
	PingPeriod  time.Duration
	SendBuffer  int
	QueueSize   int
	DefaultLang domain.Language
}

type wsChatConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsChatConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *wsChatConn) Close() {
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

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleChat upgrades the connection and joins it to the room named in
// the path. Language preference comes from the lang query parameter,
// then the identity claims, then the configured default.
func (ctl *Controller) HandleChat(ctx context.Context, c *gin.Context) {
	room, err := domain.ParseRoomName(c.Param("room"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rawLang := c.Query("lang")
	if rawLang == "" {
		rawLang = c.GetString("user_lang")
	}
	lang := domain.NormalizeLanguage(rawLang, ctl.DefaultLang)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("ws upgrade")
		return
	}

	cid := domain.ConnID(uuid.NewString())
	conn := &wsChatConn{
		conn: ws,
		send: make(chan core.Frame, ctl.SendBuffer),
	}

	member := domain.NewMember(ctl.userFrom(c), lang)
	sess := core.NewSession(cid, member, conn, ctl.Translator, ctl.QueueSize)

	ctx, cancel := context.WithCancel(ctx)
	sess.OnClose(func() {
		ctl.Registry.Leave(cid)
		if ctl.Limiter != nil {
			ctl.Limiter.Forget(cid)
		}
		cancel()
	})

	if err := ctl.Registry.Join(cid, room, sess, cancel); err != nil {
		log.Error().Err(err).Str("module", "chat").Str("cid", string(cid)).Msg("join rejected")
		sess.Close()
		return
	}
	sess.Activate(ctx)
	log.Info().Str("module", "chat").Str("cid", string(cid)).Str("room", string(room)).Str("lang", string(lang)).Msg("connection joined")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cid, room, sess, conn)
}

func (ctl *Controller) userFrom(c *gin.Context) *domain.User {
	u := domain.NewGuest()
	id := c.GetString("user_id")
	if id == "" || len(id) > domain.MaxUserIDLen {
		return u
	}
	u.ID = domain.UserID(id)
	if err := u.SetUsername(c.GetString("user_name")); err != nil {
		// Unusable name claim; the guest username stands.
		log.Debug().Err(err).Str("module", "chat").Msg("rejected claim username")
	}
	return u
}
