package ws

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goktugarikci/galeryBlog-sub000/entity"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Identity is who the transport says the connection belongs to.
type Identity struct {
	Role   entity.AuthorRole
	UserID string
}

func (i Identity) IsAdmin() bool { return i.Role == entity.RoleAdmin }

// Conn is one live transport connection.
type Conn struct {
	id        string
	identity  Identity
	transport *websocket.Conn
	send      chan []byte
	limiter   *rate.Limiter

	groups map[Group]struct{} // guarded by Registry.mu

	sendOnce  sync.Once
	closeOnce sync.Once
}

func NewConn(transport *websocket.Conn, identity Identity, buffer int, limiter *rate.Limiter) *Conn {
	if buffer <= 0 {
		buffer = 256
	}
	return &Conn{
		id:        uuid.NewString(),
		identity:  identity,
		transport: transport,
		send:      make(chan []byte, buffer),
		limiter:   limiter,
	}
}

// Outbound exposes queued frames; used by tests that run without a transport.
func (c *Conn) Outbound() <-chan []byte { return c.send }

func (c *Conn) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Conn) closeSend() {
	c.sendOnce.Do(func() { close(c.send) })
}

func (c *Conn) closeTransport() {
	c.closeOnce.Do(func() {
		if c.transport != nil {
			_ = c.transport.Close()
		}
	})
}

func (c *Conn) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// readPump runs the connection's event loop; events are handled one at a time in arrival order.
func (c *Conn) readPump(h *ChatHub) {
	defer func() {
		h.registry.Remove(c)
		c.closeTransport()
	}()

	c.transport.SetReadLimit(h.opts.MaxMessageSize)
	if err := c.transport.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.log.Debug("set read deadline", zap.String("conn", c.id), zap.Error(err))
	}
	c.transport.SetPongHandler(func(string) error {
		return c.transport.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.transport.ReadMessage()
		if err != nil {
			c.logReadError(h.log, err)
			return
		}
		if !c.allow() {
			h.rateLimited(c, raw)
			continue
		}
		h.dispatch(c, raw)
	}
}

func (c *Conn) logReadError(log *zap.Logger, err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Warn("frame exceeded read limit", zap.String("conn", c.id))
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived),
		isExpectedCloseError(err):
		log.Debug("connection closed", zap.String("conn", c.id))
	default:
		log.Info("connection read error", zap.String("conn", c.id), zap.Error(err))
	}
}

func (c *Conn) writePump(log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeTransport()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.transport.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.transport.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.transport.WriteMessage(websocket.TextMessage, frame); err != nil {
				if !isExpectedCloseError(err) {
					log.Info("write failed", zap.String("conn", c.id), zap.Error(err))
				}
				return
			}
		case <-ticker.C:
			_ = c.transport.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.transport.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "use of closed network connection") ||
		strings.Contains(s, "websocket: close sent") ||
		strings.Contains(s, "broken pipe")
}
