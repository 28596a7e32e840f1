package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goktugarikci/galeryBlog-sub000/entity"
	"github.com/goktugarikci/galeryBlog-sub000/services"
	"github.com/goktugarikci/galeryBlog-sub000/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	errForbidden   = errors.New("not allowed")
	errRateLimited = errors.New("rate limited")
)

type Options struct {
	AllowedOrigins []string
	MaxMessageSize int64
	SendBuffer     int
	RateLimit      float64 // frames per second, 0 disables
	RateBurst      int

	// StrictValidation answers a join without identity or an admin join of an
	// unknown room with chat_error instead of dropping it.
	StrictValidation bool
	// AdminAuth restricts admin events to connections with an admin token.
	AdminAuth bool
	// VerifyUserID rejects a join_chat userId from a connection without a user token.
	VerifyUserID bool
}

type handlerFunc func(h *ChatHub, c *Conn, data json.RawMessage)

// ChatHub is the chat transport: it upgrades connections and dispatches their events.
type ChatHub struct {
	registry *Registry
	chat     *services.ChatService
	log      *zap.Logger
	opts     Options
	upgrader websocket.Upgrader
	handlers map[string]handlerFunc

	// base context for persistence; a disconnect must not cancel an accepted write
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewChatHub(registry *Registry, chat *services.ChatService, log *zap.Logger, opts Options) *ChatHub {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxMessageSize <= 0 {
		// room for MaxContentLen runes of 4-byte UTF-8 plus the envelope
		opts.MaxMessageSize = 64 << 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &ChatHub{
		registry: registry,
		chat:     chat,
		log:      log,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		handlers: map[string]handlerFunc{
			EventAdminConnected: (*ChatHub).handleAdminConnected,
			EventJoinChat:       (*ChatHub).handleJoinChat,
			EventAdminJoinRoom:  (*ChatHub).handleAdminJoinRoom,
			EventSendMessage:    (*ChatHub).handleSendMessage,
		},
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *ChatHub) Registry() *Registry { return h.registry }

// WS route: /ws
// identity comes from middlewares.WSIdentityMiddleware; no token means guest
func (h *ChatHub) HandleWebSocket(c *gin.Context) {
	identity := Identity{Role: entity.RoleGuest}
	switch role := utils.CurrentRole(c); role {
	case "":
	case string(entity.RoleAdmin):
		identity = Identity{Role: entity.RoleAdmin, UserID: utils.CurrentUserID(c)}
	default:
		identity = Identity{Role: entity.RoleUser, UserID: utils.CurrentUserID(c)}
	}

	transport, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Info("ws upgrade failed", zap.Error(err))
		return
	}
	h.Serve(transport, identity)
}

// Serve registers an upgraded connection and starts its pumps.
func (h *ChatHub) Serve(transport *websocket.Conn, identity Identity) *Conn {
	var limiter *rate.Limiter
	if h.opts.RateLimit > 0 {
		burst := h.opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(h.opts.RateLimit), burst)
	}

	c := NewConn(transport, identity, h.opts.SendBuffer, limiter)
	h.registry.Add(c)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		c.writePump(h.log)
	}()
	go func() {
		defer h.wg.Done()
		c.readPump(h)
	}()
	return c
}

func (h *ChatHub) dispatch(c *Conn, raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.log.Info("invalid frame", zap.String("conn", c.id), zap.Error(err))
		return
	}
	handler, ok := h.handlers[frame.Event]
	if !ok {
		h.log.Debug("unknown event", zap.String("conn", c.id), zap.String("event", frame.Event))
		return
	}
	handler(h, c, frame.Data)
}

// rateLimited drops a frame over the connection's budget. A dropped send_message
// is answered so the sender knows to resend.
func (h *ChatHub) rateLimited(c *Conn, raw []byte) {
	var frame inboundFrame
	_ = json.Unmarshal(raw, &frame)
	h.log.Warn("rate limit exceeded; dropping frame", zap.String("conn", c.id), zap.String("event", frame.Event))
	if frame.Event == EventSendMessage {
		h.replyError(c, errRateLimited)
	}
}

// ---------------- handlers ----------------

func (h *ChatHub) handleAdminConnected(c *Conn, _ json.RawMessage) {
	if !h.adminAllowed(c) {
		h.replyError(c, errForbidden)
		return
	}
	h.registry.AdminJoin(c)
	h.log.Info("admin connected", zap.String("conn", c.id), zap.String("userId", c.identity.UserID))
}

func (h *ChatHub) handleJoinChat(c *Conn, data json.RawMessage) {
	var in joinChatData
	if !h.decode(c, EventJoinChat, data, &in) {
		return
	}
	visitor := services.Visitor{UserID: in.UserID, GuestName: in.GuestName}
	switch {
	case c.identity.Role == entity.RoleUser && c.identity.UserID != "":
		visitor = services.Visitor{UserID: c.identity.UserID}
	case h.opts.VerifyUserID && strings.TrimSpace(in.UserID) != "" && !c.identity.IsAdmin():
		h.replyError(c, errForbidden)
		return
	}

	room, err := h.chat.RequestJoin(h.ctx, visitor)
	if errors.Is(err, services.ErrIdentityRequired) {
		h.invalid(c, EventJoinChat, err)
		return
	}
	if err != nil {
		h.log.Error("join chat failed", zap.String("conn", c.id), zap.Error(err))
		h.replyError(c, err)
		return
	}
	h.registry.Join(c, room.ID)
	h.reply(c, services.EventJoinedRoom, joinedRoomPayload{RoomID: room.ID})
}

func (h *ChatHub) handleAdminJoinRoom(c *Conn, data json.RawMessage) {
	if !h.adminAllowed(c) {
		h.replyError(c, errForbidden)
		return
	}
	var in adminJoinRoomData
	if !h.decode(c, EventAdminJoinRoom, data, &in) {
		return
	}

	room, err := h.chat.AdminJoin(h.ctx, in.RoomID)
	if errors.Is(err, services.ErrRoomNotFound) {
		h.invalid(c, EventAdminJoinRoom, err)
		return
	}
	if err != nil {
		h.log.Error("admin join failed", zap.String("conn", c.id), zap.Error(err))
		h.replyError(c, err)
		return
	}
	h.registry.Join(c, room.ID)
	h.reply(c, services.EventJoinedRoom, joinedRoomPayload{RoomID: room.ID})
}

func (h *ChatHub) handleSendMessage(c *Conn, data json.RawMessage) {
	var in sendMessageData
	if err := json.Unmarshal(data, &in); err != nil {
		h.replyError(c, err)
		return
	}
	role := entity.AuthorRole(in.AuthorRole)
	if role == entity.RoleAdmin && !h.adminAllowed(c) {
		h.replyError(c, errForbidden)
		return
	}
	// authenticated users always speak as themselves
	if role == entity.RoleUser && c.identity.Role == entity.RoleUser && c.identity.UserID != "" {
		in.AuthorID = c.identity.UserID
	}

	_, err := h.chat.PostMessage(h.ctx, services.PostMessageInput{
		RoomID:     in.RoomID,
		AuthorID:   in.AuthorID,
		AuthorRole: role,
		Content:    in.Content,
	})
	if err != nil {
		h.log.Info("send message failed", zap.String("conn", c.id), zap.String("roomId", in.RoomID), zap.Error(err))
		h.replyError(c, err)
	}
}

// ---------------- helpers ----------------

func (h *ChatHub) adminAllowed(c *Conn) bool {
	return !h.opts.AdminAuth || c.identity.IsAdmin()
}

func (h *ChatHub) decode(c *Conn, event string, data json.RawMessage, dst any) bool {
	if len(data) == 0 {
		return true
	}
	if err := json.Unmarshal(data, dst); err != nil {
		h.invalid(c, event, err)
		return false
	}
	return true
}

// invalid handles requests the protocol leaves undefined: dropped and logged,
// or answered with chat_error in strict mode.
func (h *ChatHub) invalid(c *Conn, event string, err error) {
	if h.opts.StrictValidation {
		h.replyError(c, err)
		return
	}
	h.log.Info("ignoring invalid request", zap.String("conn", c.id), zap.String("event", event), zap.Error(err))
}

func (h *ChatHub) reply(c *Conn, event string, payload any) {
	if err := h.registry.SendTo(c, event, payload); err != nil {
		h.log.Error("encode reply", zap.String("event", event), zap.Error(err))
	}
}

func (h *ChatHub) replyError(c *Conn, err error) {
	h.reply(c, services.EventChatError, chatErrorPayload{Message: errorMessage(err)})
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		return "room not found"
	case errors.Is(err, services.ErrRoomClosed):
		return "room is closed"
	case errors.Is(err, services.ErrEmptyContent):
		return "message is empty"
	case errors.Is(err, services.ErrContentTooLong):
		return "message is too long"
	case errors.Is(err, errRateLimited):
		return "rate limited"
	case errors.Is(err, services.ErrInvalidRole):
		return "invalid author role"
	case errors.Is(err, services.ErrIdentityRequired):
		return "user id or guest name is required"
	case errors.Is(err, errForbidden):
		return "not allowed"
	}
	return "failed to send message"
}

func (h *ChatHub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	normalized := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
	for _, allowed := range h.opts.AllowedOrigins {
		allowed = strings.TrimRight(strings.ToLower(strings.TrimSpace(allowed)), "/")
		if allowed == "*" || allowed == normalized {
			return true
		}
	}
	h.log.Warn("blocked websocket origin", zap.String("origin", origin))
	return false
}

// Shutdown closes every connection and waits for the pumps to exit.
func (h *ChatHub) Shutdown(timeout time.Duration) error {
	h.cancel()
	n := h.registry.Close()
	h.log.Info("closing websocket connections", zap.Int("count", n))

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}
