// services/chat_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goktugarikci/galeryBlog-sub000/entity"
	"github.com/goktugarikci/galeryBlog-sub000/repository"

	"go.uber.org/zap"
)

var (
	ErrRoomNotFound     = repository.ErrRoomNotFound
	ErrRoomClosed       = repository.ErrRoomClosed
	ErrIdentityRequired = errors.New("user id or guest name is required")
	ErrEmptyContent     = errors.New("message content is empty")
	ErrInvalidRole      = errors.New("invalid author role")
	ErrContentTooLong   = errors.New("message content is too long")
)

const (
	maxGuestNameLen = 120
	// MaxContentLen caps a message in runes; transport frame limits must stay well above it.
	MaxContentLen = 4000
)

type ChatService struct {
	repo *repository.ChatRepository
	out  Broadcaster
	log  *zap.Logger

	rooms  *keyedMutex // serializes persist+deliver per room
	owners *keyedMutex // serializes find-or-create per owner
	now    func() time.Time
}

func NewChatService(repo *repository.ChatRepository, out Broadcaster, log *zap.Logger) *ChatService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatService{
		repo:   repo,
		out:    out,
		log:    log,
		rooms:  newKeyedMutex(),
		owners: newKeyedMutex(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Visitor identifies who asks for a room. A user id wins over a guest name.
type Visitor struct {
	UserID    string `json:"userId"`
	GuestName string `json:"guestName"`
}

func (v Visitor) room() (*entity.ChatRoom, error) {
	if id := strings.TrimSpace(v.UserID); id != "" {
		return &entity.ChatRoom{UserID: &id}, nil
	}
	name := strings.TrimSpace(v.GuestName)
	if name == "" {
		return nil, ErrIdentityRequired
	}
	if r := []rune(name); len(r) > maxGuestNameLen {
		name = string(r[:maxGuestNameLen])
	}
	return &entity.ChatRoom{GuestName: &name}, nil
}

// RequestJoin returns the visitor's open room, creating it on first contact.
func (s *ChatService) RequestJoin(ctx context.Context, v Visitor) (*entity.ChatRoom, error) {
	candidate, err := v.room()
	if err != nil {
		return nil, err
	}

	unlock := s.owners.Lock(candidate.OwnerKey())
	defer unlock()

	room, created, err := s.repo.FindOrCreateOpenRoom(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("find or create room: %w", err)
	}
	if created {
		s.log.Info("chat room created", zap.String("roomId", room.ID), zap.String("owner", room.OwnerKey()))
	}
	return room, nil
}

// AdminJoin resolves a room for an admin; any admin may join any room.
func (s *ChatService) AdminJoin(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, ErrRoomNotFound
	}
	return s.repo.GetRoom(ctx, roomID)
}

type PostMessageInput struct {
	RoomID     string            `json:"roomId"`
	AuthorID   string            `json:"authorId"`
	AuthorRole entity.AuthorRole `json:"authorRole"`
	Content    string            `json:"content"`
}

// PostMessage persists a message and delivers it to the room, plus the admin group for
// non-admin authors. Nothing is delivered when the write fails.
func (s *ChatService) PostMessage(ctx context.Context, in PostMessageInput) (*entity.ChatMessage, error) {
	if !in.AuthorRole.Valid() {
		return nil, ErrInvalidRole
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return nil, ErrContentTooLong
	}
	roomID := strings.TrimSpace(in.RoomID)
	if roomID == "" {
		return nil, ErrRoomNotFound
	}

	msg := &entity.ChatMessage{
		RoomID:     roomID,
		AuthorRole: in.AuthorRole,
		Content:    content,
	}
	if id := strings.TrimSpace(in.AuthorID); id != "" && in.AuthorRole != entity.RoleGuest {
		msg.AuthorID = &id
	}

	unlock := s.rooms.Lock(roomID)
	defer unlock()

	msg.CreatedAt = s.now()
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	if err := s.out.BroadcastToRoom(roomID, EventReceiveMessage, msg); err != nil {
		s.log.Warn("room delivery failed", zap.String("roomId", roomID), zap.Error(err))
	}
	if msg.AuthorRole != entity.RoleAdmin {
		if err := s.out.BroadcastToAdmins(EventAdminNewChatMessage, msg); err != nil {
			s.log.Warn("admin delivery failed", zap.String("roomId", roomID), zap.Error(err))
		}
	}
	return msg, nil
}

// ---------------- Management ----------------

func (s *ChatService) ListRooms(ctx context.Context, status entity.RoomStatus) ([]entity.ChatRoom, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("invalid room status %q", status)
	}
	return s.repo.ListRooms(ctx, status)
}

func (s *ChatService) History(ctx context.Context, roomID string) ([]entity.ChatMessage, error) {
	if _, err := s.repo.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.repo.FindMessagesByRoom(ctx, roomID)
}

// CloseRoom is final: a later join from the owner opens a new room.
func (s *ChatService) CloseRoom(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	unlock := s.rooms.Lock(roomID)
	defer unlock()

	room, err := s.repo.CloseRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := s.out.BroadcastToRoom(roomID, EventRoomClosed, RoomClosedPayload{RoomID: roomID}); err != nil {
		s.log.Warn("room closed delivery failed", zap.String("roomId", roomID), zap.Error(err))
	}
	s.log.Info("chat room closed", zap.String("roomId", roomID))
	return room, nil
}

func (s *ChatService) DeleteRoom(ctx context.Context, roomID string) error {
	unlock := s.rooms.Lock(roomID)
	defer unlock()

	if err := s.repo.DeleteRoom(ctx, roomID); err != nil {
		return err
	}
	if err := s.out.BroadcastToRoom(roomID, EventRoomClosed, RoomClosedPayload{RoomID: roomID, Deleted: true}); err != nil {
		s.log.Warn("room deleted delivery failed", zap.String("roomId", roomID), zap.Error(err))
	}
	s.log.Info("chat room deleted", zap.String("roomId", roomID))
	return nil
}
