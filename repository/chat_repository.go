// repository/chat_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/goktugarikci/galeryBlog-sub000/entity"

	"gorm.io/gorm"
)

var (
	ErrRoomNotFound = errors.New("chat room not found")
	ErrRoomClosed   = errors.New("chat room is closed")
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db}
}

// ---------------- Rooms ----------------

func (r *ChatRepository) GetRoom(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	var room entity.ChatRoom
	err := r.db.WithContext(ctx).First(&room, "id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// FindOpenRoom returns the open room of an owner key (see entity.UserOwnerKey).
func (r *ChatRepository) FindOpenRoom(ctx context.Context, ownerKey string) (*entity.ChatRoom, error) {
	return findOpenRoom(r.db.WithContext(ctx), ownerKey)
}

func findOpenRoom(db *gorm.DB, ownerKey string) (*entity.ChatRoom, error) {
	var room entity.ChatRoom
	err := db.
		Where("open_key = ? AND status = ?", ownerKey, entity.RoomOpen).
		Order("created_at DESC").
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// FindOrCreateOpenRoom returns the owner's open room, creating one from room when none exists.
// The unique index on open_key makes a concurrent second insert fail; the winner is re-read then.
func (r *ChatRepository) FindOrCreateOpenRoom(ctx context.Context, room *entity.ChatRoom) (*entity.ChatRoom, bool, error) {
	key := room.OwnerKey()
	if key == "" {
		return nil, false, errors.New("chat room has no owner")
	}

	var out *entity.ChatRoom
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findOpenRoom(tx, key)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, ErrRoomNotFound) {
			return err
		}

		room.Status = entity.RoomOpen
		room.OpenKey = &key
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		out, created = room, true
		return nil
	})
	if err != nil {
		if existing, findErr := r.FindOpenRoom(ctx, key); findErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return out, created, nil
}

// GET /admin/chat/rooms?status=
func (r *ChatRepository) ListRooms(ctx context.Context, status entity.RoomStatus) ([]entity.ChatRoom, error) {
	var rooms []entity.ChatRoom
	q := r.db.WithContext(ctx).Model(&entity.ChatRoom{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("updated_at DESC").Find(&rooms).Error
	return rooms, err
}

// CloseRoom moves an open room to closed; closing twice is ErrRoomClosed.
func (r *ChatRepository) CloseRoom(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	var out *entity.ChatRoom
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.ChatRoom{}).
			Where("id = ? AND status = ?", roomID, entity.RoomOpen).
			Updates(map[string]any{
				"status":     entity.RoomClosed,
				"open_key":   nil,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}

		var room entity.ChatRoom
		if err := tx.First(&room, "id = ?", roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}
		if res.RowsAffected == 0 {
			return ErrRoomClosed
		}
		out = &room
		return nil
	})
	return out, err
}

// DeleteRoom hard-deletes a room together with its messages.
func (r *ChatRepository) DeleteRoom(ctx context.Context, roomID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&entity.ChatMessage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", roomID).Delete(&entity.ChatRoom{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRoomNotFound
		}
		return nil
	})
}

// ---------------- Messages ----------------

// CreateMessage stores msg in an open room and bumps the room's updated_at in the same transaction.
func (r *ChatRepository) CreateMessage(ctx context.Context, msg *entity.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room entity.ChatRoom
		if err := tx.Select("id", "status").First(&room, "id = ?", msg.RoomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}
		if room.Status != entity.RoomOpen {
			return ErrRoomClosed
		}

		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = time.Now().UTC()
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&entity.ChatRoom{}).
			Where("id = ?", msg.RoomID).
			UpdateColumn("updated_at", msg.CreatedAt).Error
	})
}

// GET /admin/chat/rooms/:id/messages, oldest first
func (r *ChatRepository) FindMessagesByRoom(ctx context.Context, roomID string) ([]entity.ChatMessage, error) {
	var msgs []entity.ChatMessage
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *ChatRepository) CountMessages(ctx context.Context, roomID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.ChatMessage{}).Where("room_id = ?", roomID).Count(&n).Error
	return n, err
}
