package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage is immutable once stored.
type ChatMessage struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	RoomID     string     `gorm:"size:36;not null;index:idx_room_created,priority:1" json:"roomId"`
	AuthorID   *string    `gorm:"size:64" json:"authorId"`
	AuthorRole AuthorRole `gorm:"size:16;not null" json:"authorRole"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time  `gorm:"index:idx_room_created,priority:2" json:"createdAt"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		// v7 ids sort by creation, which breaks created_at ties
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		m.ID = id.String()
	}
	return nil
}

// AuthorRole decides notification routing: messages from anyone but an admin reach the admin group.
type AuthorRole string

const (
	RoleUser  AuthorRole = "user"
	RoleAdmin AuthorRole = "admin"
	RoleGuest AuthorRole = "guest"
)

func (r AuthorRole) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleGuest:
		return true
	}
	return false
}
