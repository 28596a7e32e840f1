package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatRoom is one support conversation owned by a registered user or by a guest display name.
type ChatRoom struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    *string    `gorm:"size:64;index" json:"userId,omitempty"`
	GuestName *string    `gorm:"size:120;index" json:"guestName,omitempty"`
	Status    RoomStatus `gorm:"size:16;not null;default:open;index" json:"status"`

	// OpenKey is the owner key while the room is open and NULL once closed,
	// so the unique index allows one open room per owner.
	OpenKey *string `gorm:"size:200;uniqueIndex" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// preload only for history endpoints
	Messages []ChatMessage `gorm:"foreignKey:RoomID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (r *ChatRoom) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		r.ID = id.String()
	}
	return nil
}

// OwnerKey identifies the room owner; user and guest keys never collide.
func (r *ChatRoom) OwnerKey() string {
	if r.UserID != nil {
		return UserOwnerKey(*r.UserID)
	}
	if r.GuestName != nil {
		return GuestOwnerKey(*r.GuestName)
	}
	return ""
}

func UserOwnerKey(userID string) string { return "user:" + userID }
func GuestOwnerKey(name string) string { return "guest:" + name }
