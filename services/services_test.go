package services

import (
	"sync"
	"testing"

	"github.com/goktugarikci/galeryBlog-sub000/configs"
	"github.com/goktugarikci/galeryBlog-sub000/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sent struct {
	room    string // empty for the admin group
	event   string
	payload any
}

// recorder is a Broadcaster that keeps everything it was asked to deliver.
type recorder struct {
	mu     sync.Mutex
	events []sent
}

func (r *recorder) BroadcastToRoom(roomID, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sent{room: roomID, event: event, payload: payload})
	return nil
}

func (r *recorder) BroadcastToAdmins(event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sent{event: event, payload: payload})
	return nil
}

func (r *recorder) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.events...)
}

func (r *recorder) byEvent(event string) []sent {
	var out []sent
	for _, s := range r.all() {
		if s.event == event {
			out = append(out, s)
		}
	}
	return out
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := configs.ConnectDB("file::memory:", true)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newChatService(t *testing.T) (*ChatService, *recorder) {
	t.Helper()
	rec := &recorder{}
	return NewChatService(repository.NewChatRepository(newTestDB(t)), rec, nil), rec
}
