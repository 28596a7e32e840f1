package ws

import (
	"encoding/json"
	"testing"

	"github.com/goktugarikci/galeryBlog-sub000/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConn(r *Registry, role entity.AuthorRole, buffer int) *Conn {
	c := NewConn(nil, Identity{Role: role}, buffer, nil)
	r.Add(c)
	return c
}

func drain(c *Conn) []Envelope {
	var out []Envelope
	for {
		select {
		case raw, ok := <-c.Outbound():
			if !ok {
				return out
			}
			var e Envelope
			if err := json.Unmarshal(raw, &e); err == nil {
				out = append(out, e)
			}
		default:
			return out
		}
	}
}

func TestRoomAndAdminGroupsAreDistinct(t *testing.T) {
	r := NewRegistry(nil)
	member := newTestConn(r, entity.RoleGuest, 8)
	admin := newTestConn(r, entity.RoleAdmin, 8)

	// a room literally named "admin" is still just a room
	require.True(t, r.Join(member, "admin"))
	require.True(t, r.AdminJoin(admin))

	require.NoError(t, r.BroadcastToRoom("admin", "receive_message", map[string]string{"content": "hi"}))
	require.NoError(t, r.BroadcastToAdmins("admin_new_chat_message", map[string]string{"content": "hi"}))

	got := drain(member)
	require.Len(t, got, 1)
	assert.Equal(t, "receive_message", got[0].Event)

	got = drain(admin)
	require.Len(t, got, 1)
	assert.Equal(t, "admin_new_chat_message", got[0].Event)

	assert.NotEqual(t, RoomGroup("admin"), AdminGroup)
}

func TestJoinIsIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	c := newTestConn(r, entity.RoleUser, 8)

	r.Join(c, "room-1")
	r.Join(c, "room-1")
	r.AdminJoin(c)
	r.AdminJoin(c)
	assert.Equal(t, 1, r.Members(RoomGroup("room-1")))
	assert.Equal(t, 1, r.Members(AdminGroup))

	require.NoError(t, r.BroadcastToRoom("room-1", "receive_message", nil))
	assert.Len(t, drain(c), 1, "one frame per broadcast even after joining twice")
}

func TestRemoveDropsEveryMembership(t *testing.T) {
	r := NewRegistry(nil)
	c := newTestConn(r, entity.RoleAdmin, 8)
	r.Join(c, "a")
	r.Join(c, "b")
	r.AdminJoin(c)

	r.Remove(c)

	assert.Zero(t, r.Count())
	assert.False(t, r.IsMember(c, RoomGroup("a")))
	assert.False(t, r.IsMember(c, RoomGroup("b")))
	assert.False(t, r.IsMember(c, AdminGroup))
	assert.False(t, r.Join(c, "a"), "removed connections cannot rejoin")

	// removing twice is harmless
	r.Remove(c)
	require.NoError(t, r.BroadcastToRoom("a", "receive_message", nil))
}

func TestBroadcastReachesOnlyMembers(t *testing.T) {
	r := NewRegistry(nil)
	in1 := newTestConn(r, entity.RoleUser, 8)
	in2 := newTestConn(r, entity.RoleAdmin, 8)
	out := newTestConn(r, entity.RoleUser, 8)
	r.Join(in1, "room")
	r.Join(in2, "room")
	r.Join(out, "other")

	require.NoError(t, r.BroadcastToRoom("room", "receive_message", nil))
	assert.Len(t, drain(in1), 1)
	assert.Len(t, drain(in2), 1)
	assert.Empty(t, drain(out))

	// nobody there
	require.NoError(t, r.BroadcastToRoom("empty", "receive_message", nil))
}

func TestSlowConnectionIsEvicted(t *testing.T) {
	r := NewRegistry(nil)
	slow := newTestConn(r, entity.RoleUser, 1)
	fast := newTestConn(r, entity.RoleUser, 8)
	r.Join(slow, "room")
	r.Join(fast, "room")

	require.NoError(t, r.BroadcastToRoom("room", "receive_message", 1))
	require.NoError(t, r.BroadcastToRoom("room", "receive_message", 2))

	assert.False(t, r.IsMember(slow, RoomGroup("room")))
	assert.True(t, r.IsMember(fast, RoomGroup("room")))
	assert.Len(t, drain(fast), 2)
	assert.Equal(t, 1, r.Count())
}

func TestBroadcastPreservesOrder(t *testing.T) {
	r := NewRegistry(nil)
	c := newTestConn(r, entity.RoleUser, 64)
	r.Join(c, "room")

	for i := 0; i < 20; i++ {
		require.NoError(t, r.BroadcastToRoom("room", "receive_message", i))
	}
	got := drain(c)
	require.Len(t, got, 20)
	for i, e := range got {
		assert.EqualValues(t, i, e.Data)
	}
}

func TestCloseRemovesAll(t *testing.T) {
	r := NewRegistry(nil)
	for i := 0; i < 3; i++ {
		newTestConn(r, entity.RoleGuest, 1)
	}
	assert.Equal(t, 3, r.Close())
	assert.Zero(t, r.Count())
}
