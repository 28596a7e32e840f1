package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

type groupKind uint8

const (
	roomGroup groupKind = iota + 1
	adminGroup
)

// Group is a multicast target. Room and admin groups are distinct variants,
// so no room id can ever address the admin group.
type Group struct {
	kind   groupKind
	roomID string
}

func RoomGroup(roomID string) Group { return Group{kind: roomGroup, roomID: roomID} }

var AdminGroup = Group{kind: adminGroup}

func (g Group) String() string {
	if g.kind == adminGroup {
		return "admin"
	}
	return "room:" + g.roomID
}

// Registry tracks live connections and their group memberships.
// It is process-local and rebuilt from nothing on restart.
type Registry struct {
	mu     sync.RWMutex
	conns  map[*Conn]struct{}
	groups map[Group]map[*Conn]struct{}
	log    *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		conns:  make(map[*Conn]struct{}),
		groups: make(map[Group]map[*Conn]struct{}),
		log:    log,
	}
}

func (r *Registry) Add(c *Conn) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	total := len(r.conns)
	r.mu.Unlock()
	r.log.Debug("connection registered", zap.String("conn", c.id), zap.String("role", string(c.identity.Role)), zap.Int("total", total))
}

// Remove drops the connection and every membership it held, then closes its queue.
func (r *Registry) Remove(c *Conn) {
	r.mu.Lock()
	if _, ok := r.conns[c]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, c)
	for g := range c.groups {
		if set := r.groups[g]; set != nil {
			delete(set, c)
			if len(set) == 0 {
				delete(r.groups, g)
			}
		}
	}
	c.groups = nil
	total := len(r.conns)
	r.mu.Unlock()

	c.closeSend()
	r.log.Debug("connection removed", zap.String("conn", c.id), zap.Int("total", total))
}

// Join adds c to a room; joining twice is a no-op.
func (r *Registry) Join(c *Conn, roomID string) bool {
	return r.join(c, RoomGroup(roomID))
}

// AdminJoin adds c to the admin broadcast group; joining twice is a no-op.
func (r *Registry) AdminJoin(c *Conn) bool {
	return r.join(c, AdminGroup)
}

func (r *Registry) join(c *Conn, g Group) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; !ok {
		return false
	}
	set := r.groups[g]
	if set == nil {
		set = make(map[*Conn]struct{})
		r.groups[g] = set
	}
	if _, ok := set[c]; ok {
		return true
	}
	set[c] = struct{}{}
	if c.groups == nil {
		c.groups = make(map[Group]struct{})
	}
	c.groups[g] = struct{}{}
	r.log.Debug("joined group", zap.String("conn", c.id), zap.Stringer("group", g))
	return true
}

func (r *Registry) IsMember(c *Conn, g Group) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.groups[g][c]
	return ok
}

func (r *Registry) Members(g Group) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[g])
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// BroadcastToRoom implements services.Broadcaster.
func (r *Registry) BroadcastToRoom(roomID, event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}
	r.deliver(RoomGroup(roomID), frame)
	return nil
}

// BroadcastToAdmins implements services.Broadcaster.
func (r *Registry) BroadcastToAdmins(event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}
	r.deliver(AdminGroup, frame)
	return nil
}

// SendTo queues one event for a single connection.
func (r *Registry) SendTo(c *Conn, event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}
	r.mu.RLock()
	_, ok := r.conns[c]
	full := ok && !c.enqueue(frame)
	r.mu.RUnlock()
	if full {
		r.evict(c)
	}
	return nil
}

// deliver enqueues frame for every member without blocking. Members whose queue
// is full are evicted once the read lock is released.
func (r *Registry) deliver(g Group, frame []byte) {
	var slow []*Conn

	r.mu.RLock()
	for c := range r.groups[g] {
		if !c.enqueue(frame) {
			slow = append(slow, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range slow {
		r.evict(c)
	}
}

func (r *Registry) evict(c *Conn) {
	r.log.Warn("evicting slow connection", zap.String("conn", c.id))
	r.Remove(c)
	c.closeTransport()
}

// Close removes every connection and closes its transport.
func (r *Registry) Close() int {
	r.mu.RLock()
	conns := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		r.Remove(c)
		c.closeTransport()
	}
	return len(conns)
}

func encodeFrame(event string, payload any) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: payload})
}
