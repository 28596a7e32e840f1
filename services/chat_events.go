package services

// Server -> client event names.
const (
	EventJoinedRoom          = "joined_room"
	EventReceiveMessage      = "receive_message"
	EventRoomClosed          = "room_closed"
	EventChatError           = "chat_error"
	EventAdminNewChatMessage = "admin_new_chat_message"
	EventAdminNewContact     = "admin_new_contact_message"
	EventAdminNewOrder       = "admin_new_order"
)

// Broadcaster delivers events to room members and to the admin broadcast group.
// Implementations must not block on slow recipients.
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, payload any) error
	BroadcastToAdmins(event string, payload any) error
}

type RoomClosedPayload struct {
	RoomID  string `json:"roomId"`
	Deleted bool   `json:"deleted"`
}
