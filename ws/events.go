package ws

import "encoding/json"

// Client -> server event names.
const (
	EventAdminConnected = "admin_connected"
	EventJoinChat       = "join_chat"
	EventAdminJoinRoom  = "admin_join_room"
	EventSendMessage    = "send_message"
)

// Envelope is the frame shape in both directions: {"event": "...", "data": {...}}.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinChatData struct {
	UserID    string `json:"userId"`
	GuestName string `json:"guestName"`
}

type adminJoinRoomData struct {
	RoomID string `json:"roomId"`
}

type sendMessageData struct {
	RoomID     string `json:"roomId"`
	AuthorID   string `json:"authorId"`
	AuthorRole string `json:"authorRole"`
	Content    string `json:"content"`
}

type joinedRoomPayload struct {
	RoomID string `json:"roomId"`
}

type chatErrorPayload struct {
	Message string `json:"message"`
}
