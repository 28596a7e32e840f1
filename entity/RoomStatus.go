package entity

type RoomStatus string

const (
	RoomOpen   RoomStatus = "open"
	RoomClosed RoomStatus = "closed"
)

func (s RoomStatus) Valid() bool {
	return s == RoomOpen || s == RoomClosed
}
