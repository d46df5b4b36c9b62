package domain

import "time"

// Participant is the (room, user) pair created at join time. The alias is
// assigned once and stays stable for the room's lifetime; it is the only
// identity other members ever see.
type Participant struct {
	RoomID   string    `db:"room_id"`
	UserID   int64     `db:"user_id"`
	Alias    string    `db:"alias"`
	JoinedAt time.Time `db:"joined_at"`
}
