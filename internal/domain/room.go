package domain

import "time"

type RoomStatus string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusActive  RoomStatus = "active"
	StatusClosed  RoomStatus = "closed"
)

type RoomType string

const (
	TypeQuickChat       RoomType = "quick-chat"
	TypeGroupPrompt     RoomType = "group-prompt"
	TypeConfession      RoomType = "confession"
	TypeTaskCollab      RoomType = "task-collab"
	TypeListeningCircle RoomType = "listening-circle"
)

type Room struct {
	ID              string     `db:"id"`
	Type            RoomType   `db:"type"`
	Title           string     `db:"title"`
	Prompt          *string    `db:"prompt"`
	Rules           string     `db:"rules"`
	Status          RoomStatus `db:"status"`
	MaxParticipants int64      `db:"max_participants"`
	DurationMinutes int64      `db:"duration_minutes"`
	IsPremium       bool       `db:"is_premium"`
	StartedAt       *time.Time `db:"started_at"`
	ClosedAt        *time.Time `db:"closed_at"`
	CreatedAt       time.Time  `db:"created_at"`
}

// EndsAt is defined only for rooms that have been activated.
func (r *Room) EndsAt() (time.Time, bool) {
	if r.StartedAt == nil {
		return time.Time{}, false
	}
	return r.StartedAt.Add(time.Duration(r.DurationMinutes) * time.Minute), true
}
