package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type RoomItem struct {
	ID                  string     `json:"id"`
	Type                string     `json:"type"`
	Title               string     `json:"title"`
	Prompt              *string    `json:"prompt"`
	Rules               string     `json:"rules"`
	MaxParticipants     int64      `json:"maxParticipants"`
	CurrentParticipants int        `json:"currentParticipants"`
	DurationMinutes     int64      `json:"durationMinutes"`
	Status              string     `json:"status"`
	IsPremium           bool       `json:"isPremium"`
	Participants        []string   `json:"participants"`
	StartedAt           *time.Time `json:"startedAt,omitempty"`
}

type RoomsListResponse struct {
	Rooms []RoomItem `json:"rooms"`
}

type JoinRoomResponse struct {
	Message         string  `json:"message"`
	Alias           string  `json:"alias"`
	RoomID          string  `json:"roomId"`
	RoomType        string  `json:"roomType,omitempty"`
	Prompt          *string `json:"prompt,omitempty"`
	Rules           string  `json:"rules,omitempty"`
	DurationMinutes int64   `json:"durationMinutes,omitempty"`
}

type ParticipantDTO struct {
	Alias string `json:"alias"`
	IsMe  bool   `json:"isMe"`
}

type MessageDTO struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Alias     string    `json:"alias"`
	IsMe      bool      `json:"isMe"`
	CreatedAt time.Time `json:"createdAt"`
}

type RoomDetailResponse struct {
	ID              string           `json:"id"`
	Type            string           `json:"type"`
	Title           string           `json:"title"`
	Prompt          *string          `json:"prompt"`
	Rules           string           `json:"rules"`
	MaxParticipants int64            `json:"maxParticipants"`
	DurationMinutes int64            `json:"durationMinutes"`
	Status          string           `json:"status"`
	StartedAt       *time.Time       `json:"startedAt"`
	Participants    []ParticipantDTO `json:"participants"`
	Messages        []MessageDTO     `json:"messages"`
	MyAlias         *string          `json:"myAlias"`
}
