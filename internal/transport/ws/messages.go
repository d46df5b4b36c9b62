package ws

import (
	"encoding/json"
	"time"
)

// Client -> server events.
const (
	TypeJoinRoom     = "join-room"
	TypeSendMessage  = "send-message"
	TypeSendReaction = "send-reaction"

	TypeCallInvite  = "call-invite"
	TypeCallAccept  = "call-accept"
	TypeCallDecline = "call-decline"
	TypeCallCancel  = "call-cancel"
	TypeCallEnd     = "call-ended"

	TypeOffer        = "webrtc-offer"
	TypeOfferDirect  = "webrtc-offer-direct"
	TypeAnswer       = "webrtc-answer"
	TypeICECandidate = "webrtc-ice-candidate"
	TypeToggleMedia  = "toggle-media"
)

// Server -> client events.
const (
	TypeRoomState   = "room-state"
	TypeUserJoined  = "user-joined"
	TypeUserLeft    = "user-left"
	TypeNewMessage  = "new-message"
	TypeReaction    = "reaction"
	TypeRoomWarning = "room-warning"
	TypeRoomEnded   = "room-ended"
	TypeError       = "error-message"

	TypeCallAccepted     = "call-accepted"
	TypeCallDeclined     = "call-declined"
	TypeCallCancelled    = "call-cancelled"
	TypePeerMediaToggle  = "peer-media-toggle"
	TypePeerDisconnected = "peer-disconnected"
	// call-invite and call-ended are relayed under their inbound names
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// --- inbound payloads ---

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type SendMessagePayload struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
}

type SendReactionPayload struct {
	RoomID string `json:"roomId"`
	Emoji  string `json:"emoji"`
}

type CallInvitePayload struct {
	RoomID   string `json:"roomId"`
	CallType string `json:"callType"` // video | voice
}

// CallSignalPayload covers accept/decline/cancel/end. ToSocketID empty means
// room broadcast.
type CallSignalPayload struct {
	RoomID     string `json:"roomId"`
	ToSocketID string `json:"toSocketId,omitempty"`
}

type OfferPayload struct {
	RoomID     string          `json:"roomId,omitempty"`
	ToSocketID string          `json:"toSocketId,omitempty"`
	Offer      json.RawMessage `json:"offer"`
}

type AnswerPayload struct {
	ToSocketID string          `json:"toSocketId"`
	Answer     json.RawMessage `json:"answer"`
}

type ICECandidatePayload struct {
	ToSocketID string          `json:"toSocketId"`
	Candidate  json.RawMessage `json:"candidate"`
}

type ToggleMediaPayload struct {
	RoomID  string `json:"roomId"`
	Kind    string `json:"kind"` // audio | video
	Enabled bool   `json:"enabled"`
}

// --- outbound payloads ---

type ParticipantItem struct {
	Alias string `json:"alias"`
	IsMe  bool   `json:"isMe"`
}

type MessageItem struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Alias     string    `json:"alias"`
	IsMe      bool      `json:"isMe"`
	CreatedAt time.Time `json:"createdAt"`
}

type RoomStatePayload struct {
	SocketID        string            `json:"socketId"`
	Participants    []ParticipantItem `json:"participants"`
	Messages        []MessageItem     `json:"messages"`
	Status          string            `json:"status"`
	StartedAt       *time.Time        `json:"startedAt"`
	DurationMinutes int64             `json:"durationMinutes"`
}

type UserJoinedPayload struct {
	Alias            string `json:"alias"`
	ParticipantCount int    `json:"participantCount"`
}

type UserLeftPayload struct {
	Alias string `json:"alias"`
}

type NewMessagePayload struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Alias     string    `json:"alias"`
	IsMe      bool      `json:"isMe"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReactionPayload struct {
	Alias string `json:"alias"`
	Emoji string `json:"emoji"`
}

type RoomWarningPayload struct {
	Message     string `json:"message"`
	SecondsLeft int    `json:"secondsLeft"`
}

type RoomEndedPayload struct {
	Message string `json:"message"`
	Prompt  string `json:"prompt"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type CallInviteEvent struct {
	FromSocketID string `json:"fromSocketId"`
	Alias        string `json:"alias"`
	CallType     string `json:"callType"`
}

type CallSignalEvent struct {
	FromSocketID string `json:"fromSocketId"`
	Alias        string `json:"alias"`
}

type OfferEvent struct {
	Offer        json.RawMessage `json:"offer"`
	FromSocketID string          `json:"fromSocketId"`
	FromAlias    string          `json:"fromAlias"`
}

type AnswerEvent struct {
	Answer       json.RawMessage `json:"answer"`
	FromSocketID string          `json:"fromSocketId"`
}

type ICECandidateEvent struct {
	Candidate    json.RawMessage `json:"candidate"`
	FromSocketID string          `json:"fromSocketId"`
}

type PeerMediaToggleEvent struct {
	FromSocketID string `json:"fromSocketId"`
	Kind         string `json:"kind"`
	Enabled      bool   `json:"enabled"`
}

type PeerDisconnectedEvent struct {
	FromSocketID string `json:"fromSocketId"`
	Alias        string `json:"alias"`
}
