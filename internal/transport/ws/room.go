package ws

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abhishekkumarcoder21/random-meet/internal/domain"
)

const (
	roomEndedMessage  = "This room has ended. Thank you for being here."
	roomEndedPrompt   = "How did this experience make you feel?"
	roomWarningNotice = "30 seconds remaining"
)

// handleJoinRoom admits an authenticated connection into its room's
// broadcast group and replies with the full-state snapshot. Admission
// itself (capacity, premium, participant creation) happened over REST; a
// join without a participant record is a silent no-op so room existence
// never leaks. A connection holds one room at a time, but once its room
// ended and it was evicted it may join another.
func (s *Server) handleJoinRoom(ctx context.Context, c *wsConn, p JoinRoomPayload) {
	if p.RoomID == "" || s.hub.Member(c.roomID, c.id) {
		return
	}

	room, err := s.roomSvc.GetRoom(ctx, p.RoomID)
	if err != nil {
		if !errors.Is(err, domain.ErrRoomNotFound) {
			slog.Error("ws join room lookup", "room", p.RoomID, "err", err)
		}
		return
	}

	part, err := s.memberSvc.Participant(ctx, p.RoomID, c.userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotInRoom) {
			slog.Error("ws join participant lookup", "room", p.RoomID, "user", c.userID, "err", err)
		}
		return
	}

	parts, err := s.memberSvc.ListParticipants(ctx, p.RoomID)
	if err != nil {
		slog.Error("ws join list participants", "room", p.RoomID, "err", err)
		return
	}
	msgs, err := s.chatSvc.Recent(ctx, p.RoomID)
	if err != nil {
		slog.Error("ws join chat history", "room", p.RoomID, "err", err)
		return
	}

	c.roomID = room.ID
	c.alias = part.Alias
	s.hub.Join(room.ID, c)

	if err := c.Send(Message{Type: TypeRoomState, Payload: s.snapshot(room, parts, msgs, c)}); err != nil {
		slog.Warn("ws send initial state failed", "room", room.ID, "user", c.userID, "err", err)
	}

	s.hub.BroadcastExcept(room.ID, c.id, Message{
		Type: TypeUserJoined,
		Payload: UserJoinedPayload{
			Alias:            part.Alias,
			ParticipantCount: len(parts),
		},
	})

	s.ArmRoomTimer(room)
}

func (s *Server) snapshot(room *domain.Room, parts []domain.Participant, msgs []domain.ChatMessage, c *wsConn) RoomStatePayload {
	me := c.userID
	aliases := make(map[int64]string, len(parts))
	items := make([]ParticipantItem, 0, len(parts))
	for _, p := range parts {
		aliases[p.UserID] = p.Alias
		items = append(items, ParticipantItem{Alias: p.Alias, IsMe: p.UserID == me})
	}

	history := make([]MessageItem, 0, len(msgs))
	for _, m := range msgs {
		alias, ok := aliases[m.UserID]
		if !ok {
			alias = "Unknown"
		}
		history = append(history, MessageItem{
			ID:        m.ID,
			Content:   m.Content,
			Alias:     alias,
			IsMe:      m.UserID == me,
			CreatedAt: m.CreatedAt,
		})
	}

	return RoomStatePayload{
		SocketID:        c.id,
		Participants:    items,
		Messages:        history,
		Status:          string(room.Status),
		StartedAt:       room.StartedAt,
		DurationMinutes: room.DurationMinutes,
	}
}

// ArmRoomTimer starts the room's warning/close pair if the room is active
// and no timer is running. The deadline comes from startedAt+duration, so a
// timer armed after a restart still closes the room at the original end
// time, immediately if that has already passed.
func (s *Server) ArmRoomTimer(room *domain.Room) {
	if room.Status != domain.StatusActive {
		return
	}
	endsAt, ok := room.EndsAt()
	if !ok {
		return
	}

	roomID := room.ID
	armed := s.timers.Arm(roomID, endsAt,
		func() {
			s.hub.Broadcast(roomID, Message{
				Type:    TypeRoomWarning,
				Payload: RoomWarningPayload{Message: roomWarningNotice, SecondsLeft: 30},
			})
		},
		func() { s.closeRoom(roomID) },
	)
	if armed {
		slog.Info("room timer armed", "room", roomID, "ends_at", endsAt)
	}
}

// closeRoom is the room's terminal transition. The storage update is a
// compare-and-set, so even a timer racing a late join runs the side effects
// (farewell broadcast, trust rewards, eviction) at most once.
func (s *Server) closeRoom(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closed, err := s.roomSvc.CloseRoom(ctx, roomID)
	if err != nil {
		slog.Error("close room", "room", roomID, "err", err)
		s.timers.Cancel(roomID)
		return
	}
	if !closed {
		s.timers.Cancel(roomID)
		return
	}

	s.hub.Broadcast(roomID, Message{
		Type:    TypeRoomEnded,
		Payload: RoomEndedPayload{Message: roomEndedMessage, Prompt: roomEndedPrompt},
	})

	if err := s.memberSvc.RewardParticipants(ctx, roomID); err != nil {
		slog.Error("trust reward", "room", roomID, "err", err)
	}

	s.hub.Evict(roomID)
	s.timers.Cancel(roomID)
	slog.Info("room closed", "room", roomID)
}

// disconnect announces departure to the remaining members. The participant
// record stays (rejoin is idempotent) and the room timer keeps running.
func (s *Server) disconnect(c *wsConn) {
	s.hub.Unregister(c)
	if c.roomID == "" {
		return
	}
	s.hub.Leave(c.roomID, c)

	s.hub.Broadcast(c.roomID, Message{
		Type:    TypeUserLeft,
		Payload: UserLeftPayload{Alias: c.alias},
	})
	s.hub.Broadcast(c.roomID, Message{
		Type:    TypePeerDisconnected,
		Payload: PeerDisconnectedEvent{FromSocketID: c.id, Alias: c.alias},
	})
}
