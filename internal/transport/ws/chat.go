package ws

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abhishekkumarcoder21/random-meet/internal/domain"
)

const (
	rateLimitNotice = "Sending too fast. Please slow down."
	duplicateNotice = "Duplicate message detected."

	minMessageSpacing = time.Second
)

var allowedEmojis = map[string]struct{}{
	"❤️": {}, "👏": {}, "🤗": {}, "💡": {}, "😊": {}, "🎯": {},
}

// handleSendMessage validates, rate-guards, persists and fans out a chat
// message. Invalid content and closed rooms drop silently; only the two
// per-connection guards surface a notice, and only to the sender. The
// sender never receives its own broadcast.
func (s *Server) handleSendMessage(ctx context.Context, c *wsConn, p SendMessagePayload) {
	if c.roomID == "" || p.RoomID != c.roomID {
		return
	}

	content := strings.TrimSpace(p.Content)
	if content == "" || utf8.RuneCountInString(content) > domain.MaxMessageLen {
		return
	}

	room, err := s.roomSvc.GetRoom(ctx, c.roomID)
	if err != nil || room.Status == domain.StatusClosed {
		return
	}

	now := time.Now()
	if !c.lastMsgAt.IsZero() && now.Sub(c.lastMsgAt) < minMessageSpacing {
		_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Error: rateLimitNotice}})
		return
	}
	if content == c.lastMsg {
		_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Error: duplicateNotice}})
		return
	}

	m, err := s.chatSvc.Save(ctx, c.roomID, c.userID, content)
	if err != nil {
		// a close landing during the save is a no-op, not an error
		if !errors.Is(err, domain.ErrRoomClosed) {
			slog.Warn("ws chat save failed", "room", c.roomID, "user", c.userID, "err", err)
		}
		return
	}

	c.lastMsgAt = now
	c.lastMsg = content

	s.hub.BroadcastExcept(c.roomID, c.id, Message{
		Type: TypeNewMessage,
		Payload: NewMessagePayload{
			ID:        m.ID,
			Content:   m.Content,
			Alias:     c.alias,
			IsMe:      false,
			CreatedAt: m.CreatedAt,
		},
	})
}

// handleSendReaction relays an ephemeral emoji to the rest of the room.
// Reactions outside the allow-list are dropped; nothing is persisted.
func (s *Server) handleSendReaction(c *wsConn, p SendReactionPayload) {
	if c.roomID == "" || p.RoomID != c.roomID {
		return
	}
	if _, ok := allowedEmojis[p.Emoji]; !ok {
		return
	}

	s.hub.BroadcastExcept(c.roomID, c.id, Message{
		Type:    TypeReaction,
		Payload: ReactionPayload{Alias: c.alias, Emoji: p.Emoji},
	})
}
