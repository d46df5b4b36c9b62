package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/abhishekkumarcoder21/random-meet/internal/domain"
)

type MessageRepo interface {
	Save(ctx context.Context, roomID string, userID int64, content string) (*domain.ChatMessage, error)
	Recent(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error)
}

type RoomGetter interface {
	Get(ctx context.Context, id string) (*domain.Room, error)
}

type ChatService struct {
	msgRepo      MessageRepo
	roomRepo     RoomGetter
	historyLimit int
}

func NewChatService(msgRepo MessageRepo, roomRepo RoomGetter, historyLimit int) *ChatService {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &ChatService{msgRepo: msgRepo, roomRepo: roomRepo, historyLimit: historyLimit}
}

// Save validates and persists a chat message. Content is trimmed; empty or
// over-length content and messages to closed rooms are rejected with
// sentinel errors the relay treats as silent drops.
func (s *ChatService) Save(ctx context.Context, roomID string, userID int64, content string) (*domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > domain.MaxMessageLen {
		return nil, domain.ErrMessageTooLong
	}

	room, err := s.roomRepo.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status == domain.StatusClosed {
		return nil, domain.ErrRoomClosed
	}

	return s.msgRepo.Save(ctx, roomID, userID, content)
}

// Recent returns the bounded history replayed on join, oldest first.
func (s *ChatService) Recent(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	return s.msgRepo.Recent(ctx, roomID, s.historyLimit)
}
