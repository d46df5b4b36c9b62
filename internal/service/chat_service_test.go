package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abhishekkumarcoder21/random-meet/internal/domain"
)

type memMessageRepo struct {
	msgs      []domain.ChatMessage
	lastLimit int
}

func (r *memMessageRepo) Save(_ context.Context, roomID string, userID int64, content string) (*domain.ChatMessage, error) {
	m := domain.ChatMessage{
		ID:        "m1",
		RoomID:    roomID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	r.msgs = append(r.msgs, m)
	return &m, nil
}

func (r *memMessageRepo) Recent(_ context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	r.lastLimit = limit
	return r.msgs, nil
}

type memRoomGetter struct {
	room *domain.Room
}

func (r *memRoomGetter) Get(_ context.Context, id string) (*domain.Room, error) {
	if r.room == nil || r.room.ID != id {
		return nil, domain.ErrRoomNotFound
	}
	cp := *r.room
	return &cp, nil
}

func activeRoom(id string) *domain.Room {
	now := time.Now()
	return &domain.Room{ID: id, Status: domain.StatusActive, StartedAt: &now, DurationMinutes: 5}
}

func TestChatSaveValidation(t *testing.T) {
	msgs := &memMessageRepo{}
	svc := NewChatService(msgs, &memRoomGetter{room: activeRoom("r1")}, 50)
	ctx := context.Background()

	cases := []struct {
		name    string
		content string
		wantErr error
	}{
		{"empty", "", domain.ErrEmptyMessage},
		{"whitespace only", "  \n\t ", domain.ErrEmptyMessage},
		{"too long", strings.Repeat("x", domain.MaxMessageLen+1), domain.ErrMessageTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Save(ctx, "r1", 1, tc.content); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Save(%q) err = %v, want %v", tc.content, err, tc.wantErr)
			}
		})
	}
	if len(msgs.msgs) != 0 {
		t.Fatalf("invalid content was persisted")
	}

	// exactly the limit is fine, and multibyte runes count as one
	long := strings.Repeat("ш", domain.MaxMessageLen)
	if _, err := svc.Save(ctx, "r1", 1, long); err != nil {
		t.Fatalf("Save at limit: %v", err)
	}

	m, err := svc.Save(ctx, "r1", 1, "  trimmed  ")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if m.Content != "trimmed" {
		t.Fatalf("content = %q, want trimmed", m.Content)
	}
}

func TestChatSaveClosedRoom(t *testing.T) {
	room := activeRoom("r1")
	room.Status = domain.StatusClosed
	svc := NewChatService(&memMessageRepo{}, &memRoomGetter{room: room}, 50)

	if _, err := svc.Save(context.Background(), "r1", 1, "hi"); !errors.Is(err, domain.ErrRoomClosed) {
		t.Fatalf("Save to closed room err = %v, want ErrRoomClosed", err)
	}
}

func TestChatRecentUsesHistoryLimit(t *testing.T) {
	msgs := &memMessageRepo{}
	svc := NewChatService(msgs, &memRoomGetter{room: activeRoom("r1")}, 25)

	if _, err := svc.Recent(context.Background(), "r1"); err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if msgs.lastLimit != 25 {
		t.Fatalf("limit = %d, want 25", msgs.lastLimit)
	}

	// non-positive limits fall back to the default
	svc = NewChatService(msgs, &memRoomGetter{room: activeRoom("r1")}, 0)
	svc.Recent(context.Background(), "r1")
	if msgs.lastLimit != 50 {
		t.Fatalf("default limit = %d, want 50", msgs.lastLimit)
	}
}
