package service

import (
	"context"
	"testing"
	"time"

	"github.com/abhishekkumarcoder21/random-meet/internal/domain"
)

type memRoomRepo struct {
	rooms map[string]*domain.Room
	seq   int
}

func newMemRoomRepo() *memRoomRepo {
	return &memRoomRepo{rooms: make(map[string]*domain.Room)}
}

func (r *memRoomRepo) Create(_ context.Context, room *domain.Room) error {
	r.seq++
	if room.ID == "" {
		room.ID = "room-" + string(rune('a'+r.seq))
	}
	room.CreatedAt = time.Now()
	cp := *room
	r.rooms[room.ID] = &cp
	return nil
}

func (r *memRoomRepo) Get(_ context.Context, id string) (*domain.Room, error) {
	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (r *memRoomRepo) ListOpen(_ context.Context) ([]domain.Room, error) {
	var out []domain.Room
	for _, room := range r.rooms {
		if room.Status != domain.StatusClosed {
			out = append(out, *room)
		}
	}
	return out, nil
}

func (r *memRoomRepo) Close(_ context.Context, id string, at time.Time) (bool, error) {
	room, ok := r.rooms[id]
	if !ok || room.Status == domain.StatusClosed {
		return false, nil
	}
	room.Status = domain.StatusClosed
	room.ClosedAt = &at
	return true, nil
}

func (r *memRoomRepo) CountWaitingByType(_ context.Context, t domain.RoomType) (int, error) {
	n := 0
	for _, room := range r.rooms {
		if room.Type == t && room.Status == domain.StatusWaiting {
			n++
		}
	}
	return n, nil
}

func TestEnsureAvailableTopsUpEveryType(t *testing.T) {
	repo := newMemRoomRepo()
	svc := NewRoomService(repo)
	ctx := context.Background()

	if err := svc.EnsureAvailable(ctx); err != nil {
		t.Fatalf("EnsureAvailable: %v", err)
	}
	for _, tpl := range roomTemplates {
		if n, _ := repo.CountWaitingByType(ctx, tpl.Type); n != 2 {
			t.Fatalf("waiting %s rooms = %d, want 2", tpl.Type, n)
		}
	}

	// a second run with a full pool creates nothing
	before := len(repo.rooms)
	if err := svc.EnsureAvailable(ctx); err != nil {
		t.Fatalf("EnsureAvailable again: %v", err)
	}
	if len(repo.rooms) != before {
		t.Fatalf("top-up ran on a full pool")
	}
}

func TestEnsureAvailableRefillsAfterActivation(t *testing.T) {
	repo := newMemRoomRepo()
	svc := NewRoomService(repo)
	ctx := context.Background()
	svc.EnsureAvailable(ctx)

	// activate one quick-chat room; its slot must be refilled
	for _, room := range repo.rooms {
		if room.Type == domain.TypeQuickChat {
			now := time.Now()
			room.Status = domain.StatusActive
			room.StartedAt = &now
			break
		}
	}

	if err := svc.EnsureAvailable(ctx); err != nil {
		t.Fatalf("EnsureAvailable: %v", err)
	}
	if n, _ := repo.CountWaitingByType(ctx, domain.TypeQuickChat); n != 2 {
		t.Fatalf("waiting quick-chat rooms = %d, want 2", n)
	}
}

func TestCloseRoomIsIdempotent(t *testing.T) {
	repo := newMemRoomRepo()
	svc := NewRoomService(repo)
	ctx := context.Background()

	now := time.Now()
	repo.Create(ctx, &domain.Room{ID: "r1", Type: domain.TypeQuickChat, Status: domain.StatusActive, StartedAt: &now})

	closed, err := svc.CloseRoom(ctx, "r1")
	if err != nil || !closed {
		t.Fatalf("first close = %v, %v", closed, err)
	}
	closed, err = svc.CloseRoom(ctx, "r1")
	if err != nil || closed {
		t.Fatalf("second close = %v, %v, want false", closed, err)
	}
}

func TestTemplatesDrawPrompts(t *testing.T) {
	for _, tpl := range roomTemplates {
		room := tpl.instantiate()
		if room.Status != domain.StatusWaiting {
			t.Fatalf("%s: new room status = %q", tpl.Type, room.Status)
		}
		if room.StartedAt != nil {
			t.Fatalf("%s: new room already started", tpl.Type)
		}
		switch tpl.Type {
		case domain.TypeGroupPrompt, domain.TypeTaskCollab:
			if room.Prompt == nil || *room.Prompt == "" {
				t.Fatalf("%s: no prompt drawn", tpl.Type)
			}
		}
		if room.Rules == "" {
			t.Fatalf("%s: rules missing", tpl.Type)
		}
	}
}
