package service

import (
	"context"
	"fmt"
	"time"

	"github.com/abhishekkumarcoder21/random-meet/internal/domain"
)

type RoomRepo interface {
	Create(ctx context.Context, room *domain.Room) error
	Get(ctx context.Context, id string) (*domain.Room, error)
	ListOpen(ctx context.Context) ([]domain.Room, error)
	Close(ctx context.Context, id string, at time.Time) (bool, error)
	CountWaitingByType(ctx context.Context, t domain.RoomType) (int, error)
}

type RoomService struct {
	roomRepo RoomRepo
}

func NewRoomService(roomRepo RoomRepo) *RoomService {
	return &RoomService{roomRepo: roomRepo}
}

func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	return s.roomRepo.Get(ctx, id)
}

func (s *RoomService) ListOpen(ctx context.Context) ([]domain.Room, error) {
	return s.roomRepo.ListOpen(ctx)
}

// CloseRoom moves the room to its terminal state. Returns false when it was
// already closed; the transition itself happens at most once no matter how
// many timers or late joins race here.
func (s *RoomService) CloseRoom(ctx context.Context, id string) (bool, error) {
	closed, err := s.roomRepo.Close(ctx, id, time.Now())
	if err != nil {
		return false, fmt.Errorf("roomRepo.Close: %w", err)
	}
	return closed, nil
}

// EnsureAvailable tops up the pool so at least two waiting rooms exist per
// template type. Strangers should always find somewhere to land.
func (s *RoomService) EnsureAvailable(ctx context.Context) error {
	for _, tpl := range roomTemplates {
		waiting, err := s.roomRepo.CountWaitingByType(ctx, tpl.Type)
		if err != nil {
			return fmt.Errorf("count waiting %s: %w", tpl.Type, err)
		}
		for i := waiting; i < 2; i++ {
			room := tpl.instantiate()
			if err := s.roomRepo.Create(ctx, room); err != nil {
				return fmt.Errorf("create %s: %w", tpl.Type, err)
			}
		}
	}
	return nil
}
