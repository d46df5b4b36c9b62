package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/abhishekkumarcoder21/random-meet/internal/domain"

	"github.com/google/uuid"
)

type ParticipantRepo interface {
	Get(ctx context.Context, roomID string, userID int64) (*domain.Participant, error)
	Join(ctx context.Context, p *domain.Participant) (activated bool, err error)
	ListByRoom(ctx context.Context, roomID string) ([]domain.Participant, error)
	CountInRoom(ctx context.Context, roomID string) (int, error)
}

type UserRepo interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
	IncrementTrust(ctx context.Context, userIDs []int64) error
}

// Alias pool for users without a display name.
var aliasPool = []string{
	"Wanderer", "Dreamer", "Explorer", "Stargazer", "Firefly",
	"Moonbeam", "Drifter", "Echo", "Spark", "Breeze",
	"Ripple", "Ember", "Fern", "Pebble", "Cloud",
	"Horizon", "Meadow", "Lantern", "River", "Harbor",
}

type MemberService struct {
	participantRepo ParticipantRepo
	userRepo        UserRepo
}

func NewMemberService(participantRepo ParticipantRepo, userRepo UserRepo) *MemberService {
	return &MemberService{
		participantRepo: participantRepo,
		userRepo:        userRepo,
	}
}

// JoinRoom creates the participant record with a stable alias. Joining a
// room the user is already in is a no-op returning the existing record, so
// the alias never changes for the room's lifetime.
func (s *MemberService) JoinRoom(ctx context.Context, roomID string, userID int64) (p *domain.Participant, activated bool, err error) {
	existing, err := s.participantRepo.Get(ctx, roomID, userID)
	if err == nil {
		return existing, false, nil
	}
	if err != domain.ErrNotInRoom {
		return nil, false, err
	}

	alias, err := s.pickAlias(ctx, roomID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("pick alias: %w", err)
	}

	p = &domain.Participant{
		RoomID: roomID,
		UserID: userID,
		Alias:  alias,
	}
	activated, err = s.participantRepo.Join(ctx, p)
	if err != nil {
		return nil, false, err
	}
	return p, activated, nil
}

func (s *MemberService) pickAlias(ctx context.Context, roomID string, userID int64) (string, error) {
	if name, err := s.userRepo.DisplayName(ctx, userID); err == nil && name != "" {
		return name, nil
	}

	current, err := s.participantRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(current))
	for _, p := range current {
		taken[p.Alias] = struct{}{}
	}

	for range aliasPool {
		alias := aliasPool[rand.Intn(len(aliasPool))]
		if _, ok := taken[alias]; !ok {
			return alias, nil
		}
	}
	// pool exhausted within this room; disambiguate
	return aliasPool[rand.Intn(len(aliasPool))] + "-" + uuid.New().String()[:4], nil
}

// Participant returns the caller's record, ErrNotInRoom when absent.
func (s *MemberService) Participant(ctx context.Context, roomID string, userID int64) (*domain.Participant, error) {
	return s.participantRepo.Get(ctx, roomID, userID)
}

func (s *MemberService) ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error) {
	return s.participantRepo.ListByRoom(ctx, roomID)
}

// RewardParticipants applies the stay-to-the-end trust increment, once per
// recorded participant. Called exactly once per room, by the close action.
func (s *MemberService) RewardParticipants(ctx context.Context, roomID string) error {
	parts, err := s.participantRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, p.UserID)
	}
	return s.userRepo.IncrementTrust(ctx, ids)
}
