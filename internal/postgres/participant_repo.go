package postgres

import (
	"context"

	"github.com/abhishekkumarcoder21/random-meet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipantRepository struct {
	db *pgxpool.Pool
}

func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Get(ctx context.Context, roomID string, userID int64) (*domain.Participant, error) {
	var p domain.Participant
	err := r.db.QueryRow(ctx,
		`SELECT room_id, user_id, alias, joined_at FROM room_participants WHERE room_id=$1 AND user_id=$2`,
		roomID, userID).Scan(&p.RoomID, &p.UserID, &p.Alias, &p.JoinedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotInRoom
		}
		return nil, err
	}
	return &p, nil
}

// Join inserts the participant and, when this is the join that brings the
// room to two members, flips it waiting -> active with started_at set. The
// room row is locked for the whole transaction so concurrent joins cannot
// pass the capacity check together or activate twice.
func (r *ParticipantRepository) Join(ctx context.Context, p *domain.Participant) (activated bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var status domain.RoomStatus
	var max int64
	if err := tx.QueryRow(ctx,
		`SELECT status, max_participants FROM rooms WHERE id=$1 FOR UPDATE`,
		p.RoomID).Scan(&status, &max); err != nil {
		if err == pgx.ErrNoRows {
			return false, domain.ErrRoomNotFound
		}
		return false, err
	}
	if status == domain.StatusClosed {
		return false, domain.ErrRoomClosed
	}

	var count int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM room_participants WHERE room_id=$1`, p.RoomID).Scan(&count); err != nil {
		return false, err
	}
	if count >= max {
		return false, domain.ErrRoomFull
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO room_participants (room_id, user_id, alias)
		VALUES ($1, $2, $3)
		RETURNING joined_at
	`, p.RoomID, p.UserID, p.Alias).Scan(&p.JoinedAt); err != nil {
		return false, err
	}

	if count+1 >= 2 && status == domain.StatusWaiting {
		if _, err := tx.Exec(ctx,
			`UPDATE rooms SET status='active', started_at=now() WHERE id=$1 AND status='waiting'`,
			p.RoomID); err != nil {
			return false, err
		}
		activated = true
	}

	return activated, tx.Commit(ctx)
}

func (r *ParticipantRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT room_id, user_id, alias, joined_at FROM room_participants WHERE room_id=$1 ORDER BY joined_at ASC`,
		roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.RoomID, &p.UserID, &p.Alias, &p.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *ParticipantRepository) CountInRoom(ctx context.Context, roomID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM room_participants WHERE room_id=$1`, roomID).Scan(&count)
	return count, err
}
