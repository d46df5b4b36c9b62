package postgres

import (
	"context"
	"time"

	"github.com/abhishekkumarcoder21/random-meet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, type, title, prompt, rules, status, max_participants, duration_minutes, is_premium, started_at, closed_at, created_at`

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var rm domain.Room
	err := row.Scan(&rm.ID, &rm.Type, &rm.Title, &rm.Prompt, &rm.Rules, &rm.Status,
		&rm.MaxParticipants, &rm.DurationMinutes, &rm.IsPremium, &rm.StartedAt, &rm.ClosedAt, &rm.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO rooms (type, title, prompt, rules, status, max_participants, duration_minutes, is_premium)
		VALUES ($1, $2, $3, $4, 'waiting', $5, $6, $7)
		RETURNING id, status, created_at`
	return r.db.QueryRow(ctx, query,
		room.Type, room.Title, room.Prompt, room.Rules,
		room.MaxParticipants, room.DurationMinutes, room.IsPremium,
	).Scan(&room.ID, &room.Status, &room.CreatedAt)
}

func (r *RoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id=$1`
	return scanRoom(r.db.QueryRow(ctx, query, id))
}

// ListOpen returns every waiting or active room, newest first.
func (r *RoomRepository) ListOpen(ctx context.Context) ([]domain.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE status IN ('waiting', 'active')
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *rm)
	}
	return rooms, rows.Err()
}

// Close marks the room closed. Returns false when the room was already
// closed, so the caller can skip the close side effects. This is the single
// point that guarantees at-most-once close semantics.
func (r *RoomRepository) Close(ctx context.Context, id string, at time.Time) (bool, error) {
	cmd, err := r.db.Exec(ctx,
		`UPDATE rooms SET status='closed', closed_at=$2 WHERE id=$1 AND status <> 'closed'`,
		id, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *RoomRepository) CountWaitingByType(ctx context.Context, t domain.RoomType) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM rooms WHERE type=$1 AND status='waiting'`, t).Scan(&count)
	return count, err
}
