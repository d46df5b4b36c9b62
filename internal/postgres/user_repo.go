package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// DisplayName returns the user's chosen display name, which may be empty.
func (r *UserRepository) DisplayName(ctx context.Context, userID int64) (string, error) {
	var name *string
	err := r.db.QueryRow(ctx,
		`SELECT display_name FROM users WHERE id=$1`, userID).Scan(&name)
	if err != nil {
		return "", err
	}
	if name == nil {
		return "", nil
	}
	return *name, nil
}

// IncrementTrust rewards the given users with one trust point each. The
// moderation collaborator reads trust_score; this service only writes the
// stay-to-the-end reward.
func (r *UserRepository) IncrementTrust(ctx context.Context, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`UPDATE users SET trust_score = trust_score + 1 WHERE id = ANY($1)`, userIDs)
	return err
}
