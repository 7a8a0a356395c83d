package postgres

import (
	"context"

	"github.com/pulsecheck/controlplane/internal/domain/user"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct{ db *DB }

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const qUserGetByID = `SELECT id, email, created_at FROM users WHERE id = $1;`

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	row := r.db.Pool.QueryRow(ctx, qUserGetByID, id)
	if err := row.Scan(&u.ID, &u.Email, &u.CreatedAt); err != nil {
		return nil, translateScanErr(err)
	}
	return &u, nil
}
