package postgres

import (
	"context"
	"fmt"

	"github.com/pulsecheck/controlplane/internal/domain/alert"
)

var _ alert.Repo = (*AlertRepo)(nil)

type AlertRepo struct{ db *DB }

func NewAlertRepo(db *DB) *AlertRepo { return &AlertRepo{db: db} }

const qAlertInsert = `
INSERT INTO alerts (user_id, monitor_id, url, tries, max_tries, created_at)
VALUES ($1, $2, $3, $4, $5, now())
RETURNING id, created_at;`

const qAlertIncrementTries = `
UPDATE alerts SET tries = tries + 1 WHERE id = $1 RETURNING tries;`

func (r *AlertRepo) Create(ctx context.Context, a *alert.Alert) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if a.MaxTries <= 0 {
		a.MaxTries = alert.DefaultMaxTries
	}
	row := r.db.execQueryer(ctx).QueryRow(ctx, qAlertInsert, a.UserID, a.MonitorID, a.URL, a.Tries, a.MaxTries)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *AlertRepo) IncrementTries(ctx context.Context, id int64) (int, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var tries int
	if err := r.db.Pool.QueryRow(ctx, qAlertIncrementTries, id).Scan(&tries); err != nil {
		return 0, fmt.Errorf("increment alert tries: %w", err)
	}
	return tries, nil
}
