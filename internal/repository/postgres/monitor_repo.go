package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pulsecheck/controlplane/internal/domain/monitor"
)

var _ monitor.Repo = (*MonitorRepo)(nil)

type MonitorRepo struct{ db *DB }

func NewMonitorRepo(db *DB) *MonitorRepo { return &MonitorRepo{db: db} }

const (
	qMonitorInsert = `
INSERT INTO monitors (user_id, name, kind, url, port, frequency_min, alert_frequency_min, is_paused, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
RETURNING id, user_id, name, kind, url, port, frequency_min, alert_frequency_min, is_paused, last_alert_sent_at, created_at, updated_at;`

	qMonitorGetByID = `
SELECT id, user_id, name, kind, url, port, frequency_min, alert_frequency_min, is_paused, last_alert_sent_at, created_at, updated_at
FROM monitors WHERE id = $1;`

	qMonitorListByUser = `
SELECT id, user_id, name, kind, url, port, frequency_min, alert_frequency_min, is_paused, last_alert_sent_at, created_at, updated_at
FROM monitors WHERE user_id = $1 ORDER BY id DESC;`

	qMonitorDelete = `DELETE FROM monitors WHERE id = $1;`

	qMonitorFetchDue = `
SELECT id, user_id, name, kind, url, port, frequency_min, alert_frequency_min, is_paused, last_alert_sent_at, created_at, updated_at
FROM monitors
WHERE frequency_min = $1 AND is_paused = FALSE AND updated_at <= $2
ORDER BY updated_at
FOR UPDATE SKIP LOCKED
LIMIT $3;`

	qMonitorTouch = `UPDATE monitors SET updated_at = $2 WHERE id = $1;`

	qMonitorSetLastAlertSentAt = `UPDATE monitors SET last_alert_sent_at = $2 WHERE id = $1;`
)

func scanMonitor(row pgx.Row, m *monitor.Monitor) error {
	var userID *int64
	if err := row.Scan(
		&m.ID, &userID, &m.Name, &m.Kind, &m.URL, &m.Port,
		&m.FrequencyMin, &m.AlertFreqMin, &m.IsPaused, &m.LastAlertSentAt,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan monitor: %w", err)
	}
	m.UserID = userID
	return nil
}

func (r *MonitorRepo) Create(ctx context.Context, m *monitor.Monitor) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qMonitorInsert,
		m.UserID, m.Name, m.Kind, m.URL, m.EffectivePort(), m.FrequencyMin, m.AlertFreqMin, m.IsPaused)
	return scanMonitor(row, m)
}

func (r *MonitorRepo) GetByID(ctx context.Context, id int64) (*monitor.Monitor, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var m monitor.Monitor
	if err := scanMonitor(r.db.Pool.QueryRow(ctx, qMonitorGetByID, id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MonitorRepo) ListByUser(ctx context.Context, userID int64) ([]*monitor.Monitor, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qMonitorListByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("query monitors: %w", err)
	}
	defer rows.Close()

	var out []*monitor.Monitor
	for rows.Next() {
		var m monitor.Monitor
		if err := scanMonitor(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *MonitorRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qMonitorDelete, id)
	if err != nil {
		return fmt.Errorf("delete monitor: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FetchDue locks candidate rows FOR UPDATE SKIP LOCKED for the
// duration of the select, so two scheduler processes racing the same
// tick don't both select the same row. The lock is released at commit,
// before the row is returned to the caller, so it only prevents a
// same-instant double-select: it does not hold for the probe cycle
// that follows, and does not by itself guarantee a monitor is claimed
// by at most one in-flight tick. That guarantee would require holding
// the row for the whole tick or a separate lease column; neither is
// implemented, so overlapping picks across scheduler replicas are
// still possible once the brief select window has passed.
func (r *MonitorRepo) FetchDue(ctx context.Context, frequencyMin int, window time.Duration, limit int) ([]*monitor.Monitor, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cutoff := time.Now().Add(-window)

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, qMonitorFetchDue, frequencyMin, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due: %w", err)
	}

	var out []*monitor.Monitor
	for rows.Next() {
		var m monitor.Monitor
		if err := scanMonitor(rows, &m); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, &m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (r *MonitorRepo) Touch(ctx context.Context, id int64, now time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	_, err := r.db.Pool.Exec(ctx, qMonitorTouch, id, now)
	return err
}

func (r *MonitorRepo) SetLastAlertSentAt(ctx context.Context, id int64, at time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	_, err := r.db.Pool.Exec(ctx, qMonitorSetLastAlertSentAt, id, at)
	return err
}
