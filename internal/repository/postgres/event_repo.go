package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pulsecheck/controlplane/internal/domain/event"
)

var _ event.Repo = (*EventRepo)(nil)

type EventRepo struct{ db *DB }

func NewEventRepo(db *DB) *EventRepo { return &EventRepo{db: db} }

const (
	qEventLatest = `
SELECT id, monitor_id, user_id, kind, timestamp, end_time, availability, ping, port, response_time_ms, confirmed_by_agent, reason
FROM uptime_events
WHERE monitor_id = $1
ORDER BY timestamp DESC
LIMIT 1;`

	qEventInsert = `
INSERT INTO uptime_events
 (monitor_id, user_id, kind, timestamp, availability, ping, port, response_time_ms, confirmed_by_agent, reason)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id;`

	qEventSetEndTime = `UPDATE uptime_events SET end_time = $2 WHERE id = $1;`

	qEventSince = `
SELECT id, monitor_id, user_id, kind, timestamp, end_time, availability, ping, port, response_time_ms, confirmed_by_agent, reason
FROM uptime_events
WHERE monitor_id = $1 AND timestamp >= $2
ORDER BY timestamp ASC;`

	qEventPage = `
SELECT id, monitor_id, user_id, kind, timestamp, end_time, availability, ping, port, response_time_ms, confirmed_by_agent, reason
FROM uptime_events
WHERE monitor_id = $1 AND ($2 = 0 OR id < $2)
ORDER BY timestamp DESC, id DESC
LIMIT $3;`

	qEventLatestAdverseAll = `
SELECT id, monitor_id, user_id, kind, timestamp, end_time, availability, ping, port, response_time_ms, confirmed_by_agent, reason
FROM uptime_events
WHERE availability = 'Down' OR ping = 'Unreachable' OR port = 'Closed'
ORDER BY timestamp DESC
LIMIT 1;`

	qEventLatestAdverseUser = `
SELECT id, monitor_id, user_id, kind, timestamp, end_time, availability, ping, port, response_time_ms, confirmed_by_agent, reason
FROM uptime_events
WHERE user_id = $1 AND (availability = 'Down' OR ping = 'Unreachable' OR port = 'Closed')
ORDER BY timestamp DESC
LIMIT 1;`
)

func scanEvent(row pgx.Row) (*event.Event, error) {
	var e event.Event
	if err := row.Scan(
		&e.ID, &e.MonitorID, &e.UserID, &e.Kind, &e.Timestamp, &e.EndTime,
		&e.Availability, &e.Ping, &e.Port, &e.ResponseTimeMS, &e.ConfirmedByAgent, &e.Reason,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return &e, nil
}

func (r *EventRepo) Latest(ctx context.Context, monitorID int64) (*event.Event, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()
	return scanEvent(r.db.Pool.QueryRow(ctx, qEventLatest, monitorID))
}

// Append sets the prior event's endTime when prevID is non-zero, then
// inserts e. The two statements do not share a transaction: if the
// insert fails, the prior event stays closed with no successor row.
func (r *EventRepo) Append(ctx context.Context, e *event.Event, prevID int64, prevEndTime time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if prevID != 0 {
		if _, err := r.db.Pool.Exec(ctx, qEventSetEndTime, prevID, prevEndTime); err != nil {
			return fmt.Errorf("set prior end_time: %w", err)
		}
	}

	row := r.db.Pool.QueryRow(ctx, qEventInsert,
		e.MonitorID, e.UserID, e.Kind, e.Timestamp,
		e.Availability, e.Ping, e.Port, e.ResponseTimeMS, e.ConfirmedByAgent, e.Reason)
	if err := row.Scan(&e.ID); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepo) Since(ctx context.Context, monitorID int64, from time.Time) ([]*event.Event, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qEventSince, monitorID, from)
	if err != nil {
		return nil, fmt.Errorf("query events since: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *EventRepo) Page(ctx context.Context, monitorID int64, beforeID int64, limit int) ([]*event.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qEventPage, monitorID, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("query event page: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *EventRepo) LatestAdverse(ctx context.Context, userID int64) (*event.Event, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if userID <= 0 {
		return scanEvent(r.db.Pool.QueryRow(ctx, qEventLatestAdverseAll))
	}
	return scanEvent(r.db.Pool.QueryRow(ctx, qEventLatestAdverseUser, userID))
}

func collectEvents(rows pgx.Rows) ([]*event.Event, error) {
	var out []*event.Event
	for rows.Next() {
		var e event.Event
		if err := rows.Scan(
			&e.ID, &e.MonitorID, &e.UserID, &e.Kind, &e.Timestamp, &e.EndTime,
			&e.Availability, &e.Ping, &e.Port, &e.ResponseTimeMS, &e.ConfirmedByAgent, &e.Reason,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
