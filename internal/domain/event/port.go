package event

import (
	"context"
	"time"
)

type Repo interface {
	// Latest returns the most recent event for a monitor, or nil if none exists.
	Latest(ctx context.Context, monitorID int64) (*Event, error)

	// Append sets the endTime of event prevID to prevEndTime when prevID is
	// non-zero, then inserts e. The two writes are not atomic: if the insert
	// fails, the prior event stays closed with no successor row.
	Append(ctx context.Context, e *Event, prevID int64, prevEndTime time.Time) error

	// Since returns events for a monitor with timestamp >= from, ascending.
	Since(ctx context.Context, monitorID int64, from time.Time) ([]*Event, error)

	// Page returns events for a monitor, descending by timestamp, paginated.
	Page(ctx context.Context, monitorID int64, beforeID int64, limit int) ([]*Event, error)

	// LatestAdverse returns the most recent event with any adverse field,
	// optionally scoped to a user (userID <= 0 means all users).
	LatestAdverse(ctx context.Context, userID int64) (*Event, error)
}
