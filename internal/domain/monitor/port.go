package monitor

import (
	"context"
	"time"
)

type Repo interface {
	Create(ctx context.Context, m *Monitor) error
	GetByID(ctx context.Context, id int64) (*Monitor, error)
	ListByUser(ctx context.Context, userID int64) ([]*Monitor, error)
	Delete(ctx context.Context, id int64) error

	// FetchDue returns up to limit monitors in the given frequency bucket
	// whose updatedAt is older than now-window, and are not paused. It does
	// not bump updatedAt; the caller must do that after a completed run.
	FetchDue(ctx context.Context, frequencyMin int, window time.Duration, limit int) ([]*Monitor, error)

	// Touch bumps updatedAt unconditionally. Called once per monitor per
	// completed worker run, regardless of whether an event was written.
	Touch(ctx context.Context, id int64, now time.Time) error

	// SetLastAlertSentAt persists the alert throttle watermark.
	SetLastAlertSentAt(ctx context.Context, id int64, at time.Time) error
}
