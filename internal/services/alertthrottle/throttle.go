package alertthrottle

import (
	"context"
	"time"

	"github.com/pulsecheck/controlplane/internal/domain/alert"
	"github.com/pulsecheck/controlplane/internal/domain/monitor"
)

// ShouldAlert reports whether an alert should fire for m at now.
func ShouldAlert(m *monitor.Monitor, now time.Time) bool {
	if m.LastAlertSentAt == nil {
		return true
	}
	freq := time.Duration(m.AlertFreqMin) * time.Minute
	return now.Sub(*m.LastAlertSentAt) >= freq
}

type Repo interface {
	CreateAlert(ctx context.Context, a *alert.Alert) error
	SetLastAlertSentAt(ctx context.Context, monitorID int64, at time.Time) error
}

// Fire emits an alert for m and advances its throttle watermark. The
// two writes are independent: the watermark update happens even if the
// alert insert fails, so a late probe tick does not re-fire endlessly.
// If m has no owning user, emission is skipped entirely.
func Fire(ctx context.Context, repo Repo, m *monitor.Monitor, now time.Time) error {
	if m.UserID == nil {
		return nil
	}
	alertErr := repo.CreateAlert(ctx, &alert.Alert{
		UserID:    *m.UserID,
		MonitorID: m.ID,
		URL:       m.URL,
		MaxTries:  alert.DefaultMaxTries,
		CreatedAt: now,
	})
	if err := repo.SetLastAlertSentAt(ctx, m.ID, now); err != nil {
		return err
	}
	return alertErr
}
