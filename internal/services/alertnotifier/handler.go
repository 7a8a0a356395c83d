package alertnotifier

import (
	"context"
	"fmt"
	"time"

	"github.com/pulsecheck/controlplane/internal/domain/alert"
	"github.com/pulsecheck/controlplane/internal/domain/monitor"
	"github.com/pulsecheck/controlplane/internal/domain/user"
	kafkax "github.com/pulsecheck/controlplane/internal/repository/kafka"
)

// Sender delivers a single alert message. Mailer satisfies this.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Handler struct {
	Monitors monitor.Repo
	Users    user.Repo
	Alerts   alert.Repo
	Out      Sender
	Clock    func() time.Time
}

// HandleAlertCreated resolves the owning user and monitor for ev, sends
// the delivery, and bumps the alert's try counter regardless of outcome.
// It does not compare tries with MaxTries: a failed send is returned as
// an error on every attempt.
func (h *Handler) HandleAlertCreated(ctx context.Context, ev kafkax.AlertCreated) error {
	m, err := h.Monitors.GetByID(ctx, ev.MonitorID)
	if err != nil {
		return fmt.Errorf("get monitor: %w", err)
	}

	u, err := h.Users.GetByID(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	subject := fmt.Sprintf("Monitor down: %s", m.URL)
	body := fmt.Sprintf(
		"Hello!\n\nYour monitor (%s) went down at %s.\n\n— pulsecheck",
		m.URL, ev.CreatedAt.UTC().Format(time.RFC3339),
	)

	sendErr := h.Out.Send(ctx, u.Email, subject, body)

	if _, ierr := h.Alerts.IncrementTries(ctx, ev.AlertID); ierr != nil {
		if sendErr != nil {
			return fmt.Errorf("send alert: %w (increment tries also failed: %v)", sendErr, ierr)
		}
		return fmt.Errorf("increment tries: %w", ierr)
	}

	if sendErr != nil {
		return fmt.Errorf("send alert: %w", sendErr)
	}
	return nil
}
