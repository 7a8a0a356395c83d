package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pulsecheck/controlplane/internal/domain/alert"
	"github.com/pulsecheck/controlplane/internal/domain/outbox"
	kafkax "github.com/pulsecheck/controlplane/internal/repository/kafka"
)

// AlertThrottleRepo composes the alert table, the monitor watermark
// column, and the outbox into the single interface alertthrottle.Fire
// expects. CreateAlert enqueues the AlertCreated hand-off in the same
// transaction as the alert insert, mirroring the outbox-enqueue-with-
// domain-write pattern used elsewhere in this repo.
type AlertThrottleRepo struct {
	Alerts     *AlertRepo
	Monitors   *MonitorRepo
	Outbox     *OutboxRepo
	Transactor Transactor
}

func (r AlertThrottleRepo) CreateAlert(ctx context.Context, a *alert.Alert) error {
	return r.Transactor.WithTx(ctx, func(txCtx context.Context) error {
		if err := r.Alerts.Create(txCtx, a); err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}

		payload := kafkax.AlertCreated{
			AlertID:   a.ID,
			UserID:    a.UserID,
			MonitorID: a.MonitorID,
			URL:       a.URL,
			CreatedAt: a.CreatedAt,
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal alert created: %w", err)
		}

		key := fmt.Sprintf("alert:%d", a.ID)
		if err := r.Outbox.Enqueue(txCtx, key, outbox.KindAlertCreated, b); err != nil {
			return fmt.Errorf("outbox enqueue: %w", err)
		}
		return nil
	})
}

func (r AlertThrottleRepo) SetLastAlertSentAt(ctx context.Context, monitorID int64, at time.Time) error {
	return r.Monitors.SetLastAlertSentAt(ctx, monitorID, at)
}
