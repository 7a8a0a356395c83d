package kafka

import (
	"context"
	"time"
)

// AlertCreated is the JSON payload produced to the alerts topic when
// C4 appends an Alert. The alert-notifier service consumes it.
type AlertCreated struct {
	AlertID   int64     `json:"alert_id"`
	UserID    int64     `json:"user_id"`
	MonitorID int64     `json:"monitor_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type AlertEvents struct {
	p *Producer
}

func NewAlertEvents(p *Producer) *AlertEvents { return &AlertEvents{p: p} }

func (e *AlertEvents) PublishAlertCreated(ctx context.Context, a AlertCreated) error {
	return e.p.PublishJSON(ctx, KeyFromInt64(a.MonitorID), a)
}
