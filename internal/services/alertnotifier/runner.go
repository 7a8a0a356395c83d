package alertnotifier

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	kafkax "github.com/pulsecheck/controlplane/internal/repository/kafka"
)

type Runner struct {
	log     *zap.Logger
	cons    *kafkax.Consumer
	handler *Handler

	mConsumed prometheus.Counter
	mSent     prometheus.Counter
	mErrors   prometheus.Counter
}

func NewRunner(log *zap.Logger, cons *kafkax.Consumer, handler *Handler) *Runner {
	return &Runner{
		log:     log.With(zap.String("component", "alertnotifier.runner")),
		cons:    cons,
		handler: handler,
		mConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "alert_notifier_messages_consumed_total",
			Help: "AlertCreated events consumed",
		}),
		mSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "alert_notifier_alerts_sent_total",
			Help: "Alerts delivered",
		}),
		mErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "alert_notifier_errors_total",
			Help: "Delivery errors",
		}),
	}
}

func (r *Runner) Run(ctx context.Context) error {
	handler := kafkax.JSONHandler(func(ctx context.Context, _ []byte, ev kafkax.AlertCreated) error {
		r.mConsumed.Inc()
		if ev.AlertID <= 0 || ev.MonitorID <= 0 {
			r.log.Warn("invalid AlertCreated: missing id")
			return nil
		}
		if err := r.handler.HandleAlertCreated(ctx, ev); err != nil {
			r.mErrors.Inc()
			r.log.Error("handle alert created", zap.Int64("alert_id", ev.AlertID), zap.Error(err))
			return err
		}
		r.mSent.Inc()
		return nil
	})

	if err := r.cons.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		r.mErrors.Inc()
		r.log.Warn("kafka consume", zap.Error(err))
		return err
	}
	return ctx.Err()
}
