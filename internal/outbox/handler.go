package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pulsecheck/controlplane/internal/domain/outbox"
	"github.com/pulsecheck/controlplane/internal/obs/retry"
	kafkax "github.com/pulsecheck/controlplane/internal/repository/kafka"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var (
	outboxHandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_handler_latency_seconds",
		Help:    "Latency of outbox handlers (publish, http, etc.)",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	outboxHandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_handler_errors_total",
		Help: "Errors in outbox handlers (after retries).",
	}, []string{"kind"})
)

func instrument(kind string, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle")
		defer span.End()

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		outboxHandlerLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			outboxHandlerErrors.WithLabelValues(kind).Inc()
		}
		return err
	}
}

// MakeGlobalOutboxHandler builds the dispatch table for the outbox
// runner. Today it handles one kind: AlertCreated, forwarded to Kafka
// for the alert-notifier service to deliver.
func MakeGlobalOutboxHandler(pub *kafkax.AlertEvents, pol retry.Policy) outbox.GlobalHandler {
	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindAlertCreated:
			base := func(ctx context.Context, data []byte) error {
				var p kafkax.AlertCreated
				if err := json.Unmarshal(data, &p); err != nil {
					return fmt.Errorf("unmarshal alert-created payload: %w", err)
				}
				return pub.PublishAlertCreated(ctx, p)
			}
			return instrument("alert_created", base, pol), nil
		default:
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
	}
}
