package monitorworker

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pulsecheck/controlplane/internal/domain/alert"
	"github.com/pulsecheck/controlplane/internal/domain/event"
	"github.com/pulsecheck/controlplane/internal/domain/monitor"
	"github.com/pulsecheck/controlplane/internal/services/alertthrottle"
	"github.com/pulsecheck/controlplane/internal/services/detector"
	"github.com/pulsecheck/controlplane/internal/services/probeclient"
)

// AgentPool is the subset of agentpool.Pool a worker needs. Narrowed to
// an interface so tests can stub rotation without a real repository.
type AgentPool interface {
	Next() (string, error)
	Other(except string) (string, error)
}

// Prober is the subset of probeclient.Client a worker needs.
type Prober interface {
	Probe(ctx context.Context, agentURL string, m *monitor.Monitor) (probeclient.Result, error)
}

type alertRepo interface {
	CreateAlert(ctx context.Context, a *alert.Alert) error
	SetLastAlertSentAt(ctx context.Context, monitorID int64, at time.Time) error
}

type Worker struct {
	log    *zap.Logger
	events event.Repo
	mons   monitor.Repo
	pool   AgentPool
	probes Prober
	alerts alertRepo
	clock  func() time.Time

	mRuns      prometheus.Counter
	mAborted   prometheus.Counter
	mAppended  prometheus.Counter
	mAlerted   prometheus.Counter
	mVerified  prometheus.Counter
	mRunLat    prometheus.Histogram
}

func New(log *zap.Logger, events event.Repo, mons monitor.Repo, pool AgentPool, probes Prober, alerts alertRepo) *Worker {
	return &Worker{
		log: log, events: events, mons: mons, pool: pool, probes: probes, alerts: alerts,
		clock: time.Now,
		mRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "monitorworker_runs_total", Help: "Monitor worker invocations.",
		}),
		mAborted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "monitorworker_aborted_total", Help: "Invocations aborted (no agent available or both probes failed).",
		}),
		mAppended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "monitorworker_events_appended_total", Help: "Uptime events appended.",
		}),
		mAlerted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "monitorworker_alerts_fired_total", Help: "Alerts fired.",
		}),
		mVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "monitorworker_verifications_total", Help: "Adverse results re-checked by a second agent.",
		}),
		mRunLat: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "monitorworker_run_duration_seconds", Help: "Wall time per monitor worker invocation.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Run executes the nine-step algorithm for one monitor. Any abort
// (no agent, both probes failed) is not an error from the caller's
// perspective: the monitor is simply retried next tick.
func (w *Worker) Run(ctx context.Context, m *monitor.Monitor) error {
	w.mRuns.Inc()
	start := w.clock()
	defer func() { w.mRunLat.Observe(time.Since(start).Seconds()) }()

	tr := otel.Tracer("monitorworker")
	ctx, span := tr.Start(ctx, "monitorworker.run",
		trace.WithAttributes(attribute.Int64("monitor.id", m.ID), attribute.String("monitor.kind", string(m.Kind))))
	defer span.End()

	last, err := w.events.Latest(ctx, m.ID)
	if err != nil {
		span.RecordError(err)
		w.mAborted.Inc()
		w.log.Warn("latest event read failed, skipping tick", zap.Int64("monitor_id", m.ID), zap.Error(err))
		return nil
	}

	primary, err := w.pool.Next()
	if err != nil {
		w.mAborted.Inc()
		w.log.Debug("no agent available", zap.Int64("monitor_id", m.ID))
		return nil
	}

	res, confirmedBy, err := w.probeWithFailover(ctx, m, primary)
	if err != nil {
		w.mAborted.Inc()
		w.log.Debug("both agents failed, skipping tick", zap.Int64("monitor_id", m.ID))
		return nil
	}

	candidate := resultToEvent(m, res, confirmedBy, w.clock())

	if candidate.IsAdverse(m.Kind) {
		if alt, aerr := w.pool.Other(confirmedBy); aerr == nil {
			if vres, verr := w.probes.Probe(ctx, alt, m); verr == nil {
				w.mVerified.Inc()
				candidate.Availability = vres.Availability
				candidate.ConfirmedByAgent = alt
			}
		}
	}

	if detector.ShouldAppend(m.Kind, candidate, last) {
		var prevID int64
		var prevEnd time.Time
		if last != nil {
			prevID = last.ID
			prevEnd = candidate.Timestamp
		}
		if err := w.events.Append(ctx, candidate, prevID, prevEnd); err != nil {
			span.RecordError(err)
			w.log.Warn("event append failed", zap.Int64("monitor_id", m.ID), zap.Error(err))
		} else {
			w.mAppended.Inc()
		}
	}

	if candidate.IsAdverse(m.Kind) && alertthrottle.ShouldAlert(m, candidate.Timestamp) {
		if err := alertthrottle.Fire(ctx, w.alerts, m, candidate.Timestamp); err != nil {
			w.log.Warn("alert fire failed", zap.Int64("monitor_id", m.ID), zap.Error(err))
		} else {
			w.mAlerted.Inc()
		}
	}

	if err := w.mons.Touch(ctx, m.ID, candidate.Timestamp); err != nil {
		w.log.Warn("monitor touch failed", zap.Int64("monitor_id", m.ID), zap.Error(err))
	}

	return nil
}

var errBothAgentsFailed = errors.New("monitorworker: primary and alternate probes both failed")

// probeWithFailover implements steps 3-4: try primary, on ProbeError try
// exactly one alternate, otherwise abort.
func (w *Worker) probeWithFailover(ctx context.Context, m *monitor.Monitor, primary string) (probeclient.Result, string, error) {
	res, err := w.probes.Probe(ctx, primary, m)
	if err == nil {
		return res, primary, nil
	}

	alt, aerr := w.pool.Other(primary)
	if aerr != nil {
		return probeclient.Result{}, "", errBothAgentsFailed
	}
	res, err = w.probes.Probe(ctx, alt, m)
	if err != nil {
		return probeclient.Result{}, "", errBothAgentsFailed
	}
	return res, alt, nil
}

func resultToEvent(m *monitor.Monitor, r probeclient.Result, confirmedBy string, now time.Time) *event.Event {
	var uid int64
	if m.UserID != nil {
		uid = *m.UserID
	}
	return &event.Event{
		MonitorID:        m.ID,
		UserID:           uid,
		Kind:             m.Kind,
		Timestamp:        now,
		Availability:     r.Availability,
		Ping:             r.Ping,
		Port:             r.Port,
		ResponseTimeMS:   r.ResponseTimeMS,
		ConfirmedByAgent: confirmedBy,
		Reason:           r.Reason,
	}
}
