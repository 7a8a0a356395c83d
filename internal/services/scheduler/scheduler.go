package scheduler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pulsecheck/controlplane/internal/domain/monitor"
)

// Buckets are the allowed frequency values, each ticked by its own
// independent goroutine. A monitor belongs to exactly one bucket, so
// at most one ticker ever selects it.
var Buckets = monitor.Frequencies

// jitter returns W(B) = B - jitter(B), kept loose but always < B so a
// monitor can never be double-serviced within one period.
func jitter(bucketMin int) time.Duration {
	b := time.Duration(bucketMin) * time.Minute
	switch bucketMin {
	case 1:
		return b - 15*time.Second
	case 5:
		return b - 60*time.Second
	case 10:
		return b - 90*time.Second
	case 30:
		return b - 3*time.Minute
	case 60:
		return b - 5*time.Minute
	default:
		return b - b/10
	}
}

const pageSize = 100
const pageConcurrency = 100

// Worker runs the C5 algorithm for a single due monitor.
type Worker interface {
	Run(ctx context.Context, m *monitor.Monitor) error
}

type Scheduler struct {
	log    *zap.Logger
	mons   monitor.Repo
	worker Worker

	mTicks    *prometheus.CounterVec
	mFetched  *prometheus.CounterVec
	mErrors   *prometheus.CounterVec
	mTickDur  *prometheus.HistogramVec
}

func New(log *zap.Logger, mons monitor.Repo, worker Worker) *Scheduler {
	return &Scheduler{
		log: log, mons: mons, worker: worker,
		mTicks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_ticks_total", Help: "Bucket ticks executed.",
		}, []string{"bucket"}),
		mFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_monitors_fetched_total", Help: "Due monitors fetched.",
		}, []string{"bucket"}),
		mErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_worker_errors_total", Help: "Monitor worker errors.",
		}, []string{"bucket"}),
		mTickDur: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name: "scheduler_tick_duration_seconds", Help: "Time to drain one bucket tick.",
			Buckets: prometheus.DefBuckets,
		}, []string{"bucket"}),
	}
}

// CancelStale exists for parity with the source system's startup
// contract: pre-existing scheduled jobs from a previous process are
// wiped before ticking begins. This implementation has no separate
// job queue to wipe — the updatedAt predicate in FetchDue already
// prevents a restarted process from re-selecting a monitor within its
// window — so CancelStale is a documented no-op.
func (s *Scheduler) CancelStale(ctx context.Context) error {
	return nil
}

// Run starts one ticker goroutine per bucket and blocks until ctx is
// cancelled or any bucket's ticker returns an unrecoverable error.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.CancelStale(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, b := range Buckets {
		bucket := b
		g.Go(func() error {
			return s.runBucket(ctx, bucket)
		})
	}
	return g.Wait()
}

func (s *Scheduler) runBucket(ctx context.Context, bucketMin int) error {
	label := bucketLabel(bucketMin)
	interval := time.Duration(bucketMin) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.tick(ctx, bucketMin, label)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx, bucketMin, label)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, bucketMin int, label string) {
	start := time.Now()
	defer func() { s.mTickDur.WithLabelValues(label).Observe(time.Since(start).Seconds()) }()
	s.mTicks.WithLabelValues(label).Inc()

	tr := otel.Tracer("scheduler")
	ctx, span := tr.Start(ctx, "scheduler.tick", trace.WithAttributes(attribute.Int("bucket.minutes", bucketMin)))
	defer span.End()

	window := jitter(bucketMin)

	for {
		due, err := s.mons.FetchDue(ctx, bucketMin, window, pageSize)
		if err != nil {
			span.RecordError(err)
			s.mErrors.WithLabelValues(label).Inc()
			s.log.Warn("fetch due failed", zap.String("bucket", label), zap.Error(err))
			return
		}
		if len(due) == 0 {
			return
		}
		s.mFetched.WithLabelValues(label).Add(float64(len(due)))

		if err := s.runPage(ctx, label, due); err != nil {
			s.log.Warn("page run error", zap.String("bucket", label), zap.Error(err))
		}

		if len(due) < pageSize {
			return
		}
	}
}

// runPage fans out all workers in the page with bounded concurrency and
// waits for the whole page before returning, so the next page (or the
// next tick) never overlaps this one for the same monitors.
func (s *Scheduler) runPage(ctx context.Context, label string, page []*monitor.Monitor) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(pageConcurrency)

	for _, m := range page {
		mon := m
		g.Go(func() error {
			runCtx, cancel := context.WithTimeout(ctx, 12*time.Second)
			defer cancel()
			if err := s.worker.Run(runCtx, mon); err != nil {
				s.mErrors.WithLabelValues(label).Inc()
				s.log.Warn("monitor worker error", zap.Int64("monitor_id", mon.ID), zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

func bucketLabel(bucketMin int) string {
	switch bucketMin {
	case 1:
		return "1m"
	case 5:
		return "5m"
	case 10:
		return "10m"
	case 30:
		return "30m"
	case 60:
		return "60m"
	default:
		return "unknown"
	}
}
