package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/pulsecheck/controlplane/internal/config/scheduler"
	"github.com/pulsecheck/controlplane/internal/obs"
	"github.com/pulsecheck/controlplane/internal/obs/retry"
	"github.com/pulsecheck/controlplane/internal/outbox"
	"github.com/pulsecheck/controlplane/internal/repository/kafka"
	pg "github.com/pulsecheck/controlplane/internal/repository/postgres"
	"github.com/pulsecheck/controlplane/internal/services/agentpool"
	"github.com/pulsecheck/controlplane/internal/services/monitorworker"
	"github.com/pulsecheck/controlplane/internal/services/probeclient"
	"github.com/pulsecheck/controlplane/internal/services/scheduler"

	domainagent "github.com/pulsecheck/controlplane/internal/domain/agent"

	"go.uber.org/zap"
)

func wire(cfg *config.Config, db *pg.DB, prod *kafka.Producer, l *zap.Logger) (*agentpool.Pool, *outbox.Runner, *scheduler.Scheduler) {
	agents := pg.NewAgentRepo(db)
	monitors := pg.NewMonitorRepo(db)
	events := pg.NewEventRepo(db)
	outboxRepo := pg.NewOutboxRepo(db)
	transactor := pg.NewTransactor(db, l)

	pool := agentpool.New(l, agents, domainagent.TypeMonitor)

	probes := probeclient.New(probeclient.Config{
		Timeout:   5 * time.Second,
		Token:     cfg.Agents.Token,
		VerifyTLS: cfg.Agents.VerifyTLS,
	})

	alertEvents := kafka.NewAlertEvents(prod)
	throttleRepo := pg.AlertThrottleRepo{
		Alerts:     pg.NewAlertRepo(db),
		Monitors:   monitors,
		Outbox:     outboxRepo,
		Transactor: transactor,
	}

	worker := monitorworker.New(l, events, monitors, pool, probes, throttleRepo)
	sched := scheduler.New(l, monitors, worker)

	dispatch := outbox.MakeGlobalOutboxHandler(alertEvents, retry.DefaultKafkaPolicy(l))
	outboxRunner := outbox.NewOutboxRunner(
		l,
		outboxRepo,
		dispatch,
		cfg.Outbox.Workers,
		cfg.Outbox.BatchSize,
		cfg.Outbox.WaitTime,
		cfg.Outbox.InProgressTTL,
	)

	return pool, outboxRunner, sched
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load("../config/scheduler.yaml")
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	l.Info("starting scheduler",
		zap.Any("kafka_out", cfg.Kafka),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
	)

	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	prod := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(l)
	defer func() { _ = prod.Close() }()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	pool, outboxRunner, sched := wire(cfg, db, prod, l)

	if err := pool.Refresh(ctx); err != nil {
		l.Warn("initial agent pool refresh", zap.Error(err))
	}
	go func() { _ = pool.Run(ctx, cfg.Agents.RefreshInterval) }()

	if err := sched.CancelStale(ctx); err != nil {
		l.Warn("cancel stale", zap.Error(err))
	}

	outboxRunner.Start(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- sched.Run(ctx) }()

	l.Info("scheduler started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("scheduler error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
