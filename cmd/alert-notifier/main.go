package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/pulsecheck/controlplane/internal/config/alertnotifier"
	"github.com/pulsecheck/controlplane/internal/obs"
	"github.com/pulsecheck/controlplane/internal/repository/kafka"
	pg "github.com/pulsecheck/controlplane/internal/repository/postgres"
	"github.com/pulsecheck/controlplane/internal/services/alertnotifier"

	"go.uber.org/zap"
)

func wire(cfg *config.Config, db *pg.DB, cons *kafka.Consumer, l *zap.Logger) *alertnotifier.Runner {
	monitors := pg.NewMonitorRepo(db)
	users := pg.NewUserRepo(db)
	alerts := pg.NewAlertRepo(db)

	mailer := alertnotifier.NewMailer(alertnotifier.SMTPConfig{
		Addr:       cfg.SMTP.Addr,
		From:       cfg.SMTP.From,
		User:       cfg.SMTP.User,
		Password:   cfg.SMTP.Password,
		UseTLS:     cfg.SMTP.UseTLS,
		Timeout:    time.Duration(cfg.SMTP.TimeoutSec) * time.Second,
		SubjPrefix: cfg.SMTP.SubjPrefix,
	}, l)

	handler := &alertnotifier.Handler{
		Monitors: monitors,
		Users:    users,
		Alerts:   alerts,
		Out:      mailer,
		Clock:    time.Now,
	}

	return alertnotifier.NewRunner(l, cons, handler)
}

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load("../config/alert-notifier.yaml")
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(&obs.LogConfig{Level: cfg.LogLevel, App: "controlplane/alert-notifier"})
	if err != nil {
		log.Fatal(err)
	}
	l.Info("starting alert-notifier",
		zap.Any("kafka_in", cfg.In),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
		zap.String("smtp_addr", cfg.SMTP.Addr),
	)

	db, err := pg.New(rootCtx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	cons := kafka.BootstrapConsumer(rootCtx, cfg.In.AsConsumerConfig(), l).WithLogger(l)
	defer func() { _ = cons.Close() }()

	runner := wire(cfg, db, cons, l)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(rootCtx) }()

	l.Info("alert-notifier started")

	select {
	case <-rootCtx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
