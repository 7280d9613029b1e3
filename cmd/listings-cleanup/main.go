package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"

	"unimate/internal/app/cleanup"
	"unimate/internal/app/outbox"
	"unimate/internal/app/pushnotify"
	"unimate/internal/domain/expiry"
	"unimate/internal/infra/broker/kafka"
	"unimate/internal/infra/config"
	"unimate/internal/infra/obs"
	infraoutbox "unimate/internal/infra/outbox"
	"unimate/internal/infra/platform"
	"unimate/internal/infra/webpush"
)

// listings-cleanup runs one expiry pass and prints the report as JSON.
// It exits non-zero when the pass fails.
func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := obs.NewLogger(os.Getenv("APP_ENV"))
	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger = obs.Component(obs.NewLogger(cfg.Env), "listings-cleanup")

	stores, err := platform.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("store bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = stores.Close(closeCtx)
	}()

	fanout := &pushnotify.Fanout{Subscriptions: stores.Push, Logger: logger}
	if cfg.VapidPublicKey != "" && cfg.VapidPrivateKey != "" {
		sender, err := webpush.NewSender(cfg.VapidPublicKey, cfg.VapidPrivateKey, cfg.VapidSubject)
		if err != nil {
			logger.Error("web push sender invalid", "error", err)
			os.Exit(1)
		}
		fanout.Sender = sender
	} else {
		logger.Warn("VAPID keys not set, expiry warnings cannot be delivered")
	}

	job := &cleanup.Job{
		UoWFactory: stores.Factory,
		Notifier:   fanout,
		Outbox:     stores.Outbox,
		Encoder:    outbox.JSONEventEncoder{},
		Policy:     expiry.Default(),
		BatchSize:  cfg.CleanupBatchSize,
		Logger:     logger,
	}
	report, runErr := job.Run(ctx, time.Now())

	if runErr == nil {
		publishPending(ctx, cfg, stores, logger)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("report encode failed", "error", err)
	}
	if runErr != nil {
		logger.Error("listings cleanup failed", "error", runErr)
		os.Exit(1)
	}
}

// publishPending drains the durable outbox once so deletion and expiry
// events reach the broker without waiting for the API worker.
func publishPending(ctx context.Context, cfg config.Config, stores *platform.Stores, logger *slog.Logger) {
	if stores.Queue == nil || len(cfg.KafkaBrokers) == 0 {
		return
	}
	kcfg := sarama.NewConfig()
	kcfg.ClientID = "unimate-listings-cleanup"
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, kcfg)
	if err != nil {
		logger.Warn("kafka producer unavailable, events left queued", "error", err)
		return
	}
	defer producer.Close()
	worker := &infraoutbox.Worker{
		Store:       stores.Queue,
		Producer:    producer,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		ID:          "listings-cleanup",
	}
	n, err := worker.Drain(ctx)
	if err != nil {
		logger.Warn("outbox drain stopped early", "published", n, "error", err)
		return
	}
	if counter, ok := stores.Queue.(interface {
		Backlog(context.Context) (int64, error)
	}); ok {
		if left, err := counter.Backlog(ctx); err == nil && left > 0 {
			logger.Info("outbox drained", "published", n, "still_queued", left)
			return
		}
	}
	logger.Info("outbox drained", "published", n)
}
