package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"

	"unimate/internal/app/pushnotify"
	"unimate/internal/infra/broker/kafka"
	"unimate/internal/infra/config"
	"unimate/internal/infra/obs"
	"unimate/internal/infra/platform"
	"unimate/internal/infra/webpush"
)

// push-notify consumes message events and delivers web push notifications to
// the recipient's registered browsers.
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
	logger = obs.Component(obs.NewLogger(cfg.Env), "push-notify")

	if len(cfg.KafkaBrokers) == 0 {
		logger.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}
	sender, err := webpush.NewSender(cfg.VapidPublicKey, cfg.VapidPrivateKey, cfg.VapidSubject)
	if err != nil {
		logger.Error("web push sender invalid", "error", err)
		os.Exit(1)
	}

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
	bridge := pushnotify.NewBridge(&pushnotify.Fanout{
		Subscriptions: stores.Push,
		Sender:        sender,
		Logger:        logger,
	}, logger)
	box, err := stores.Inbox(ctx, cfg.KafkaGroupID, 0)
	if err != nil {
		logger.Error("consumer inbox init failed", "error", err)
		os.Exit(1)
	}
	if box != nil {
		bridge.Inbox = box
	} else {
		logger.Warn("MONGO_URI not set, push subscriptions are read from an empty in-memory store")
	}

	kcfg := sarama.NewConfig()
	kcfg.ClientID = "unimate-push-notify"
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, kcfg, kafka.EventHandlerFunc(bridge.HandleEvent), logger)
	if err != nil {
		logger.Error("kafka consumer init failed", "error", err)
		os.Exit(1)
	}
	go func() {
		<-ctx.Done()
		if err := consumer.Close(); err != nil {
			logger.Error("kafka consumer close failed", "error", err)
		}
	}()

	topic := kafka.TopicFor(cfg.KafkaTopicPrefix, pushnotify.MessageInserted)
	logger.Info("push notifier consuming", "topic", topic, "group", cfg.KafkaGroupID)
	if err := consumer.Run(ctx, []string{topic}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("kafka consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("push notifier stopped")
}
