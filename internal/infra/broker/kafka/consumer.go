package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

const (
	DefaultHandleAttempts = 3
	DefaultHandleBackoff  = 500 * time.Millisecond
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer runs a consumer group. A message whose handler keeps failing is
// logged and skipped after Attempts tries so one bad record cannot stall its
// partition.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger

	Attempts int
	Backoff  time.Duration
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if handler == nil {
		return nil, errors.New("kafka: consumer handler required")
	}
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: join group %s: %w", groupID, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: g, handler: handler, logger: logger, Attempts: DefaultHandleAttempts, Backoff: DefaultHandleBackoff}, nil
}

// Run consumes until ctx is cancelled, rejoining the group after rebalances.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	go func() {
		for err := range c.group.Errors() {
			c.logger.Error("kafka consumer error", "err", err)
		}
	}()
	h := consumerGroupHandler{handler: c.handler, logger: c.logger, attempts: c.Attempts, backoff: c.Backoff}
	for {
		if err := c.group.Consume(ctx, topics, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type consumerGroupHandler struct {
	handler  MessageHandler
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

func (h consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h consumerGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := handleWithRetry(sess.Context(), h.handler, message, h.attempts, h.backoff); err != nil {
			if sess.Context().Err() != nil {
				// Unmarked, so the next group member picks it up.
				return nil
			}
			h.logger.Warn("kafka message skipped", "topic", message.Topic, "partition", message.Partition, "offset", message.Offset, "err", err)
		}
		sess.MarkMessage(message, "")
	}
	return nil
}

// handleWithRetry doubles the backoff after each failed attempt.
func handleWithRetry(ctx context.Context, handler MessageHandler, msg *sarama.ConsumerMessage, attempts int, backoff time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = handler.Handle(ctx, msg); err == nil {
			return nil
		}
		if i == attempts-1 || backoff <= 0 {
			continue
		}
		timer := time.NewTimer(backoff << i)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
