package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	defaultRetryBackoff = time.Second
	maxRetryBackoff     = 30 * time.Second
)

type Consumer struct {
	reader messageReader
	logger *logger.Logger
	// retryBackoff is the first wait after a failed handler call. It doubles
	// up to maxRetryBackoff.
	retryBackoff time.Duration
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log, retryBackoff: defaultRetryBackoff}
}

// EventDeletedHandler reacts to one event.deleted message. A returned error
// makes the consumer retry the same message before fetching the next one.
type EventDeletedHandler func(ctx context.Context, evt models.EventDeletedEvent) error

// Start consumes until ctx is cancelled. Undecodable messages are committed and
// skipped. A message whose handler fails is retried with backoff and never
// committed until it succeeds, since committing a later offset would commit it too.
func (c *Consumer) Start(ctx context.Context, handle EventDeletedHandler) error {
	c.logger.Info("KAFKA", "Kafka consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			return err
		}

		var evt models.EventDeletedEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil || evt.EventID == "" {
			c.logger.Warn("KAFKA", fmt.Sprintf("Skipping malformed message at offset %d: %v", msg.Offset, err))
			c.commit(ctx, msg)
			continue
		}

		c.logger.LogKafka("RECEIVE", msg.Topic, evt.EventID)
		if !c.handleWithRetry(ctx, msg, evt, handle) {
			return nil
		}
		c.commit(ctx, msg)
	}
}

// handleWithRetry runs handle until it succeeds. It returns false when ctx is
// cancelled first, leaving the message uncommitted.
func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message, evt models.EventDeletedEvent, handle EventDeletedHandler) bool {
	backoff := c.retryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	for attempt := 1; ; attempt++ {
		err := handle(ctx, evt)
		if err == nil {
			return true
		}
		c.logger.Error("KAFKA", fmt.Sprintf("Handler failed for event %s at offset %d (attempt %d), retrying in %s: %v",
			evt.EventID, msg.Offset, attempt, backoff, err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
		if backoff *= 2; backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("KAFKA", fmt.Sprintf("Failed to commit offset %d: %v", msg.Offset, err))
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
