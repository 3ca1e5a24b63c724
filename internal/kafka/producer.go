package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eventx-ticketing/internal/config"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes booking lifecycle messages. The topic is chosen per message.
type Producer struct {
	Writer messageWriter
	Topics config.TopicConfig
	Logger *logger.Logger
}

func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Topics: topics, Logger: log}
}

// Publish writes one JSON message keyed by key, so messages about the same
// event land on the same partition.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", topic, err)
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: msgBytes,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	if p.Logger != nil {
		p.Logger.LogKafka("PUBLISH", topic, key)
	}
	return nil
}

// PublishTicketBooked streams a committed booking.
func (p *Producer) PublishTicketBooked(ctx context.Context, evt models.TicketBookedEvent) error {
	return p.Publish(ctx, p.Topics.TicketBooked, evt.EventID, evt)
}

// PublishEventDeleted asks the cleanup worker to reconcile an event's tickets.
func (p *Producer) PublishEventDeleted(ctx context.Context, evt models.EventDeletedEvent) error {
	return p.Publish(ctx, p.Topics.EventDeleted, evt.EventID, evt)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NopPublisher stands in for the producer when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishTicketBooked(context.Context, models.TicketBookedEvent) error { return nil }
func (NopPublisher) PublishEventDeleted(context.Context, models.EventDeletedEvent) error { return nil }
