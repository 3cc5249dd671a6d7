// Package kafka relays outbox messages to a Kafka topic.
package kafka

import (
	"context"
	"fmt"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"pantry/infrastructure/messaging"
)

// Header names carried by every message.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// Publisher writes to one topic. Messages are hashed by key, so every event
// of an aggregate lands on the same partition.
type Publisher struct {
	writer messageWriter
	topic  string
}

type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	w := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkaGo.Hash{},
		RequiredAcks:           kafkaGo.RequireAll,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, cfg.Topic), nil
}

func newPublisher(w messageWriter, topic string) *Publisher {
	return &Publisher{writer: w, topic: topic}
}

func (p *Publisher) Publish(ctx context.Context, msg messaging.Message) error {
	err := p.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  msg.OccurredAt,
		Headers: []kafkaGo.Header{
			{Key: HeaderEventID, Value: []byte(msg.ID)},
			{Key: HeaderEventType, Value: []byte(msg.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", msg.Type, p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ messaging.Publisher = (*Publisher)(nil)
