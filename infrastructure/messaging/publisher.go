// Package messaging relays committed domain events to a broker.
package messaging

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pantry/pkg/logger"
)

// Message is one outbox row on its way out. Key is the aggregate id, so a
// partitioned broker keeps an aggregate's events in order.
type Message struct {
	ID         string
	Key        string
	Type       string
	Value      []byte
	OccurredAt time.Time
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// LoggingPublisher logs instead of sending; used when no broker is configured.
type LoggingPublisher struct{}

func (LoggingPublisher) Publish(ctx context.Context, msg Message) error {
	logger.Info("Outbox event published",
		zap.String("event_id", msg.ID),
		zap.String("event_type", msg.Type),
		zap.String("aggregate_id", msg.Key),
		zap.ByteString("payload", msg.Value),
	)
	return nil
}

func (LoggingPublisher) Close() error { return nil }

var _ Publisher = LoggingPublisher{}
