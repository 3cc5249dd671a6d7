package po

import (
	"time"

	"pantry/domain/shared"
)

type EventStatus string

const (
	EventStatusPending    EventStatus = "PENDING"
	EventStatusProcessing EventStatus = "PROCESSING"
	EventStatusPublished  EventStatus = "PUBLISHED"
	EventStatusFailed     EventStatus = "FAILED"
)

// OutboxEventPO is one relayable event. Payload is the JSON envelope
// produced by shared.MarshalEvent.
type OutboxEventPO struct {
	ID          string    `gorm:"primaryKey;size:64"`
	AggregateID string    `gorm:"size:64;index;not null"`
	EventType   string    `gorm:"size:100;index;not null"`
	Payload     string    `gorm:"type:text;not null"`
	Status      string    `gorm:"size:20;index;default:PENDING;not null"`
	RetryCount  int       `gorm:"default:0;not null"`
	LastError   *string   `gorm:"size:500"`
	OccurredAt  time.Time `gorm:"not null"`
	PublishedAt *time.Time
	CreatedAt   time.Time `gorm:"index;not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (OutboxEventPO) TableName() string { return "outbox_events" }

// FromDomainEvent keys the row by the event id, so saving an event twice
// fails instead of publishing it twice.
func FromDomainEvent(event shared.DomainEvent, now time.Time) (*OutboxEventPO, error) {
	payload, err := shared.MarshalEvent(event)
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	return &OutboxEventPO{
		ID:          event.EventID().Value(),
		AggregateID: event.GetAggregateID(),
		EventType:   event.EventName(),
		Payload:     string(payload),
		Status:      string(EventStatusPending),
		OccurredAt:  event.OccurredOn().UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Envelope parses the stored payload.
func (p *OutboxEventPO) Envelope() (shared.EventEnvelope, error) {
	return shared.UnmarshalEnvelope([]byte(p.Payload))
}
