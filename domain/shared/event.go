package shared

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// DomainEvent is an immutable fact raised by an aggregate.
type DomainEvent interface {
	EventID() EventID
	EventName() string
	OccurredOn() time.Time
	GetAggregateID() string
	EventVersion() int
	// Metadata returns a copy; mutating it does not affect the event
	Metadata() map[string]any
	// Payload is the event specific body, serialized as "payload"
	Payload() any
}

// ============================================================================
// BaseEvent
// ============================================================================

// BaseEvent holds the envelope fields shared by every event. Concrete events
// embed it and add Payload().
type BaseEvent struct {
	id          EventID
	name        string
	aggregateID string
	version     int
	occurredAt  time.Time
	metadata    map[string]any
}

// EventOption customizes NewBaseEvent.
type EventOption func(*BaseEvent)

// WithEventID sets an explicit event id (used when rebuilding events).
func WithEventID(id EventID) EventOption {
	return func(e *BaseEvent) { e.id = id }
}

// WithOccurredAt sets the time the event happened.
func WithOccurredAt(t time.Time) EventOption {
	return func(e *BaseEvent) { e.occurredAt = t }
}

// WithEventVersion sets the schema version; defaults to 1.
func WithEventVersion(v int) EventOption {
	return func(e *BaseEvent) { e.version = v }
}

// WithMetadata attaches metadata. The map is deep-copied.
func WithMetadata(md map[string]any) EventOption {
	return func(e *BaseEvent) { e.metadata = copyMetadata(md) }
}

// NewBaseEvent builds the envelope. name and aggregateID are required.
func NewBaseEvent(name, aggregateID string, opts ...EventOption) (BaseEvent, error) {
	if name == "" {
		return BaseEvent{}, NewRequiredFieldError("eventName", "イベント名")
	}
	if aggregateID == "" {
		return BaseEvent{}, NewRequiredFieldError("aggregateId", "集約ID")
	}

	e := BaseEvent{
		name:        name,
		aggregateID: aggregateID,
		version:     1,
	}
	for _, opt := range opts {
		opt(&e)
	}
	if e.id.Value() == "" {
		e.id = GenerateEventID()
	}
	if e.occurredAt.IsZero() {
		e.occurredAt = time.Now()
	}
	if e.version < 1 {
		return BaseEvent{}, NewInvalidFieldError("version", "イベントバージョンは1以上である必要があります")
	}
	if e.metadata == nil {
		e.metadata = map[string]any{}
	}
	return e, nil
}

func (e BaseEvent) EventID() EventID         { return e.id }
func (e BaseEvent) EventName() string        { return e.name }
func (e BaseEvent) OccurredOn() time.Time    { return e.occurredAt }
func (e BaseEvent) GetAggregateID() string   { return e.aggregateID }
func (e BaseEvent) EventVersion() int        { return e.version }
func (e BaseEvent) Metadata() map[string]any { return copyMetadata(e.metadata) }

// copyMetadata copies nested maps and slices so callers cannot reach the
// event's internal state.
func copyMetadata(md map[string]any) map[string]any {
	if md == nil {
		return nil
	}
	out := make(map[string]any, len(md))
	for k, v := range md {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMetadata(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	default:
		return v
	}
}

// ============================================================================
// Serialization
// ============================================================================

// EventEnvelope is the wire shape of an event.
type EventEnvelope struct {
	ID          string          `json:"id"`
	EventName   string          `json:"eventName"`
	AggregateID string          `json:"aggregateId"`
	Version     int             `json:"version"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Metadata    map[string]any  `json:"metadata"`
	Payload     json.RawMessage `json:"payload"`
}

// MarshalEvent renders e as its envelope.
func MarshalEvent(e DomainEvent) ([]byte, error) {
	if err := ValidateEvent(e); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(e.Payload())
	if err != nil {
		return nil, fmt.Errorf("marshal payload of %s: %w", e.EventName(), err)
	}
	md := e.Metadata()
	if md == nil {
		md = map[string]any{}
	}
	return json.Marshal(EventEnvelope{
		ID:          e.EventID().Value(),
		EventName:   e.EventName(),
		AggregateID: e.GetAggregateID(),
		Version:     e.EventVersion(),
		OccurredAt:  e.OccurredOn().UTC(),
		Metadata:    md,
		Payload:     payload,
	})
}

// UnmarshalEnvelope parses the wire shape back. The payload stays raw.
func UnmarshalEnvelope(data []byte) (EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return EventEnvelope{}, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	return env, nil
}

func ValidateEvent(event DomainEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.EventName() == "" {
		return fmt.Errorf("event name cannot be empty")
	}
	if event.GetAggregateID() == "" {
		return fmt.Errorf("aggregate ID cannot be empty")
	}
	if event.OccurredOn().IsZero() {
		return fmt.Errorf("occurred on time cannot be zero")
	}
	return nil
}

// ============================================================================
// In-process dispatch
// ============================================================================

// EventHandler reacts to a published event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	Name() string
}

// EventPublisher hands committed events to their subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

type EventPublishResult struct {
	EventName   string    `json:"event_name"`
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

const maxPublishHistory = 1000

// EventBus dispatches events synchronously to the handlers subscribed to
// their name. It keeps the last 1000 publish results.
type EventBus struct {
	handlers  map[string][]EventHandler
	mu        sync.RWMutex
	history   []EventPublishResult
	muHistory sync.Mutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
	}
}

func (bus *EventBus) Publish(ctx context.Context, event DomainEvent) error {
	if err := ValidateEvent(event); err != nil {
		return err
	}

	bus.mu.RLock()
	handlers := append([]EventHandler(nil), bus.handlers[event.EventName()]...)
	bus.mu.RUnlock()

	result := EventPublishResult{
		EventName:   event.EventName(),
		Success:     true,
		PublishedAt: time.Now(),
	}
	if len(handlers) == 0 {
		result.Message = "no handlers registered for this event"
		bus.record(result)
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("handler %s: %w", handler.Name(), err))
		}
	}
	if len(errs) > 0 {
		result.Success = false
		result.Message = fmt.Sprintf("%d handlers failed", len(errs))
		bus.record(result)
		return fmt.Errorf("event %s: %d handlers failed: %v", event.EventName(), len(errs), errs)
	}

	bus.record(result)
	return nil
}

func (bus *EventBus) record(result EventPublishResult) {
	bus.muHistory.Lock()
	defer bus.muHistory.Unlock()
	bus.history = append(bus.history, result)
	if len(bus.history) > maxPublishHistory {
		bus.history = bus.history[len(bus.history)-maxPublishHistory:]
	}
}

func (bus *EventBus) Subscribe(eventName string, handler EventHandler) error {
	if eventName == "" {
		return fmt.Errorf("event name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	for _, h := range bus.handlers[eventName] {
		if h.Name() == handler.Name() {
			return fmt.Errorf("handler %s already subscribed to %s", handler.Name(), eventName)
		}
	}
	bus.handlers[eventName] = append(bus.handlers[eventName], handler)
	return nil
}

func (bus *EventBus) Unsubscribe(eventName string, handler EventHandler) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	handlers := bus.handlers[eventName]
	for i, h := range handlers {
		if h.Name() == handler.Name() {
			bus.handlers[eventName] = append(handlers[:i:i], handlers[i+1:]...)
			return
		}
	}
}

func (bus *EventBus) GetPublishHistory() []EventPublishResult {
	bus.muHistory.Lock()
	defer bus.muHistory.Unlock()

	history := make([]EventPublishResult, len(bus.history))
	copy(history, bus.history)
	return history
}

var _ EventPublisher = (*EventBus)(nil)

// FuncHandler adapts a function to EventHandler.
type FuncHandler struct {
	name string
	fn   func(context.Context, DomainEvent) error
}

func NewFuncHandler(name string, fn func(context.Context, DomainEvent) error) *FuncHandler {
	if name == "" {
		name = fmt.Sprintf("func-handler-%d", time.Now().UnixNano())
	}
	return &FuncHandler{name: name, fn: fn}
}

func (h *FuncHandler) Handle(ctx context.Context, event DomainEvent) error {
	return h.fn(ctx, event)
}

func (h *FuncHandler) Name() string {
	return h.name
}
