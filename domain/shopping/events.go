package shopping

import (
	"time"

	"pantry/domain/shared"
)

const (
	EventStarted     = "shopping_session.started"
	EventItemChecked = "shopping_session.item_checked"
	EventCompleted   = "shopping_session.completed"
	EventAbandoned   = "shopping_session.abandoned"
)

type LocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

type StartedPayload struct {
	SessionID  string           `json:"sessionId"`
	UserID     string           `json:"userId"`
	DeviceType *string          `json:"deviceType,omitempty"`
	Location   *LocationPayload `json:"location,omitempty"`
	StartedAt  time.Time        `json:"startedAt"`
}

type StartedEvent struct {
	shared.BaseEvent
	payload StartedPayload
}

func newStartedEvent(s *Session) (*StartedEvent, error) {
	base, err := shared.NewBaseEvent(EventStarted, s.id.Value(), shared.WithOccurredAt(s.startedAt))
	if err != nil {
		return nil, err
	}
	p := StartedPayload{SessionID: s.id.Value(), UserID: s.userID.Value(), StartedAt: s.startedAt}
	if s.deviceType != nil {
		d := string(*s.deviceType)
		p.DeviceType = &d
	}
	if s.location != nil {
		p.Location = &LocationPayload{
			Latitude:  s.location.Latitude(),
			Longitude: s.location.Longitude(),
			Name:      s.location.Name(),
		}
	}
	return &StartedEvent{BaseEvent: base, payload: p}, nil
}

func (e *StartedEvent) Payload() any { return e.payload }

type ItemCheckedPayload struct {
	SessionID      string    `json:"sessionId"`
	UserID         string    `json:"userId"`
	IngredientID   string    `json:"ingredientId"`
	IngredientName string    `json:"ingredientName"`
	StockStatus    string    `json:"stockStatus"`
	ExpiryStatus   *string   `json:"expiryStatus,omitempty"`
	CheckedAt      time.Time `json:"checkedAt"`
}

type ItemCheckedEvent struct {
	shared.BaseEvent
	payload ItemCheckedPayload
}

func newItemCheckedEvent(s *Session, item CheckedItem) (*ItemCheckedEvent, error) {
	base, err := shared.NewBaseEvent(EventItemChecked, s.id.Value(), shared.WithOccurredAt(item.checkedAt))
	if err != nil {
		return nil, err
	}
	p := ItemCheckedPayload{
		SessionID:      s.id.Value(),
		UserID:         s.userID.Value(),
		IngredientID:   item.ingredientID.Value(),
		IngredientName: item.ingredientName,
		StockStatus:    string(item.stockStatus),
		CheckedAt:      item.checkedAt,
	}
	if item.expiryStatus != nil {
		v := string(*item.expiryStatus)
		p.ExpiryStatus = &v
	}
	return &ItemCheckedEvent{BaseEvent: base, payload: p}, nil
}

func (e *ItemCheckedEvent) Payload() any { return e.payload }

type CompletedPayload struct {
	SessionID         string    `json:"sessionId"`
	UserID            string    `json:"userId"`
	DurationMs        int64     `json:"durationMs"`
	CheckedItemsCount int       `json:"checkedItemsCount"`
	CompletedAt       time.Time `json:"completedAt"`
}

type CompletedEvent struct {
	shared.BaseEvent
	payload CompletedPayload
}

func newCompletedEvent(s *Session, at time.Time) (*CompletedEvent, error) {
	durationMs := at.Sub(s.startedAt).Milliseconds()
	if durationMs < 0 {
		return nil, shared.NewInvalidFieldError("durationMs", "セッション時間は0以上である必要があります")
	}
	base, err := shared.NewBaseEvent(EventCompleted, s.id.Value(), shared.WithOccurredAt(at))
	if err != nil {
		return nil, err
	}
	return &CompletedEvent{BaseEvent: base, payload: CompletedPayload{
		SessionID:         s.id.Value(),
		UserID:            s.userID.Value(),
		DurationMs:        durationMs,
		CheckedItemsCount: len(s.checkedItems),
		CompletedAt:       at,
	}}, nil
}

func (e *CompletedEvent) Payload() any           { return e.payload }
func (e *CompletedEvent) DurationMs() int64      { return e.payload.DurationMs }
func (e *CompletedEvent) CheckedItemsCount() int { return e.payload.CheckedItemsCount }

type AbandonedPayload struct {
	SessionID   string    `json:"sessionId"`
	UserID      string    `json:"userId"`
	DurationMs  int64     `json:"durationMs"`
	Reason      string    `json:"reason,omitempty"`
	AbandonedAt time.Time `json:"abandonedAt"`
}

type AbandonedEvent struct {
	shared.BaseEvent
	payload AbandonedPayload
}

func newAbandonedEvent(s *Session, at time.Time, reason string) (*AbandonedEvent, error) {
	durationMs := at.Sub(s.startedAt).Milliseconds()
	if durationMs < 0 {
		return nil, shared.NewInvalidFieldError("durationMs", "セッション時間は0以上である必要があります")
	}
	base, err := shared.NewBaseEvent(EventAbandoned, s.id.Value(), shared.WithOccurredAt(at))
	if err != nil {
		return nil, err
	}
	return &AbandonedEvent{BaseEvent: base, payload: AbandonedPayload{
		SessionID:   s.id.Value(),
		UserID:      s.userID.Value(),
		DurationMs:  durationMs,
		Reason:      reason,
		AbandonedAt: at,
	}}, nil
}

func (e *AbandonedEvent) Payload() any      { return e.payload }
func (e *AbandonedEvent) DurationMs() int64 { return e.payload.DurationMs }
func (e *AbandonedEvent) Reason() string    { return e.payload.Reason }

// MarshalJSON renders the event as its wire envelope.
func (e *StartedEvent) MarshalJSON() ([]byte, error)     { return shared.MarshalEvent(e) }
func (e *ItemCheckedEvent) MarshalJSON() ([]byte, error) { return shared.MarshalEvent(e) }
func (e *CompletedEvent) MarshalJSON() ([]byte, error)   { return shared.MarshalEvent(e) }
func (e *AbandonedEvent) MarshalJSON() ([]byte, error)   { return shared.MarshalEvent(e) }
