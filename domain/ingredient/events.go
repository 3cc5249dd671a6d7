package ingredient

import (
	"time"

	"pantry/domain/shared"
)

const (
	EventCreated  = "ingredient.created"
	EventUpdated  = "ingredient.updated"
	EventConsumed = "ingredient.consumed"
	EventDeleted  = "ingredient.deleted"
)

// ============================================================================
// ingredient.created
// ============================================================================

type CreatedPayload struct {
	IngredientID  string     `json:"ingredientId"`
	UserID        string     `json:"userId"`
	Name          string     `json:"name"`
	CategoryID    string     `json:"categoryId"`
	Quantity      float64    `json:"quantity"`
	UnitID        string     `json:"unitId"`
	StorageType   string     `json:"storageType"`
	StorageDetail string     `json:"storageDetail,omitempty"`
	Threshold     *float64   `json:"threshold,omitempty"`
	Price         *string    `json:"price,omitempty"`
	BestBefore    *time.Time `json:"bestBefore,omitempty"`
	UseBy         *time.Time `json:"useBy,omitempty"`
	Memo          *string    `json:"memo,omitempty"`
	PurchaseDate  time.Time  `json:"purchaseDate"`
}

type CreatedEvent struct {
	shared.BaseEvent
	payload CreatedPayload
}

func newCreatedEvent(i *Ingredient) (*CreatedEvent, error) {
	base, err := shared.NewBaseEvent(EventCreated, i.id.Value(), shared.WithOccurredAt(i.clock.Now()))
	if err != nil {
		return nil, err
	}
	p := CreatedPayload{
		IngredientID:  i.id.Value(),
		UserID:        i.userID.Value(),
		Name:          i.name.Value(),
		CategoryID:    i.categoryID.Value(),
		Quantity:      i.stock.Quantity().Value(),
		UnitID:        i.stock.UnitID().Value(),
		StorageType:   string(i.stock.Location().Type()),
		StorageDetail: i.stock.Location().Detail(),
		PurchaseDate:  i.purchaseDate,
	}
	if th := i.stock.Threshold(); th != nil {
		v := th.Value()
		p.Threshold = &v
	}
	if i.price != nil {
		v := i.price.String()
		p.Price = &v
	}
	if i.expiryInfo != nil {
		p.BestBefore = i.expiryInfo.BestBefore()
		p.UseBy = i.expiryInfo.UseBy()
	}
	if i.memo != nil {
		v := i.memo.Value()
		p.Memo = &v
	}
	return &CreatedEvent{BaseEvent: base, payload: p}, nil
}

func (e *CreatedEvent) Payload() any                   { return e.payload }
func (e *CreatedEvent) CreatedPayload() CreatedPayload { return e.payload }

// ============================================================================
// ingredient.updated
// ============================================================================

// FieldChange is the before/after pair of one changed field. Absent values are nil.
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

type UpdatedPayload struct {
	IngredientID string                 `json:"ingredientId"`
	UserID       string                 `json:"userId"`
	Changes      map[string]FieldChange `json:"changes"`
}

type UpdatedEvent struct {
	shared.BaseEvent
	payload UpdatedPayload
}

func newUpdatedEvent(i *Ingredient, changes map[string]FieldChange) (*UpdatedEvent, error) {
	if len(changes) == 0 {
		return nil, shared.NewRequiredFieldError("changes", "変更内容")
	}
	base, err := shared.NewBaseEvent(EventUpdated, i.id.Value(), shared.WithOccurredAt(i.clock.Now()))
	if err != nil {
		return nil, err
	}
	copied := make(map[string]FieldChange, len(changes))
	for k, v := range changes {
		copied[k] = v
	}
	return &UpdatedEvent{
		BaseEvent: base,
		payload:   UpdatedPayload{IngredientID: i.id.Value(), UserID: i.userID.Value(), Changes: copied},
	}, nil
}

func (e *UpdatedEvent) Payload() any { return e.payload }

// Changes returns a copy of the changed fields.
func (e *UpdatedEvent) Changes() map[string]FieldChange {
	out := make(map[string]FieldChange, len(e.payload.Changes))
	for k, v := range e.payload.Changes {
		out[k] = v
	}
	return out
}

// ============================================================================
// ingredient.consumed
// ============================================================================

type ConsumedPayload struct {
	IngredientID   string  `json:"ingredientId"`
	UserID         string  `json:"userId"`
	Amount         float64 `json:"amount"`
	QuantityBefore float64 `json:"quantityBefore"`
	QuantityAfter  float64 `json:"quantityAfter"`
}

type ConsumedEvent struct {
	shared.BaseEvent
	payload ConsumedPayload
}

func newConsumedEvent(i *Ingredient, amount, before, after Quantity) (*ConsumedEvent, error) {
	if amount.IsZero() {
		return nil, shared.NewInvalidFieldError("amount", "消費量は0より大きい必要があります")
	}
	base, err := shared.NewBaseEvent(EventConsumed, i.id.Value(), shared.WithOccurredAt(i.clock.Now()))
	if err != nil {
		return nil, err
	}
	return &ConsumedEvent{BaseEvent: base, payload: ConsumedPayload{
		IngredientID:   i.id.Value(),
		UserID:         i.userID.Value(),
		Amount:         amount.Value(),
		QuantityBefore: before.Value(),
		QuantityAfter:  after.Value(),
	}}, nil
}

func (e *ConsumedEvent) Payload() any                     { return e.payload }
func (e *ConsumedEvent) ConsumedPayload() ConsumedPayload { return e.payload }

// ============================================================================
// ingredient.deleted
// ============================================================================

type DeletedPayload struct {
	IngredientID string    `json:"ingredientId"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	DeletedAt    time.Time `json:"deletedAt"`
}

type DeletedEvent struct {
	shared.BaseEvent
	payload DeletedPayload
}

func newDeletedEvent(i *Ingredient, at time.Time) (*DeletedEvent, error) {
	base, err := shared.NewBaseEvent(EventDeleted, i.id.Value(), shared.WithOccurredAt(at))
	if err != nil {
		return nil, err
	}
	return &DeletedEvent{BaseEvent: base, payload: DeletedPayload{
		IngredientID: i.id.Value(),
		UserID:       i.userID.Value(),
		Name:         i.name.Value(),
		DeletedAt:    at,
	}}, nil
}

func (e *DeletedEvent) Payload() any { return e.payload }

// MarshalJSON renders the event as its wire envelope.
func (e *CreatedEvent) MarshalJSON() ([]byte, error)  { return shared.MarshalEvent(e) }
func (e *UpdatedEvent) MarshalJSON() ([]byte, error)  { return shared.MarshalEvent(e) }
func (e *ConsumedEvent) MarshalJSON() ([]byte, error) { return shared.MarshalEvent(e) }
func (e *DeletedEvent) MarshalJSON() ([]byte, error)  { return shared.MarshalEvent(e) }
