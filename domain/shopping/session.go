/*
Package shopping models an in-store shopping session.

State machine:

	ACTIVE --Complete()--> COMPLETED
	ACTIVE --Abandon()---> ABANDONED

Both terminal states are final. completedAt is set exactly when the session
leaves ACTIVE. Items can only be checked while ACTIVE.
*/
package shopping

import (
	"time"

	"pantry/domain/ingredient"
	"pantry/domain/shared"
)

// Session aggregate root
type Session struct {
	shared.AggregateBase

	id           SessionID
	userID       shared.UserID
	status       Status
	startedAt    time.Time
	completedAt  *time.Time
	deviceType   *DeviceType
	location     *Location
	checkedItems []CheckedItem
	version      int

	clock shared.Clock
}

// start builds a new ACTIVE session and records shopping_session.started.
// Only the Factory calls it.
func start(userID shared.UserID, deviceType *DeviceType, location *Location, clock shared.Clock) (*Session, error) {
	if userID.IsZero() {
		return nil, shared.NewRequiredFieldError("userId", "ユーザーID")
	}
	clock = shared.ClockOrSystem(clock)
	s := &Session{
		id:         GenerateSessionID(),
		userID:     userID,
		status:     StatusActive,
		startedAt:  clock.Now(),
		deviceType: deviceType,
		location:   location,
		clock:      clock,
	}
	e, err := newStartedEvent(s)
	if err != nil {
		return nil, err
	}
	s.RecordEvent(e)
	return s, nil
}

// ============================================================================
// ReconstructionDTO - repository use only
// ============================================================================

type ReconstructionDTO struct {
	ID           SessionID
	UserID       shared.UserID
	Status       Status
	StartedAt    time.Time
	CompletedAt  *time.Time
	DeviceType   *DeviceType
	Location     *Location
	CheckedItems []CheckedItem
	Version      int
}

func RebuildFromDTO(dto ReconstructionDTO) *Session {
	return &Session{
		id:           dto.ID,
		userID:       dto.UserID,
		status:       dto.Status,
		startedAt:    dto.StartedAt,
		completedAt:  dto.CompletedAt,
		deviceType:   dto.DeviceType,
		location:     dto.Location,
		checkedItems: append([]CheckedItem(nil), dto.CheckedItems...),
		version:      dto.Version,
		clock:        shared.SystemClock{},
	}
}

// Snapshot is the inverse of RebuildFromDTO.
func (s *Session) Snapshot() ReconstructionDTO {
	return ReconstructionDTO{
		ID:           s.id,
		UserID:       s.userID,
		Status:       s.status,
		StartedAt:    s.startedAt,
		CompletedAt:  s.CompletedAt(),
		DeviceType:   s.deviceType,
		Location:     s.location,
		CheckedItems: s.CheckedItems(),
		Version:      s.version,
	}
}

// WithClock replaces the clock; used by services and tests.
func (s *Session) WithClock(c shared.Clock) *Session {
	s.clock = shared.ClockOrSystem(c)
	return s
}

// ============================================================================
// Transitions
// ============================================================================

// Complete ends the session. Fails unless ACTIVE.
func (s *Session) Complete() error {
	if s.status != StatusActive {
		return shared.NewOperationNotAllowedError(entityName, msgCannotComplete)
	}
	now := s.clock.Now()
	e, err := newCompletedEvent(s, now)
	if err != nil {
		return err
	}
	s.status = StatusCompleted
	s.completedAt = &now
	s.RecordEvent(e)
	return nil
}

// Abandon ends the session without completing it. reason may be empty.
func (s *Session) Abandon(reason string) error {
	if s.status != StatusActive {
		return shared.NewOperationNotAllowedError(entityName, msgCannotAbandon)
	}
	now := s.clock.Now()
	e, err := newAbandonedEvent(s, now, reason)
	if err != nil {
		return err
	}
	s.status = StatusAbandoned
	s.completedAt = &now
	s.RecordEvent(e)
	return nil
}

// CheckItemParams is the snapshot taken of an ingredient when it is checked.
type CheckItemParams struct {
	IngredientID   ingredient.ID
	IngredientName string
	StockStatus    StockStatus
	ExpiryStatus   *ExpiryStatus
}

// CheckItem records that the user looked at an ingredient. Checking the same
// ingredient again replaces its snapshot in place.
func (s *Session) CheckItem(p CheckItemParams) error {
	if s.status != StatusActive {
		return shared.NewOperationNotAllowedError(entityName, msgCannotCheck)
	}
	if p.IngredientID.IsZero() {
		return shared.NewRequiredFieldError("ingredientId", "食材ID")
	}
	if p.StockStatus == "" {
		return shared.NewRequiredFieldError("stockStatus", "在庫状態")
	}

	item := CheckedItem{
		ingredientID:   p.IngredientID,
		ingredientName: p.IngredientName,
		stockStatus:    p.StockStatus,
		expiryStatus:   p.ExpiryStatus,
		checkedAt:      s.clock.Now(),
	}
	e, err := newItemCheckedEvent(s, item)
	if err != nil {
		return err
	}

	replaced := false
	for idx := range s.checkedItems {
		if s.checkedItems[idx].ingredientID.Equals(p.IngredientID) {
			s.checkedItems[idx] = item
			replaced = true
			break
		}
	}
	if !replaced {
		s.checkedItems = append(s.checkedItems, item)
	}
	s.RecordEvent(e)
	return nil
}

// CheckIngredient snapshots i as it is now and checks it.
func (s *Session) CheckIngredient(i *ingredient.Ingredient) error {
	return s.CheckItem(CheckItemParams{
		IngredientID:   i.ID(),
		IngredientName: i.Name().Value(),
		StockStatus:    StockStatusOf(i.Stock()),
		ExpiryStatus:   ExpiryStatusOf(i.ExpiryInfo(), s.clock.Now()),
	})
}

func (s *Session) IncrementVersionForSave() {
	s.version++
}

// ============================================================================
// Getters
// ============================================================================

func (s *Session) ID() SessionID           { return s.id }
func (s *Session) AggregateID() string     { return s.id.Value() }
func (s *Session) UserID() shared.UserID   { return s.userID }
func (s *Session) Status() Status          { return s.status }
func (s *Session) StartedAt() time.Time    { return s.startedAt }
func (s *Session) DeviceType() *DeviceType { return s.deviceType }
func (s *Session) Location() *Location     { return s.location }
func (s *Session) Version() int            { return s.version }
func (s *Session) IsActive() bool          { return s.status == StatusActive }
func (s *Session) CheckedItemsCount() int  { return len(s.checkedItems) }

func (s *Session) CompletedAt() *time.Time {
	if s.completedAt == nil {
		return nil
	}
	at := *s.completedAt
	return &at
}

// CheckedItems returns a copy in check order.
func (s *Session) CheckedItems() []CheckedItem {
	return append([]CheckedItem(nil), s.checkedItems...)
}

// Duration is the elapsed time until completion, or until now while ACTIVE.
func (s *Session) Duration() time.Duration {
	end := s.clock.Now()
	if s.completedAt != nil {
		end = *s.completedAt
	}
	return end.Sub(s.startedAt)
}

func (s *Session) IsOwnedBy(u shared.UserID) bool {
	return s.userID.Equals(u)
}

var _ shared.AggregateRoot = (*Session)(nil)
