/*
Package ingredient is the household inventory aggregate.

An Ingredient belongs to exactly one user. Every mutator takes the acting
user and refuses to run when the ingredient is deleted or owned by someone
else; each successful call records exactly one event.
*/
package ingredient

import (
	"time"

	"pantry/domain/category"
	"pantry/domain/shared"
)

// Lifecycle is either Active or Deleted.
type Lifecycle interface {
	isLifecycle()
}

// Active is the state of a live ingredient.
type Active struct{}

// Deleted is the state of a soft-deleted ingredient.
type Deleted struct {
	At time.Time
}

func (Active) isLifecycle()  {}
func (Deleted) isLifecycle() {}

// Ingredient aggregate root
type Ingredient struct {
	shared.AggregateBase

	id           ID
	userID       shared.UserID
	name         Name
	categoryID   category.ID
	stock        Stock
	price        *Price
	expiryInfo   *ExpiryInfo
	memo         *Memo
	purchaseDate time.Time
	state        Lifecycle
	version      int
	createdAt    time.Time
	updatedAt    time.Time

	clock   shared.Clock
	created bool
}

// ============================================================================
// Construction
// ============================================================================

// NewParams are the validated inputs of a new ingredient. Price, ExpiryInfo,
// Memo and the stock threshold are optional.
type NewParams struct {
	ID           ID
	UserID       shared.UserID
	Name         Name
	CategoryID   category.ID
	Stock        Stock
	Price        *Price
	ExpiryInfo   *ExpiryInfo
	Memo         *Memo
	PurchaseDate time.Time
	Clock        shared.Clock
}

// newIngredient is used by the Factory, which owns the duplicate check.
func newIngredient(p NewParams) (*Ingredient, error) {
	if p.UserID.IsZero() {
		return nil, shared.NewRequiredFieldError("userId", "ユーザーID")
	}
	if p.Name.IsZero() {
		return nil, shared.NewRequiredFieldError("name", "食材名")
	}
	if p.CategoryID.IsZero() {
		return nil, shared.NewRequiredFieldError("categoryId", "カテゴリー")
	}
	if p.Stock.UnitID().IsZero() {
		return nil, shared.NewRequiredFieldError("stock", "在庫")
	}

	clock := shared.ClockOrSystem(p.Clock)
	now := clock.Now()
	id := p.ID
	if id.IsZero() {
		id = GenerateID()
	}
	purchaseDate := p.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = now
	}

	return &Ingredient{
		id:           id,
		userID:       p.UserID,
		name:         p.Name,
		categoryID:   p.CategoryID,
		stock:        p.Stock,
		price:        p.Price,
		expiryInfo:   p.ExpiryInfo,
		memo:         p.Memo,
		purchaseDate: purchaseDate,
		state:        Active{},
		version:      0,
		createdAt:    now,
		updatedAt:    now,
		clock:        clock,
	}, nil
}

// RecordCreated records ingredient.created. The create command calls it once
// after the factory returned; the factory itself stays silent.
func (i *Ingredient) RecordCreated() error {
	if i.created || i.version > 0 {
		return shared.NewOperationNotAllowedError(entityName, msgAlreadyCreated)
	}
	e, err := newCreatedEvent(i)
	if err != nil {
		return err
	}
	i.created = true
	i.RecordEvent(e)
	return nil
}

// ============================================================================
// ReconstructionDTO - repository use only
// ============================================================================

type ReconstructionDTO struct {
	ID           ID
	UserID       shared.UserID
	Name         Name
	CategoryID   category.ID
	Stock        Stock
	Price        *Price
	ExpiryInfo   *ExpiryInfo
	Memo         *Memo
	PurchaseDate time.Time
	DeletedAt    *time.Time
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RebuildFromDTO restores an ingredient loaded from storage. No event is recorded.
func RebuildFromDTO(dto ReconstructionDTO) *Ingredient {
	var state Lifecycle = Active{}
	if dto.DeletedAt != nil {
		state = Deleted{At: *dto.DeletedAt}
	}
	return &Ingredient{
		id:           dto.ID,
		userID:       dto.UserID,
		name:         dto.Name,
		categoryID:   dto.CategoryID,
		stock:        dto.Stock,
		price:        dto.Price,
		expiryInfo:   dto.ExpiryInfo,
		memo:         dto.Memo,
		purchaseDate: dto.PurchaseDate,
		state:        state,
		version:      dto.Version,
		createdAt:    dto.CreatedAt,
		updatedAt:    dto.UpdatedAt,
		clock:        shared.SystemClock{},
		created:      true,
	}
}

// Snapshot is the inverse of RebuildFromDTO.
func (i *Ingredient) Snapshot() ReconstructionDTO {
	return ReconstructionDTO{
		ID:           i.id,
		UserID:       i.userID,
		Name:         i.name,
		CategoryID:   i.categoryID,
		Stock:        i.stock,
		Price:        i.price,
		ExpiryInfo:   i.expiryInfo,
		Memo:         i.memo,
		PurchaseDate: i.purchaseDate,
		DeletedAt:    i.DeletedAt(),
		Version:      i.version,
		CreatedAt:    i.createdAt,
		UpdatedAt:    i.updatedAt,
	}
}

// WithClock replaces the clock; used by services and tests.
func (i *Ingredient) WithClock(c shared.Clock) *Ingredient {
	i.clock = shared.ClockOrSystem(c)
	return i
}

// ============================================================================
// Business methods
// ============================================================================

func (i *Ingredient) guard(actor shared.UserID) error {
	if _, deleted := i.state.(Deleted); deleted {
		return shared.NewOperationNotAllowedError(entityName, msgDeleted)
	}
	if !i.userID.Equals(actor) {
		return shared.NewOperationNotAllowedError(entityName, msgNotOwner)
	}
	return nil
}

func (i *Ingredient) recordUpdate(changes map[string]FieldChange, apply func()) error {
	e, err := newUpdatedEvent(i, changes)
	if err != nil {
		return err
	}
	apply()
	i.updatedAt = e.OccurredOn()
	i.RecordEvent(e)
	return nil
}

// UpdatePrice sets or, with nil, clears the price.
func (i *Ingredient) UpdatePrice(actor shared.UserID, price *Price) error {
	if err := i.guard(actor); err != nil {
		return err
	}
	changes := map[string]FieldChange{"price": {Before: priceValue(i.price), After: priceValue(price)}}
	return i.recordUpdate(changes, func() { i.price = price })
}

// UpdateExpiryInfo sets or, with nil, clears the expiry dates.
func (i *Ingredient) UpdateExpiryInfo(actor shared.UserID, info *ExpiryInfo) error {
	if err := i.guard(actor); err != nil {
		return err
	}
	changes := map[string]FieldChange{"expiryInfo": {Before: expiryValue(i.expiryInfo), After: expiryValue(info)}}
	return i.recordUpdate(changes, func() { i.expiryInfo = info })
}

func (i *Ingredient) Rename(actor shared.UserID, name Name) error {
	if err := i.guard(actor); err != nil {
		return err
	}
	if name.IsZero() {
		return shared.NewRequiredFieldError("name", "食材名")
	}
	changes := map[string]FieldChange{"name": {Before: i.name.Value(), After: name.Value()}}
	return i.recordUpdate(changes, func() { i.name = name })
}

func (i *Ingredient) ChangeCategory(actor shared.UserID, categoryID category.ID) error {
	if err := i.guard(actor); err != nil {
		return err
	}
	if categoryID.IsZero() {
		return shared.NewRequiredFieldError("categoryId", "カテゴリー")
	}
	changes := map[string]FieldChange{"categoryId": {Before: i.categoryID.Value(), After: categoryID.Value()}}
	return i.recordUpdate(changes, func() { i.categoryID = categoryID })
}

func (i *Ingredient) UpdateMemo(actor shared.UserID, memo *Memo) error {
	if err := i.guard(actor); err != nil {
		return err
	}
	changes := map[string]FieldChange{"memo": {Before: memoValue(i.memo), After: memoValue(memo)}}
	return i.recordUpdate(changes, func() { i.memo = memo })
}

// UpdateStock replaces quantity, unit, location and threshold at once.
func (i *Ingredient) UpdateStock(actor shared.UserID, stock Stock) error {
	if err := i.guard(actor); err != nil {
		return err
	}
	if stock.UnitID().IsZero() {
		return shared.NewRequiredFieldError("stock", "在庫")
	}
	changes := map[string]FieldChange{"stock": {Before: stockValue(i.stock), After: stockValue(stock)}}
	return i.recordUpdate(changes, func() { i.stock = stock })
}

// Consume lowers the quantity by amount and records ingredient.consumed.
func (i *Ingredient) Consume(actor shared.UserID, amount Quantity) error {
	if err := i.guard(actor); err != nil {
		return err
	}
	left, err := i.stock.Consume(amount)
	if err != nil {
		return err
	}
	e, err := newConsumedEvent(i, amount, i.stock.Quantity(), left.Quantity())
	if err != nil {
		return err
	}
	i.stock = left
	i.updatedAt = e.OccurredOn()
	i.RecordEvent(e)
	return nil
}

// Delete soft-deletes the ingredient. Any later mutation is rejected.
func (i *Ingredient) Delete(actor shared.UserID) error {
	if err := i.guard(actor); err != nil {
		return err
	}
	now := i.clock.Now()
	e, err := newDeletedEvent(i, now)
	if err != nil {
		return err
	}
	i.state = Deleted{At: now}
	i.updatedAt = now
	i.RecordEvent(e)
	return nil
}

// IncrementVersionForSave is called by the repository after a successful update.
func (i *Ingredient) IncrementVersionForSave() {
	i.version++
}

// ============================================================================
// Getters
// ============================================================================

func (i *Ingredient) ID() ID                  { return i.id }
func (i *Ingredient) AggregateID() string     { return i.id.Value() }
func (i *Ingredient) UserID() shared.UserID   { return i.userID }
func (i *Ingredient) Name() Name              { return i.name }
func (i *Ingredient) CategoryID() category.ID { return i.categoryID }
func (i *Ingredient) Stock() Stock            { return i.stock }
func (i *Ingredient) Price() *Price           { return i.price }
func (i *Ingredient) ExpiryInfo() *ExpiryInfo { return i.expiryInfo }
func (i *Ingredient) Memo() *Memo             { return i.memo }
func (i *Ingredient) PurchaseDate() time.Time { return i.purchaseDate }
func (i *Ingredient) State() Lifecycle        { return i.state }
func (i *Ingredient) Version() int            { return i.version }
func (i *Ingredient) CreatedAt() time.Time    { return i.createdAt }
func (i *Ingredient) UpdatedAt() time.Time    { return i.updatedAt }

func (i *Ingredient) IsOwnedBy(u shared.UserID) bool {
	return i.userID.Equals(u)
}

func (i *Ingredient) IsDeleted() bool {
	_, deleted := i.state.(Deleted)
	return deleted
}

// DeletedAt is nil while the ingredient is active.
func (i *Ingredient) DeletedAt() *time.Time {
	if d, ok := i.state.(Deleted); ok {
		at := d.At
		return &at
	}
	return nil
}

func (i *Ingredient) IsExpired(now time.Time) bool {
	return i.expiryInfo != nil && i.expiryInfo.IsExpired(now)
}

func (i *Ingredient) IsExpiringSoon(now time.Time, days int) bool {
	return i.expiryInfo != nil && i.expiryInfo.IsExpiringSoon(now, days)
}

var _ shared.AggregateRoot = (*Ingredient)(nil)

// ============================================================================
// Change values
// ============================================================================

func priceValue(p *Price) any {
	if p == nil {
		return nil
	}
	return p.String()
}

func memoValue(m *Memo) any {
	if m == nil {
		return nil
	}
	return m.Value()
}

func expiryValue(e *ExpiryInfo) any {
	if e == nil {
		return nil
	}
	out := map[string]any{}
	if bb := e.BestBefore(); bb != nil {
		out["bestBefore"] = bb.Format(time.DateOnly)
	}
	if ub := e.UseBy(); ub != nil {
		out["useBy"] = ub.Format(time.DateOnly)
	}
	return out
}

func stockValue(s Stock) any {
	out := map[string]any{
		"quantity":      s.Quantity().Value(),
		"unitId":        s.UnitID().Value(),
		"storageType":   string(s.Location().Type()),
		"storageDetail": s.Location().Detail(),
	}
	if th := s.Threshold(); th != nil {
		out["threshold"] = th.Value()
	}
	return out
}
