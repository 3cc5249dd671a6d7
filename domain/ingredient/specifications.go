package ingredient

import (
	"context"
	"time"

	"pantry/domain/category"
	"pantry/domain/shared"
)

type ByUserSpecification struct {
	UserID shared.UserID
}

func (spec ByUserSpecification) IsSatisfiedBy(_ context.Context, i *Ingredient) bool {
	return i.UserID().Equals(spec.UserID)
}

type ByCategorySpecification struct {
	CategoryID category.ID
}

func (spec ByCategorySpecification) IsSatisfiedBy(_ context.Context, i *Ingredient) bool {
	return i.CategoryID().Equals(spec.CategoryID)
}

type ByStorageTypeSpecification struct {
	StorageType StorageType
}

func (spec ByStorageTypeSpecification) IsSatisfiedBy(_ context.Context, i *Ingredient) bool {
	return i.Stock().Location().Type() == spec.StorageType
}

type NotDeletedSpecification struct{}

func (NotDeletedSpecification) IsSatisfiedBy(_ context.Context, i *Ingredient) bool {
	return !i.IsDeleted()
}

type OutOfStockSpecification struct{}

func (OutOfStockSpecification) IsSatisfiedBy(_ context.Context, i *Ingredient) bool {
	return i.Stock().IsOutOfStock()
}

// LowStockSpecification matches positive stock at or below its threshold.
type LowStockSpecification struct{}

func (LowStockSpecification) IsSatisfiedBy(_ context.Context, i *Ingredient) bool {
	return i.Stock().IsLowStock()
}

// ExpiredSpecification matches ingredients whose effective expiry date is before Now's date.
type ExpiredSpecification struct {
	Now time.Time
}

func (spec ExpiredSpecification) IsSatisfiedBy(_ context.Context, i *Ingredient) bool {
	return i.IsExpired(spec.Now)
}

// ExpiringSoonSpecification matches ingredients expiring today or within Days.
type ExpiringSoonSpecification struct {
	Now  time.Time
	Days int
}

func (spec ExpiringSoonSpecification) IsSatisfiedBy(_ context.Context, i *Ingredient) bool {
	return i.IsExpiringSoon(spec.Now, spec.Days)
}

func NewByUserSpecification(userID shared.UserID) shared.Specification[*Ingredient] {
	return ByUserSpecification{UserID: userID}
}
func NewByCategorySpecification(categoryID category.ID) shared.Specification[*Ingredient] {
	return ByCategorySpecification{CategoryID: categoryID}
}
func NewByStorageTypeSpecification(t StorageType) shared.Specification[*Ingredient] {
	return ByStorageTypeSpecification{StorageType: t}
}
func NewNotDeletedSpecification() shared.Specification[*Ingredient] {
	return NotDeletedSpecification{}
}
func NewOutOfStockSpecification() shared.Specification[*Ingredient] {
	return OutOfStockSpecification{}
}
func NewLowStockSpecification() shared.Specification[*Ingredient] {
	return LowStockSpecification{}
}
func NewExpiredSpecification(now time.Time) shared.Specification[*Ingredient] {
	return ExpiredSpecification{Now: now}
}
func NewExpiringSoonSpecification(now time.Time, days int) shared.Specification[*Ingredient] {
	return ExpiringSoonSpecification{Now: now, Days: days}
}

// ActiveOfUser is the base filter of every listing: the user's live ingredients.
func ActiveOfUser(userID shared.UserID) shared.Composable[*Ingredient] {
	return shared.Spec(NewByUserSpecification(userID)).And(NewNotDeletedSpecification())
}
