package ingredient

import (
	"context"
	"time"

	"pantry/domain/category"
	"pantry/domain/shared"
)

// CreateParams are the inputs of Factory.Create. Optional fields may be nil.
type CreateParams struct {
	UserID       shared.UserID
	Name         Name
	CategoryID   category.ID
	Stock        Stock
	Price        *Price
	ExpiryInfo   *ExpiryInfo
	Memo         *Memo
	PurchaseDate time.Time
}

// Factory creates ingredients and owns the "no duplicate ingredient" rule.
//
// The rule is check-then-act: two concurrent creates for the same user can
// both pass FindDuplicates. Callers serialize per user or rely on storage.
type Factory struct {
	repo  Repository
	clock shared.Clock
}

func NewFactory(repo Repository, clock shared.Clock) *Factory {
	return &Factory{repo: repo, clock: shared.ClockOrSystem(clock)}
}

// Create fails with a duplicate error if the user already has an ingredient
// with the same name, expiry info and storage location. Repository errors
// are returned unchanged. No event is recorded.
func (f *Factory) Create(ctx context.Context, p CreateParams) (*Ingredient, error) {
	duplicates, err := f.repo.FindDuplicates(ctx, DuplicateCriteria{
		UserID:          p.UserID,
		Name:            p.Name,
		ExpiryInfo:      p.ExpiryInfo,
		StorageLocation: p.Stock.Location(),
	})
	if err != nil {
		return nil, err
	}
	if len(duplicates) > 0 {
		return nil, NewDuplicateError()
	}

	return newIngredient(NewParams{
		UserID:       p.UserID,
		Name:         p.Name,
		CategoryID:   p.CategoryID,
		Stock:        p.Stock,
		Price:        p.Price,
		ExpiryInfo:   p.ExpiryInfo,
		Memo:         p.Memo,
		PurchaseDate: p.PurchaseDate,
		Clock:        f.clock,
	})
}
