package ingredient

import (
	"context"

	"pantry/domain/shared"
)

// DuplicateCriteria identifies "the same ingredient": same owner, same name,
// structurally equal expiry info (nil matches nil) and storage location.
type DuplicateCriteria struct {
	UserID          shared.UserID
	Name            Name
	ExpiryInfo      *ExpiryInfo
	StorageLocation StorageLocation
}

// Matches evaluates the criteria in memory.
func (c DuplicateCriteria) Matches(i *Ingredient) bool {
	return !i.IsDeleted() &&
		i.UserID().Equals(c.UserID) &&
		i.Name().Equals(c.Name) &&
		SameExpiry(i.ExpiryInfo(), c.ExpiryInfo) &&
		i.Stock().Location().Equals(c.StorageLocation)
}

// Repository Ingredient repository interface
// Events are not published here; the unit of work moves them to the outbox.
type Repository interface {
	// FindDuplicates returns the live ingredients matching criteria
	FindDuplicates(ctx context.Context, criteria DuplicateCriteria) ([]*Ingredient, error)

	// FindByID returns a NotFound error when absent. Deleted ingredients are
	// returned so their mutators can reject the call; read paths hide them.
	FindByID(ctx context.Context, id ID) (*Ingredient, error)

	FindBySpecification(ctx context.Context, spec shared.Specification[*Ingredient]) ([]*Ingredient, error)

	// Save inserts a new ingredient
	Save(ctx context.Context, ingredient *Ingredient) error

	// Update writes changes guarded by the version (optimistic lock)
	Update(ctx context.Context, ingredient *Ingredient) error

	// Delete persists the soft delete recorded by Ingredient.Delete
	Delete(ctx context.Context, ingredient *Ingredient) error
}
