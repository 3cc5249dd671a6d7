// Package category holds the ingredient category reference data.
package category

import (
	"context"
	"time"

	"pantry/domain/shared"
)

const (
	IDPrefix      = "cat_"
	maxNameLength = 20
)

// ID identifies a category, e.g. "cat_cjld2cjxh0000qzrmn831i7rn".
type ID struct {
	shared.PrefixedCuidID
}

func NewID(raw string) (ID, error) {
	id, err := shared.NewPrefixedCuidID("categoryId", "カテゴリーID", IDPrefix, raw)
	if err != nil {
		return ID{}, err
	}
	return ID{id}, nil
}

func GenerateID() ID {
	return ID{shared.GeneratePrefixedCuidID(IDPrefix)}
}

func (id ID) Equals(other any) bool { return shared.EqualValue(id, other) }

// Name is a category name of at most 20 characters.
type Name struct {
	shared.Name
}

func NewName(raw string) (Name, error) {
	n, err := shared.NewName("name", "カテゴリー名", raw, maxNameLength)
	if err != nil {
		return Name{}, err
	}
	return Name{n}, nil
}

func (n Name) Equals(other any) bool { return shared.EqualValue(n, other) }

// Category groups ingredients (vegetables, meat, seasonings...).
type Category struct {
	id           ID
	name         Name
	description  *shared.Description
	displayOrder shared.DisplayOrder
	createdAt    time.Time
	updatedAt    time.Time
}

// Params builds or rebuilds a Category. Description may be nil.
type Params struct {
	ID           ID
	Name         Name
	Description  *shared.Description
	DisplayOrder shared.DisplayOrder
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func New(p Params) *Category {
	return &Category{
		id:           p.ID,
		name:         p.Name,
		description:  p.Description,
		displayOrder: p.DisplayOrder,
		createdAt:    p.CreatedAt,
		updatedAt:    p.UpdatedAt,
	}
}

func (c *Category) ID() ID                            { return c.id }
func (c *Category) Name() Name                        { return c.name }
func (c *Category) Description() *shared.Description  { return c.description }
func (c *Category) DisplayOrder() shared.DisplayOrder { return c.displayOrder }
func (c *Category) CreatedAt() time.Time              { return c.createdAt }
func (c *Category) UpdatedAt() time.Time              { return c.updatedAt }

// Repository is read-only; categories are seeded by migrations.
type Repository interface {
	// FindByID returns a NotFound error when absent
	FindByID(ctx context.Context, id ID) (*Category, error)
	// FindAll orders by display order, then name
	FindAll(ctx context.Context) ([]*Category, error)
}
