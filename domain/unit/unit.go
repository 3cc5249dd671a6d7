// Package unit holds the quantity unit reference data (個, g, ml...).
package unit

import (
	"context"
	"time"

	"pantry/domain/shared"
)

const (
	IDPrefix        = "unt_"
	maxNameLength   = 30
	maxSymbolLength = 10
)

type ID struct {
	shared.PrefixedCuidID
}

func NewID(raw string) (ID, error) {
	id, err := shared.NewPrefixedCuidID("unitId", "単位ID", IDPrefix, raw)
	if err != nil {
		return ID{}, err
	}
	return ID{id}, nil
}

func GenerateID() ID {
	return ID{shared.GeneratePrefixedCuidID(IDPrefix)}
}

func (id ID) Equals(other any) bool { return shared.EqualValue(id, other) }

type Name struct {
	shared.Name
}

func NewName(raw string) (Name, error) {
	n, err := shared.NewName("name", "単位名", raw, maxNameLength)
	if err != nil {
		return Name{}, err
	}
	return Name{n}, nil
}

func (n Name) Equals(other any) bool { return shared.EqualValue(n, other) }

// Symbol is the short label shown next to quantities ("g", "個").
type Symbol struct {
	shared.Name
}

func NewSymbol(raw string) (Symbol, error) {
	n, err := shared.NewName("symbol", "単位記号", raw, maxSymbolLength)
	if err != nil {
		return Symbol{}, err
	}
	return Symbol{n}, nil
}

func (s Symbol) Equals(other any) bool { return shared.EqualValue(s, other) }

type Unit struct {
	id           ID
	name         Name
	symbol       Symbol
	description  *shared.Description
	displayOrder shared.DisplayOrder
	createdAt    time.Time
	updatedAt    time.Time
}

type Params struct {
	ID           ID
	Name         Name
	Symbol       Symbol
	Description  *shared.Description
	DisplayOrder shared.DisplayOrder
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func New(p Params) *Unit {
	return &Unit{
		id:           p.ID,
		name:         p.Name,
		symbol:       p.Symbol,
		description:  p.Description,
		displayOrder: p.DisplayOrder,
		createdAt:    p.CreatedAt,
		updatedAt:    p.UpdatedAt,
	}
}

func (u *Unit) ID() ID                            { return u.id }
func (u *Unit) Name() Name                        { return u.name }
func (u *Unit) Symbol() Symbol                    { return u.symbol }
func (u *Unit) Description() *shared.Description  { return u.description }
func (u *Unit) DisplayOrder() shared.DisplayOrder { return u.displayOrder }
func (u *Unit) CreatedAt() time.Time              { return u.createdAt }
func (u *Unit) UpdatedAt() time.Time              { return u.updatedAt }

type Repository interface {
	FindByID(ctx context.Context, id ID) (*Unit, error)
	FindAll(ctx context.Context) ([]*Unit, error)
}
