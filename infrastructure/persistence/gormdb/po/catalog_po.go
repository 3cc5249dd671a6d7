package po

import (
	"time"

	"pantry/domain/category"
	"pantry/domain/shared"
	"pantry/domain/unit"
)

// CategoryPO reference data, seeded by migrations
type CategoryPO struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Name         string    `gorm:"size:20;uniqueIndex;not null"`
	Description  *string   `gorm:"size:100"`
	DisplayOrder int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (CategoryPO) TableName() string {
	return "categories"
}

func (p *CategoryPO) ToDomain() (*category.Category, error) {
	id, err := category.NewID(p.ID)
	if err != nil {
		return nil, err
	}
	name, err := category.NewName(p.Name)
	if err != nil {
		return nil, err
	}
	desc, order, err := describe(p.Description, p.DisplayOrder)
	if err != nil {
		return nil, err
	}
	return category.New(category.Params{
		ID:           id,
		Name:         name,
		Description:  desc,
		DisplayOrder: order,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}), nil
}

// UnitPO reference data, seeded by migrations
type UnitPO struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Name         string    `gorm:"size:30;uniqueIndex;not null"`
	Symbol       string    `gorm:"size:10;not null"`
	Description  *string   `gorm:"size:100"`
	DisplayOrder int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (UnitPO) TableName() string {
	return "units"
}

func (p *UnitPO) ToDomain() (*unit.Unit, error) {
	id, err := unit.NewID(p.ID)
	if err != nil {
		return nil, err
	}
	name, err := unit.NewName(p.Name)
	if err != nil {
		return nil, err
	}
	symbol, err := unit.NewSymbol(p.Symbol)
	if err != nil {
		return nil, err
	}
	desc, order, err := describe(p.Description, p.DisplayOrder)
	if err != nil {
		return nil, err
	}
	return unit.New(unit.Params{
		ID:           id,
		Name:         name,
		Symbol:       symbol,
		Description:  desc,
		DisplayOrder: order,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}), nil
}

func describe(raw *string, order int) (*shared.Description, shared.DisplayOrder, error) {
	var desc *shared.Description
	if raw != nil {
		d, err := shared.NewDescription(*raw)
		if err != nil {
			return nil, shared.DisplayOrder{}, err
		}
		desc = d
	}
	do, err := shared.NewDisplayOrder(float64(order))
	if err != nil {
		return nil, shared.DisplayOrder{}, err
	}
	return desc, do, nil
}
