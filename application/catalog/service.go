// Package catalog serves the read-only reference data: categories and units.
package catalog

import (
	"context"

	"pantry/domain/category"
	"pantry/domain/shared"
	"pantry/domain/unit"
)

type CategoryResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	DisplayOrder int     `json:"display_order"`
}

type UnitResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	Description  *string `json:"description,omitempty"`
	DisplayOrder int     `json:"display_order"`
}

type ApplicationService struct {
	categories category.Repository
	units      unit.Repository
}

func NewApplicationService(categories category.Repository, units unit.Repository) *ApplicationService {
	return &ApplicationService{categories: categories, units: units}
}

// ListCategories returns every category by display order.
func (s *ApplicationService) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	items, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, 0, len(items))
	for _, c := range items {
		out = append(out, CategoryResponse{
			ID:           c.ID().Value(),
			Name:         c.Name().Value(),
			Description:  describe(c.Description()),
			DisplayOrder: c.DisplayOrder().Value(),
		})
	}
	return out, nil
}

// ListUnits returns every unit by display order.
func (s *ApplicationService) ListUnits(ctx context.Context) ([]UnitResponse, error) {
	items, err := s.units.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UnitResponse, 0, len(items))
	for _, u := range items {
		out = append(out, UnitResponse{
			ID:           u.ID().Value(),
			Name:         u.Name().Value(),
			Symbol:       u.Symbol().Value(),
			Description:  describe(u.Description()),
			DisplayOrder: u.DisplayOrder().Value(),
		})
	}
	return out, nil
}

func describe(d *shared.Description) *string {
	if d == nil {
		return nil
	}
	v := d.Value()
	return &v
}
