package mocks

import (
	"context"
	"sort"
	"sync"

	"pantry/domain/category"
	"pantry/domain/shared"
	"pantry/domain/unit"
)

// MockCategoryRepository read-only reference data
type MockCategoryRepository struct {
	items map[string]*category.Category
	mu    sync.RWMutex
}

func NewMockCategoryRepository(items ...*category.Category) *MockCategoryRepository {
	r := &MockCategoryRepository{items: make(map[string]*category.Category)}
	for _, c := range items {
		r.items[c.ID().Value()] = c
	}
	return r
}

func (r *MockCategoryRepository) FindByID(ctx context.Context, id category.ID) (*category.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id.Value()]
	if !ok {
		return nil, shared.NewNotFoundError("category", id.Value())
	}
	return c, nil
}

func (r *MockCategoryRepository) FindAll(ctx context.Context) ([]*category.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*category.Category, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].DisplayOrder().Value() == out[b].DisplayOrder().Value() {
			return out[a].Name().Value() < out[b].Name().Value()
		}
		return out[a].DisplayOrder().Value() < out[b].DisplayOrder().Value()
	})
	return out, nil
}

// MockUnitRepository read-only reference data
type MockUnitRepository struct {
	items map[string]*unit.Unit
	mu    sync.RWMutex
}

func NewMockUnitRepository(items ...*unit.Unit) *MockUnitRepository {
	r := &MockUnitRepository{items: make(map[string]*unit.Unit)}
	for _, u := range items {
		r.items[u.ID().Value()] = u
	}
	return r
}

func (r *MockUnitRepository) FindByID(ctx context.Context, id unit.ID) (*unit.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id.Value()]
	if !ok {
		return nil, shared.NewNotFoundError("unit", id.Value())
	}
	return u, nil
}

func (r *MockUnitRepository) FindAll(ctx context.Context) ([]*unit.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*unit.Unit, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, u)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].DisplayOrder().Value() == out[b].DisplayOrder().Value() {
			return out[a].Name().Value() < out[b].Name().Value()
		}
		return out[a].DisplayOrder().Value() < out[b].DisplayOrder().Value()
	})
	return out, nil
}

var (
	_ category.Repository = (*MockCategoryRepository)(nil)
	_ unit.Repository     = (*MockUnitRepository)(nil)
)
