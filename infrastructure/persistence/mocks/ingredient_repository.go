package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pantry/domain/ingredient"
	"pantry/domain/shared"
)

// MockIngredientRepository keeps snapshots, so an aggregate mutated by a
// failed command never leaks into the store.
// Events are not published here; the unit of work moves them to the outbox.
type MockIngredientRepository struct {
	rows map[string]ingredient.ReconstructionDTO
	mu   sync.RWMutex
}

func NewMockIngredientRepository() *MockIngredientRepository {
	return &MockIngredientRepository{rows: make(map[string]ingredient.ReconstructionDTO)}
}

func (r *MockIngredientRepository) FindDuplicates(ctx context.Context, c ingredient.DuplicateCriteria) ([]*ingredient.Ingredient, error) {
	var out []*ingredient.Ingredient
	for _, i := range r.all() {
		if c.Matches(i) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *MockIngredientRepository) FindByID(ctx context.Context, id ingredient.ID) (*ingredient.Ingredient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dto, ok := r.rows[id.Value()]
	if !ok {
		return nil, ingredient.NewNotFoundError(id.Value())
	}
	return ingredient.RebuildFromDTO(dto), nil
}

func (r *MockIngredientRepository) FindBySpecification(ctx context.Context, spec shared.Specification[*ingredient.Ingredient]) ([]*ingredient.Ingredient, error) {
	return shared.Filter(ctx, spec, r.all()), nil
}

func (r *MockIngredientRepository) Save(ctx context.Context, i *ingredient.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rows[i.AggregateID()]; exists {
		return fmt.Errorf("ingredient %s already stored", i.AggregateID())
	}
	r.rows[i.AggregateID()] = i.Snapshot()
	return nil
}

func (r *MockIngredientRepository) Update(ctx context.Context, i *ingredient.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.rows[i.AggregateID()]
	if !exists {
		return ingredient.NewNotFoundError(i.AggregateID())
	}
	if stored.Version != i.Version() {
		return ingredient.NewConcurrentModificationError(i.AggregateID())
	}
	i.IncrementVersionForSave()
	r.rows[i.AggregateID()] = i.Snapshot()
	return nil
}

func (r *MockIngredientRepository) Delete(ctx context.Context, i *ingredient.Ingredient) error {
	return r.Update(ctx, i)
}

// Put stores i as is; a test helper that bypasses the version check.
func (r *MockIngredientRepository) Put(i *ingredient.Ingredient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[i.AggregateID()] = i.Snapshot()
}

// all returns every stored ingredient ordered by creation time.
func (r *MockIngredientRepository) all() []*ingredient.Ingredient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ingredient.Ingredient, 0, len(r.rows))
	for _, dto := range r.rows {
		out = append(out, ingredient.RebuildFromDTO(dto))
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt().Equal(out[b].CreatedAt()) {
			return out[a].AggregateID() < out[b].AggregateID()
		}
		return out[a].CreatedAt().Before(out[b].CreatedAt())
	})
	return out
}

var _ ingredient.Repository = (*MockIngredientRepository)(nil)
