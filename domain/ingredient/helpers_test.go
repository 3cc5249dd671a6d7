package ingredient

import (
	"context"
	"testing"
	"time"

	"pantry/domain/category"
	"pantry/domain/shared"
	"pantry/domain/unit"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

type stubRepository struct {
	Repository
	duplicates [][]*Ingredient
	err        error
	calls      int
}

func (r *stubRepository) FindDuplicates(_ context.Context, _ DuplicateCriteria) ([]*Ingredient, error) {
	defer func() { r.calls++ }()
	if r.err != nil {
		return nil, r.err
	}
	if r.calls < len(r.duplicates) {
		return r.duplicates[r.calls], nil
	}
	return nil, nil
}

func mustStock(t *testing.T, qty float64, threshold *float64) Stock {
	t.Helper()
	q, err := NewQuantity(qty)
	require.NoError(t, err)
	loc, err := NewStorageLocation(StorageRefrigerated, "野菜室")
	require.NoError(t, err)
	var th *Quantity
	if threshold != nil {
		v, err := NewThreshold(*threshold)
		require.NoError(t, err)
		th = &v
	}
	s, err := NewStock(q, unit.GenerateID(), loc, th)
	require.NoError(t, err)
	return s
}

func mustName(t *testing.T, raw string) Name {
	t.Helper()
	n, err := NewName(raw)
	require.NoError(t, err)
	return n
}

func newTestIngredient(t *testing.T, owner shared.UserID, clock shared.Clock) *Ingredient {
	t.Helper()
	f := NewFactory(&stubRepository{}, clock)
	i, err := f.Create(context.Background(), CreateParams{
		UserID:     owner,
		Name:       mustName(t, "トマト"),
		CategoryID: category.GenerateID(),
		Stock:      mustStock(t, 3, nil),
	})
	require.NoError(t, err)
	return i
}
