package gormdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pantry/domain/category"
	"pantry/domain/ingredient"
	"pantry/domain/shared"
	"pantry/domain/unit"
	"pantry/infrastructure/persistence/mocks"
)

var testNow = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

const (
	seedCategoryID = "cat_cpantryseedcat00000000001"
	seedUnitID     = "unt_cpantryseedunt00000000001"
)

// newTestDB opens a private in-memory sqlite database with the schema and
// the catalog seed applied.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := Config{Driver: DriverSQLite, Database: ":memory:", LogLevel: "silent"}
	db, err := cfg.Connect()
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	require.NoError(t, SeedCatalog(context.Background(), db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type ingredientSpec struct {
	name       string
	qty        float64
	threshold  *float64
	bestBefore *time.Time
	useBy      *time.Time
	storage    ingredient.StorageType
}

// buildIngredient creates an unsaved ingredient through the domain factory.
func buildIngredient(t *testing.T, clock shared.Clock, user shared.UserID, s ingredientSpec) *ingredient.Ingredient {
	t.Helper()
	name, err := ingredient.NewName(s.name)
	require.NoError(t, err)
	qty, err := ingredient.NewQuantity(s.qty)
	require.NoError(t, err)
	unitID, err := unit.NewID(seedUnitID)
	require.NoError(t, err)
	categoryID, err := category.NewID(seedCategoryID)
	require.NoError(t, err)
	if s.storage == "" {
		s.storage = ingredient.StorageRefrigerated
	}
	loc, err := ingredient.NewStorageLocation(s.storage, "")
	require.NoError(t, err)

	var threshold *ingredient.Quantity
	if s.threshold != nil {
		th, err := ingredient.NewThreshold(*s.threshold)
		require.NoError(t, err)
		threshold = &th
	}
	stock, err := ingredient.NewStock(qty, unitID, loc, threshold)
	require.NoError(t, err)

	var expiry *ingredient.ExpiryInfo
	if s.bestBefore != nil || s.useBy != nil {
		expiry, err = ingredient.NewExpiryInfo(s.bestBefore, s.useBy)
		require.NoError(t, err)
	}

	f := ingredient.NewFactory(mocks.NewMockIngredientRepository(), clock)
	i, err := f.Create(context.Background(), ingredient.CreateParams{
		UserID:       user,
		Name:         name,
		CategoryID:   categoryID,
		Stock:        stock,
		ExpiryInfo:   expiry,
		PurchaseDate: clock.Now(),
	})
	require.NoError(t, err)
	return i
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func ptr[T any](v T) *T { return &v }
