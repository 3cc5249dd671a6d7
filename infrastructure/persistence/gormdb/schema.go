package gormdb

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pantry/infrastructure/persistence/gormdb/po"
)

// Models lists every table this package owns.
func Models() []any {
	return []any{
		&po.CategoryPO{},
		&po.UnitPO{},
		&po.IngredientPO{},
		&po.SessionPO{},
		&po.OutboxEventPO{},
	}
}

// AutoMigrate creates or extends the tables from the persistence objects.
// Postgres deployments use the versioned migrations instead.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

type seedRow struct {
	id, name, symbol string
}

var seedCategories = []seedRow{
	{id: "cat_cpantryseedcat00000000001", name: "野菜"},
	{id: "cat_cpantryseedcat00000000002", name: "果物"},
	{id: "cat_cpantryseedcat00000000003", name: "肉類"},
	{id: "cat_cpantryseedcat00000000004", name: "魚介類"},
	{id: "cat_cpantryseedcat00000000005", name: "乳製品・卵"},
	{id: "cat_cpantryseedcat00000000006", name: "穀物・パン"},
	{id: "cat_cpantryseedcat00000000007", name: "調味料"},
	{id: "cat_cpantryseedcat00000000008", name: "飲料"},
	{id: "cat_cpantryseedcat00000000009", name: "冷凍食品"},
	{id: "cat_cpantryseedcat00000000010", name: "その他"},
}

var seedUnits = []seedRow{
	{id: "unt_cpantryseedunt00000000001", name: "個", symbol: "個"},
	{id: "unt_cpantryseedunt00000000002", name: "グラム", symbol: "g"},
	{id: "unt_cpantryseedunt00000000003", name: "キログラム", symbol: "kg"},
	{id: "unt_cpantryseedunt00000000004", name: "ミリリットル", symbol: "ml"},
	{id: "unt_cpantryseedunt00000000005", name: "リットル", symbol: "L"},
	{id: "unt_cpantryseedunt00000000006", name: "本", symbol: "本"},
	{id: "unt_cpantryseedunt00000000007", name: "枚", symbol: "枚"},
	{id: "unt_cpantryseedunt00000000008", name: "パック", symbol: "パック"},
	{id: "unt_cpantryseedunt00000000009", name: "袋", symbol: "袋"},
}

// SeedRows returns the default categories and units, stamped with now.
func SeedRows(now time.Time) ([]po.CategoryPO, []po.UnitPO) {
	categories := make([]po.CategoryPO, 0, len(seedCategories))
	for i, row := range seedCategories {
		categories = append(categories, po.CategoryPO{
			ID:           row.id,
			Name:         row.name,
			DisplayOrder: i + 1,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	units := make([]po.UnitPO, 0, len(seedUnits))
	for i, row := range seedUnits {
		units = append(units, po.UnitPO{
			ID:           row.id,
			Name:         row.name,
			Symbol:       row.symbol,
			DisplayOrder: i + 1,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return categories, units
}

// SeedCatalog inserts the default categories and units. Rows that already
// exist are left alone, so it is safe to run on every start.
func SeedCatalog(ctx context.Context, db *gorm.DB) error {
	categories, units := SeedRows(time.Now().UTC())

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&units).Error; err != nil {
			return fmt.Errorf("seed units: %w", err)
		}
		return nil
	})
}
