package gormdb

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"pantry/domain/category"
	"pantry/domain/shared"
	"pantry/domain/unit"
	"pantry/infrastructure/persistence"
	"pantry/infrastructure/persistence/gormdb/po"
)

// CategoryRepository reads the seeded categories table.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) getDB(ctx context.Context) *gorm.DB { return persistence.DB(ctx, r.db) }

func (r *CategoryRepository) FindByID(ctx context.Context, id category.ID) (*category.Category, error) {
	var row po.CategoryPO
	err := r.getDB(ctx).First(&row, "id = ?", id.Value()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError("category", id.Value())
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain()
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]*category.Category, error) {
	var rows []po.CategoryPO
	if err := r.getDB(ctx).Order("display_order ASC").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*category.Category, 0, len(rows))
	for idx := range rows {
		c, err := rows[idx].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// UnitRepository reads the seeded units table.
type UnitRepository struct {
	db *gorm.DB
}

func NewUnitRepository(db *gorm.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

func (r *UnitRepository) getDB(ctx context.Context) *gorm.DB { return persistence.DB(ctx, r.db) }

func (r *UnitRepository) FindByID(ctx context.Context, id unit.ID) (*unit.Unit, error) {
	var row po.UnitPO
	err := r.getDB(ctx).First(&row, "id = ?", id.Value()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError("unit", id.Value())
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain()
}

func (r *UnitRepository) FindAll(ctx context.Context) ([]*unit.Unit, error) {
	var rows []po.UnitPO
	if err := r.getDB(ctx).Order("display_order ASC").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*unit.Unit, 0, len(rows))
	for idx := range rows {
		u, err := rows[idx].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

var (
	_ category.Repository = (*CategoryRepository)(nil)
	_ unit.Repository     = (*UnitRepository)(nil)
)
