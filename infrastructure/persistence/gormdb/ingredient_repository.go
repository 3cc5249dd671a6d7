package gormdb

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pantry/domain/ingredient"
	"pantry/domain/shared"
	"pantry/infrastructure/persistence"
	"pantry/infrastructure/persistence/gormdb/po"
	"pantry/infrastructure/persistence/specification"
)

// IngredientRepository GORM implementation of the ingredient repository
// Associations are not used; the aggregate maps to a single row.
type IngredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

func (r *IngredientRepository) getDB(ctx context.Context) *gorm.DB {
	return persistence.DB(ctx, r.db)
}

// FindDuplicates looks the dedup key up and re-checks the criteria, so a
// hash collision can never report a false duplicate.
func (r *IngredientRepository) FindDuplicates(ctx context.Context, c ingredient.DuplicateCriteria) ([]*ingredient.Ingredient, error) {
	key := po.DedupKey(c.UserID, c.Name, c.ExpiryInfo, c.StorageLocation)

	var rows []po.IngredientPO
	if err := r.getDB(ctx).Where("dedup_key = ?", key).Find(&rows).Error; err != nil {
		return nil, err
	}
	found, err := toIngredients(rows)
	if err != nil {
		return nil, err
	}

	out := make([]*ingredient.Ingredient, 0, len(found))
	for _, i := range found {
		if c.Matches(i) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *IngredientRepository) FindByID(ctx context.Context, id ingredient.ID) (*ingredient.Ingredient, error) {
	var row po.IngredientPO
	err := r.getDB(ctx).First(&row, "id = ?", id.Value()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ingredient.NewNotFoundError(id.Value())
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain()
}

// FindBySpecification pushes what it can down to SQL and filters the rest in memory.
func (r *IngredientRepository) FindBySpecification(ctx context.Context, spec shared.Specification[*ingredient.Ingredient]) ([]*ingredient.Ingredient, error) {
	q := r.getDB(ctx).Model(&po.IngredientPO{})
	if expr, ok := specification.Ingredient(spec); ok {
		q = q.Clauses(clause.Where{Exprs: []clause.Expression{expr}})
	}

	var rows []po.IngredientPO
	if err := q.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	found, err := toIngredients(rows)
	if err != nil {
		return nil, err
	}
	return shared.Filter(ctx, spec, found), nil
}

func (r *IngredientRepository) Save(ctx context.Context, i *ingredient.Ingredient) error {
	err := r.getDB(ctx).Create(po.FromIngredientDomain(i)).Error
	if IsUniqueViolation(err) {
		return ingredient.NewDuplicateError()
	}
	return err
}

// Update writes every mutable column where the stored version still matches.
func (r *IngredientRepository) Update(ctx context.Context, i *ingredient.Ingredient) error {
	row := po.FromIngredientDomain(i)
	cols := row.UpdateColumns()
	cols["version"] = i.Version() + 1

	db := r.getDB(ctx)
	result := db.Model(&po.IngredientPO{}).
		Where("id = ? AND version = ?", row.ID, i.Version()).
		Updates(cols)
	if result.Error != nil {
		if IsUniqueViolation(result.Error) {
			return ingredient.NewDuplicateError()
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return staleOrMissing(db, &po.IngredientPO{}, row.ID,
			ingredient.NewNotFoundError(row.ID),
			ingredient.NewConcurrentModificationError(row.ID))
	}

	i.IncrementVersionForSave()
	return nil
}

// Delete persists the soft delete; the row stays for history.
func (r *IngredientRepository) Delete(ctx context.Context, i *ingredient.Ingredient) error {
	return r.Update(ctx, i)
}

func toIngredients(rows []po.IngredientPO) ([]*ingredient.Ingredient, error) {
	out := make([]*ingredient.Ingredient, 0, len(rows))
	for idx := range rows {
		i, err := rows[idx].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

// staleOrMissing tells a vanished row from a version conflict after an
// update matched nothing.
func staleOrMissing(db *gorm.DB, model any, id string, notFound, conflict error) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return conflict
}

// Compile-time interface implementation check
var _ ingredient.Repository = (*IngredientRepository)(nil)
