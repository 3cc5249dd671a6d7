package gormdb

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pantry/domain/shared"
	"pantry/domain/shopping"
	"pantry/infrastructure/persistence"
	"pantry/infrastructure/persistence/gormdb/po"
	"pantry/infrastructure/persistence/specification"
)

// SessionRepository GORM implementation of the shopping session repository
// Checked items live in a JSON column of the session row.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) getDB(ctx context.Context) *gorm.DB {
	return persistence.DB(ctx, r.db)
}

func (r *SessionRepository) FindActiveByUserID(ctx context.Context, userID shared.UserID) (*shopping.Session, error) {
	var row po.SessionPO
	err := r.getDB(ctx).First(&row, "active_user_id = ?", userID.Value()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain()
}

func (r *SessionRepository) FindByID(ctx context.Context, id shopping.SessionID) (*shopping.Session, error) {
	var row po.SessionPO
	err := r.getDB(ctx).First(&row, "id = ?", id.Value()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shopping.NewNotFoundError(id.Value())
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain()
}

func (r *SessionRepository) FindBySpecification(ctx context.Context, spec shared.Specification[*shopping.Session]) ([]*shopping.Session, error) {
	q := r.getDB(ctx).Model(&po.SessionPO{})
	if expr, ok := specification.Session(spec); ok {
		q = q.Clauses(clause.Where{Exprs: []clause.Expression{expr}})
	}

	var rows []po.SessionPO
	if err := q.Order("started_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	found, err := toSessions(rows)
	if err != nil {
		return nil, err
	}
	return shared.Filter(ctx, spec, found), nil
}

func (r *SessionRepository) FindRecentByUserID(ctx context.Context, userID shared.UserID, limit int) ([]*shopping.Session, error) {
	var rows []po.SessionPO
	if err := r.getDB(ctx).
		Where("user_id = ?", userID.Value()).
		Order("started_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSessions(rows)
}

func (r *SessionRepository) Save(ctx context.Context, s *shopping.Session) error {
	err := r.getDB(ctx).Create(po.FromSessionDomain(s)).Error
	if IsUniqueViolation(err) {
		return shopping.NewDuplicateActiveSessionError()
	}
	return err
}

func (r *SessionRepository) Update(ctx context.Context, s *shopping.Session) error {
	row := po.FromSessionDomain(s)
	cols := row.UpdateColumns()
	cols["version"] = s.Version() + 1

	db := r.getDB(ctx)
	result := db.Model(&po.SessionPO{}).
		Where("id = ? AND version = ?", row.ID, s.Version()).
		Updates(cols)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return staleOrMissing(db, &po.SessionPO{}, row.ID,
			shopping.NewNotFoundError(row.ID),
			shopping.NewConcurrentModificationError(row.ID))
	}

	s.IncrementVersionForSave()
	return nil
}

func toSessions(rows []po.SessionPO) ([]*shopping.Session, error) {
	out := make([]*shopping.Session, 0, len(rows))
	for idx := range rows {
		s, err := rows[idx].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

var _ shopping.Repository = (*SessionRepository)(nil)
