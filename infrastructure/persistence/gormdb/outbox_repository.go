package gormdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pantry/domain/shared"
	"pantry/infrastructure/persistence"
	"pantry/infrastructure/persistence/gormdb/po"
)

const maxLastErrorLen = 500

// errOutboxClaimLost means the row was not in the expected state: another
// worker moved it first, or it does not exist.
var errOutboxClaimLost = errors.New("outbox event not in expected state")

// OutboxRepository stores committed domain events until the relay publishes
// them. Rows move PENDING -> PROCESSING -> PUBLISHED, or back to PENDING on a
// failed attempt until the retry budget is spent (FAILED).
type OutboxRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *OutboxRepository) rows(ctx context.Context) *gorm.DB {
	return persistence.DB(ctx, r.db).Model(&po.OutboxEventPO{})
}

// SaveEvent joins the unit of work bound to ctx, or writes on its own.
func (r *OutboxRepository) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	if err := shared.ValidateEvent(event); err != nil {
		return fmt.Errorf("invalid domain event: %w", err)
	}
	row, err := po.FromDomainEvent(event, r.now())
	if err != nil {
		return fmt.Errorf("encode domain event: %w", err)
	}
	if err := persistence.DB(ctx, r.db).Create(row).Error; err != nil {
		return fmt.Errorf("insert outbox row: %w", err)
	}
	return nil
}

// GetPendingEvents returns the oldest PENDING events, in commit order.
func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*po.OutboxEventPO, error) {
	var batch []*po.OutboxEventPO
	err := r.rows(ctx).
		Where("status = ?", string(po.EventStatusPending)).
		Order("created_at ASC").
		Order("occurred_at ASC").
		Limit(limit).
		Find(&batch).Error
	if err != nil {
		return nil, fmt.Errorf("load pending outbox events: %w", err)
	}
	return batch, nil
}

// move applies fields to the row only if scope still matches it.
func (r *OutboxRepository) move(ctx context.Context, scope func(*gorm.DB) *gorm.DB, eventID string, fields map[string]any) error {
	fields["updated_at"] = r.now()
	res := scope(r.rows(ctx).Where("id = ?", eventID)).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", errOutboxClaimLost, eventID)
	}
	return nil
}

func inStatus(s po.EventStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Where("status = ?", string(s)) }
}

func anyStatus(db *gorm.DB) *gorm.DB { return db }

// MarkEventProcessing claims a PENDING event. It fails when another worker
// claimed it first.
func (r *OutboxRepository) MarkEventProcessing(ctx context.Context, eventID string) error {
	return r.move(ctx, inStatus(po.EventStatusPending), eventID, map[string]any{
		"status": string(po.EventStatusProcessing),
	})
}

func (r *OutboxRepository) MarkEventPublished(ctx context.Context, eventID string) error {
	return r.move(ctx, anyStatus, eventID, map[string]any{
		"status":       string(po.EventStatusPublished),
		"published_at": r.now(),
		"last_error":   nil,
	})
}

// MarkEventFailed records a failed attempt. The event goes back to PENDING
// until maxRetries attempts have failed, then stays FAILED. The update is
// conditioned on the retry count read, so concurrent failures cannot both
// count as one attempt.
func (r *OutboxRepository) MarkEventFailed(ctx context.Context, eventID string, maxRetries int, cause error) error {
	var row po.OutboxEventPO
	if err := persistence.DB(ctx, r.db).First(&row, "id = ?", eventID).Error; err != nil {
		return fmt.Errorf("load outbox event %s: %w", eventID, err)
	}

	attempts := row.RetryCount + 1
	status := po.EventStatusPending
	if attempts >= maxRetries {
		status = po.EventStatusFailed
	}
	sameCount := func(db *gorm.DB) *gorm.DB { return db.Where("retry_count = ?", row.RetryCount) }
	return r.move(ctx, sameCount, eventID, map[string]any{
		"status":      string(status),
		"retry_count": attempts,
		"last_error":  lastError(cause),
	})
}

func lastError(cause error) *string {
	if cause == nil {
		return nil
	}
	msg := cause.Error()
	if len(msg) > maxLastErrorLen {
		msg = msg[:maxLastErrorLen]
	}
	return &msg
}

// RequeueStuck returns PROCESSING events untouched since before cutoff to
// PENDING. A worker that died mid-publish leaves such rows behind.
func (r *OutboxRepository) RequeueStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.rows(ctx).
		Where("status = ? AND updated_at < ?", string(po.EventStatusProcessing), cutoff.UTC()).
		Updates(map[string]any{
			"status":     string(po.EventStatusPending),
			"updated_at": r.now(),
		})
	return res.RowsAffected, res.Error
}

// CountByStatus reports the outbox backlog.
func (r *OutboxRepository) CountByStatus(ctx context.Context, status po.EventStatus) (int64, error) {
	var n int64
	err := r.rows(ctx).Where("status = ?", string(status)).Count(&n).Error
	return n, err
}

var _ shared.OutboxRepository = (*OutboxRepository)(nil)
