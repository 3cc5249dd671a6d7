package gormdb

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pantry/domain/shared"
	"pantry/infrastructure/persistence"
	"pantry/infrastructure/persistence/retry"
	"pantry/pkg/logger"
	"pantry/pkg/metrics"
)

// UnitOfWork runs a command in one gorm transaction. Aggregates registered
// during the command have their events written to the outbox before commit.
type UnitOfWork struct {
	db        *gorm.DB
	outbox    *OutboxRepository
	retry     retry.Config
	publisher shared.EventPublisher
	recorder  metrics.Recorder

	tracked []shared.AggregateRoot
}

// Execute runs fn in a transaction, retrying the whole attempt on conflicts
// the retry policy accepts. Committed events are then handed to the
// in-process publisher, if any.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	var committed []shared.DomainEvent

	attempt := func(ctx context.Context) error {
		u.tracked = u.tracked[:0]
		var events []shared.DomainEvent

		err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txCtx := persistence.ContextWithTx(ctx, tx)
			if err := fn(txCtx); err != nil {
				return err
			}
			for _, agg := range u.tracked {
				for _, ev := range agg.PullEvents() {
					if err := u.outbox.SaveEvent(txCtx, ev); err != nil {
						return fmt.Errorf("write outbox: %w", err)
					}
					events = append(events, ev)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		committed = events
		return nil
	}

	if err := retry.Do(ctx, u.retry, attempt); err != nil {
		return err
	}
	u.dispatch(ctx, committed)
	return nil
}

// dispatch never fails the command: the outbox row is the durable record.
func (u *UnitOfWork) dispatch(ctx context.Context, events []shared.DomainEvent) {
	for _, ev := range events {
		u.recorder.RecordEventCommitted(ev.EventName())
		if u.publisher == nil {
			continue
		}
		if err := u.publisher.Publish(ctx, ev); err != nil {
			logger.FromContext(ctx).Error("In-process event dispatch failed",
				zap.String("event_name", ev.EventName()),
				zap.String("event_id", ev.EventID().Value()),
				zap.String("aggregate_id", ev.GetAggregateID()),
				zap.Error(err),
			)
		}
	}
}

func (u *UnitOfWork) track(agg shared.AggregateRoot) { u.tracked = append(u.tracked, agg) }

func (u *UnitOfWork) RegisterNew(agg shared.AggregateRoot)     { u.track(agg) }
func (u *UnitOfWork) RegisterDirty(agg shared.AggregateRoot)   { u.track(agg) }
func (u *UnitOfWork) RegisterRemoved(agg shared.AggregateRoot) { u.track(agg) }

var _ shared.UnitOfWork = (*UnitOfWork)(nil)
