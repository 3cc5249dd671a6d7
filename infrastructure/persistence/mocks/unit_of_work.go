package mocks

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"pantry/domain/shared"
	"pantry/pkg/logger"
)

// MockOutbox collects the events a MockUnitOfWork committed, in order.
type MockOutbox struct {
	events []shared.DomainEvent
	mu     sync.Mutex
}

func NewMockOutbox() *MockOutbox {
	return &MockOutbox{}
}

func (o *MockOutbox) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	if err := shared.ValidateEvent(event); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	return nil
}

// Events returns a copy of everything saved so far.
func (o *MockOutbox) Events() []shared.DomainEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]shared.DomainEvent(nil), o.events...)
}

// EventNames is a test convenience.
func (o *MockOutbox) EventNames() []string {
	events := o.Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.EventName()
	}
	return names
}

func (o *MockOutbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = nil
}

// MockUnitOfWork runs fn without a transaction. On success the events of the
// registered aggregates go to the outbox and then to the publisher, if any;
// on failure they are dropped.
type MockUnitOfWork struct {
	outbox     *MockOutbox
	publisher  shared.EventPublisher
	aggregates []shared.AggregateRoot
}

func NewMockUnitOfWork(outbox *MockOutbox) *MockUnitOfWork {
	return &MockUnitOfWork{outbox: outbox}
}

func (u *MockUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	u.aggregates = nil

	if err := fn(ctx); err != nil {
		for _, agg := range u.aggregates {
			agg.PullEvents()
		}
		return err
	}

	var committed []shared.DomainEvent
	for _, agg := range u.aggregates {
		for _, event := range agg.PullEvents() {
			if err := u.outbox.SaveEvent(ctx, event); err != nil {
				return err
			}
			committed = append(committed, event)
		}
	}

	if u.publisher == nil {
		return nil
	}
	for _, event := range committed {
		if err := u.publisher.Publish(ctx, event); err != nil {
			logger.Warn("In-process event dispatch failed",
				zap.String("event_name", event.EventName()),
				zap.Error(err))
		}
	}
	return nil
}

func (u *MockUnitOfWork) RegisterNew(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

func (u *MockUnitOfWork) RegisterDirty(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

func (u *MockUnitOfWork) RegisterRemoved(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

// MockUnitOfWorkFactory hands out units of work sharing one outbox.
type MockUnitOfWorkFactory struct {
	Outbox    *MockOutbox
	publisher shared.EventPublisher
}

func NewMockUnitOfWorkFactory() *MockUnitOfWorkFactory {
	return &MockUnitOfWorkFactory{Outbox: NewMockOutbox()}
}

// WithPublisher dispatches committed events in process, like the gorm
// factory's WithEventPublisher.
func (f *MockUnitOfWorkFactory) WithPublisher(p shared.EventPublisher) *MockUnitOfWorkFactory {
	f.publisher = p
	return f
}

func (f *MockUnitOfWorkFactory) New() shared.UnitOfWork {
	uow := NewMockUnitOfWork(f.Outbox)
	uow.publisher = f.publisher
	return uow
}

var (
	_ shared.UnitOfWork        = (*MockUnitOfWork)(nil)
	_ shared.UnitOfWorkFactory = (*MockUnitOfWorkFactory)(nil)
	_ shared.OutboxRepository  = (*MockOutbox)(nil)
)
