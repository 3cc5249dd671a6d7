package gormdb

import (
	"gorm.io/gorm"

	"pantry/domain/shared"
	"pantry/infrastructure/persistence/retry"
	"pantry/pkg/metrics"
)

type UnitOfWorkFactory struct {
	db          *gorm.DB
	retryConfig retry.Config
	publisher   shared.EventPublisher
	recorder    metrics.Recorder
}

type FactoryOption func(*UnitOfWorkFactory)

// WithEventPublisher dispatches committed events in process.
func WithEventPublisher(p shared.EventPublisher) FactoryOption {
	return func(f *UnitOfWorkFactory) { f.publisher = p }
}

func WithRecorder(r metrics.Recorder) FactoryOption {
	return func(f *UnitOfWorkFactory) { f.recorder = r }
}

func NewUnitOfWorkFactory(db *gorm.DB, retryConfig retry.Config, opts ...FactoryOption) *UnitOfWorkFactory {
	f := &UnitOfWorkFactory{
		db:          db,
		retryConfig: retryConfig,
		recorder:    metrics.Nop{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	return &UnitOfWork{
		db:        f.db,
		outbox:    NewOutboxRepository(f.db),
		retry:     f.retryConfig,
		publisher: f.publisher,
		recorder:  f.recorder,
	}
}

var _ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
