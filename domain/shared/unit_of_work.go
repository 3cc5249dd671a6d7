package shared

import (
	"context"
	"time"
)

// UnitOfWork runs fn inside one transaction. Aggregates registered during fn
// have their events pulled and stored in the outbox before commit.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
	RegisterNew(aggregate AggregateRoot)
	RegisterDirty(aggregate AggregateRoot)
	RegisterRemoved(aggregate AggregateRoot)
}

type UnitOfWorkFactory interface {
	New() UnitOfWork
}

type OutboxRepository interface {
	SaveEvent(ctx context.Context, event DomainEvent) error
}

// Locker serializes work on a key (e.g. one user's session start).
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned func
	// releases it.
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
