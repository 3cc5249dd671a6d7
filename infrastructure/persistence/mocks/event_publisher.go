package mocks

import (
	"context"
	"sync"

	"pantry/domain/shared"
)

// MockEventPublisher records published events and can be told to fail.
type MockEventPublisher struct {
	published []shared.DomainEvent
	failWith  error
	mu        sync.Mutex
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (p *MockEventPublisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.published = append(p.published, event)
	return nil
}

// FailWith makes every later Publish return err; nil restores success.
func (p *MockEventPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

func (p *MockEventPublisher) Published() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.DomainEvent(nil), p.published...)
}

var _ shared.EventPublisher = (*MockEventPublisher)(nil)
