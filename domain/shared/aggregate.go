package shared

// AggregateRoot is the entry point of a consistency boundary.
// Repositories persist it; the unit of work pulls its events at commit time.
type AggregateRoot interface {
	// AggregateID returns the string form of the aggregate identifier
	AggregateID() string

	// Version is used for optimistic locking
	Version() int

	// PullEvents returns the uncommitted events and clears the buffer
	PullEvents() []DomainEvent
}

// AggregateBase buffers the events an aggregate raised since it was loaded or
// last committed. Embed it in aggregate structs.
type AggregateBase struct {
	events []DomainEvent
}

// RecordEvent appends e to the uncommitted buffer.
func (a *AggregateBase) RecordEvent(e DomainEvent) {
	a.events = append(a.events, e)
}

// UncommittedEvents returns a copy of the buffer in append order.
func (a *AggregateBase) UncommittedEvents() []DomainEvent {
	out := make([]DomainEvent, len(a.events))
	copy(out, a.events)
	return out
}

// HasUncommittedEvents reports whether any event is waiting to be committed.
func (a *AggregateBase) HasUncommittedEvents() bool {
	return len(a.events) > 0
}

// MarkEventsAsCommitted empties the buffer after the events were handed off.
func (a *AggregateBase) MarkEventsAsCommitted() {
	a.events = nil
}

// ClearEvents empties the buffer without handing anything off.
func (a *AggregateBase) ClearEvents() {
	a.events = nil
}

// PullEvents returns the buffered events and clears the buffer.
func (a *AggregateBase) PullEvents() []DomainEvent {
	events := a.UncommittedEvents()
	a.MarkEventsAsCommitted()
	return events
}
