package shopping

import (
	"context"

	"pantry/domain/shared"
)

type CreateParams struct {
	UserID     shared.UserID
	DeviceType *DeviceType
	Location   *Location
}

// Factory starts sessions and owns "at most one ACTIVE session per user".
//
// The check is a read followed by a write. It holds under serialized access
// per user; the application layer takes a per-user lock and the storage
// layer keeps a unique column set only while a session is ACTIVE.
type Factory struct {
	repo  Repository
	clock shared.Clock
}

func NewFactory(repo Repository, clock shared.Clock) *Factory {
	return &Factory{repo: repo, clock: shared.ClockOrSystem(clock)}
}

// Create returns a new ACTIVE session holding one shopping_session.started event.
func (f *Factory) Create(ctx context.Context, p CreateParams) (*Session, error) {
	active, err := f.repo.FindActiveByUserID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, NewDuplicateActiveSessionError()
	}
	return start(p.UserID, p.DeviceType, p.Location, f.clock)
}
