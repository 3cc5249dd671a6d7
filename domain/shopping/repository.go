package shopping

import (
	"context"

	"pantry/domain/shared"
)

// Repository ShoppingSession repository interface
type Repository interface {
	// FindActiveByUserID returns nil, nil when the user has no ACTIVE session
	FindActiveByUserID(ctx context.Context, userID shared.UserID) (*Session, error)

	// FindByID returns a NotFound error when absent
	FindByID(ctx context.Context, id SessionID) (*Session, error)

	FindBySpecification(ctx context.Context, spec shared.Specification[*Session]) ([]*Session, error)

	// FindRecentByUserID returns up to limit sessions, newest first
	FindRecentByUserID(ctx context.Context, userID shared.UserID, limit int) ([]*Session, error)

	// Save inserts a new session. A second ACTIVE session for the same user
	// fails with the same duplicate error the Factory raises.
	Save(ctx context.Context, session *Session) error

	// Update writes changes guarded by the version (optimistic lock)
	Update(ctx context.Context, session *Session) error
}
