/*
Package shopping orchestrates shopping sessions: starting one, checking
ingredients while in the store and ending it.

Starting a session takes a per-user lock around the "one ACTIVE session per
user" check so two devices cannot both start one.
*/
package shopping

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"pantry/domain/ingredient"
	"pantry/domain/shared"
	domain "pantry/domain/shopping"
	"pantry/pkg/logger"
)

const (
	startLockTTL        = 10 * time.Second
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	// ReasonTimeout is recorded on sessions abandoned by the sweeper.
	ReasonTimeout = "timeout"
)

// ApplicationService ShoppingSession application service
type ApplicationService struct {
	repo        domain.Repository
	ingredients ingredient.Repository
	factory     *domain.Factory
	uowFactory  shared.UnitOfWorkFactory
	locker      shared.Locker
	clock       shared.Clock
}

// NewApplicationService wires the service. locker may be nil, in which case
// concurrent starts for one user are only guarded by the active-session check.
func NewApplicationService(
	repo domain.Repository,
	ingredients ingredient.Repository,
	uowFactory shared.UnitOfWorkFactory,
	locker shared.Locker,
	clock shared.Clock,
) *ApplicationService {
	clock = shared.ClockOrSystem(clock)
	return &ApplicationService{
		repo:        repo,
		ingredients: ingredients,
		factory:     domain.NewFactory(repo, clock),
		uowFactory:  uowFactory,
		locker:      locker,
		clock:       clock,
	}
}

// StartSession fails with a duplicate error when the user already has an
// ACTIVE session.
func (s *ApplicationService) StartSession(ctx context.Context, rawUserID string, req StartSessionRequest) (*SessionResponse, error) {
	userID, err := shared.NewUserID(rawUserID)
	if err != nil {
		return nil, err
	}
	params, err := toCreateParams(userID, req)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "shopping:start:"+userID.Value(), startLockTTL)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	var started *domain.Session
	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		session, err := s.factory.Create(ctx, params)
		if err != nil {
			return err
		}
		if err := s.repo.Save(ctx, session); err != nil {
			return err
		}
		uow.RegisterNew(session)
		started = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("shopping session started",
		zap.String("session_id", started.ID().Value()),
		zap.String("user_id", userID.Value()),
	)
	return toResponse(started), nil
}

// CheckIngredient snapshots one of the user's live ingredients into the session.
func (s *ApplicationService) CheckIngredient(ctx context.Context, rawUserID, rawSessionID string, req CheckIngredientRequest) (*SessionResponse, error) {
	ingredientID, err := ingredient.NewID(req.IngredientID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, rawUserID, rawSessionID, func(ctx context.Context, userID shared.UserID, session *domain.Session) error {
		i, err := s.ingredients.FindByID(ctx, ingredientID)
		if err != nil {
			return err
		}
		if !i.IsOwnedBy(userID) || i.IsDeleted() {
			return ingredient.NewNotFoundError(ingredientID.Value())
		}
		return session.CheckIngredient(i)
	})
}

func (s *ApplicationService) CompleteSession(ctx context.Context, rawUserID, rawSessionID string) (*SessionResponse, error) {
	resp, err := s.mutate(ctx, rawUserID, rawSessionID, func(_ context.Context, _ shared.UserID, session *domain.Session) error {
		return session.Complete()
	})
	if err != nil {
		return nil, err
	}
	logger.Info("shopping session completed",
		zap.String("session_id", resp.ID),
		zap.Int("checked_items", len(resp.CheckedItems)),
		zap.Int64("duration_ms", resp.DurationMs),
	)
	return resp, nil
}

func (s *ApplicationService) AbandonSession(ctx context.Context, rawUserID, rawSessionID string, req AbandonSessionRequest) (*SessionResponse, error) {
	return s.mutate(ctx, rawUserID, rawSessionID, func(_ context.Context, _ shared.UserID, session *domain.Session) error {
		return session.Abandon(req.Reason)
	})
}

func (s *ApplicationService) mutate(
	ctx context.Context,
	rawUserID, rawSessionID string,
	fn func(ctx context.Context, userID shared.UserID, session *domain.Session) error,
) (*SessionResponse, error) {
	userID, id, err := parseRef(rawUserID, rawSessionID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Session
	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		session, err := s.loadOwned(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, userID, session); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, session); err != nil {
			return err
		}
		uow.RegisterDirty(session)
		updated = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toResponse(updated), nil
}

// ============================================================================
// Queries
// ============================================================================

// GetActiveSession returns NotFound when the user has no ACTIVE session.
func (s *ApplicationService) GetActiveSession(ctx context.Context, rawUserID string) (*SessionResponse, error) {
	userID, err := shared.NewUserID(rawUserID)
	if err != nil {
		return nil, err
	}
	session, err := s.repo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.NewNotFoundError("active")
	}
	return toResponse(session), nil
}

func (s *ApplicationService) GetSession(ctx context.Context, rawUserID, rawSessionID string) (*SessionResponse, error) {
	userID, id, err := parseRef(rawUserID, rawSessionID)
	if err != nil {
		return nil, err
	}
	session, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return toResponse(session), nil
}

// History returns the user's latest sessions, newest first. limit is clamped
// to 1..100; zero means 20.
func (s *ApplicationService) History(ctx context.Context, rawUserID string, limit int) ([]*SessionResponse, error) {
	userID, err := shared.NewUserID(rawUserID)
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	sessions, err := s.repo.FindRecentByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return toResponses(sessions), nil
}

// ============================================================================
// Maintenance
// ============================================================================

// AbandonStaleSessions abandons every ACTIVE session started more than maxAge
// ago with reason "timeout". Each session is reloaded and saved in its own
// unit of work, so one the user finished in the meantime is left alone. It
// returns how many were abandoned.
func (s *ApplicationService) AbandonStaleSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := s.clock.Now().Add(-maxAge)
	stale, err := s.repo.FindBySpecification(ctx, domain.StaleSessions(cutoff))
	if err != nil {
		return 0, err
	}

	abandoned := 0
	for _, candidate := range stale {
		if err := ctx.Err(); err != nil {
			return abandoned, err
		}
		id := candidate.ID()
		changed := false
		uow := s.uowFactory.New()
		err := uow.Execute(ctx, func(ctx context.Context) error {
			changed = false
			session, err := s.repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if !session.IsActive() || !session.StartedAt().Before(cutoff) {
				return nil
			}
			session.WithClock(s.clock)
			if err := session.Abandon(ReasonTimeout); err != nil {
				return err
			}
			if err := s.repo.Update(ctx, session); err != nil {
				return err
			}
			uow.RegisterDirty(session)
			changed = true
			return nil
		})
		switch {
		case err == nil:
			if changed {
				abandoned++
			}
		case errors.Is(err, shared.ErrConcurrentModification):
			logger.Warn("stale session changed concurrently, skipped",
				zap.String("session_id", id.Value()))
		default:
			return abandoned, err
		}
	}

	if abandoned > 0 {
		logger.Info("stale shopping sessions abandoned",
			zap.Int("count", abandoned),
			zap.Time("cutoff", cutoff),
		)
	}
	return abandoned, nil
}

// ============================================================================
// Helpers
// ============================================================================

func parseRef(rawUserID, rawSessionID string) (shared.UserID, domain.SessionID, error) {
	userID, err := shared.NewUserID(rawUserID)
	if err != nil {
		return shared.UserID{}, domain.SessionID{}, err
	}
	id, err := domain.NewSessionID(rawSessionID)
	if err != nil {
		return shared.UserID{}, domain.SessionID{}, err
	}
	return userID, id, nil
}

// loadOwned hides other users' sessions behind NotFound.
func (s *ApplicationService) loadOwned(ctx context.Context, userID shared.UserID, id domain.SessionID) (*domain.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.IsOwnedBy(userID) {
		return nil, domain.NewNotFoundError(id.Value())
	}
	return session.WithClock(s.clock), nil
}
