package shopping

import (
	"context"
	"time"

	"pantry/domain/shared"
)

type ByUserSpecification struct {
	UserID shared.UserID
}

func (spec ByUserSpecification) IsSatisfiedBy(_ context.Context, s *Session) bool {
	return s.UserID().Equals(spec.UserID)
}

type ByStatusSpecification struct {
	Status Status
}

func (spec ByStatusSpecification) IsSatisfiedBy(_ context.Context, s *Session) bool {
	return s.Status() == spec.Status
}

// StartedBeforeSpecification matches sessions started strictly before Time.
// Combined with ByStatus(ACTIVE) it finds stale sessions.
type StartedBeforeSpecification struct {
	Time time.Time
}

func (spec StartedBeforeSpecification) IsSatisfiedBy(_ context.Context, s *Session) bool {
	return s.StartedAt().Before(spec.Time)
}

func NewByUserSpecification(userID shared.UserID) shared.Specification[*Session] {
	return ByUserSpecification{UserID: userID}
}
func NewByStatusSpecification(status Status) shared.Specification[*Session] {
	return ByStatusSpecification{Status: status}
}
func NewStartedBeforeSpecification(t time.Time) shared.Specification[*Session] {
	return StartedBeforeSpecification{Time: t}
}

// StaleSessions matches ACTIVE sessions started before cutoff.
func StaleSessions(cutoff time.Time) shared.Specification[*Session] {
	return shared.Spec(NewByStatusSpecification(StatusActive)).And(NewStartedBeforeSpecification(cutoff)).Unwrap()
}
