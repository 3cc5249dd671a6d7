package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pantry/domain/shared"
	"pantry/domain/shopping"
)

// MockSessionRepository enforces one ACTIVE session per user on Save, like
// the partial unique index in SQL storage.
type MockSessionRepository struct {
	rows map[string]shopping.ReconstructionDTO
	mu   sync.RWMutex
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{rows: make(map[string]shopping.ReconstructionDTO)}
}

func (r *MockSessionRepository) FindActiveByUserID(ctx context.Context, userID shared.UserID) (*shopping.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, dto := range r.rows {
		if dto.Status == shopping.StatusActive && dto.UserID.Equals(userID) {
			return shopping.RebuildFromDTO(dto), nil
		}
	}
	return nil, nil
}

func (r *MockSessionRepository) FindByID(ctx context.Context, id shopping.SessionID) (*shopping.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dto, ok := r.rows[id.Value()]
	if !ok {
		return nil, shopping.NewNotFoundError(id.Value())
	}
	return shopping.RebuildFromDTO(dto), nil
}

func (r *MockSessionRepository) FindBySpecification(ctx context.Context, spec shared.Specification[*shopping.Session]) ([]*shopping.Session, error) {
	return shared.Filter(ctx, spec, r.newestFirst()), nil
}

func (r *MockSessionRepository) FindRecentByUserID(ctx context.Context, userID shared.UserID, limit int) ([]*shopping.Session, error) {
	mine := shared.Filter(ctx, shopping.NewByUserSpecification(userID), r.newestFirst())
	if limit > 0 && len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, nil
}

func (r *MockSessionRepository) Save(ctx context.Context, s *shopping.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rows[s.AggregateID()]; exists {
		return fmt.Errorf("session %s already stored", s.AggregateID())
	}
	if s.IsActive() {
		for _, dto := range r.rows {
			if dto.Status == shopping.StatusActive && dto.UserID.Equals(s.UserID()) {
				return shopping.NewDuplicateActiveSessionError()
			}
		}
	}
	r.rows[s.AggregateID()] = s.Snapshot()
	return nil
}

func (r *MockSessionRepository) Update(ctx context.Context, s *shopping.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.rows[s.AggregateID()]
	if !exists {
		return shopping.NewNotFoundError(s.AggregateID())
	}
	if stored.Version != s.Version() {
		return shopping.NewConcurrentModificationError(s.AggregateID())
	}
	s.IncrementVersionForSave()
	r.rows[s.AggregateID()] = s.Snapshot()
	return nil
}

// Put stores s as is; a test helper that bypasses all checks.
func (r *MockSessionRepository) Put(s *shopping.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[s.AggregateID()] = s.Snapshot()
}

func (r *MockSessionRepository) newestFirst() []*shopping.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*shopping.Session, 0, len(r.rows))
	for _, dto := range r.rows {
		out = append(out, shopping.RebuildFromDTO(dto))
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].StartedAt().After(out[b].StartedAt())
	})
	return out
}

var _ shopping.Repository = (*MockSessionRepository)(nil)
