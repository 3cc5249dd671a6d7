/*
Package ingredient orchestrates the inventory use cases.

Every command loads the aggregate, calls one or more of its methods and saves
it inside a unit of work. The unit of work moves the recorded events to the
outbox; this package never publishes events itself.
*/
package ingredient

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"pantry/domain/category"
	domain "pantry/domain/ingredient"
	"pantry/domain/shared"
	"pantry/domain/unit"
	"pantry/pkg/logger"
)

const (
	createLockTTL           = 10 * time.Second
	defaultExpiringSoonDays = 3
)

// ApplicationService Ingredient application service
type ApplicationService struct {
	repo       domain.Repository
	categories category.Repository
	units      unit.Repository
	factory    *domain.Factory
	uowFactory shared.UnitOfWorkFactory
	locker     shared.Locker
	clock      shared.Clock
	soonDays   int
}

// NewApplicationService wires the service. locker may be nil, in which case
// concurrent creates for one user are only guarded by storage constraints.
func NewApplicationService(
	repo domain.Repository,
	categories category.Repository,
	units unit.Repository,
	uowFactory shared.UnitOfWorkFactory,
	locker shared.Locker,
	clock shared.Clock,
) *ApplicationService {
	clock = shared.ClockOrSystem(clock)
	return &ApplicationService{
		repo:       repo,
		categories: categories,
		units:      units,
		factory:    domain.NewFactory(repo, clock),
		uowFactory: uowFactory,
		locker:     locker,
		clock:      clock,
		soonDays:   defaultExpiringSoonDays,
	}
}

// SetExpiringSoonDays sets the window behind is_expiring_soon. Negative
// values are ignored.
func (s *ApplicationService) SetExpiringSoonDays(days int) {
	if days >= 0 {
		s.soonDays = days
	}
}

// ============================================================================
// Commands
// ============================================================================

// CreateIngredient validates the request, checks the referenced category and
// unit exist and stores a new ingredient with its ingredient.created event.
func (s *ApplicationService) CreateIngredient(ctx context.Context, rawUserID string, req CreateIngredientRequest) (*IngredientResponse, error) {
	userID, err := shared.NewUserID(rawUserID)
	if err != nil {
		return nil, err
	}
	params, err := s.buildCreateParams(userID, req)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "ingredient:create:"+userID.Value(), createLockTTL)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	var created *domain.Ingredient
	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		if _, err := s.categories.FindByID(ctx, params.CategoryID); err != nil {
			return err
		}
		if _, err := s.units.FindByID(ctx, params.Stock.UnitID()); err != nil {
			return err
		}

		i, err := s.factory.Create(ctx, params)
		if err != nil {
			return err
		}
		if err := i.RecordCreated(); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, i); err != nil {
			return err
		}
		uow.RegisterNew(i)
		created = i
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("ingredient created",
		zap.String("ingredient_id", created.ID().Value()),
		zap.String("user_id", userID.Value()),
	)
	return toResponse(created, s.clock.Now(), s.soonDays), nil
}

func (s *ApplicationService) buildCreateParams(userID shared.UserID, req CreateIngredientRequest) (domain.CreateParams, error) {
	name, err := domain.NewName(req.Name)
	if err != nil {
		return domain.CreateParams{}, err
	}
	categoryID, err := parseCategoryID(req.CategoryID)
	if err != nil {
		return domain.CreateParams{}, err
	}
	stock, err := toStock(req.Quantity, req.UnitID, req.StorageType, req.StorageDetail, req.Threshold)
	if err != nil {
		return domain.CreateParams{}, err
	}
	price, err := toPrice(req.Price)
	if err != nil {
		return domain.CreateParams{}, err
	}
	expiry, err := toExpiryInfo(req.BestBefore, req.UseBy)
	if err != nil {
		return domain.CreateParams{}, err
	}
	memo, err := toMemo(req.Memo)
	if err != nil {
		return domain.CreateParams{}, err
	}
	purchaseDate, err := parseOptionalDate("purchaseDate", req.PurchaseDate)
	if err != nil {
		return domain.CreateParams{}, err
	}

	p := domain.CreateParams{
		UserID:     userID,
		Name:       name,
		CategoryID: categoryID,
		Stock:      stock,
		Price:      price,
		ExpiryInfo: expiry,
		Memo:       memo,
	}
	if purchaseDate != nil {
		p.PurchaseDate = *purchaseDate
	}
	return p, nil
}

// UpdateIngredient applies the set fields in order name, category, memo,
// stock. Each applied field records its own ingredient.updated event.
func (s *ApplicationService) UpdateIngredient(ctx context.Context, rawUserID, rawID string, req UpdateIngredientRequest) (*IngredientResponse, error) {
	return s.mutate(ctx, rawUserID, rawID, func(ctx context.Context, actor shared.UserID, i *domain.Ingredient) error {
		if req.Name != nil {
			name, err := domain.NewName(*req.Name)
			if err != nil {
				return err
			}
			if err := i.Rename(actor, name); err != nil {
				return err
			}
		}
		if req.CategoryID != nil {
			categoryID, err := parseCategoryID(*req.CategoryID)
			if err != nil {
				return err
			}
			if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
				return err
			}
			if err := i.ChangeCategory(actor, categoryID); err != nil {
				return err
			}
		}
		if req.Memo != nil {
			memo, err := toMemo(req.Memo)
			if err != nil {
				return err
			}
			if err := i.UpdateMemo(actor, memo); err != nil {
				return err
			}
		}
		stock, changed, err := mergeStock(i.Stock(), req)
		if err != nil {
			return err
		}
		if changed {
			if req.UnitID != nil {
				if _, err := s.units.FindByID(ctx, stock.UnitID()); err != nil {
					return err
				}
			}
			if err := i.UpdateStock(actor, stock); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ApplicationService) UpdatePrice(ctx context.Context, rawUserID, rawID string, req UpdatePriceRequest) (*IngredientResponse, error) {
	price, err := toPrice(req.Price)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, rawUserID, rawID, func(_ context.Context, actor shared.UserID, i *domain.Ingredient) error {
		return i.UpdatePrice(actor, price)
	})
}

func (s *ApplicationService) UpdateExpiry(ctx context.Context, rawUserID, rawID string, req UpdateExpiryRequest) (*IngredientResponse, error) {
	info, err := toExpiryInfo(req.BestBefore, req.UseBy)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, rawUserID, rawID, func(_ context.Context, actor shared.UserID, i *domain.Ingredient) error {
		return i.UpdateExpiryInfo(actor, info)
	})
}

// ConsumeIngredient lowers the stock quantity by req.Amount.
func (s *ApplicationService) ConsumeIngredient(ctx context.Context, rawUserID, rawID string, req ConsumeRequest) (*IngredientResponse, error) {
	amount, err := domain.NewQuantity(req.Amount)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, rawUserID, rawID, func(_ context.Context, actor shared.UserID, i *domain.Ingredient) error {
		return i.Consume(actor, amount)
	})
}

// DeleteIngredient soft-deletes the ingredient.
func (s *ApplicationService) DeleteIngredient(ctx context.Context, rawUserID, rawID string) error {
	userID, id, err := parseRef(rawUserID, rawID)
	if err != nil {
		return err
	}

	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		i, err := s.loadOwned(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := i.Delete(userID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, i); err != nil {
			return err
		}
		uow.RegisterRemoved(i)
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("ingredient deleted",
		zap.String("ingredient_id", id.Value()),
		zap.String("user_id", userID.Value()),
	)
	return nil
}

// mutate runs fn on the caller's ingredient and saves it with the version check.
func (s *ApplicationService) mutate(
	ctx context.Context,
	rawUserID, rawID string,
	fn func(ctx context.Context, actor shared.UserID, i *domain.Ingredient) error,
) (*IngredientResponse, error) {
	userID, id, err := parseRef(rawUserID, rawID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Ingredient
	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		i, err := s.loadOwned(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, userID, i); err != nil {
			return err
		}
		if !i.HasUncommittedEvents() {
			updated = i
			return nil
		}
		if err := s.repo.Update(ctx, i); err != nil {
			return err
		}
		uow.RegisterDirty(i)
		updated = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toResponse(updated, s.clock.Now(), s.soonDays), nil
}

// ============================================================================
// Queries
// ============================================================================

// GetIngredient returns NotFound for deleted ingredients and for those owned
// by another user.
func (s *ApplicationService) GetIngredient(ctx context.Context, rawUserID, rawID string) (*IngredientResponse, error) {
	userID, id, err := parseRef(rawUserID, rawID)
	if err != nil {
		return nil, err
	}
	i, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if i.IsDeleted() {
		return nil, domain.NewNotFoundError(id.Value())
	}
	return toResponse(i, s.clock.Now(), s.soonDays), nil
}

// ListIngredients returns the caller's live ingredients matching q.
func (s *ApplicationService) ListIngredients(ctx context.Context, rawUserID string, q ListQuery) ([]*IngredientResponse, error) {
	userID, err := shared.NewUserID(rawUserID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	spec := domain.ActiveOfUser(userID)
	if strings.TrimSpace(q.CategoryID) != "" {
		categoryID, err := parseCategoryID(q.CategoryID)
		if err != nil {
			return nil, err
		}
		spec = spec.And(domain.NewByCategorySpecification(categoryID))
	}
	if strings.TrimSpace(q.StorageType) != "" {
		t, err := domain.ParseStorageType(q.StorageType)
		if err != nil {
			return nil, err
		}
		spec = spec.And(domain.NewByStorageTypeSpecification(t))
	}
	if q.Expired {
		spec = spec.And(domain.NewExpiredSpecification(now))
	}
	if q.ExpiringWithinDays != nil {
		if *q.ExpiringWithinDays < 0 {
			return nil, shared.NewInvalidFieldError("expiringWithinDays", "日数は0以上で指定してください")
		}
		spec = spec.And(domain.NewExpiringSoonSpecification(now, *q.ExpiringWithinDays))
	}
	if q.LowStock {
		spec = spec.And(domain.NewLowStockSpecification())
	}
	if q.OutOfStock {
		spec = spec.And(domain.NewOutOfStockSpecification())
	}

	items, err := s.repo.FindBySpecification(ctx, spec.Unwrap())
	if err != nil {
		return nil, err
	}
	return toResponses(items, now, s.soonDays), nil
}

// ============================================================================
// Helpers
// ============================================================================

func parseRef(rawUserID, rawID string) (shared.UserID, domain.ID, error) {
	userID, err := shared.NewUserID(rawUserID)
	if err != nil {
		return shared.UserID{}, domain.ID{}, err
	}
	id, err := domain.NewID(rawID)
	if err != nil {
		return shared.UserID{}, domain.ID{}, err
	}
	return userID, id, nil
}

// loadOwned hides other users' ingredients behind NotFound.
func (s *ApplicationService) loadOwned(ctx context.Context, userID shared.UserID, id domain.ID) (*domain.Ingredient, error) {
	i, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !i.IsOwnedBy(userID) {
		return nil, domain.NewNotFoundError(id.Value())
	}
	return i.WithClock(s.clock), nil
}
