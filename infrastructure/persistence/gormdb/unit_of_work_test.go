package gormdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	ingredientapp "pantry/application/ingredient"
	shoppingapp "pantry/application/shopping"
	"pantry/domain/ingredient"
	"pantry/domain/shared"
	"pantry/domain/shopping"
	"pantry/infrastructure/lock"
	"pantry/infrastructure/persistence/gormdb/po"
	"pantry/infrastructure/persistence/retry"
)

type stack struct {
	gdb         *gorm.DB
	uow         *UnitOfWorkFactory
	ingredients *ingredientapp.ApplicationService
	shopping    *shoppingapp.ApplicationService
	bus         *shared.EventBus
	clock       *shared.FixedClock
	received    *[]string
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := newTestDB(t)
	clock := shared.NewFixedClock(testNow)
	bus := shared.NewEventBus()

	var mu sync.Mutex
	received := []string{}
	record := shared.NewFuncHandler("recorder", func(_ context.Context, e shared.DomainEvent) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e.EventName())
		return nil
	})
	for _, name := range []string{ingredient.EventCreated, ingredient.EventConsumed, shopping.EventStarted, shopping.EventItemChecked} {
		require.NoError(t, bus.Subscribe(name, record))
	}

	cfg := retry.DefaultConfig
	cfg.InitialDelay = time.Millisecond
	uow := NewUnitOfWorkFactory(db, cfg, WithEventPublisher(bus))
	ingredients := NewIngredientRepository(db)
	locker := lock.NewLocalLocker()
	ingredientSvc := ingredientapp.NewApplicationService(
		ingredients, NewCategoryRepository(db), NewUnitRepository(db), uow, locker, clock)
	shoppingSvc := shoppingapp.NewApplicationService(
		NewSessionRepository(db), ingredients, uow, locker, clock)

	return &stack{
		gdb:         db,
		uow:         uow,
		ingredients: ingredientSvc,
		shopping:    shoppingSvc,
		bus:         bus,
		clock:       clock,
		received:    &received,
	}
}

func (s *stack) outboxTypes(t *testing.T) []string {
	t.Helper()
	var rows []po.OutboxEventPO
	require.NoError(t, s.gdb.Order("created_at ASC").Order("occurred_at ASC").Find(&rows).Error)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.EventType)
	}
	return out
}

func milkRequest() ingredientapp.CreateIngredientRequest {
	price := "198"
	useBy := "2024-06-12"
	return ingredientapp.CreateIngredientRequest{
		Name:        "牛乳",
		CategoryID:  seedCategoryID,
		Quantity:    2,
		UnitID:      seedUnitID,
		StorageType: "REFRIGERATED",
		Price:       &price,
		UseBy:       &useBy,
	}
}

func TestUnitOfWork_CommandWritesOutboxAndDispatches(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	user := shared.GenerateUserID().Value()

	created, err := s.ingredients.CreateIngredient(ctx, user, milkRequest())
	require.NoError(t, err)
	require.NotNil(t, created.Price)
	assert.Equal(t, "198.00", *created.Price)

	_, err = s.ingredients.ConsumeIngredient(ctx, user, created.ID, ingredientapp.ConsumeRequest{Amount: 0.5})
	require.NoError(t, err)

	assert.Equal(t, []string{ingredient.EventCreated, ingredient.EventConsumed}, s.outboxTypes(t))
	assert.Equal(t, []string{ingredient.EventCreated, ingredient.EventConsumed}, *s.received)

	got, err := s.ingredients.GetIngredient(ctx, user, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.Stock.Quantity)
	assert.Equal(t, 1, got.Version)
}

func TestUnitOfWork_FailedCommandLeavesNoTrace(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	user := shared.GenerateUserID().Value()

	created, err := s.ingredients.CreateIngredient(ctx, user, milkRequest())
	require.NoError(t, err)

	_, err = s.ingredients.ConsumeIngredient(ctx, user, created.ID, ingredientapp.ConsumeRequest{Amount: 5})
	assert.ErrorIs(t, err, shared.ErrBusinessRule)

	_, err = s.ingredients.CreateIngredient(ctx, user, milkRequest())
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	assert.Equal(t, []string{ingredient.EventCreated}, s.outboxTypes(t))
	got, err := s.ingredients.GetIngredient(ctx, user, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Stock.Quantity)
}

func TestUnitOfWork_RetriesWholeAttempt(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	repo := NewIngredientRepository(s.gdb)
	user := shared.GenerateUserID()

	attempts := 0
	uow := s.uow.New()
	err := uow.Execute(ctx, func(ctx context.Context) error {
		attempts++
		i := buildIngredient(t, s.clock, user, ingredientSpec{name: "キャベツ", qty: 1})
		require.NoError(t, i.RecordCreated())
		if err := repo.Save(ctx, i); err != nil {
			return err
		}
		uow.RegisterNew(i)
		if attempts == 1 {
			return ingredient.NewConcurrentModificationError(i.AggregateID())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	// the first attempt was rolled back with its row and its event
	all, err := repo.FindBySpecification(ctx, ingredient.ActiveOfUser(user))
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, []string{ingredient.EventCreated}, s.outboxTypes(t))
}

func TestUnitOfWork_ShoppingFlow(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	user := shared.GenerateUserID().Value()

	milk, err := s.ingredients.CreateIngredient(ctx, user, milkRequest())
	require.NoError(t, err)

	session, err := s.shopping.StartSession(ctx, user, shoppingapp.StartSessionRequest{})
	require.NoError(t, err)
	_, err = s.shopping.StartSession(ctx, user, shoppingapp.StartSessionRequest{})
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	checked, err := s.shopping.CheckIngredient(ctx, user, session.ID, shoppingapp.CheckIngredientRequest{IngredientID: milk.ID})
	require.NoError(t, err)
	require.Len(t, checked.CheckedItems, 1)

	s.clock.Advance(20 * time.Minute)
	done, err := s.shopping.CompleteSession(ctx, user, session.ID)
	require.NoError(t, err)
	assert.Equal(t, string(shopping.StatusCompleted), done.Status)
	assert.Equal(t, (20 * time.Minute).Milliseconds(), done.DurationMs)

	assert.Equal(t, []string{
		ingredient.EventCreated,
		shopping.EventStarted,
		shopping.EventItemChecked,
		shopping.EventCompleted,
	}, s.outboxTypes(t))
}

func TestUnitOfWork_StaleSweep(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	user := shared.GenerateUserID().Value()

	_, err := s.shopping.StartSession(ctx, user, shoppingapp.StartSessionRequest{})
	require.NoError(t, err)

	s.clock.Advance(4 * time.Hour)
	n, err := s.shopping.AbandonStaleSessions(ctx, 3*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.shopping.GetActiveSession(ctx, user)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	n, err = s.shopping.AbandonStaleSessions(ctx, 3*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}
