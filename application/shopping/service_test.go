package shopping

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry/domain/category"
	"pantry/domain/ingredient"
	"pantry/domain/shared"
	domain "pantry/domain/shopping"
	"pantry/domain/unit"
	"pantry/infrastructure/lock"
	"pantry/infrastructure/persistence/mocks"
)

var testNow = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc         *ApplicationService
	repo        *mocks.MockSessionRepository
	ingredients *mocks.MockIngredientRepository
	uow         *mocks.MockUnitOfWorkFactory
	clock       *shared.FixedClock
	user        shared.UserID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := mocks.NewMockSessionRepository()
	ingredients := mocks.NewMockIngredientRepository()
	uow := mocks.NewMockUnitOfWorkFactory()
	clock := shared.NewFixedClock(testNow)
	return &fixture{
		svc:         NewApplicationService(repo, ingredients, uow, lock.NewLocalLocker(), clock),
		repo:        repo,
		ingredients: ingredients,
		uow:         uow,
		clock:       clock,
		user:        shared.GenerateUserID(),
	}
}

// addIngredient stores an ingredient owned by owner, expiring in days.
func (f *fixture) addIngredient(t *testing.T, owner shared.UserID, name string, qty float64, days int) *ingredient.Ingredient {
	t.Helper()
	n, err := ingredient.NewName(name)
	require.NoError(t, err)
	q, err := ingredient.NewQuantity(qty)
	require.NoError(t, err)
	loc, err := ingredient.NewStorageLocation(ingredient.StorageRefrigerated, "")
	require.NoError(t, err)
	stock, err := ingredient.NewStock(q, unit.GenerateID(), loc, nil)
	require.NoError(t, err)
	bestBefore := testNow.AddDate(0, 0, days)
	expiry, err := ingredient.NewExpiryInfo(&bestBefore, nil)
	require.NoError(t, err)

	i, err := ingredient.NewFactory(f.ingredients, f.clock).Create(context.Background(), ingredient.CreateParams{
		UserID:     owner,
		Name:       n,
		CategoryID: category.GenerateID(),
		Stock:      stock,
		ExpiryInfo: expiry,
	})
	require.NoError(t, err)
	f.ingredients.Put(i)
	return i
}

func ptr[T any](v T) *T { return &v }

func TestShoppingFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user.Value()
	milk := f.addIngredient(t, f.user, "牛乳", 0, 1)
	eggs := f.addIngredient(t, f.user, "卵", 6, 10)

	started, err := f.svc.StartSession(ctx, user, StartSessionRequest{
		DeviceType:   ptr("mobile"),
		Latitude:     ptr(35.6812),
		Longitude:    ptr(139.7671),
		LocationName: "駅前スーパー",
	})
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", started.Status)
	require.NotNil(t, started.DeviceType)
	assert.Equal(t, "MOBILE", *started.DeviceType)
	require.NotNil(t, started.Location)
	assert.Equal(t, "駅前スーパー", started.Location.Name)

	active, err := f.svc.GetActiveSession(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, started.ID, active.ID)

	f.clock.Advance(5 * time.Minute)
	resp, err := f.svc.CheckIngredient(ctx, user, started.ID, CheckIngredientRequest{IngredientID: milk.ID().Value()})
	require.NoError(t, err)
	require.Len(t, resp.CheckedItems, 1)
	assert.Equal(t, "牛乳", resp.CheckedItems[0].IngredientName)
	assert.Equal(t, string(domain.StockOutOfStock), resp.CheckedItems[0].StockStatus)
	require.NotNil(t, resp.CheckedItems[0].ExpiryStatus)
	assert.Equal(t, string(domain.ExpiryCritical), *resp.CheckedItems[0].ExpiryStatus)

	_, err = f.svc.CheckIngredient(ctx, user, started.ID, CheckIngredientRequest{IngredientID: eggs.ID().Value()})
	require.NoError(t, err)
	resp, err = f.svc.CheckIngredient(ctx, user, started.ID, CheckIngredientRequest{IngredientID: milk.ID().Value()})
	require.NoError(t, err)
	assert.Len(t, resp.CheckedItems, 2)

	f.clock.Advance(10 * time.Minute)
	done, err := f.svc.CompleteSession(ctx, user, started.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, (15 * time.Minute).Milliseconds(), done.DurationMs)

	_, err = f.svc.GetActiveSession(ctx, user)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.AbandonSession(ctx, user, started.ID, AbandonSessionRequest{})
	assert.ErrorIs(t, err, shared.ErrOperationNotAllowed)

	assert.Equal(t, []string{
		domain.EventStarted,
		domain.EventItemChecked,
		domain.EventItemChecked,
		domain.EventItemChecked,
		domain.EventCompleted,
	}, f.uow.Outbox.EventNames())
}

func TestStartSession_OnlyOneActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user.Value()

	first, err := f.svc.StartSession(ctx, user, StartSessionRequest{})
	require.NoError(t, err)

	_, err = f.svc.StartSession(ctx, user, StartSessionRequest{})
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = f.svc.AbandonSession(ctx, user, first.ID, AbandonSessionRequest{Reason: "忘れ物"})
	require.NoError(t, err)

	_, err = f.svc.StartSession(ctx, user, StartSessionRequest{})
	assert.NoError(t, err)
}

func TestStartSession_Concurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for n := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[n] = f.svc.StartSession(ctx, f.user.Value(), StartSessionRequest{})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrDuplicate)
	}
	assert.Equal(t, 1, succeeded)
}

func TestStartSession_WithoutLocker(t *testing.T) {
	f := newFixture(t)
	f.svc = NewApplicationService(f.repo, f.ingredients, f.uow, nil, f.clock)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, f.user.Value(), StartSessionRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, started.ID)

	_, err = f.svc.StartSession(ctx, f.user.Value(), StartSessionRequest{})
	assert.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestStartSession_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartSession(ctx, f.user.Value(), StartSessionRequest{DeviceType: ptr("WATCH")})
	assert.ErrorIs(t, err, shared.ErrInvalidField)

	_, err = f.svc.StartSession(ctx, f.user.Value(), StartSessionRequest{Latitude: ptr(35.0)})
	assert.ErrorIs(t, err, shared.ErrInvalidField)

	_, err = f.svc.StartSession(ctx, f.user.Value(), StartSessionRequest{Latitude: ptr(91.0), Longitude: ptr(0.0)})
	assert.ErrorIs(t, err, shared.ErrInvalidField)

	assert.Empty(t, f.uow.Outbox.Events())
}

func TestCheckIngredient_Hidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user.Value()
	stranger := shared.GenerateUserID()
	theirs := f.addIngredient(t, stranger, "他人の牛乳", 1, 3)

	session, err := f.svc.StartSession(ctx, user, StartSessionRequest{})
	require.NoError(t, err)

	_, err = f.svc.CheckIngredient(ctx, user, session.ID, CheckIngredientRequest{IngredientID: theirs.ID().Value()})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.GetSession(ctx, stranger.Value(), session.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.CompleteSession(ctx, stranger.Value(), session.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user.Value()

	var ids []string
	for range 3 {
		s, err := f.svc.StartSession(ctx, user, StartSessionRequest{})
		require.NoError(t, err)
		_, err = f.svc.CompleteSession(ctx, user, s.ID)
		require.NoError(t, err)
		ids = append(ids, s.ID)
		f.clock.Advance(time.Hour)
	}

	history, err := f.svc.History(ctx, user, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ids[2], history[0].ID)
	assert.Equal(t, ids[1], history[1].ID)

	history, err = f.svc.History(ctx, user, 0)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestAbandonStaleSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old, err := f.svc.StartSession(ctx, f.user.Value(), StartSessionRequest{})
	require.NoError(t, err)

	f.clock.Advance(3 * time.Hour)
	other := shared.GenerateUserID()
	fresh, err := f.svc.StartSession(ctx, other.Value(), StartSessionRequest{})
	require.NoError(t, err)
	f.uow.Outbox.Reset()

	n, err := f.svc.AbandonStaleSessions(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.GetSession(ctx, f.user.Value(), old.ID)
	require.NoError(t, err)
	assert.Equal(t, "ABANDONED", got.Status)

	got, err = f.svc.GetSession(ctx, other.Value(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", got.Status)

	events := f.uow.Outbox.Events()
	require.Len(t, events, 1)
	abandoned, ok := events[0].(*domain.AbandonedEvent)
	require.True(t, ok)
	assert.Equal(t, ReasonTimeout, abandoned.Reason())

	n, err = f.svc.AbandonStaleSessions(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}
