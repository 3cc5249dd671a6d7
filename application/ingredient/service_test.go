package ingredient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry/domain/category"
	domain "pantry/domain/ingredient"
	"pantry/domain/shared"
	"pantry/domain/unit"
	"pantry/infrastructure/lock"
	"pantry/infrastructure/persistence/mocks"
)

var testNow = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *ApplicationService
	repo     *mocks.MockIngredientRepository
	uow      *mocks.MockUnitOfWorkFactory
	clock    *shared.FixedClock
	user     string
	category string
	unit     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catName, err := category.NewName("野菜")
	require.NoError(t, err)
	cat := category.New(category.Params{ID: category.GenerateID(), Name: catName, DisplayOrder: shared.DefaultDisplayOrder()})

	unitName, err := unit.NewName("個")
	require.NoError(t, err)
	symbol, err := unit.NewSymbol("個")
	require.NoError(t, err)
	u := unit.New(unit.Params{ID: unit.GenerateID(), Name: unitName, Symbol: symbol})

	repo := mocks.NewMockIngredientRepository()
	uow := mocks.NewMockUnitOfWorkFactory()
	clock := shared.NewFixedClock(testNow)
	svc := NewApplicationService(
		repo,
		mocks.NewMockCategoryRepository(cat),
		mocks.NewMockUnitRepository(u),
		uow,
		lock.NewLocalLocker(),
		clock,
	)
	return &fixture{
		svc:      svc,
		repo:     repo,
		uow:      uow,
		clock:    clock,
		user:     shared.GenerateUserID().Value(),
		category: cat.ID().Value(),
		unit:     u.ID().Value(),
	}
}

func (f *fixture) createRequest(name string) CreateIngredientRequest {
	return CreateIngredientRequest{
		Name:          name,
		CategoryID:    f.category,
		Quantity:      3,
		UnitID:        f.unit,
		StorageType:   "REFRIGERATED",
		StorageDetail: "野菜室",
	}
}

func ptr[T any](v T) *T { return &v }

func TestCreateIngredient(t *testing.T) {
	f := newFixture(t)
	req := f.createRequest("トマト")
	req.Price = ptr("198")
	req.BestBefore = ptr("2024-06-15")
	req.Memo = ptr("  サラダ用  ")

	resp, err := f.svc.CreateIngredient(context.Background(), f.user, req)
	require.NoError(t, err)

	assert.Equal(t, "トマト", resp.Name)
	assert.Equal(t, f.user, resp.UserID)
	assert.Equal(t, 3.0, resp.Stock.Quantity)
	assert.Equal(t, "REFRIGERATED", resp.Stock.StorageType)
	require.NotNil(t, resp.Price)
	assert.Equal(t, "198.00", *resp.Price)
	require.NotNil(t, resp.Memo)
	assert.Equal(t, "サラダ用", *resp.Memo)
	require.NotNil(t, resp.Expiry)
	assert.Equal(t, 5, resp.Expiry.DaysUntilExpiry)
	assert.False(t, resp.Expiry.IsExpiringSoon)
	assert.Equal(t, "2024-06-10", resp.PurchaseDate)
	assert.Equal(t, 0, resp.Version)

	assert.Equal(t, []string{domain.EventCreated}, f.uow.Outbox.EventNames())
}

func TestExpiringSoonWindow(t *testing.T) {
	f := newFixture(t)
	f.svc.SetExpiringSoonDays(7)
	req := f.createRequest("豆腐")
	req.UseBy = ptr("2024-06-15")

	resp, err := f.svc.CreateIngredient(context.Background(), f.user, req)
	require.NoError(t, err)
	require.NotNil(t, resp.Expiry)
	assert.True(t, resp.Expiry.IsExpiringSoon)

	f.svc.SetExpiringSoonDays(-1)
	got, err := f.svc.GetIngredient(context.Background(), f.user, resp.ID)
	require.NoError(t, err)
	assert.True(t, got.Expiry.IsExpiringSoon)
}

func TestCreateIngredient_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateIngredient(ctx, f.user, f.createRequest("トマト"))
	require.NoError(t, err)

	_, err = f.svc.CreateIngredient(ctx, f.user, f.createRequest(" トマト "))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrDuplicate)
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
	assert.Len(t, f.uow.Outbox.Events(), 1)

	// another user may own the same ingredient
	_, err = f.svc.CreateIngredient(ctx, shared.GenerateUserID().Value(), f.createRequest("トマト"))
	assert.NoError(t, err)
}

func TestCreateIngredient_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		user   string
		modify func(*CreateIngredientRequest)
		kind   error
	}{
		{"invalid user id", "user-1", func(*CreateIngredientRequest) {}, shared.ErrInvalidField},
		{"blank name", "", func(r *CreateIngredientRequest) { r.Name = "  " }, shared.ErrRequiredField},
		{"negative quantity", "", func(r *CreateIngredientRequest) { r.Quantity = -1 }, shared.ErrInvalidField},
		{"unknown storage type", "", func(r *CreateIngredientRequest) { r.StorageType = "CELLAR" }, shared.ErrInvalidField},
		{"bad date", "", func(r *CreateIngredientRequest) { r.BestBefore = ptr("15/06/2024") }, shared.ErrInvalidField},
		{"use by after best before", "", func(r *CreateIngredientRequest) {
			r.BestBefore = ptr("2024-06-12")
			r.UseBy = ptr("2024-06-13")
		}, shared.ErrInvalidField},
		{"price with three decimals", "", func(r *CreateIngredientRequest) { r.Price = ptr("1.005") }, shared.ErrInvalidField},
		{"unknown category", "", func(r *CreateIngredientRequest) { r.CategoryID = category.GenerateID().Value() }, shared.ErrNotFound},
		{"unknown unit", "", func(r *CreateIngredientRequest) { r.UnitID = unit.GenerateID().Value() }, shared.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.user
			if user == "" {
				user = f.user
			}
			req := f.createRequest("卵")
			tt.modify(&req)

			_, err := f.svc.CreateIngredient(ctx, user, req)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
	assert.Empty(t, f.uow.Outbox.Events())
}

func TestConsumeIngredient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateIngredient(ctx, f.user, f.createRequest("牛乳"))
	require.NoError(t, err)

	resp, err := f.svc.ConsumeIngredient(ctx, f.user, created.ID, ConsumeRequest{Amount: 1.5})
	require.NoError(t, err)
	assert.Equal(t, 1.5, resp.Stock.Quantity)
	assert.Equal(t, 1, resp.Version)

	_, err = f.svc.ConsumeIngredient(ctx, f.user, created.ID, ConsumeRequest{Amount: 2})
	assert.ErrorIs(t, err, shared.ErrBusinessRule)

	resp, err = f.svc.ConsumeIngredient(ctx, f.user, created.ID, ConsumeRequest{Amount: 1.5})
	require.NoError(t, err)
	assert.True(t, resp.Stock.IsOutOfStock)

	assert.Equal(t, []string{domain.EventCreated, domain.EventConsumed, domain.EventConsumed}, f.uow.Outbox.EventNames())
}

func TestUpdateIngredient_OneEventPerField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateIngredient(ctx, f.user, f.createRequest("にんじん"))
	require.NoError(t, err)
	f.uow.Outbox.Reset()

	resp, err := f.svc.UpdateIngredient(ctx, f.user, created.ID, UpdateIngredientRequest{
		Name:      ptr("人参"),
		Memo:      ptr("カレー用"),
		Threshold: ptr(1.0),
	})
	require.NoError(t, err)

	assert.Equal(t, "人参", resp.Name)
	require.NotNil(t, resp.Stock.Threshold)
	assert.Equal(t, 1.0, *resp.Stock.Threshold)
	assert.Equal(t, 1, resp.Version)
	assert.Equal(t, []string{domain.EventUpdated, domain.EventUpdated, domain.EventUpdated}, f.uow.Outbox.EventNames())

	// nothing to change: no write, no event
	resp, err = f.svc.UpdateIngredient(ctx, f.user, created.ID, UpdateIngredientRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Version)
	assert.Len(t, f.uow.Outbox.Events(), 3)
}

func TestUpdateIngredient_ClearThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateIngredient(ctx, f.user, f.createRequest("ピーマン"))
	require.NoError(t, err)

	resp, err := f.svc.UpdateIngredient(ctx, f.user, created.ID, UpdateIngredientRequest{Threshold: ptr(2.0)})
	require.NoError(t, err)
	require.NotNil(t, resp.Stock.Threshold)

	_, err = f.svc.UpdateIngredient(ctx, f.user, created.ID, UpdateIngredientRequest{Threshold: ptr(1.0), ClearThreshold: true})
	assert.ErrorIs(t, err, shared.ErrInvalidField)

	resp, err = f.svc.UpdateIngredient(ctx, f.user, created.ID, UpdateIngredientRequest{ClearThreshold: true})
	require.NoError(t, err)
	assert.Nil(t, resp.Stock.Threshold)
	assert.Equal(t, created.Stock.Quantity, resp.Stock.Quantity)
}

func TestUpdatePriceAndExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateIngredient(ctx, f.user, f.createRequest("豆腐"))
	require.NoError(t, err)

	resp, err := f.svc.UpdatePrice(ctx, f.user, created.ID, UpdatePriceRequest{Price: ptr("88.5")})
	require.NoError(t, err)
	assert.Equal(t, "88.50", *resp.Price)

	resp, err = f.svc.UpdatePrice(ctx, f.user, created.ID, UpdatePriceRequest{})
	require.NoError(t, err)
	assert.Nil(t, resp.Price)

	resp, err = f.svc.UpdateExpiry(ctx, f.user, created.ID, UpdateExpiryRequest{UseBy: ptr("2024-06-09")})
	require.NoError(t, err)
	require.NotNil(t, resp.Expiry)
	assert.True(t, resp.Expiry.IsExpired)
	assert.Equal(t, -1, resp.Expiry.DaysUntilExpiry)
	assert.Equal(t, 3, resp.Version)
}

func TestOtherUsersIngredientIsHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateIngredient(ctx, f.user, f.createRequest("鶏むね肉"))
	require.NoError(t, err)
	stranger := shared.GenerateUserID().Value()

	_, err = f.svc.GetIngredient(ctx, stranger, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.ConsumeIngredient(ctx, stranger, created.ID, ConsumeRequest{Amount: 1})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = f.svc.DeleteIngredient(ctx, stranger, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteIngredient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.CreateIngredient(ctx, f.user, f.createRequest("ヨーグルト"))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteIngredient(ctx, f.user, created.ID))

	_, err = f.svc.GetIngredient(ctx, f.user, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = f.svc.DeleteIngredient(ctx, f.user, created.ID)
	assert.ErrorIs(t, err, shared.ErrOperationNotAllowed)

	_, err = f.svc.ConsumeIngredient(ctx, f.user, created.ID, ConsumeRequest{Amount: 1})
	assert.ErrorIs(t, err, shared.ErrOperationNotAllowed)

	list, err := f.svc.ListIngredients(ctx, f.user, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// the name is free again once the old one is deleted
	_, err = f.svc.CreateIngredient(ctx, f.user, f.createRequest("ヨーグルト"))
	assert.NoError(t, err)

	assert.Equal(t, []string{domain.EventCreated, domain.EventDeleted, domain.EventCreated}, f.uow.Outbox.EventNames())
}

func TestListIngredients_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expired := f.createRequest("古いパン")
	expired.StorageType = "ROOM_TEMPERATURE"
	expired.BestBefore = ptr("2024-06-08")

	soon := f.createRequest("納豆")
	soon.UseBy = ptr("2024-06-12")

	low := f.createRequest("バター")
	low.Quantity = 1
	low.Threshold = ptr(2.0)

	empty := f.createRequest("ケチャップ")
	empty.Quantity = 0
	empty.StorageType = "ROOM_TEMPERATURE"

	for _, req := range []CreateIngredientRequest{expired, soon, low, empty} {
		_, err := f.svc.CreateIngredient(ctx, f.user, req)
		require.NoError(t, err)
	}
	_, err := f.svc.CreateIngredient(ctx, shared.GenerateUserID().Value(), f.createRequest("他人の食材"))
	require.NoError(t, err)

	names := func(q ListQuery) []string {
		t.Helper()
		list, err := f.svc.ListIngredients(ctx, f.user, q)
		require.NoError(t, err)
		out := make([]string, len(list))
		for i, r := range list {
			out[i] = r.Name
		}
		return out
	}

	assert.ElementsMatch(t, []string{"古いパン", "納豆", "バター", "ケチャップ"}, names(ListQuery{}))
	assert.Equal(t, []string{"古いパン"}, names(ListQuery{Expired: true}))
	assert.Equal(t, []string{"納豆"}, names(ListQuery{ExpiringWithinDays: ptr(3)}))
	assert.Equal(t, []string{"バター"}, names(ListQuery{LowStock: true}))
	assert.Equal(t, []string{"ケチャップ"}, names(ListQuery{OutOfStock: true}))
	assert.ElementsMatch(t, []string{"古いパン", "ケチャップ"}, names(ListQuery{StorageType: "room_temperature"}))
	assert.Len(t, names(ListQuery{CategoryID: f.category}), 4)

	_, err = f.svc.ListIngredients(ctx, f.user, ListQuery{ExpiringWithinDays: ptr(-1)})
	assert.ErrorIs(t, err, shared.ErrInvalidField)
}
