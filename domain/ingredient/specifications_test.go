package ingredient

import (
	"context"
	"testing"

	"pantry/domain/shared"

	"github.com/stretchr/testify/assert"
)

func TestSpecifications(t *testing.T) {
	ctx := context.Background()
	owner := shared.GenerateUserID()
	clock := shared.NewFixedClock(testNow)

	fresh := newTestIngredient(t, owner, clock)
	yesterday := testNow.AddDate(0, 0, -1)
	expiredInfo, _ := NewExpiryInfo(&yesterday, nil)
	expired := newTestIngredient(t, owner, clock)
	_ = expired.UpdateExpiryInfo(owner, expiredInfo)

	soonDate := testNow.AddDate(0, 0, 2)
	soonInfo, _ := NewExpiryInfo(nil, &soonDate)
	soon := newTestIngredient(t, owner, clock)
	_ = soon.UpdateExpiryInfo(owner, soonInfo)

	other := newTestIngredient(t, shared.GenerateUserID(), clock)
	deleted := newTestIngredient(t, owner, clock)
	_ = deleted.Delete(owner)

	all := []*Ingredient{fresh, expired, soon, other, deleted}

	assert.Equal(t, []*Ingredient{fresh, expired, soon},
		shared.Filter[*Ingredient](ctx, ActiveOfUser(owner), all))
	assert.Equal(t, []*Ingredient{expired},
		shared.Filter(ctx, NewExpiredSpecification(testNow), all))
	assert.Equal(t, []*Ingredient{soon},
		shared.Filter(ctx, NewExpiringSoonSpecification(testNow, 3), all))
	assert.Equal(t, []*Ingredient{fresh, other, deleted},
		shared.Filter[*Ingredient](ctx,
			shared.Spec(NewExpiredSpecification(testNow)).Or(NewExpiringSoonSpecification(testNow, 3)).Not(), all))

	assert.True(t, NewByStorageTypeSpecification(StorageRefrigerated).IsSatisfiedBy(ctx, fresh))
	assert.False(t, NewOutOfStockSpecification().IsSatisfiedBy(ctx, fresh))
	assert.False(t, NewLowStockSpecification().IsSatisfiedBy(ctx, fresh))
	assert.True(t, NewByCategorySpecification(fresh.CategoryID()).IsSatisfiedBy(ctx, fresh))
}
