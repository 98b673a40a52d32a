package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coursebill/coursebill/internal/domain/order"
	ierr "github.com/coursebill/coursebill/internal/errors"
	"github.com/coursebill/coursebill/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStoreOrder(state types.OrderState) *order.Order {
	return &order.Order{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORDER),
		OrderNumber: "ORD-000001",
		OrderType:   types.OrderTypeSingle,
		State:       state,
		OwnerID:     "user_1",
		CourseID:    "course_1",
		Total:       decimal.NewFromInt(100),
		Currency:    "EUR",
		Schedule: []*order.Installment{
			{
				ID:      types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INSTALLMENT),
				Amount:  decimal.NewFromInt(100),
				DueDate: time.Now().UTC().AddDate(0, 0, -1),
				State:   types.InstallmentStatePending,
			},
		},
	}
}

func TestOrderStoreUpdateVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore()

	o := testStoreOrder(types.OrderStatePending)
	require.NoError(t, store.Create(ctx, o))

	first, err := store.Get(ctx, o.ID)
	require.NoError(t, err)
	second, err := store.Get(ctx, o.ID)
	require.NoError(t, err)

	// the first writer wins
	first.State = types.OrderStatePendingPayment
	require.NoError(t, store.Update(ctx, first))

	// the second writer holds a stale version and must refetch
	second.State = types.OrderStateFailedPayment
	err = store.Update(ctx, second)
	require.Error(t, err)
	assert.True(t, ierr.IsVersionConflict(err))

	stored, err := store.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatePendingPayment, stored.State)
}

func TestOrderStoreCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore()

	o := testStoreOrder(types.OrderStatePending)
	require.NoError(t, store.Create(ctx, o))

	got, err := store.Get(ctx, o.ID)
	require.NoError(t, err)
	got.Schedule[0].State = types.InstallmentStatePaid

	stored, err := store.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, types.InstallmentStatePending, stored.Schedule[0].State)
}

func TestOrderStoreNextOrderNumber(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore()

	const n = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int64]bool)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := store.NextOrderNumber(ctx)
			assert.NoError(t, err)
			mu.Lock()
			seen[num] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	// no two callers share a reference
	assert.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i])
	}
}

func TestOrderStoreListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore()

	pending := testStoreOrder(types.OrderStatePending)
	completed := testStoreOrder(types.OrderStateCompleted)
	completed.Schedule[0].State = types.InstallmentStatePaid
	require.NoError(t, store.Create(ctx, pending))
	require.NoError(t, store.Create(ctx, completed))

	now := time.Now().UTC()
	filter := &types.OrderFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		OrderStates: types.CollectingOrderStates(),
		DueBefore:   &now,
	}

	orders, err := store.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, pending.ID, orders[0].ID)

	count, err := store.Count(ctx, &types.OrderFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		OwnerID:     lo.ToPtr("user_1"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
