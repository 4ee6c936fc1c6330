package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cardledger/ledger"
	"github.com/warp/cardledger/ledger/store"
)

func TestMemory_RollbackOnError(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")

	// WHEN: a unit of work writes and then fails
	err := mem.WithTx(ctx, func(s ledger.Store) error {
		if err := s.CreateRetailer(ctx, &ledger.Retailer{Code: "BBY", Name: "Best Buy"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// THEN: nothing was kept
	require.NoError(t, mem.WithTx(ctx, func(s ledger.Store) error {
		list, err := s.ListRetailers(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
		return nil
	}))
}

func TestMemory_RollbackOnPanic(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	// WHEN: a unit of work writes and then panics
	assert.PanicsWithValue(t, "boom", func() {
		_ = mem.WithTx(ctx, func(s ledger.Store) error {
			if err := s.CreateRetailer(ctx, &ledger.Retailer{Code: "BBY", Name: "Best Buy"}); err != nil {
				return err
			}
			panic("boom")
		})
	})

	// THEN: the write was discarded and the store is still usable
	require.NoError(t, mem.WithTx(ctx, func(s ledger.Store) error {
		list, err := s.ListRetailers(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
		return nil
	}))
}

func TestMemory_CancelledContext(t *testing.T) {
	mem := store.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := mem.WithTx(ctx, func(ledger.Store) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestMemory_RowsAreCopies(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.WithTx(ctx, func(s ledger.Store) error {
		a := &ledger.Account{Name: "Checking", Type: ledger.AccountBank, Balance: ledger.MoneyFromInt(10)}
		require.NoError(t, s.CreateAccount(ctx, a))

		// WHEN: a loaded row is edited without an Update
		loaded, err := s.FindAccount(ctx, a.ID)
		require.NoError(t, err)
		loaded.Balance = ledger.MoneyFromInt(999)

		// THEN: the store is unchanged
		again, err := s.FindAccount(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, again.Balance.Equal(ledger.MoneyFromInt(10)))
		return nil
	}))
}

func TestMemory_UniqueKeys(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.WithTx(ctx, func(s ledger.Store) error {
		require.NoError(t, s.CreateRetailer(ctx, &ledger.Retailer{Code: "BBY", Name: "Best Buy"}))

		err := s.CreateRetailer(ctx, &ledger.Retailer{Code: "BBY", Name: "Other"})
		var dup *ledger.DuplicateError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "code", dup.Field)

		err = s.CreateRetailer(ctx, &ledger.Retailer{Code: "BB2", Name: "Best Buy"})
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "name", dup.Field)

		upc := "0001"
		require.NoError(t, s.CreateInventoryItem(ctx, &ledger.InventoryItem{ItemName: "A", UPC: &upc}))
		require.ErrorIs(t, s.CreateInventoryItem(ctx, &ledger.InventoryItem{ItemName: "B", UPC: &upc}), ledger.ErrDuplicateIdentifier)

		// nil sku/upc never collide
		require.NoError(t, s.CreateInventoryItem(ctx, &ledger.InventoryItem{ItemName: "C"}))
		require.NoError(t, s.CreateInventoryItem(ctx, &ledger.InventoryItem{ItemName: "D"}))
		return nil
	}))
}

func TestMemory_Cascades(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.WithTx(ctx, func(s ledger.Store) error {
		r := &ledger.Retailer{Code: "BBY", Name: "Best Buy"}
		require.NoError(t, s.CreateRetailer(ctx, r))
		card := &ledger.GiftCard{RetailerID: r.ID, SKU: "BBY-1", FaceValue: ledger.MoneyFromInt(50), RemainingBalance: ledger.MoneyFromInt(50)}
		require.NoError(t, s.CreateGiftCard(ctx, card))
		order := &ledger.Order{RetailerID: r.ID, OrderNumber: "1", OrderDate: time.Now(),
			Items: []ledger.OrderItem{{ItemName: "Earbuds", Quantity: 1}}}
		require.NoError(t, s.CreateOrder(ctx, order))
		orderID := order.ID
		require.NoError(t, s.CreateUsage(ctx, &ledger.GiftCardUsage{GiftCardID: card.ID, OrderID: &orderID, AmountUsed: ledger.MoneyFromInt(5)}))

		item := &ledger.InventoryItem{ItemName: "Earbuds"}
		require.NoError(t, s.CreateInventoryItem(ctx, item))
		orderItemID := order.Items[0].ID
		mv := &ledger.InventoryMovement{InventoryItemID: item.ID, SourceType: ledger.SourceOrder, OrderItemID: &orderItemID, QuantityChange: 1}
		require.NoError(t, s.AppendMovement(ctx, mv))

		// WHEN: the order is deleted, usages and movements lose the reference
		require.NoError(t, s.DeleteOrder(ctx, order.ID))
		usages, err := s.ListUsagesByGiftCard(ctx, card.ID)
		require.NoError(t, err)
		require.Len(t, usages, 1)
		assert.Nil(t, usages[0].OrderID)
		kept, err := s.FindMovement(ctx, mv.ID)
		require.NoError(t, err)
		assert.Nil(t, kept.OrderItemID)

		// WHEN: the retailer is deleted, its cards and their usages go
		require.NoError(t, s.DeleteRetailer(ctx, r.ID))
		gone, err := s.FindGiftCard(ctx, card.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
		usages, err = s.ListUsagesByGiftCard(ctx, card.ID)
		require.NoError(t, err)
		assert.Empty(t, usages)
		return nil
	}))
}

func TestMemory_RetailerWithOrdersIsReferenced(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	err := mem.WithTx(ctx, func(s ledger.Store) error {
		r := &ledger.Retailer{Code: "BBY", Name: "Best Buy"}
		require.NoError(t, s.CreateRetailer(ctx, r))
		require.NoError(t, s.CreateOrder(ctx, &ledger.Order{RetailerID: r.ID, OrderNumber: "1"}))
		return s.DeleteRetailer(ctx, r.ID)
	})
	require.ErrorIs(t, err, ledger.ErrReferenced)
}

func TestMemory_MaxGiftCardSKU(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.WithTx(ctx, func(s ledger.Store) error {
		r := &ledger.Retailer{Code: "BBY", Name: "Best Buy"}
		require.NoError(t, s.CreateRetailer(ctx, r))
		for _, sku := range []string{"BBY-20250315-0002", "BBY-20250315-0010", "BBY-20250314-0099"} {
			require.NoError(t, s.CreateGiftCard(ctx, &ledger.GiftCard{RetailerID: r.ID, SKU: sku}))
		}

		got, err := s.MaxGiftCardSKU(ctx, r.ID, "BBY-20250315-")
		require.NoError(t, err)
		assert.Equal(t, "BBY-20250315-0010", got)

		got, err = s.MaxGiftCardSKU(ctx, r.ID, "BBY-20250316-")
		require.NoError(t, err)
		assert.Empty(t, got)
		return nil
	}))
}

func TestMemory_ResetAndRuns(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.SaveReconciliationRun(ctx, ledger.ReconciliationRun{ID: "a"}))
	require.NoError(t, mem.SaveReconciliationRun(ctx, ledger.ReconciliationRun{ID: "b"}))
	runs, err := mem.ListReconciliationRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID)

	require.NoError(t, mem.Reset(ctx))
	runs, err = mem.ListReconciliationRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
