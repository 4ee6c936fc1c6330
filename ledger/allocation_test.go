package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cardledger/ledger"
)

// =============================================================================
// APPLY / RESTORE
// =============================================================================

func TestAllocation_DrainCardThenRestore(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bby := seedRetailer(t, svc, "BBY", "Best Buy")
	card := seedCard(t, svc, bby, "50.00", "45.00")

	// WHEN: 20.00 then 30.00 are allocated to two orders
	first, err := seedOrder(t, svc, bby, "BBY-1001", "20.00", ledger.Allocation{GiftCardID: card.ID, Amount: money("20.00")})
	require.NoError(t, err)
	assertMoney(t, "20.00", first.GiftCardSpend)

	stored, err := svc.GiftCard(ctx, card.ID)
	require.NoError(t, err)
	assertMoney(t, "30.00", stored.RemainingBalance)
	assert.Equal(t, ledger.GiftCardActive, stored.Status)

	second, err := seedOrder(t, svc, bby, "BBY-1002", "30.00", ledger.Allocation{GiftCardID: card.ID, Amount: money("30.00")})
	require.NoError(t, err)

	// THEN: the card is drained and USED
	stored, err = svc.GiftCard(ctx, card.ID)
	require.NoError(t, err)
	assertMoney(t, "0.00", stored.RemainingBalance)
	assert.Equal(t, ledger.GiftCardUsed, stored.Status)

	usages, err := svc.GiftCardUsages(ctx, card.ID)
	require.NoError(t, err)
	assert.Len(t, usages, 2)

	// WHEN: both orders are deleted
	require.NoError(t, svc.DeleteOrder(ctx, first.ID))
	require.NoError(t, svc.DeleteOrder(ctx, second.ID))

	// THEN: the full balance is back and the card is ACTIVE again
	stored, err = svc.GiftCard(ctx, card.ID)
	require.NoError(t, err)
	assertMoney(t, "50.00", stored.RemainingBalance)
	assert.Equal(t, ledger.GiftCardActive, stored.Status)

	usages, err = svc.GiftCardUsages(ctx, card.ID)
	require.NoError(t, err)
	assert.Empty(t, usages)
}

func TestAllocation_InsufficientBalanceLeavesNothingBehind(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bby := seedRetailer(t, svc, "BBY", "Best Buy")
	card := seedCard(t, svc, bby, "50.00", "45.00")

	// WHEN: 60.00 is asked of a 50.00 card
	_, err := seedOrder(t, svc, bby, "BBY-1003", "60.00", ledger.Allocation{GiftCardID: card.ID, Amount: money("60.00")})

	// THEN: rejected with the card's numbers
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	var balErr *ledger.InsufficientBalanceError
	require.True(t, errors.As(err, &balErr))
	assertMoney(t, "50.00", balErr.Available)
	assertMoney(t, "60.00", balErr.Requested)

	// AND: balance and order list are untouched
	stored, err := svc.GiftCard(ctx, card.ID)
	require.NoError(t, err)
	assertMoney(t, "50.00", stored.RemainingBalance)
	orders, err := svc.ListOrders(ctx, "", nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestAllocation_FailingLineRollsBackEarlierLines(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bby := seedRetailer(t, svc, "BBY", "Best Buy")
	a := seedCard(t, svc, bby, "50.00", "45.00")
	b := seedCard(t, svc, bby, "10.00", "9.00")

	// WHEN: the second line overdraws
	_, err := seedOrder(t, svc, bby, "BBY-2000", "70.00",
		ledger.Allocation{GiftCardID: a.ID, Amount: money("50.00")},
		ledger.Allocation{GiftCardID: b.ID, Amount: money("20.00")},
	)
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	// THEN: the first card keeps its balance
	stored, err := svc.GiftCard(ctx, a.ID)
	require.NoError(t, err)
	assertMoney(t, "50.00", stored.RemainingBalance)
	assert.Equal(t, ledger.GiftCardActive, stored.Status)
}

func TestAllocation_RejectsNonPositiveAmounts(t *testing.T) {
	svc, _ := newTestService(t)
	bby := seedRetailer(t, svc, "BBY", "Best Buy")
	card := seedCard(t, svc, bby, "50.00", "45.00")

	for _, amount := range []string{"0", "-5.00", "0.001"} {
		t.Run(amount, func(t *testing.T) {
			_, err := seedOrder(t, svc, bby, "BBY-"+amount, "5.00", ledger.Allocation{GiftCardID: card.ID, Amount: money(amount)})
			require.ErrorIs(t, err, ledger.ErrInvalidAmount)
		})
	}
}

func TestAllocation_UnknownCard(t *testing.T) {
	svc, _ := newTestService(t)
	bby := seedRetailer(t, svc, "BBY", "Best Buy")

	_, err := seedOrder(t, svc, bby, "BBY-1", "5.00", ledger.Allocation{GiftCardID: 777, Amount: money("5.00")})
	require.True(t, ledger.IsNotFound(err))
}

// =============================================================================
// EDITING
// =============================================================================

func TestAllocation_ReplaceIsRestoreThenApply(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bby := seedRetailer(t, svc, "BBY", "Best Buy")
	a := seedCard(t, svc, bby, "50.00", "45.00")
	b := seedCard(t, svc, bby, "25.00", "23.00")
	order, err := seedOrder(t, svc, bby, "BBY-1", "40.00", ledger.Allocation{GiftCardID: a.ID, Amount: money("40.00")})
	require.NoError(t, err)

	// WHEN: the allocation moves to 50.00 on A, which only works if 40.00
	// comes back first, plus 5.00 on B
	got, err := svc.ReplaceAllocations(ctx, order.ID, []ledger.Allocation{
		{GiftCardID: a.ID, Amount: money("50.00")},
		{GiftCardID: b.ID, Amount: money("5.00")},
	})
	require.NoError(t, err)
	assertMoney(t, "55.00", got.GiftCardSpend)

	storedA, err := svc.GiftCard(ctx, a.ID)
	require.NoError(t, err)
	assertMoney(t, "0.00", storedA.RemainingBalance)
	storedB, err := svc.GiftCard(ctx, b.ID)
	require.NoError(t, err)
	assertMoney(t, "20.00", storedB.RemainingBalance)

	usages, err := svc.OrderUsages(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, usages, 2)
}

func TestAllocation_EditOrderRollsBackOnFailure(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bby := seedRetailer(t, svc, "BBY", "Best Buy")
	card := seedCard(t, svc, bby, "50.00", "45.00")
	order, err := seedOrder(t, svc, bby, "BBY-1", "20.00", ledger.Allocation{GiftCardID: card.ID, Amount: money("20.00")})
	require.NoError(t, err)

	// WHEN: an edit changes the status but asks for too much
	edit := *order
	edit.Status = ledger.OrderShipped
	_, err = svc.EditOrder(ctx, &edit, []ledger.Allocation{{GiftCardID: card.ID, Amount: money("80.00")}})
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	// THEN: status, spend and balance are as before the edit
	stored, err := svc.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.OrderOrdered, stored.Status)
	assertMoney(t, "20.00", stored.GiftCardSpend)
	storedCard, err := svc.GiftCard(ctx, card.ID)
	require.NoError(t, err)
	assertMoney(t, "30.00", storedCard.RemainingBalance)
}

func TestAllocation_EditOrderWithoutAllocationsReleasesCards(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bby := seedRetailer(t, svc, "BBY", "Best Buy")
	card := seedCard(t, svc, bby, "50.00", "45.00")
	order, err := seedOrder(t, svc, bby, "BBY-1", "20.00", ledger.Allocation{GiftCardID: card.ID, Amount: money("20.00")})
	require.NoError(t, err)

	edit := *order
	edit.Status = ledger.OrderDelivered
	edit.PaymentMethod = ledger.PaymentCreditCard
	edit.CreditCardSpend = money("20.00")
	got, err := svc.EditOrder(ctx, &edit, nil)
	require.NoError(t, err)

	assert.Equal(t, ledger.OrderDelivered, got.Status)
	assert.True(t, got.GiftCardSpend.IsZero())
	storedCard, err := svc.GiftCard(ctx, card.ID)
	require.NoError(t, err)
	assertMoney(t, "50.00", storedCard.RemainingBalance)
}

func TestOrder_ItemsAndDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bby := seedRetailer(t, svc, "BBY", "Best Buy")

	order, err := svc.CreateOrder(ctx, &ledger.Order{
		RetailerID:    bby.ID,
		OrderNumber:   "BBY-9",
		OrderDate:     testNow,
		PaymentMethod: ledger.PaymentCreditCard,
		Items: []ledger.OrderItem{
			{ItemName: "Earbuds", Quantity: 2, UnitPrice: money("19.995"), TotalPrice: money("39.99")},
		},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, ledger.OrderOrdered, order.Status)

	stored, err := svc.Order(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, order.ID, stored.Items[0].OrderID)
	assertMoney(t, "20.00", stored.Items[0].UnitPrice)

	_, err = svc.CreateOrder(ctx, &ledger.Order{RetailerID: bby.ID, OrderNumber: "X", PaymentMethod: "cash"}, nil)
	require.ErrorIs(t, err, ledger.ErrInvalidInput)
}
