package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/warp/cardledger/ledger"
	"github.com/warp/cardledger/ledger/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newTestService(t *testing.T, opts ...ledger.Option) (*ledger.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	opts = append([]ledger.Option{ledger.WithClock(fixedClock)}, opts...)
	return ledger.NewService(mem, opts...), mem
}

func money(s string) ledger.Money { return ledger.MustMoney(s) }

func assertMoney(t *testing.T, want string, got ledger.Money, msgAndArgs ...any) {
	t.Helper()
	require.True(t, money(want).Equal(got), append([]any{"want %s, got %s", want, got}, msgAndArgs...)...)
}

func seedRetailer(t *testing.T, svc *ledger.Service, code, name string) *ledger.Retailer {
	t.Helper()
	r, err := svc.CreateRetailer(context.Background(), &ledger.Retailer{Code: code, Name: name})
	require.NoError(t, err)
	return r
}

func seedCard(t *testing.T, svc *ledger.Service, retailer *ledger.Retailer, face, cost string) *ledger.GiftCard {
	t.Helper()
	card, err := svc.CreateGiftCard(context.Background(), &ledger.GiftCard{
		RetailerID:       retailer.ID,
		CardNumber:       "6006-" + face,
		AcquisitionCost:  money(cost),
		FaceValue:        money(face),
		RemainingBalance: money(face),
	})
	require.NoError(t, err)
	return card
}

func seedOrder(t *testing.T, svc *ledger.Service, retailer *ledger.Retailer, number, total string, allocations ...ledger.Allocation) (*ledger.Order, error) {
	t.Helper()
	return svc.CreateOrder(context.Background(), &ledger.Order{
		RetailerID:    retailer.ID,
		OrderNumber:   number,
		OrderDate:     testNow,
		PaymentMethod: ledger.PaymentGiftCard,
		Subtotal:      money(total),
		TotalCost:     money(total),
	}, allocations)
}

// seedStock creates an item and brings qty units at a total cost in.
func seedStock(t *testing.T, svc *ledger.Service, name string, qty int, cost string) *ledger.InventoryItem {
	t.Helper()
	item, err := svc.CreateInventoryItem(context.Background(), &ledger.InventoryItem{ItemName: name}, &ledger.Adjustment{
		QuantityChange: qty,
		CostChange:     money(cost),
		SourceType:     ledger.SourceOrder,
		Notes:          "Initial stock",
	})
	require.NoError(t, err)
	return item
}
