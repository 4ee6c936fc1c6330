package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cardledger/ledger"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name      string
		current   ledger.GiftCardStatus
		remaining string
		want      ledger.GiftCardStatus
	}{
		{"balance left", ledger.GiftCardActive, "10.00", ledger.GiftCardActive},
		{"drained", ledger.GiftCardActive, "0.00", ledger.GiftCardUsed},
		{"refilled", ledger.GiftCardUsed, "5.00", ledger.GiftCardActive},
		{"void kept", ledger.GiftCardVoid, "10.00", ledger.GiftCardVoid},
		{"archived kept", ledger.GiftCardArchived, "0.00", ledger.GiftCardArchived},
		{"unset", "", "1.00", ledger.GiftCardActive},
		{"unknown drained", "lost", "0.00", ledger.GiftCardUsed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ledger.DeriveStatus(tc.current, money(tc.remaining)))
		})
	}
}

func TestGiftCard_SKUSequencePerRetailerAndDay(t *testing.T) {
	svc, _ := newTestService(t)
	bby := seedRetailer(t, svc, "BBY", "Best Buy")
	amz := seedRetailer(t, svc, "AMZ", "Amazon")

	// WHEN: three BBY cards and one AMZ card are created without a sku
	var skus []string
	for range 3 {
		skus = append(skus, seedCard(t, svc, bby, "25.00", "23.00").SKU)
	}
	other := seedCard(t, svc, amz, "25.00", "23.00")

	// THEN: each retailer counts from 0001 on the clock's date
	assert.Equal(t, []string{"BBY-20250315-0001", "BBY-20250315-0002", "BBY-20250315-0003"}, skus)
	assert.Equal(t, "AMZ-20250315-0001", other.SKU)
}

func TestGiftCard_ExplicitSKUIsKept(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bby := seedRetailer(t, svc, "BBY", "Best Buy")

	card, err := svc.CreateGiftCard(ctx, &ledger.GiftCard{
		RetailerID: bby.ID, SKU: "BBY-CUSTOM-1", CardNumber: "1",
		FaceValue: money("10"), RemainingBalance: money("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "BBY-CUSTOM-1", card.SKU)

	_, err = svc.CreateGiftCard(ctx, &ledger.GiftCard{
		RetailerID: bby.ID, SKU: "BBY-CUSTOM-1", CardNumber: "2",
		FaceValue: money("10"), RemainingBalance: money("10"),
	})
	require.ErrorIs(t, err, ledger.ErrDuplicateIdentifier)
}

func TestGiftCard_ImportIsOneUnitOfWork(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bby := seedRetailer(t, svc, "BBY", "Best Buy")

	// WHEN: the third card of a batch collides on sku
	_, err := svc.ImportGiftCards(ctx, bby.ID, []ledger.GiftCard{
		{CardNumber: "1", FaceValue: money("10"), RemainingBalance: money("10")},
		{CardNumber: "2", SKU: "BBY-DUP", FaceValue: money("10"), RemainingBalance: money("10")},
		{CardNumber: "3", SKU: "BBY-DUP", FaceValue: money("10"), RemainingBalance: money("10")},
	})

	// THEN: nothing is kept
	require.ErrorIs(t, err, ledger.ErrDuplicateIdentifier)
	cards, err := svc.ListGiftCards(ctx, "BBY")
	require.NoError(t, err)
	assert.Empty(t, cards)

	// WHEN: a clean batch is imported
	created, err := svc.ImportGiftCards(ctx, bby.ID, []ledger.GiftCard{
		{CardNumber: "1", FaceValue: money("10"), RemainingBalance: money("10")},
		{CardNumber: "2", FaceValue: money("20"), RemainingBalance: money("0")},
	})

	// THEN: skus follow each other and statuses are derived
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "BBY-20250315-0001", created[0].SKU)
	assert.Equal(t, "BBY-20250315-0002", created[1].SKU)
	assert.Equal(t, ledger.GiftCardUsed, created[1].Status)
}

func TestGiftCard_UnknownRetailer(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateGiftCard(context.Background(), &ledger.GiftCard{RetailerID: 42, CardNumber: "1"})
	require.True(t, ledger.IsNotFound(err))
}

func TestGiftCard_ZeroBalanceStartsUsed(t *testing.T) {
	svc, _ := newTestService(t)
	bby := seedRetailer(t, svc, "BBY", "Best Buy")

	card, err := svc.CreateGiftCard(context.Background(), &ledger.GiftCard{
		RetailerID: bby.ID, CardNumber: "1", FaceValue: money("10"), RemainingBalance: ledger.Zero,
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.GiftCardUsed, card.Status)
}

func TestGiftCard_SetStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bby := seedRetailer(t, svc, "BBY", "Best Buy")
	card := seedCard(t, svc, bby, "50.00", "45.00")

	// WHEN: voided, the status sticks
	got, err := svc.SetGiftCardStatus(ctx, card.ID, ledger.GiftCardVoid)
	require.NoError(t, err)
	assert.Equal(t, ledger.GiftCardVoid, got.Status)

	// WHEN: asked to be USED with balance left, the balance rule wins
	got, err = svc.SetGiftCardStatus(ctx, card.ID, ledger.GiftCardUsed)
	require.NoError(t, err)
	assert.Equal(t, ledger.GiftCardActive, got.Status)

	_, err = svc.SetGiftCardStatus(ctx, card.ID, "lost")
	require.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestGiftCard_ListByRetailer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bby := seedRetailer(t, svc, "BBY", "Best Buy")
	amz := seedRetailer(t, svc, "AMZ", "Amazon")
	seedCard(t, svc, bby, "50.00", "45.00")
	seedCard(t, svc, amz, "25.00", "24.00")

	all, err := svc.ListGiftCards(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := svc.ListGiftCards(ctx, "bby")
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, bby.ID, only[0].RetailerID)

	none, err := svc.ListGiftCards(ctx, "XXX")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRetailer_DeleteCascadesCardsUnlessOrdered(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bby := seedRetailer(t, svc, "BBY", "Best Buy")
	lws := seedRetailer(t, svc, "LWS", "Lowe's")
	card := seedCard(t, svc, bby, "50.00", "45.00")
	_, err := seedOrder(t, svc, lws, "L-1", "10.00")
	require.NoError(t, err)

	// WHEN: deleting a retailer without orders, its cards go too
	require.NoError(t, svc.DeleteRetailer(ctx, bby.ID))
	_, err = svc.GiftCard(ctx, card.ID)
	assert.True(t, ledger.IsNotFound(err))

	// WHEN: the retailer still has orders, the delete is refused
	err = svc.DeleteRetailer(ctx, lws.ID)
	require.ErrorIs(t, err, ledger.ErrReferenced)
	_, err = svc.RetailerByCode(ctx, "LWS")
	require.NoError(t, err)
}

func TestRetailer_SeedIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	added, err := svc.SeedRetailers(ctx, ledger.DefaultRetailers)
	require.NoError(t, err)
	assert.Equal(t, len(ledger.DefaultRetailers), added)

	added, err = svc.SeedRetailers(ctx, ledger.DefaultRetailers)
	require.NoError(t, err)
	assert.Zero(t, added)

	r, err := svc.RetailerByCode(ctx, "bby")
	require.NoError(t, err)
	assert.True(t, r.RequiresPIN)
}

func TestRetailer_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateRetailer(ctx, &ledger.Retailer{Code: " ", Name: "Nameless"})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)

	seedRetailer(t, svc, "BBY", "Best Buy")
	_, err = svc.CreateRetailer(ctx, &ledger.Retailer{Code: "bby", Name: "Other"})
	require.ErrorIs(t, err, ledger.ErrDuplicateIdentifier)
}
