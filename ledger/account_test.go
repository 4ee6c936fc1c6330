package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cardledger/ledger"
)

func TestAccount_OpeningBalanceIsPosted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// GIVEN: a bank account opened with 1500.00
	a, err := svc.CreateAccount(ctx, &ledger.Account{Name: "Checking", Type: ledger.AccountBank}, money("1500"))
	require.NoError(t, err)

	// THEN: the balance comes from a deposit entry
	assertMoney(t, "1500.00", a.Balance)
	txs, err := svc.AccountTransactions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger.RelatedDeposit, txs[0].RelatedType)
	assert.Equal(t, "Opening balance", txs[0].Description)
}

func TestAccount_PostMovesBalance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	limit := money("5000")
	a, err := svc.CreateAccount(ctx, &ledger.Account{Name: "Rewards Visa", Type: ledger.AccountCreditCard, CreditLimit: &limit}, ledger.Zero)
	require.NoError(t, err)

	orderRef := int64(12)
	got, tx, err := svc.PostAccountTransaction(ctx, a.ID, ledger.AccountPosting{
		RelatedType: ledger.RelatedOrder, RelatedID: &orderRef, Amount: money("-54.604"), Description: "BBY-1001",
	})
	require.NoError(t, err)
	assertMoney(t, "-54.60", got.Balance)
	assertMoney(t, "-54.60", tx.Amount)
	require.NotNil(t, got.CreditLimit)
	assertMoney(t, "5000.00", *got.CreditLimit)

	txs, err := svc.AccountTransactions(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1, "a zero opening balance writes no entry")
}

func TestAccount_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, &ledger.Account{Name: "", Type: ledger.AccountBank}, ledger.Zero)
	require.ErrorIs(t, err, ledger.ErrInvalidInput)
	_, err = svc.CreateAccount(ctx, &ledger.Account{Name: "X", Type: "brokerage"}, ledger.Zero)
	require.ErrorIs(t, err, ledger.ErrInvalidInput)

	a, err := svc.CreateAccount(ctx, &ledger.Account{Name: "Checking", Type: ledger.AccountBank}, ledger.Zero)
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, &ledger.Account{Name: "Checking", Type: ledger.AccountBank}, ledger.Zero)
	require.ErrorIs(t, err, ledger.ErrDuplicateIdentifier)

	_, _, err = svc.PostAccountTransaction(ctx, a.ID, ledger.AccountPosting{RelatedType: ledger.RelatedDeposit, Amount: ledger.Zero})
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)
	_, _, err = svc.PostAccountTransaction(ctx, a.ID, ledger.AccountPosting{RelatedType: "refund", Amount: money("1")})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)
	_, _, err = svc.PostAccountTransaction(ctx, 999, ledger.AccountPosting{RelatedType: ledger.RelatedDeposit, Amount: money("1")})
	require.True(t, ledger.IsNotFound(err))
}

func TestAccount_DeleteDropsHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, err := svc.CreateAccount(ctx, &ledger.Account{Name: "Checking", Type: ledger.AccountBank}, money("10"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, a.ID))

	_, err = svc.Account(ctx, a.ID)
	assert.True(t, ledger.IsNotFound(err))
	accounts, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
