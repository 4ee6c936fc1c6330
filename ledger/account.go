/*
account.go - Running-balance account ledger

PURPOSE:
  Payment accounts (credit card, bank, gift card pool) keep a balance and
  an append-only transaction log. Posting a transaction is the only way
  the balance moves:

    balance' = balance + amount
    Σ transaction.amount == balance

  Positive amounts are deposits or charges onto the account, negative ones
  are withdrawals or payments out; zero is rejected. Accounts are not tied
  to orders or sales automatically; callers post the related entry and may
  reference it with RelatedType/RelatedID.
*/
package ledger

import (
	"context"
	"fmt"
	"strings"
)

type AccountLedger struct {
	Now Clock
}

func NewAccountLedger(now Clock) *AccountLedger {
	if now == nil {
		now = SystemClock
	}
	return &AccountLedger{Now: now}
}

// CreateAccount persists an account with a zero balance. An opening balance
// is posted as a deposit so the log replays to the balance.
func (l *AccountLedger) CreateAccount(ctx context.Context, s Store, a *Account, opening Money) error {
	if strings.TrimSpace(a.Name) == "" {
		return invalidInput("account name is required")
	}
	if !a.Type.IsValid() {
		return invalidInput("account type %q is not recognised", a.Type)
	}
	if a.CreditLimit != nil {
		limit := a.CreditLimit.Round()
		a.CreditLimit = &limit
	}
	a.Balance = Zero
	now := l.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	if err := s.CreateAccount(ctx, a); err != nil {
		return err
	}
	if opening.Round().IsZero() {
		return nil
	}
	_, err := l.apply(ctx, s, a, AccountPosting{
		RelatedType: RelatedDeposit,
		Amount:      opening,
		Description: "Opening balance",
	})
	return err
}

// Post appends a transaction to the account and moves its balance.
func (l *AccountLedger) Post(ctx context.Context, s Store, id AccountID, p AccountPosting) (*Account, *AccountTransaction, error) {
	a, err := l.Find(ctx, s, id)
	if err != nil {
		return nil, nil, err
	}
	tx, err := l.apply(ctx, s, a, p)
	if err != nil {
		return nil, nil, err
	}
	return a, tx, nil
}

func (l *AccountLedger) apply(ctx context.Context, s Store, a *Account, p AccountPosting) (*AccountTransaction, error) {
	if !p.RelatedType.IsValid() {
		return nil, invalidInput("account related type %q is not recognised", p.RelatedType)
	}
	amount := p.Amount.Round()
	if amount.IsZero() {
		return nil, invalidAmount("account transaction amount must not be zero")
	}

	now := l.Now()
	a.Balance = a.Balance.Add(amount).Round()
	a.UpdatedAt = now
	if err := s.UpdateAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("save account %d: %w", a.ID, err)
	}
	tx := &AccountTransaction{
		AccountID:       a.ID,
		RelatedType:     p.RelatedType,
		RelatedID:       p.RelatedID,
		Amount:          amount,
		Description:     p.Description,
		TransactionDate: now,
	}
	if err := s.AppendAccountTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("append transaction for account %d: %w", a.ID, err)
	}
	return tx, nil
}

// History returns the account's transactions in posting order.
func (l *AccountLedger) History(ctx context.Context, s Store, id AccountID) ([]AccountTransaction, error) {
	if _, err := l.Find(ctx, s, id); err != nil {
		return nil, err
	}
	return s.ListAccountTransactions(ctx, id)
}

// DeleteAccount removes an account with its transaction log.
func (l *AccountLedger) DeleteAccount(ctx context.Context, s Store, id AccountID) error {
	if _, err := l.Find(ctx, s, id); err != nil {
		return err
	}
	return s.DeleteAccount(ctx, id)
}

func (l *AccountLedger) Find(ctx context.Context, s Store, id AccountID) (*Account, error) {
	a, err := s.FindAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFound("account", int64(id))
	}
	return a, nil
}
