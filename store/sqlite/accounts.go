package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/cardledger/ledger"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

const accountColumns = `id, name, type, balance, credit_limit, notes, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (ledger.Account, error) {
	var a ledger.Account
	err := row.Scan(
		&a.ID, &a.Name, textCol{(*string)(&a.Type)}, moneyCol{&a.Balance}, nullMoneyCol{&a.CreditLimit},
		textCol{&a.Notes}, timeCol{&a.CreatedAt}, timeCol{&a.UpdatedAt},
	)
	return a, err
}

func (t *tx) CreateAccount(ctx context.Context, a *ledger.Account) error {
	id, err := t.insert(ctx, `
		INSERT INTO accounts (name, type, balance, credit_limit, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Name, a.Type, fmtMoney(a.Balance), fmtNullMoney(a.CreditLimit),
		nullString(a.Notes), fmtTime(a.CreatedAt), fmtTime(a.UpdatedAt),
	)
	if err != nil {
		return writeErr(err, "account", map[string]string{"name": a.Name})
	}
	a.ID = ledger.AccountID(id)
	return nil
}

func (t *tx) FindAccount(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	a, err := scanAccount(t.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", id, err)
	}
	return &a, nil
}

func (t *tx) UpdateAccount(ctx context.Context, a *ledger.Account) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE accounts SET name = ?, type = ?, balance = ?, credit_limit = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		a.Name, a.Type, fmtMoney(a.Balance), fmtNullMoney(a.CreditLimit), nullString(a.Notes), fmtTime(a.UpdatedAt),
		a.ID,
	)
	return writeErr(err, "account", map[string]string{"name": a.Name})
}

func (t *tx) DeleteAccount(ctx context.Context, id ledger.AccountID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	return deleteErr(err, "account", int64(id))
}

func (t *tx) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := t.q.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var out []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// ACCOUNT TRANSACTIONS
// =============================================================================

func (t *tx) AppendAccountTransaction(ctx context.Context, at *ledger.AccountTransaction) error {
	id, err := t.insert(ctx, `
		INSERT INTO account_transactions (account_id, related_type, related_id, amount, description, transaction_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		at.AccountID, at.RelatedType, at.RelatedID, fmtMoney(at.Amount),
		nullString(at.Description), fmtTime(at.TransactionDate),
	)
	if err != nil {
		return fmt.Errorf("failed to append account transaction: %w", err)
	}
	at.ID = ledger.AccountTxID(id)
	return nil
}

func (t *tx) ListAccountTransactions(ctx context.Context, accountID ledger.AccountID) ([]ledger.AccountTransaction, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT id, account_id, related_type, related_id, amount, description, transaction_date
		FROM account_transactions WHERE account_id = ? ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query account transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.AccountTransaction
	for rows.Next() {
		var at ledger.AccountTransaction
		if err := rows.Scan(&at.ID, &at.AccountID, textCol{(*string)(&at.RelatedType)}, &at.RelatedID,
			moneyCol{&at.Amount}, textCol{&at.Description}, timeCol{&at.TransactionDate}); err != nil {
			return nil, fmt.Errorf("failed to scan account transaction: %w", err)
		}
		out = append(out, at)
	}
	return out, rows.Err()
}
