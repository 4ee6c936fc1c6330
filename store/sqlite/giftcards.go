package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/cardledger/ledger"
)

// =============================================================================
// RETAILER STORE
// =============================================================================

const retailerColumns = `id, code, name, requires_pin, notes, created_at`

func scanRetailer(row interface{ Scan(...any) error }) (ledger.Retailer, error) {
	var r ledger.Retailer
	err := row.Scan(&r.ID, &r.Code, &r.Name, &r.RequiresPIN, textCol{&r.Notes}, timeCol{&r.CreatedAt})
	return r, err
}

func (t *tx) CreateRetailer(ctx context.Context, r *ledger.Retailer) error {
	id, err := t.insert(ctx,
		`INSERT INTO retailers (code, name, requires_pin, notes, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.Code, r.Name, r.RequiresPIN, nullString(r.Notes), fmtTime(r.CreatedAt),
	)
	if err != nil {
		return writeErr(err, "retailer", map[string]string{"code": r.Code, "name": r.Name})
	}
	r.ID = ledger.RetailerID(id)
	return nil
}

func (t *tx) findRetailer(ctx context.Context, where string, arg any) (*ledger.Retailer, error) {
	r, err := scanRetailer(t.q.QueryRowContext(ctx,
		`SELECT `+retailerColumns+` FROM retailers WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load retailer: %w", err)
	}
	return &r, nil
}

func (t *tx) FindRetailer(ctx context.Context, id ledger.RetailerID) (*ledger.Retailer, error) {
	return t.findRetailer(ctx, "id = ?", id)
}

func (t *tx) FindRetailerByCode(ctx context.Context, code string) (*ledger.Retailer, error) {
	return t.findRetailer(ctx, "code = ?", code)
}

func (t *tx) ListRetailers(ctx context.Context) ([]ledger.Retailer, error) {
	rows, err := t.q.QueryContext(ctx, `SELECT `+retailerColumns+` FROM retailers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query retailers: %w", err)
	}
	defer rows.Close()

	var out []ledger.Retailer
	for rows.Next() {
		r, err := scanRetailer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan retailer: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *tx) DeleteRetailer(ctx context.Context, id ledger.RetailerID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM retailers WHERE id = ?`, id)
	return deleteErr(err, "retailer", int64(id))
}

// =============================================================================
// GIFT CARD STORE
// =============================================================================

const giftCardColumns = `id, retailer_id, sku, card_number, card_pin, acquisition_cost, face_value,
	remaining_balance, status, purchase_date, notes, created_at, updated_at`

func scanGiftCard(row interface{ Scan(...any) error }) (ledger.GiftCard, error) {
	var c ledger.GiftCard
	err := row.Scan(
		&c.ID, &c.RetailerID, &c.SKU, &c.CardNumber, textCol{&c.PIN},
		moneyCol{&c.AcquisitionCost}, moneyCol{&c.FaceValue}, moneyCol{&c.RemainingBalance},
		textCol{(*string)(&c.Status)}, nullDateCol{&c.PurchaseDate}, textCol{&c.Notes},
		timeCol{&c.CreatedAt}, timeCol{&c.UpdatedAt},
	)
	return c, err
}

func (t *tx) CreateGiftCard(ctx context.Context, c *ledger.GiftCard) error {
	id, err := t.insert(ctx, `
		INSERT INTO gift_cards (retailer_id, sku, card_number, card_pin, acquisition_cost, face_value,
			remaining_balance, status, purchase_date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RetailerID, c.SKU, c.CardNumber, nullString(c.PIN),
		fmtMoney(c.AcquisitionCost), fmtMoney(c.FaceValue), fmtMoney(c.RemainingBalance),
		c.Status, fmtNullDate(c.PurchaseDate), nullString(c.Notes),
		fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt),
	)
	if err != nil {
		return writeErr(err, "gift card", map[string]string{"sku": c.SKU})
	}
	c.ID = ledger.GiftCardID(id)
	return nil
}

func (t *tx) FindGiftCard(ctx context.Context, id ledger.GiftCardID) (*ledger.GiftCard, error) {
	c, err := scanGiftCard(t.q.QueryRowContext(ctx,
		`SELECT `+giftCardColumns+` FROM gift_cards WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load gift card %d: %w", id, err)
	}
	return &c, nil
}

func (t *tx) UpdateGiftCard(ctx context.Context, c *ledger.GiftCard) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE gift_cards SET retailer_id = ?, sku = ?, card_number = ?, card_pin = ?,
			acquisition_cost = ?, face_value = ?, remaining_balance = ?, status = ?,
			purchase_date = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		c.RetailerID, c.SKU, c.CardNumber, nullString(c.PIN),
		fmtMoney(c.AcquisitionCost), fmtMoney(c.FaceValue), fmtMoney(c.RemainingBalance), c.Status,
		fmtNullDate(c.PurchaseDate), nullString(c.Notes), fmtTime(c.UpdatedAt),
		c.ID,
	)
	return writeErr(err, "gift card", map[string]string{"sku": c.SKU})
}

func (t *tx) DeleteGiftCard(ctx context.Context, id ledger.GiftCardID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM gift_cards WHERE id = ?`, id)
	return deleteErr(err, "gift card", int64(id))
}

func (t *tx) ListGiftCards(ctx context.Context, f ledger.GiftCardFilter) ([]ledger.GiftCard, error) {
	query := `SELECT ` + giftCardColumns + ` FROM gift_cards`
	var args []any
	if f.RetailerID != nil {
		query += ` WHERE retailer_id = ?`
		args = append(args, *f.RetailerID)
	}
	query += ` ORDER BY retailer_id, sku`

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query gift cards: %w", err)
	}
	defer rows.Close()

	var out []ledger.GiftCard
	for rows.Next() {
		c, err := scanGiftCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gift card: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *tx) MaxGiftCardSKU(ctx context.Context, retailerID ledger.RetailerID, prefix string) (string, error) {
	var sku sql.NullString
	err := t.q.QueryRowContext(ctx,
		`SELECT MAX(sku) FROM gift_cards WHERE retailer_id = ? AND substr(sku, 1, ?) = ?`,
		retailerID, len(prefix), prefix,
	).Scan(&sku)
	if err != nil {
		return "", err
	}
	return sku.String, nil
}

// =============================================================================
// GIFT CARD USAGE
// =============================================================================

const usageColumns = `id, gift_card_id, order_id, amount_used, usage_date, created_at`

func scanUsage(row interface{ Scan(...any) error }) (ledger.GiftCardUsage, error) {
	var u ledger.GiftCardUsage
	err := row.Scan(&u.ID, &u.GiftCardID, &u.OrderID, moneyCol{&u.AmountUsed},
		dateCol{&u.UsageDate}, timeCol{&u.CreatedAt})
	return u, err
}

func (t *tx) CreateUsage(ctx context.Context, u *ledger.GiftCardUsage) error {
	id, err := t.insert(ctx, `
		INSERT INTO gift_card_usage (gift_card_id, order_id, amount_used, usage_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.GiftCardID, u.OrderID, fmtMoney(u.AmountUsed), fmtDate(u.UsageDate), fmtTime(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage: %w", err)
	}
	u.ID = ledger.UsageID(id)
	return nil
}

func (t *tx) queryUsages(ctx context.Context, where string, arg any) ([]ledger.GiftCardUsage, error) {
	rows, err := t.q.QueryContext(ctx,
		`SELECT `+usageColumns+` FROM gift_card_usage WHERE `+where+` ORDER BY id`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query usages: %w", err)
	}
	defer rows.Close()

	var out []ledger.GiftCardUsage
	for rows.Next() {
		u, err := scanUsage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (t *tx) ListUsagesByOrder(ctx context.Context, orderID ledger.OrderID) ([]ledger.GiftCardUsage, error) {
	return t.queryUsages(ctx, "order_id = ?", orderID)
}

func (t *tx) ListUsagesByGiftCard(ctx context.Context, cardID ledger.GiftCardID) ([]ledger.GiftCardUsage, error) {
	return t.queryUsages(ctx, "gift_card_id = ?", cardID)
}

func (t *tx) DeleteUsagesByOrder(ctx context.Context, orderID ledger.OrderID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM gift_card_usage WHERE order_id = ?`, orderID)
	return deleteErr(err, "usages of order", int64(orderID))
}
