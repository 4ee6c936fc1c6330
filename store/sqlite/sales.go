package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/cardledger/ledger"
)

// =============================================================================
// SALES
// =============================================================================

const saleColumns = `id, buyer, sale_date, total_value, total_cost, profit, notes, created_at, updated_at`

func scanSale(row interface{ Scan(...any) error }) (ledger.Sale, error) {
	var s ledger.Sale
	err := row.Scan(
		&s.ID, textCol{&s.Buyer}, dateCol{&s.SaleDate},
		moneyCol{&s.TotalValue}, moneyCol{&s.TotalCost}, moneyCol{&s.Profit},
		textCol{&s.Notes}, timeCol{&s.CreatedAt}, timeCol{&s.UpdatedAt},
	)
	return s, err
}

func (t *tx) CreateSale(ctx context.Context, s *ledger.Sale) error {
	id, err := t.insert(ctx, `
		INSERT INTO sales (buyer, sale_date, total_value, total_cost, profit, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullString(s.Buyer), fmtDate(s.SaleDate),
		fmtMoney(s.TotalValue), fmtMoney(s.TotalCost), fmtMoney(s.Profit),
		nullString(s.Notes), fmtTime(s.CreatedAt), fmtTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}
	s.ID = ledger.SaleID(id)
	return nil
}

func (t *tx) FindSale(ctx context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	s, err := scanSale(t.q.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sale %d: %w", id, err)
	}

	rows, err := t.q.QueryContext(ctx, `
		SELECT id, sale_id, inventory_item_id, quantity, unit_price, unit_cost, line_total, line_cost
		FROM sale_items WHERE sale_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it ledger.SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.InventoryItemID, &it.Quantity,
			moneyCol{&it.UnitPrice}, moneyCol{&it.UnitCost}, moneyCol{&it.LineTotal}, moneyCol{&it.LineCost}); err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		s.Items = append(s.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *tx) UpdateSale(ctx context.Context, s *ledger.Sale) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE sales SET buyer = ?, sale_date = ?, total_value = ?, total_cost = ?, profit = ?,
			notes = ?, updated_at = ?
		WHERE id = ?`,
		nullString(s.Buyer), fmtDate(s.SaleDate),
		fmtMoney(s.TotalValue), fmtMoney(s.TotalCost), fmtMoney(s.Profit),
		nullString(s.Notes), fmtTime(s.UpdatedAt),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sale %d: %w", s.ID, err)
	}
	return nil
}

func (t *tx) DeleteSale(ctx context.Context, id ledger.SaleID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM sales WHERE id = ?`, id)
	return deleteErr(err, "sale", int64(id))
}

func (t *tx) ListSales(ctx context.Context, f ledger.SaleFilter) ([]ledger.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales`
	var args []any
	if f.From != nil {
		query += ` WHERE sale_date >= ?`
		args = append(args, fmtDate(*f.From))
	}
	query += ` ORDER BY sale_date DESC, id DESC`

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var out []ledger.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (t *tx) CreateSaleItem(ctx context.Context, it *ledger.SaleItem) error {
	id, err := t.insert(ctx, `
		INSERT INTO sale_items (sale_id, inventory_item_id, quantity, unit_price, unit_cost, line_total, line_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.SaleID, it.InventoryItemID, it.Quantity,
		fmtMoney(it.UnitPrice), fmtUnitCost(it.UnitCost), fmtMoney(it.LineTotal), fmtMoney(it.LineCost),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale item: %w", err)
	}
	it.ID = ledger.SaleItemID(id)
	return nil
}

func (t *tx) DeleteSaleItems(ctx context.Context, saleID ledger.SaleID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = ?`, saleID)
	return deleteErr(err, "items of sale", int64(saleID))
}
