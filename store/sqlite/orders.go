package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/cardledger/ledger"
)

// =============================================================================
// ORDER STORE
// =============================================================================

const orderColumns = `id, retailer_id, order_number, order_date, order_email, payment_method,
	subtotal, tax, shipping, total_cost, credit_card_spend, gift_card_spend, status,
	receipt_path, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (ledger.Order, error) {
	var o ledger.Order
	err := row.Scan(
		&o.ID, &o.RetailerID, &o.OrderNumber, dateCol{&o.OrderDate}, textCol{&o.OrderEmail},
		textCol{(*string)(&o.PaymentMethod)},
		moneyCol{&o.Subtotal}, moneyCol{&o.Tax}, moneyCol{&o.Shipping}, moneyCol{&o.TotalCost},
		moneyCol{&o.CreditCardSpend}, moneyCol{&o.GiftCardSpend},
		textCol{(*string)(&o.Status)}, textCol{&o.ReceiptPath},
		timeCol{&o.CreatedAt}, timeCol{&o.UpdatedAt},
	)
	return o, err
}

func (t *tx) CreateOrder(ctx context.Context, o *ledger.Order) error {
	id, err := t.insert(ctx, `
		INSERT INTO orders (retailer_id, order_number, order_date, order_email, payment_method,
			subtotal, tax, shipping, total_cost, credit_card_spend, gift_card_spend, status,
			receipt_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.RetailerID, o.OrderNumber, fmtDate(o.OrderDate), nullString(o.OrderEmail), o.PaymentMethod,
		fmtMoney(o.Subtotal), fmtMoney(o.Tax), fmtMoney(o.Shipping), fmtMoney(o.TotalCost),
		fmtMoney(o.CreditCardSpend), fmtMoney(o.GiftCardSpend), o.Status,
		nullString(o.ReceiptPath), fmtTime(o.CreatedAt), fmtTime(o.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	o.ID = ledger.OrderID(id)

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		itemID, err := t.insert(ctx, `
			INSERT INTO order_items (order_id, item_name, sku, upc, quantity, unit_price, total_price)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.OrderID, item.ItemName, nullString(item.SKU), nullString(item.UPC),
			item.Quantity, fmtMoney(item.UnitPrice), fmtMoney(item.TotalPrice),
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
		item.ID = ledger.OrderItemID(itemID)
	}
	return nil
}

func (t *tx) FindOrder(ctx context.Context, id ledger.OrderID) (*ledger.Order, error) {
	o, err := scanOrder(t.q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", id, err)
	}

	rows, err := t.q.QueryContext(ctx, `
		SELECT id, order_id, item_name, sku, upc, quantity, unit_price, total_price
		FROM order_items WHERE order_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item ledger.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ItemName, textCol{&item.SKU}, textCol{&item.UPC},
			&item.Quantity, moneyCol{&item.UnitPrice}, moneyCol{&item.TotalPrice}); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (t *tx) UpdateOrder(ctx context.Context, o *ledger.Order) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE orders SET retailer_id = ?, order_number = ?, order_date = ?, order_email = ?,
			payment_method = ?, subtotal = ?, tax = ?, shipping = ?, total_cost = ?,
			credit_card_spend = ?, gift_card_spend = ?, status = ?, receipt_path = ?, updated_at = ?
		WHERE id = ?`,
		o.RetailerID, o.OrderNumber, fmtDate(o.OrderDate), nullString(o.OrderEmail),
		o.PaymentMethod, fmtMoney(o.Subtotal), fmtMoney(o.Tax), fmtMoney(o.Shipping), fmtMoney(o.TotalCost),
		fmtMoney(o.CreditCardSpend), fmtMoney(o.GiftCardSpend), o.Status, nullString(o.ReceiptPath),
		fmtTime(o.UpdatedAt),
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order %d: %w", o.ID, err)
	}
	return nil
}

func (t *tx) DeleteOrder(ctx context.Context, id ledger.OrderID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	return deleteErr(err, "order", int64(id))
}

func (t *tx) ListOrders(ctx context.Context, f ledger.OrderFilter) ([]ledger.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1 = 1`
	var args []any
	if f.RetailerID != nil {
		query += ` AND retailer_id = ?`
		args = append(args, *f.RetailerID)
	}
	if f.From != nil {
		query += ` AND order_date >= ?`
		args = append(args, fmtDate(*f.From))
	}
	query += ` ORDER BY order_date DESC, id DESC`

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var out []ledger.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
