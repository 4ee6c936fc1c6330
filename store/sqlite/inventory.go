package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/cardledger/ledger"
)

// =============================================================================
// INVENTORY ITEMS
// =============================================================================

const itemColumns = `id, item_name, sku, upc, quantity_on_hand, average_cost, total_cost,
	notes, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (ledger.InventoryItem, error) {
	var it ledger.InventoryItem
	err := row.Scan(
		&it.ID, &it.ItemName, &it.SKU, &it.UPC, &it.QuantityOnHand,
		moneyCol{&it.AverageCost}, moneyCol{&it.TotalCost}, textCol{&it.Notes},
		timeCol{&it.CreatedAt}, timeCol{&it.UpdatedAt},
	)
	return it, err
}

func itemKeys(it *ledger.InventoryItem) map[string]string {
	keys := map[string]string{}
	if it.SKU != nil {
		keys["sku"] = *it.SKU
	}
	if it.UPC != nil {
		keys["upc"] = *it.UPC
	}
	return keys
}

func (t *tx) CreateInventoryItem(ctx context.Context, it *ledger.InventoryItem) error {
	id, err := t.insert(ctx, `
		INSERT INTO inventory_items (item_name, sku, upc, quantity_on_hand, average_cost, total_cost,
			notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ItemName, it.SKU, it.UPC, it.QuantityOnHand,
		fmtUnitCost(it.AverageCost), fmtMoney(it.TotalCost), nullString(it.Notes),
		fmtTime(it.CreatedAt), fmtTime(it.UpdatedAt),
	)
	if err != nil {
		return writeErr(err, "inventory item", itemKeys(it))
	}
	it.ID = ledger.InventoryItemID(id)
	return nil
}

func (t *tx) FindInventoryItem(ctx context.Context, id ledger.InventoryItemID) (*ledger.InventoryItem, error) {
	it, err := scanItem(t.q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory item %d: %w", id, err)
	}
	return &it, nil
}

func (t *tx) UpdateInventoryItem(ctx context.Context, it *ledger.InventoryItem) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE inventory_items SET item_name = ?, sku = ?, upc = ?, quantity_on_hand = ?,
			average_cost = ?, total_cost = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		it.ItemName, it.SKU, it.UPC, it.QuantityOnHand,
		fmtUnitCost(it.AverageCost), fmtMoney(it.TotalCost), nullString(it.Notes), fmtTime(it.UpdatedAt),
		it.ID,
	)
	return writeErr(err, "inventory item", itemKeys(it))
}

func (t *tx) DeleteInventoryItem(ctx context.Context, id ledger.InventoryItemID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id)
	return deleteErr(err, "inventory item", int64(id))
}

func (t *tx) ListInventoryItems(ctx context.Context) ([]ledger.InventoryItem, error) {
	rows, err := t.q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items ORDER BY item_name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory items: %w", err)
	}
	defer rows.Close()

	var out []ledger.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// =============================================================================
// INVENTORY MOVEMENTS
// =============================================================================

const movementColumns = `id, inventory_item_id, source_type, source_id, order_item_id,
	quantity_change, cost_change, movement_date, notes`

func scanMovement(row interface{ Scan(...any) error }) (ledger.InventoryMovement, error) {
	var m ledger.InventoryMovement
	err := row.Scan(
		&m.ID, &m.InventoryItemID, textCol{(*string)(&m.SourceType)}, &m.SourceID, &m.OrderItemID,
		&m.QuantityChange, moneyCol{&m.CostChange}, timeCol{&m.MovementDate}, textCol{&m.Notes},
	)
	return m, err
}

func (t *tx) AppendMovement(ctx context.Context, m *ledger.InventoryMovement) error {
	id, err := t.insert(ctx, `
		INSERT INTO inventory_movements (inventory_item_id, source_type, source_id, order_item_id,
			quantity_change, cost_change, movement_date, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.InventoryItemID, m.SourceType, m.SourceID, m.OrderItemID,
		m.QuantityChange, fmtMoney(m.CostChange), fmtTime(m.MovementDate), nullString(m.Notes),
	)
	if err != nil {
		return fmt.Errorf("failed to append movement: %w", err)
	}
	m.ID = ledger.MovementID(id)
	return nil
}

func (t *tx) FindMovement(ctx context.Context, id ledger.MovementID) (*ledger.InventoryMovement, error) {
	m, err := scanMovement(t.q.QueryRowContext(ctx,
		`SELECT `+movementColumns+` FROM inventory_movements WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load movement %d: %w", id, err)
	}
	return &m, nil
}

func (t *tx) ListMovements(ctx context.Context, itemID ledger.InventoryItemID) ([]ledger.InventoryMovement, error) {
	rows, err := t.q.QueryContext(ctx,
		`SELECT `+movementColumns+` FROM inventory_movements WHERE inventory_item_id = ? ORDER BY id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	var out []ledger.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *tx) DeleteMovementsByItem(ctx context.Context, itemID ledger.InventoryItemID) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM inventory_movements WHERE inventory_item_id = ?`, itemID)
	return deleteErr(err, "movements of item", int64(itemID))
}
