/*
inventory.go - Inventory ledger: on-hand quantity and weighted-average cost

PURPOSE:
  Owns QuantityOnHand, TotalCost and AverageCost of every inventory item.
  Each change is an Adjustment; applying one updates the item and appends
  an immutable InventoryMovement holding the delta.

INVARIANTS:
  1. QuantityOnHand >= 0 and TotalCost >= 0 after every adjustment
  2. Σ movement.QuantityChange == QuantityOnHand
     Σ movement.CostChange     == TotalCost
  3. AverageCost == round4(TotalCost / QuantityOnHand), or 0 when empty

A rejected adjustment writes nothing, so state is unchanged even before
the unit-of-work rolls back.

CORRECTIONS:
  A movement is never edited. ReverseMovement appends the negated delta
  with SourceAdjustment; both entries stay in the history.

EXAMPLE:
  qty 10, total 20.00       -> avg 2.0000
  adjust -3, -6.00 (sale)   -> qty 7, total 14.00, avg 2.0000
  adjust +5, +15.00 (order) -> qty 12, total 29.00, avg 2.4167
*/
package ledger

import (
	"context"
	"fmt"
	"time"
)

// Clock returns the current instant. Engines take one so tests can pin time.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// =============================================================================
// INVENTORY LEDGER
// =============================================================================

type InventoryLedger struct {
	Now Clock
}

func NewInventoryLedger(now Clock) *InventoryLedger {
	if now == nil {
		now = SystemClock
	}
	return &InventoryLedger{Now: now}
}

// CreateItem persists a new item with zero stock. Stock and cost only ever
// enter through adjustments, so an optional initial adjustment is applied
// right after creation.
func (l *InventoryLedger) CreateItem(ctx context.Context, s Store, item *InventoryItem, initial *Adjustment) error {
	item.QuantityOnHand = 0
	item.TotalCost = Zero
	item.AverageCost = Zero
	now := l.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	if err := s.CreateInventoryItem(ctx, item); err != nil {
		return err
	}
	if initial != nil {
		if _, err := l.ApplyAdjustment(ctx, s, item, *initial); err != nil {
			return err
		}
	}
	return nil
}

// UpdateItem saves descriptive fields. Quantity and cost are reloaded from
// the store so callers cannot bypass the ledger.
func (l *InventoryLedger) UpdateItem(ctx context.Context, s Store, item *InventoryItem) error {
	current, err := l.find(ctx, s, item.ID)
	if err != nil {
		return err
	}
	item.QuantityOnHand = current.QuantityOnHand
	item.TotalCost = current.TotalCost
	item.AverageCost = current.AverageCost
	item.CreatedAt = current.CreatedAt
	item.UpdatedAt = l.Now()
	return s.UpdateInventoryItem(ctx, item)
}

// DeleteItem removes the item together with its movement history.
func (l *InventoryLedger) DeleteItem(ctx context.Context, s Store, id InventoryItemID) error {
	if _, err := l.find(ctx, s, id); err != nil {
		return err
	}
	if err := s.DeleteMovementsByItem(ctx, id); err != nil {
		return fmt.Errorf("delete movements of item %d: %w", id, err)
	}
	return s.DeleteInventoryItem(ctx, id)
}

// ApplyAdjustment validates adj against item, updates item in place, saves
// it and appends the movement.
func (l *InventoryLedger) ApplyAdjustment(ctx context.Context, s Store, item *InventoryItem, adj Adjustment) (*InventoryMovement, error) {
	if !adj.SourceType.IsValid() {
		return nil, invalidAdjustment("unknown source type %q", adj.SourceType)
	}
	costChange := adj.CostChange.Round()
	if adj.QuantityChange == 0 && costChange.IsZero() {
		return nil, invalidAdjustment("adjustment must change quantity or cost")
	}

	newQuantity := item.QuantityOnHand + adj.QuantityChange
	if newQuantity < 0 {
		return nil, &InsufficientStockError{
			ItemID:    item.ID,
			ItemName:  item.ItemName,
			OnHand:    item.QuantityOnHand,
			Requested: -adj.QuantityChange,
		}
	}
	newTotal := item.TotalCost.Add(costChange).Round()
	if newTotal.IsNegative() {
		return nil, invalidAdjustment("total cost of %s cannot go negative (%s)", item.ItemName, newTotal)
	}

	now := l.Now()
	item.QuantityOnHand = newQuantity
	item.TotalCost = newTotal
	item.AverageCost = averageCost(newTotal, newQuantity)
	item.UpdatedAt = now
	if err := s.UpdateInventoryItem(ctx, item); err != nil {
		return nil, fmt.Errorf("save inventory item %d: %w", item.ID, err)
	}

	movement := &InventoryMovement{
		InventoryItemID: item.ID,
		SourceType:      adj.SourceType,
		SourceID:        adj.SourceID,
		OrderItemID:     adj.OrderItemID,
		QuantityChange:  adj.QuantityChange,
		CostChange:      costChange,
		MovementDate:    now,
		Notes:           adj.Notes,
	}
	if err := s.AppendMovement(ctx, movement); err != nil {
		return nil, fmt.Errorf("append movement for item %d: %w", item.ID, err)
	}
	return movement, nil
}

// Adjust loads the item by id and applies adj.
func (l *InventoryLedger) Adjust(ctx context.Context, s Store, id InventoryItemID, adj Adjustment) (*InventoryItem, *InventoryMovement, error) {
	item, err := l.find(ctx, s, id)
	if err != nil {
		return nil, nil, err
	}
	m, err := l.ApplyAdjustment(ctx, s, item, adj)
	if err != nil {
		return nil, nil, err
	}
	return item, m, nil
}

// ReverseMovement appends the negated delta of an existing movement.
func (l *InventoryLedger) ReverseMovement(ctx context.Context, s Store, id MovementID) (*InventoryMovement, error) {
	original, err := s.FindMovement(ctx, id)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, notFound("inventory movement", int64(id))
	}
	item, err := l.find(ctx, s, original.InventoryItemID)
	if err != nil {
		return nil, err
	}
	return l.ApplyAdjustment(ctx, s, item, Adjustment{
		QuantityChange: -original.QuantityChange,
		CostChange:     original.CostChange.Neg(),
		SourceType:     SourceAdjustment,
		Notes:          fmt.Sprintf("Reversal of movement %d", original.ID),
	})
}

// Replay sums an item's movements.
func (l *InventoryLedger) Replay(ctx context.Context, s Store, id InventoryItemID) (int, Money, error) {
	movements, err := s.ListMovements(ctx, id)
	if err != nil {
		return 0, Zero, err
	}
	quantity, cost := 0, Zero
	for _, m := range movements {
		quantity += m.QuantityChange
		cost = cost.Add(m.CostChange)
	}
	return quantity, cost, nil
}

func (l *InventoryLedger) find(ctx context.Context, s Store, id InventoryItemID) (*InventoryItem, error) {
	item, err := s.FindInventoryItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound("inventory item", int64(id))
	}
	return item, nil
}

func averageCost(total Money, quantity int) Money {
	if quantity <= 0 {
		return Zero
	}
	return total.DivQty(quantity).RoundUnitCost()
}
