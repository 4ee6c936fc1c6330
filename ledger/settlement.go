/*
settlement.go - Sale settlement engine

PURPOSE:
  Turns requested sale lines into inventory deductions and computes the
  sale's value, cost and profit. Updates and deletions reverse the
  deductions exactly before anything else happens.

PER LINE:
  unit_cost  = item.AverageCost, read BEFORE the deduction
  line_total = round2(unit_price * quantity)
  line_cost  = round2(unit_cost * quantity), also when the line sells
               out the item; a rounding residue stays on the item's
               TotalCost at zero quantity
  deduction  = Adjustment{-quantity, -line_cost, SourceSale, sale.ID}

SALE:
  total_value = Σ line_total
  total_cost  = Σ line_cost
  profit      = total_value - total_cost

REVERSAL:
  Each line is restored with Adjustment{+quantity, +line_cost,
  SourceAdjustment}; lines whose item was deleted are skipped.
  UpdateSale re-settles against the restored inventory, so unit costs are
  re-snapshotted at the current average cost.

EXAMPLE:
  item qty 10, total 20.00 (avg 2.0000); sell 3 @ 5.00
  -> line_total 15.00, line_cost 6.00, profit 9.00
  -> item qty 7, total 14.00, avg 2.0000
*/
package ledger

import (
	"context"
	"fmt"
)

type SettlementEngine struct {
	Inventory *InventoryLedger
	Now       Clock
}

func NewSettlementEngine(inventory *InventoryLedger, now Clock) *SettlementEngine {
	if now == nil {
		now = SystemClock
	}
	return &SettlementEngine{Inventory: inventory, Now: now}
}

// =============================================================================
// SALE LIFECYCLE
// =============================================================================

// CreateSale persists sale and settles lines against inventory.
func (e *SettlementEngine) CreateSale(ctx context.Context, s Store, sale *Sale, lines []SaleLine) (*Sale, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}
	sale.TotalValue, sale.TotalCost, sale.Profit = Zero, Zero, Zero
	sale.Items = nil
	now := e.Now()
	sale.CreatedAt, sale.UpdatedAt = now, now
	if err := s.CreateSale(ctx, sale); err != nil {
		return nil, err
	}
	if err := e.settle(ctx, s, sale, lines); err != nil {
		return nil, err
	}
	return sale, nil
}

// UpdateSale reverses the sale's current lines and settles the new ones.
// Header fields (buyer, date, notes) are taken from sale.
func (e *SettlementEngine) UpdateSale(ctx context.Context, s Store, sale *Sale, lines []SaleLine) (*Sale, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}
	current, err := e.findSale(ctx, s, sale.ID)
	if err != nil {
		return nil, err
	}
	if err := e.reverse(ctx, s, current); err != nil {
		return nil, err
	}
	if err := s.DeleteSaleItems(ctx, sale.ID); err != nil {
		return nil, fmt.Errorf("delete items of sale %d: %w", sale.ID, err)
	}
	sale.CreatedAt = current.CreatedAt
	sale.Items = nil
	if err := e.settle(ctx, s, sale, lines); err != nil {
		return nil, err
	}
	return sale, nil
}

// DeleteSale reverses the sale's lines and removes it.
func (e *SettlementEngine) DeleteSale(ctx context.Context, s Store, id SaleID) error {
	sale, err := e.findSale(ctx, s, id)
	if err != nil {
		return err
	}
	if err := e.reverse(ctx, s, sale); err != nil {
		return err
	}
	if err := s.DeleteSaleItems(ctx, id); err != nil {
		return fmt.Errorf("delete items of sale %d: %w", id, err)
	}
	return s.DeleteSale(ctx, id)
}

// =============================================================================
// SETTLEMENT
// =============================================================================

func (e *SettlementEngine) settle(ctx context.Context, s Store, sale *Sale, lines []SaleLine) error {
	totalValue, totalCost := Zero, Zero
	saleRef := int64(sale.ID)

	for _, line := range lines {
		item, err := e.Inventory.find(ctx, s, line.InventoryItemID)
		if err != nil {
			return err
		}
		if item.QuantityOnHand < line.Quantity {
			return &InsufficientStockError{
				ItemID:    item.ID,
				ItemName:  item.ItemName,
				OnHand:    item.QuantityOnHand,
				Requested: line.Quantity,
			}
		}

		unitCost := item.AverageCost
		lineCost := unitCost.MulQty(line.Quantity).Round()
		lineTotal := line.UnitPrice.MulQty(line.Quantity).Round()

		itemID := item.ID
		saleItem := SaleItem{
			SaleID:          sale.ID,
			InventoryItemID: &itemID,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice.Round(),
			UnitCost:        unitCost,
			LineTotal:       lineTotal,
			LineCost:        lineCost,
		}
		if err := s.CreateSaleItem(ctx, &saleItem); err != nil {
			return fmt.Errorf("record sale item for %s: %w", item.ItemName, err)
		}

		if _, err := e.Inventory.ApplyAdjustment(ctx, s, item, Adjustment{
			QuantityChange: -line.Quantity,
			CostChange:     lineCost.Neg(),
			SourceType:     SourceSale,
			SourceID:       &saleRef,
			Notes:          fmt.Sprintf("Sale %d", sale.ID),
		}); err != nil {
			return err
		}

		sale.Items = append(sale.Items, saleItem)
		totalValue = totalValue.Add(lineTotal)
		totalCost = totalCost.Add(lineCost)
	}

	sale.TotalValue = totalValue.Round()
	sale.TotalCost = totalCost.Round()
	sale.Profit = sale.TotalValue.Sub(sale.TotalCost).Round()
	sale.UpdatedAt = e.Now()
	if err := s.UpdateSale(ctx, sale); err != nil {
		return fmt.Errorf("save sale %d: %w", sale.ID, err)
	}
	return nil
}

func (e *SettlementEngine) reverse(ctx context.Context, s Store, sale *Sale) error {
	for _, si := range sale.Items {
		if si.InventoryItemID == nil {
			continue
		}
		item, err := s.FindInventoryItem(ctx, *si.InventoryItemID)
		if err != nil {
			return err
		}
		if item == nil {
			continue
		}
		if _, err := e.Inventory.ApplyAdjustment(ctx, s, item, Adjustment{
			QuantityChange: si.Quantity,
			CostChange:     si.LineCost,
			SourceType:     SourceAdjustment,
			Notes:          fmt.Sprintf("Reversal of sale %d", sale.ID),
		}); err != nil {
			return fmt.Errorf("reverse sale %d line for item %d: %w", sale.ID, *si.InventoryItemID, err)
		}
	}
	return nil
}

func (e *SettlementEngine) findSale(ctx context.Context, s Store, id SaleID) (*Sale, error) {
	sale, err := s.FindSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, notFound("sale", int64(id))
	}
	return sale, nil
}

func validateLines(lines []SaleLine) error {
	if len(lines) == 0 {
		return invalidAmount("sale requires at least one line")
	}
	for i, l := range lines {
		if l.Quantity <= 0 {
			return invalidAmount("line %d: quantity must be positive, got %d", i+1, l.Quantity)
		}
		if l.UnitPrice.IsNegative() {
			return invalidAmount("line %d: unit price cannot be negative, got %s", i+1, l.UnitPrice)
		}
	}
	return nil
}
