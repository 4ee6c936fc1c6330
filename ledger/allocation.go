/*
allocation.go - Allocation engine: gift card deductions against orders

PURPOSE:
  Applies and reverses sets of gift card allocations for an order. Each
  applied allocation lowers a card's balance and writes a GiftCardUsage
  linking card and order; reversal adds the amounts back.

CONTRACT:
  ApplyAllocations   validate + deduct + record usage, line by line
  RestoreAllocations add every usage amount back; usage rows stay
  ReplaceAllocations restore, delete usages, apply the new set
  DeleteOrder        restore and delete usages before the order goes

ATOMICITY:
  Lines are processed in order and a failure stops the batch. Earlier
  lines have already written inside the open unit-of-work; TxStore.WithTx
  discards them. Always call these inside one WithTx.

DERIVED FIELD:
  Order.GiftCardSpend always equals the sum of the order's live usages.
*/
package ledger

import (
	"context"
	"fmt"
)

type AllocationEngine struct {
	Cards *GiftCardTracker
	Now   Clock
}

func NewAllocationEngine(cards *GiftCardTracker, now Clock) *AllocationEngine {
	if now == nil {
		now = SystemClock
	}
	return &AllocationEngine{Cards: cards, Now: now}
}

// =============================================================================
// ORDER LIFECYCLE
// =============================================================================

// CreateOrder persists order with its items and applies allocations.
func (e *AllocationEngine) CreateOrder(ctx context.Context, s Store, order *Order, allocations []Allocation) error {
	retailer, err := s.FindRetailer(ctx, order.RetailerID)
	if err != nil {
		return err
	}
	if retailer == nil {
		return notFound("retailer", int64(order.RetailerID))
	}
	if order.Status == "" {
		order.Status = OrderOrdered
	}
	if !order.Status.IsValid() {
		return invalidInput("order status %q is not recognised", order.Status)
	}
	if !order.PaymentMethod.IsValid() {
		return invalidInput("payment method %q is not recognised", order.PaymentMethod)
	}
	roundOrderAmounts(order)
	order.GiftCardSpend = Zero
	now := e.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	if err := s.CreateOrder(ctx, order); err != nil {
		return err
	}
	if len(allocations) == 0 {
		return nil
	}
	_, err = e.ApplyAllocations(ctx, s, order, allocations)
	return err
}

// EditOrder saves header fields and replaces the order's allocations.
func (e *AllocationEngine) EditOrder(ctx context.Context, s Store, order *Order, allocations []Allocation) error {
	current, err := e.findOrder(ctx, s, order.ID)
	if err != nil {
		return err
	}
	if order.Status == "" {
		order.Status = current.Status
	}
	if !order.Status.IsValid() {
		return invalidInput("order status %q is not recognised", order.Status)
	}
	if !order.PaymentMethod.IsValid() {
		return invalidInput("payment method %q is not recognised", order.PaymentMethod)
	}
	roundOrderAmounts(order)
	order.CreatedAt = current.CreatedAt
	order.GiftCardSpend = current.GiftCardSpend
	order.Items = current.Items
	order.UpdatedAt = e.Now()
	if err := s.UpdateOrder(ctx, order); err != nil {
		return err
	}
	_, err = e.ReplaceAllocations(ctx, s, order, allocations)
	return err
}

// DeleteOrder restores the order's allocations, then removes it.
func (e *AllocationEngine) DeleteOrder(ctx context.Context, s Store, id OrderID) error {
	order, err := e.findOrder(ctx, s, id)
	if err != nil {
		return err
	}
	if err := e.RestoreAllocations(ctx, s, order); err != nil {
		return err
	}
	if err := s.DeleteUsagesByOrder(ctx, id); err != nil {
		return fmt.Errorf("delete usages of order %d: %w", id, err)
	}
	return s.DeleteOrder(ctx, id)
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

// ApplyAllocations deducts each allocation from its card and records the
// usage. It returns the total allocated by this call.
func (e *AllocationEngine) ApplyAllocations(ctx context.Context, s Store, order *Order, allocations []Allocation) (Money, error) {
	total := Zero
	usageDate := e.Now()
	for i, a := range allocations {
		amount := a.Amount.Round()
		if !amount.IsPositive() {
			return Zero, invalidAmount("allocation %d: gift card allocation amount must be positive, got %s", i+1, a.Amount)
		}
		card, err := e.Cards.Find(ctx, s, a.GiftCardID)
		if err != nil {
			return Zero, err
		}
		if amount.GreaterThan(card.RemainingBalance) {
			return Zero, &InsufficientBalanceError{
				GiftCardID: card.ID,
				SKU:        card.SKU,
				Available:  card.RemainingBalance,
				Requested:  amount,
			}
		}
		if err := e.Cards.Debit(ctx, s, card, amount); err != nil {
			return Zero, err
		}
		orderID := order.ID
		usage := &GiftCardUsage{
			GiftCardID: card.ID,
			OrderID:    &orderID,
			AmountUsed: amount,
			UsageDate:  usageDate,
			CreatedAt:  usageDate,
		}
		if err := s.CreateUsage(ctx, usage); err != nil {
			return Zero, fmt.Errorf("record usage of gift card %s: %w", card.SKU, err)
		}
		total = total.Add(amount)
	}
	if err := e.syncSpend(ctx, s, order); err != nil {
		return Zero, err
	}
	return total, nil
}

// RestoreAllocations credits every usage of the order back to its card.
// Usage rows are left in place; removing them is a separate step.
func (e *AllocationEngine) RestoreAllocations(ctx context.Context, s Store, order *Order) error {
	usages, err := s.ListUsagesByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	for _, u := range usages {
		card, err := s.FindGiftCard(ctx, u.GiftCardID)
		if err != nil {
			return err
		}
		if card == nil {
			// card deleted; its usages went with it
			continue
		}
		if err := e.Cards.Credit(ctx, s, card, u.AmountUsed); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceAllocations is equivalent to never having applied the order's
// current allocations and then applying allocations.
func (e *AllocationEngine) ReplaceAllocations(ctx context.Context, s Store, order *Order, allocations []Allocation) (Money, error) {
	if err := e.RestoreAllocations(ctx, s, order); err != nil {
		return Zero, err
	}
	if err := s.DeleteUsagesByOrder(ctx, order.ID); err != nil {
		return Zero, fmt.Errorf("delete usages of order %d: %w", order.ID, err)
	}
	return e.ApplyAllocations(ctx, s, order, allocations)
}

// syncSpend recomputes GiftCardSpend from the order's usage rows.
func (e *AllocationEngine) syncSpend(ctx context.Context, s Store, order *Order) error {
	usages, err := s.ListUsagesByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	spend := Zero
	for _, u := range usages {
		spend = spend.Add(u.AmountUsed)
	}
	order.GiftCardSpend = spend.Round()
	order.UpdatedAt = e.Now()
	if err := s.UpdateOrder(ctx, order); err != nil {
		return fmt.Errorf("save order %d: %w", order.ID, err)
	}
	return nil
}

func (e *AllocationEngine) findOrder(ctx context.Context, s Store, id OrderID) (*Order, error) {
	order, err := s.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, notFound("order", int64(id))
	}
	return order, nil
}

func roundOrderAmounts(o *Order) {
	o.Subtotal = o.Subtotal.Round()
	o.Tax = o.Tax.Round()
	o.Shipping = o.Shipping.Round()
	o.TotalCost = o.TotalCost.Round()
	o.CreditCardSpend = o.CreditCardSpend.Round()
	for i := range o.Items {
		o.Items[i].UnitPrice = o.Items[i].UnitPrice.Round()
		o.Items[i].TotalPrice = o.Items[i].TotalPrice.Round()
	}
}
