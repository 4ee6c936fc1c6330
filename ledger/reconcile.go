/*
reconcile.go - Consistency checks across the ledgers

PURPOSE:
  Balances are maintained procedurally, so each one has an independent
  derivation that must agree with it:

    inventory item   Σ movement.quantity_change == quantity_on_hand
                     Σ movement.cost_change     == total_cost
    gift card        face_value - Σ usage.amount_used == remaining_balance
    order            Σ usage.amount_used == gift_card_spend
    account          Σ transaction.amount == balance

  Reconcile reports every row where the two disagree. It never repairs
  anything. A gift card whose remaining balance was entered below face
  value at acquisition shows up here too; that is a data finding, not an
  engine fault.

SEE ALSO:
  - api/scheduler.go: runs Reconcile on an interval
*/
package ledger

import (
	"context"
	"fmt"
	"time"
)

// Discrepancy is one disagreement between a stored balance and its derivation.
type Discrepancy struct {
	Entity  string
	ID      int64
	Field   string
	Stored  string
	Derived string
	Label   string
}

type ReconciliationReport struct {
	CheckedAt     time.Time
	Items         int
	GiftCards     int
	Orders        int
	Accounts      int
	Discrepancies []Discrepancy
}

// Clean reports whether no discrepancy was found.
func (r ReconciliationReport) Clean() bool { return len(r.Discrepancies) == 0 }

type Reconciler struct {
	Inventory *InventoryLedger
	Now       Clock
}

func NewReconciler(inventory *InventoryLedger, now Clock) *Reconciler {
	if now == nil {
		now = SystemClock
	}
	return &Reconciler{Inventory: inventory, Now: now}
}

func (r *Reconciler) Reconcile(ctx context.Context, s Store) (ReconciliationReport, error) {
	report := ReconciliationReport{CheckedAt: r.Now()}

	if err := r.checkInventory(ctx, s, &report); err != nil {
		return report, err
	}
	if err := r.checkGiftCards(ctx, s, &report); err != nil {
		return report, err
	}
	if err := r.checkOrders(ctx, s, &report); err != nil {
		return report, err
	}
	if err := r.checkAccounts(ctx, s, &report); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Reconciler) checkInventory(ctx context.Context, s Store, report *ReconciliationReport) error {
	items, err := s.ListInventoryItems(ctx)
	if err != nil {
		return fmt.Errorf("list inventory items: %w", err)
	}
	for _, it := range items {
		report.Items++
		quantity, cost, err := r.Inventory.Replay(ctx, s, it.ID)
		if err != nil {
			return fmt.Errorf("replay item %d: %w", it.ID, err)
		}
		if quantity != it.QuantityOnHand {
			report.add(Discrepancy{
				Entity: "inventory item", ID: int64(it.ID), Field: "quantity_on_hand",
				Stored: fmt.Sprint(it.QuantityOnHand), Derived: fmt.Sprint(quantity),
				Label: it.ItemName,
			})
		}
		if !cost.Round().Equal(it.TotalCost) {
			report.add(Discrepancy{
				Entity: "inventory item", ID: int64(it.ID), Field: "total_cost",
				Stored: it.TotalCost.String(), Derived: cost.Round().String(),
				Label: it.ItemName,
			})
		}
	}
	return nil
}

func (r *Reconciler) checkGiftCards(ctx context.Context, s Store, report *ReconciliationReport) error {
	cards, err := s.ListGiftCards(ctx, GiftCardFilter{})
	if err != nil {
		return fmt.Errorf("list gift cards: %w", err)
	}
	for _, c := range cards {
		report.GiftCards++
		usages, err := s.ListUsagesByGiftCard(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("list usages of gift card %d: %w", c.ID, err)
		}
		used := Zero
		for _, u := range usages {
			used = used.Add(u.AmountUsed)
		}
		derived := c.FaceValue.Sub(used).Round()
		if !derived.Equal(c.RemainingBalance) {
			report.add(Discrepancy{
				Entity: "gift card", ID: int64(c.ID), Field: "remaining_balance",
				Stored: c.RemainingBalance.String(), Derived: derived.String(),
				Label: c.SKU,
			})
		}
	}
	return nil
}

func (r *Reconciler) checkOrders(ctx context.Context, s Store, report *ReconciliationReport) error {
	orders, err := s.ListOrders(ctx, OrderFilter{})
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}
	for _, o := range orders {
		report.Orders++
		usages, err := s.ListUsagesByOrder(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("list usages of order %d: %w", o.ID, err)
		}
		spend := Zero
		for _, u := range usages {
			spend = spend.Add(u.AmountUsed)
		}
		if !spend.Round().Equal(o.GiftCardSpend) {
			report.add(Discrepancy{
				Entity: "order", ID: int64(o.ID), Field: "gift_card_spend",
				Stored: o.GiftCardSpend.String(), Derived: spend.Round().String(),
				Label: o.OrderNumber,
			})
		}
	}
	return nil
}

func (r *Reconciler) checkAccounts(ctx context.Context, s Store, report *ReconciliationReport) error {
	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accounts {
		report.Accounts++
		txs, err := s.ListAccountTransactions(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("list transactions of account %d: %w", a.ID, err)
		}
		sum := Zero
		for _, tx := range txs {
			sum = sum.Add(tx.Amount)
		}
		if !sum.Round().Equal(a.Balance) {
			report.add(Discrepancy{
				Entity: "account", ID: int64(a.ID), Field: "balance",
				Stored: a.Balance.String(), Derived: sum.Round().String(),
				Label: a.Name,
			})
		}
	}
	return nil
}

func (r *ReconciliationReport) add(d Discrepancy) {
	r.Discrepancies = append(r.Discrepancies, d)
}

// =============================================================================
// RECONCILIATION RUNS
// =============================================================================

// ReconciliationRun is the persisted outcome of one Reconcile call.
type ReconciliationRun struct {
	ID     string
	Source string // "scheduler" or "manual"
	Report ReconciliationReport
	Error  string
}

// RunStore is implemented by stores that keep a history of runs.
type RunStore interface {
	SaveReconciliationRun(ctx context.Context, run ReconciliationRun) error
	// ListReconciliationRuns returns the newest runs first.
	ListReconciliationRuns(ctx context.Context, limit int) ([]ReconciliationRun, error)
}
