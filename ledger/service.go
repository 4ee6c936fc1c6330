/*
service.go - One unit-of-work per user action

PURPOSE:
  Service is what the presentation layer talks to. Each exported method is
  one logical action: it opens a transaction on the TxStore, runs the
  engines against the bound Store, and commits only if every step
  succeeded. An "edit order" therefore restores, deletes and re-applies
  allocations atomically; a failing allocation line discards the lines
  before it.

OBSERVABILITY:
  Every unit-of-work gets a uow_id (uuid v4) on its log lines.
    debug  started / committed
    warn   rejected by a client error (Kind in "kind")
    error  anything else
  The optional ActionObserver receives (action, outcome, elapsed) where
  outcome is "ok" or the error Kind.

CONSTRUCTION:
  svc := ledger.NewService(store,
      ledger.WithLogger(log),
      ledger.WithObserver(metrics),
  )
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ActionObserver records the outcome of each unit-of-work.
type ActionObserver interface {
	ObserveAction(action, outcome string, elapsed time.Duration)
}

type Service struct {
	store    TxStore
	log      zerolog.Logger
	observer ActionObserver
	now      Clock

	Inventory   *InventoryLedger
	Cards       *GiftCardTracker
	Allocations *AllocationEngine
	Settlement  *SettlementEngine
	Accounts    *AccountLedger
	Analytics   Analytics
	Reconciler  *Reconciler
}

type Option func(*Service)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithObserver(o ActionObserver) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock pins the time source of every engine.
func WithClock(now Clock) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store TxStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   zerolog.Nop(),
		now:   SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Inventory = NewInventoryLedger(s.now)
	s.Cards = NewGiftCardTracker(s.now)
	s.Allocations = NewAllocationEngine(s.Cards, s.now)
	s.Settlement = NewSettlementEngine(s.Inventory, s.now)
	s.Accounts = NewAccountLedger(s.now)
	s.Reconciler = NewReconciler(s.Inventory, s.now)
	return s
}

// Now returns the service clock.
func (s *Service) Now() time.Time { return s.now() }

func (s *Service) run(ctx context.Context, action string, fn func(st Store) error) error {
	log := s.log.With().Str("action", action).Str("uow_id", uuid.NewString()).Logger()
	start := time.Now()
	log.Debug().Msg("unit of work started")

	err := s.store.WithTx(ctx, fn)

	elapsed := time.Since(start)
	outcome := "ok"
	switch {
	case err == nil:
		log.Debug().Dur("elapsed", elapsed).Msg("unit of work committed")
	case IsNotFound(err) || IsClientError(err):
		outcome = Kind(err)
		log.Warn().Str("kind", outcome).Err(err).Msg("action rejected")
	default:
		outcome = Kind(err)
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("unit of work failed")
	}
	if s.observer != nil {
		s.observer.ObserveAction(action, outcome, elapsed)
	}
	return err
}

// =============================================================================
// RETAILERS
// =============================================================================

func (s *Service) CreateRetailer(ctx context.Context, r *Retailer) (*Retailer, error) {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.Name = strings.TrimSpace(r.Name)
	if r.Code == "" || r.Name == "" {
		return nil, invalidInput("retailer code and name are required")
	}
	r.CreatedAt = s.now()
	err := s.run(ctx, "create_retailer", func(st Store) error {
		return st.CreateRetailer(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// SeedRetailers inserts every retailer whose code is not present yet and
// returns how many were added.
func (s *Service) SeedRetailers(ctx context.Context, retailers []Retailer) (int, error) {
	added := 0
	err := s.run(ctx, "seed_retailers", func(st Store) error {
		added = 0
		for _, r := range retailers {
			existing, err := st.FindRetailerByCode(ctx, r.Code)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			row := r
			row.CreatedAt = s.now()
			if err := st.CreateRetailer(ctx, &row); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	return added, err
}

func (s *Service) ListRetailers(ctx context.Context) ([]Retailer, error) {
	var out []Retailer
	err := s.run(ctx, "list_retailers", func(st Store) error {
		var err error
		out, err = st.ListRetailers(ctx)
		return err
	})
	return out, err
}

func (s *Service) RetailerByCode(ctx context.Context, code string) (*Retailer, error) {
	var out *Retailer
	err := s.run(ctx, "get_retailer", func(st Store) error {
		r, err := st.FindRetailerByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
		if err != nil {
			return err
		}
		if r == nil {
			return &NotFoundError{Entity: "retailer", Key: code}
		}
		out = r
		return nil
	})
	return out, err
}

// DeleteRetailer removes a retailer and its gift cards. It fails with
// ErrReferenced while orders reference the retailer.
func (s *Service) DeleteRetailer(ctx context.Context, id RetailerID) error {
	return s.run(ctx, "delete_retailer", func(st Store) error {
		r, err := st.FindRetailer(ctx, id)
		if err != nil {
			return err
		}
		if r == nil {
			return notFound("retailer", int64(id))
		}
		return st.DeleteRetailer(ctx, id)
	})
}

// =============================================================================
// GIFT CARDS
// =============================================================================

func (s *Service) CreateGiftCard(ctx context.Context, card *GiftCard) (*GiftCard, error) {
	err := s.run(ctx, "create_gift_card", func(st Store) error {
		return s.Cards.CreateGiftCard(ctx, st, card)
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (s *Service) GiftCard(ctx context.Context, id GiftCardID) (*GiftCard, error) {
	var out *GiftCard
	err := s.run(ctx, "get_gift_card", func(st Store) error {
		var err error
		out, err = s.Cards.Find(ctx, st, id)
		return err
	})
	return out, err
}

// ListGiftCards lists cards of the retailer with the given code, or every
// card for ""/"ALL". An unknown code lists nothing.
func (s *Service) ListGiftCards(ctx context.Context, retailerCode string) ([]GiftCard, error) {
	var out []GiftCard
	err := s.run(ctx, "list_gift_cards", func(st Store) error {
		retailerID, known, err := s.Analytics.resolveRetailer(ctx, st, retailerCode)
		if err != nil || !known {
			return err
		}
		out, err = st.ListGiftCards(ctx, GiftCardFilter{RetailerID: retailerID})
		return err
	})
	return out, err
}

func (s *Service) GiftCardUsages(ctx context.Context, id GiftCardID) ([]GiftCardUsage, error) {
	var out []GiftCardUsage
	err := s.run(ctx, "list_gift_card_usages", func(st Store) error {
		if _, err := s.Cards.Find(ctx, st, id); err != nil {
			return err
		}
		var err error
		out, err = st.ListUsagesByGiftCard(ctx, id)
		return err
	})
	return out, err
}

func (s *Service) SetGiftCardStatus(ctx context.Context, id GiftCardID, status GiftCardStatus) (*GiftCard, error) {
	var out *GiftCard
	err := s.run(ctx, "set_gift_card_status", func(st Store) error {
		var err error
		out, err = s.Cards.SetStatus(ctx, st, id, status)
		return err
	})
	return out, err
}

func (s *Service) DeleteGiftCard(ctx context.Context, id GiftCardID) error {
	return s.run(ctx, "delete_gift_card", func(st Store) error {
		return s.Cards.DeleteGiftCard(ctx, st, id)
	})
}

// ImportGiftCards creates every card for retailerID in one unit-of-work;
// one rejected card rejects the batch.
func (s *Service) ImportGiftCards(ctx context.Context, retailerID RetailerID, cards []GiftCard) ([]GiftCard, error) {
	err := s.run(ctx, "import_gift_cards", func(st Store) error {
		for i := range cards {
			cards[i].RetailerID = retailerID
			if err := s.Cards.CreateGiftCard(ctx, st, &cards[i]); err != nil {
				return fmt.Errorf("card %d (%s): %w", i+1, cards[i].CardNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// =============================================================================
// ORDERS
// =============================================================================

func (s *Service) CreateOrder(ctx context.Context, order *Order, allocations []Allocation) (*Order, error) {
	err := s.run(ctx, "create_order", func(st Store) error {
		return s.Allocations.CreateOrder(ctx, st, order, allocations)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// EditOrder saves the order header and replaces its allocations in one
// unit-of-work.
func (s *Service) EditOrder(ctx context.Context, order *Order, allocations []Allocation) (*Order, error) {
	err := s.run(ctx, "edit_order", func(st Store) error {
		return s.Allocations.EditOrder(ctx, st, order, allocations)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ReplaceAllocations swaps the order's allocations, leaving its header as is.
func (s *Service) ReplaceAllocations(ctx context.Context, id OrderID, allocations []Allocation) (*Order, error) {
	var out *Order
	err := s.run(ctx, "replace_allocations", func(st Store) error {
		order, err := s.Allocations.findOrder(ctx, st, id)
		if err != nil {
			return err
		}
		if _, err := s.Allocations.ReplaceAllocations(ctx, st, order, allocations); err != nil {
			return err
		}
		out = order
		return nil
	})
	return out, err
}

func (s *Service) DeleteOrder(ctx context.Context, id OrderID) error {
	return s.run(ctx, "delete_order", func(st Store) error {
		return s.Allocations.DeleteOrder(ctx, st, id)
	})
}

func (s *Service) Order(ctx context.Context, id OrderID) (*Order, error) {
	var out *Order
	err := s.run(ctx, "get_order", func(st Store) error {
		var err error
		out, err = s.Allocations.findOrder(ctx, st, id)
		return err
	})
	return out, err
}

func (s *Service) OrderUsages(ctx context.Context, id OrderID) ([]GiftCardUsage, error) {
	var out []GiftCardUsage
	err := s.run(ctx, "list_order_usages", func(st Store) error {
		if _, err := s.Allocations.findOrder(ctx, st, id); err != nil {
			return err
		}
		var err error
		out, err = st.ListUsagesByOrder(ctx, id)
		return err
	})
	return out, err
}

// ListOrders lists order headers, optionally narrowed by retailer code and
// a start date.
func (s *Service) ListOrders(ctx context.Context, retailerCode string, from *time.Time) ([]Order, error) {
	var out []Order
	err := s.run(ctx, "list_orders", func(st Store) error {
		retailerID, known, err := s.Analytics.resolveRetailer(ctx, st, retailerCode)
		if err != nil || !known {
			return err
		}
		out, err = st.ListOrders(ctx, OrderFilter{RetailerID: retailerID, From: from})
		return err
	})
	return out, err
}

// =============================================================================
// INVENTORY
// =============================================================================

func (s *Service) CreateInventoryItem(ctx context.Context, item *InventoryItem, initial *Adjustment) (*InventoryItem, error) {
	err := s.run(ctx, "create_inventory_item", func(st Store) error {
		return s.Inventory.CreateItem(ctx, st, item, initial)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) UpdateInventoryItem(ctx context.Context, item *InventoryItem) (*InventoryItem, error) {
	err := s.run(ctx, "update_inventory_item", func(st Store) error {
		return s.Inventory.UpdateItem(ctx, st, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) DeleteInventoryItem(ctx context.Context, id InventoryItemID) error {
	return s.run(ctx, "delete_inventory_item", func(st Store) error {
		return s.Inventory.DeleteItem(ctx, st, id)
	})
}

func (s *Service) InventoryItem(ctx context.Context, id InventoryItemID) (*InventoryItem, error) {
	var out *InventoryItem
	err := s.run(ctx, "get_inventory_item", func(st Store) error {
		var err error
		out, err = s.Inventory.find(ctx, st, id)
		return err
	})
	return out, err
}

func (s *Service) ListInventoryItems(ctx context.Context) ([]InventoryItem, error) {
	var out []InventoryItem
	err := s.run(ctx, "list_inventory_items", func(st Store) error {
		var err error
		out, err = st.ListInventoryItems(ctx)
		return err
	})
	return out, err
}

// AdjustInventory applies one adjustment and returns the item and the
// movement it appended.
func (s *Service) AdjustInventory(ctx context.Context, id InventoryItemID, adj Adjustment) (*InventoryItem, *InventoryMovement, error) {
	var (
		item *InventoryItem
		mv   *InventoryMovement
	)
	err := s.run(ctx, "adjust_inventory", func(st Store) error {
		var err error
		item, mv, err = s.Inventory.Adjust(ctx, st, id, adj)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return item, mv, nil
}

func (s *Service) ReverseMovement(ctx context.Context, id MovementID) (*InventoryMovement, error) {
	var out *InventoryMovement
	err := s.run(ctx, "reverse_movement", func(st Store) error {
		var err error
		out, err = s.Inventory.ReverseMovement(ctx, st, id)
		return err
	})
	return out, err
}

func (s *Service) Movements(ctx context.Context, id InventoryItemID) ([]InventoryMovement, error) {
	var out []InventoryMovement
	err := s.run(ctx, "list_movements", func(st Store) error {
		if _, err := s.Inventory.find(ctx, st, id); err != nil {
			return err
		}
		var err error
		out, err = st.ListMovements(ctx, id)
		return err
	})
	return out, err
}

// =============================================================================
// SALES
// =============================================================================

func (s *Service) CreateSale(ctx context.Context, sale *Sale, lines []SaleLine) (*Sale, error) {
	err := s.run(ctx, "create_sale", func(st Store) error {
		_, err := s.Settlement.CreateSale(ctx, st, sale, lines)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Service) UpdateSale(ctx context.Context, sale *Sale, lines []SaleLine) (*Sale, error) {
	err := s.run(ctx, "update_sale", func(st Store) error {
		_, err := s.Settlement.UpdateSale(ctx, st, sale, lines)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Service) DeleteSale(ctx context.Context, id SaleID) error {
	return s.run(ctx, "delete_sale", func(st Store) error {
		return s.Settlement.DeleteSale(ctx, st, id)
	})
}

func (s *Service) Sale(ctx context.Context, id SaleID) (*Sale, error) {
	var out *Sale
	err := s.run(ctx, "get_sale", func(st Store) error {
		var err error
		out, err = s.Settlement.findSale(ctx, st, id)
		return err
	})
	return out, err
}

func (s *Service) ListSales(ctx context.Context, from *time.Time) ([]Sale, error) {
	var out []Sale
	err := s.run(ctx, "list_sales", func(st Store) error {
		var err error
		out, err = st.ListSales(ctx, SaleFilter{From: from})
		return err
	})
	return out, err
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Service) CreateAccount(ctx context.Context, a *Account, opening Money) (*Account, error) {
	err := s.run(ctx, "create_account", func(st Store) error {
		return s.Accounts.CreateAccount(ctx, st, a, opening)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) PostAccountTransaction(ctx context.Context, id AccountID, p AccountPosting) (*Account, *AccountTransaction, error) {
	var (
		account *Account
		tx      *AccountTransaction
	)
	err := s.run(ctx, "post_account_transaction", func(st Store) error {
		var err error
		account, tx, err = s.Accounts.Post(ctx, st, id, p)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return account, tx, nil
}

func (s *Service) Account(ctx context.Context, id AccountID) (*Account, error) {
	var out *Account
	err := s.run(ctx, "get_account", func(st Store) error {
		var err error
		out, err = s.Accounts.Find(ctx, st, id)
		return err
	})
	return out, err
}

func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	err := s.run(ctx, "list_accounts", func(st Store) error {
		var err error
		out, err = st.ListAccounts(ctx)
		return err
	})
	return out, err
}

func (s *Service) AccountTransactions(ctx context.Context, id AccountID) ([]AccountTransaction, error) {
	var out []AccountTransaction
	err := s.run(ctx, "list_account_transactions", func(st Store) error {
		var err error
		out, err = s.Accounts.History(ctx, st, id)
		return err
	})
	return out, err
}

func (s *Service) DeleteAccount(ctx context.Context, id AccountID) error {
	return s.run(ctx, "delete_account", func(st Store) error {
		return s.Accounts.DeleteAccount(ctx, st, id)
	})
}

// =============================================================================
// ANALYTICS / RECONCILIATION
// =============================================================================

// Dashboard bundles every rollup for one retailer filter and timeframe.
type Dashboard struct {
	Timeframe string
	From      *time.Time
	GiftCards GiftCardSummary
	Inventory InventorySummary
	Orders    OrderStatusSummary
	Sales     SalesSummary
}

// Dashboard computes all rollups in one unit-of-work. The timeframe is
// resolved against the service clock.
func (s *Service) Dashboard(ctx context.Context, retailerCode, timeframe string) (Dashboard, error) {
	d := Dashboard{Timeframe: timeframe}
	if start, ok := TimeframeStart(s.now(), timeframe); ok {
		d.From = &start
	}
	err := s.run(ctx, "dashboard", func(st Store) error {
		var err error
		if d.GiftCards, err = s.Analytics.GiftCardSummary(ctx, st, retailerCode); err != nil {
			return err
		}
		if d.Inventory, err = s.Analytics.InventorySummary(ctx, st); err != nil {
			return err
		}
		if d.Orders, err = s.Analytics.OrderStatusSummary(ctx, st, retailerCode, d.From); err != nil {
			return err
		}
		d.Sales, err = s.Analytics.SalesSummary(ctx, st, d.From)
		return err
	})
	return d, err
}

func (s *Service) Reconcile(ctx context.Context) (ReconciliationReport, error) {
	var report ReconciliationReport
	err := s.run(ctx, "reconcile", func(st Store) error {
		var err error
		report, err = s.Reconciler.Reconcile(ctx, st)
		return err
	})
	return report, err
}

// RunReconciliation reconciles and, when the store keeps a run history,
// records the outcome. A failed reconciliation is recorded too.
func (s *Service) RunReconciliation(ctx context.Context, source string) (ReconciliationRun, error) {
	run := ReconciliationRun{ID: uuid.NewString(), Source: source}
	report, err := s.Reconcile(ctx)
	run.Report = report
	if err != nil {
		run.Error = err.Error()
	}
	if rs, ok := s.store.(RunStore); ok {
		if saveErr := rs.SaveReconciliationRun(ctx, run); saveErr != nil {
			s.log.Error().Err(saveErr).Str("run_id", run.ID).Msg("failed to save reconciliation run")
			if err == nil {
				err = saveErr
			}
		}
	}
	return run, err
}

// ReconciliationRuns lists recorded runs, newest first. Stores without a
// run history return none.
func (s *Service) ReconciliationRuns(ctx context.Context, limit int) ([]ReconciliationRun, error) {
	rs, ok := s.store.(RunStore)
	if !ok {
		return nil, nil
	}
	return rs.ListReconciliationRuns(ctx, limit)
}

// ErrResetUnsupported is returned by Reset when the store cannot be wiped.
var ErrResetUnsupported = errors.New("store does not support reset")

// Reset drops every row of the underlying store.
func (s *Service) Reset(ctx context.Context) error {
	r, ok := s.store.(Resetter)
	if !ok {
		return ErrResetUnsupported
	}
	if err := r.Reset(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("store reset")
	return nil
}
