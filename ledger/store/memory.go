// Package store provides an in-memory ledger.TxStore.
//
// Memory emulates the relational store's cascades and unique constraints
// so engine tests observe the same behavior as against SQLite.
package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/warp/cardledger/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps every table in maps. Rows are stored by value and handed out
// as copies, so a caller's edits only land through an explicit Update*.
type Memory struct {
	mu   sync.Mutex
	t    tables
	runs []ledger.ReconciliationRun
}

type tables struct {
	retailers  map[ledger.RetailerID]ledger.Retailer
	cards      map[ledger.GiftCardID]ledger.GiftCard
	usages     map[ledger.UsageID]ledger.GiftCardUsage
	orders     map[ledger.OrderID]ledger.Order
	orderItems map[ledger.OrderItemID]ledger.OrderItem
	items      map[ledger.InventoryItemID]ledger.InventoryItem
	movements  map[ledger.MovementID]ledger.InventoryMovement
	sales      map[ledger.SaleID]ledger.Sale
	saleItems  map[ledger.SaleItemID]ledger.SaleItem
	accounts   map[ledger.AccountID]ledger.Account
	accountTxs map[ledger.AccountTxID]ledger.AccountTransaction
	seq        int64
}

func newTables() tables {
	return tables{
		retailers:  make(map[ledger.RetailerID]ledger.Retailer),
		cards:      make(map[ledger.GiftCardID]ledger.GiftCard),
		usages:     make(map[ledger.UsageID]ledger.GiftCardUsage),
		orders:     make(map[ledger.OrderID]ledger.Order),
		orderItems: make(map[ledger.OrderItemID]ledger.OrderItem),
		items:      make(map[ledger.InventoryItemID]ledger.InventoryItem),
		movements:  make(map[ledger.MovementID]ledger.InventoryMovement),
		sales:      make(map[ledger.SaleID]ledger.Sale),
		saleItems:  make(map[ledger.SaleItemID]ledger.SaleItem),
		accounts:   make(map[ledger.AccountID]ledger.Account),
		accountTxs: make(map[ledger.AccountTxID]ledger.AccountTransaction),
	}
}

func (t tables) clone() tables {
	return tables{
		retailers:  maps.Clone(t.retailers),
		cards:      maps.Clone(t.cards),
		usages:     maps.Clone(t.usages),
		orders:     maps.Clone(t.orders),
		orderItems: maps.Clone(t.orderItems),
		items:      maps.Clone(t.items),
		movements:  maps.Clone(t.movements),
		sales:      maps.Clone(t.sales),
		saleItems:  maps.Clone(t.saleItems),
		accounts:   maps.Clone(t.accounts),
		accountTxs: maps.Clone(t.accountTxs),
		seq:        t.seq,
	}
}

// next hands out ids from one sequence shared by every table; ids are
// unique per table and increase in insertion order.
func (t *tables) next() int64 {
	t.seq++
	return t.seq
}

func NewMemory() *Memory {
	return &Memory{t: newTables()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot that is restored
// unless fn returns nil; a panic in fn rolls back before propagating.
func (m *Memory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := m.t.clone()
	committed := false
	defer func() {
		if !committed {
			m.t = snapshot
		}
	}()

	if err := fn(&view{t: &m.t}); err != nil {
		return err
	}
	committed = true
	return nil
}

// Reset drops every row.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = newTables()
	m.runs = nil
	return nil
}

// view is the ledger.Store bound to one open unit-of-work.
type view struct {
	t *tables
}

var _ ledger.Store = (*view)(nil)

func sortedByID[K cmp.Ordered, V any](m map[K]V, keep func(V) bool) []V {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		if keep == nil || keep(m[k]) {
			out = append(out, m[k])
		}
	}
	return out
}

func duplicate(entity, field, value string) error {
	return &ledger.DuplicateError{Entity: entity, Field: field, Value: value}
}

// =============================================================================
// RETAILERS
// =============================================================================

func (v *view) CreateRetailer(_ context.Context, r *ledger.Retailer) error {
	for _, existing := range v.t.retailers {
		if existing.Code == r.Code {
			return duplicate("retailer", "code", r.Code)
		}
		if existing.Name == r.Name {
			return duplicate("retailer", "name", r.Name)
		}
	}
	r.ID = ledger.RetailerID(v.t.next())
	v.t.retailers[r.ID] = *r
	return nil
}

func (v *view) FindRetailer(_ context.Context, id ledger.RetailerID) (*ledger.Retailer, error) {
	r, ok := v.t.retailers[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (v *view) FindRetailerByCode(_ context.Context, code string) (*ledger.Retailer, error) {
	for _, r := range v.t.retailers {
		if r.Code == code {
			return &r, nil
		}
	}
	return nil, nil
}

func (v *view) ListRetailers(_ context.Context) ([]ledger.Retailer, error) {
	out := sortedByID(v.t.retailers, nil)
	slices.SortStableFunc(out, func(a, b ledger.Retailer) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (v *view) DeleteRetailer(_ context.Context, id ledger.RetailerID) error {
	for _, o := range v.t.orders {
		if o.RetailerID == id {
			return fmt.Errorf("%w: retailer %d has orders", ledger.ErrReferenced, id)
		}
	}
	for cardID, c := range v.t.cards {
		if c.RetailerID == id {
			v.deleteCard(cardID)
		}
	}
	delete(v.t.retailers, id)
	return nil
}

// =============================================================================
// GIFT CARDS / USAGES
// =============================================================================

func (v *view) CreateGiftCard(_ context.Context, c *ledger.GiftCard) error {
	for _, existing := range v.t.cards {
		if existing.SKU == c.SKU {
			return duplicate("gift card", "sku", c.SKU)
		}
	}
	c.ID = ledger.GiftCardID(v.t.next())
	v.t.cards[c.ID] = *c
	return nil
}

func (v *view) FindGiftCard(_ context.Context, id ledger.GiftCardID) (*ledger.GiftCard, error) {
	c, ok := v.t.cards[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (v *view) UpdateGiftCard(_ context.Context, c *ledger.GiftCard) error {
	if _, ok := v.t.cards[c.ID]; !ok {
		return fmt.Errorf("update gift card %d: no such row", c.ID)
	}
	for id, existing := range v.t.cards {
		if id != c.ID && existing.SKU == c.SKU {
			return duplicate("gift card", "sku", c.SKU)
		}
	}
	v.t.cards[c.ID] = *c
	return nil
}

func (v *view) DeleteGiftCard(_ context.Context, id ledger.GiftCardID) error {
	v.deleteCard(id)
	return nil
}

func (v *view) deleteCard(id ledger.GiftCardID) {
	for uid, u := range v.t.usages {
		if u.GiftCardID == id {
			delete(v.t.usages, uid)
		}
	}
	delete(v.t.cards, id)
}

func (v *view) ListGiftCards(_ context.Context, f ledger.GiftCardFilter) ([]ledger.GiftCard, error) {
	out := sortedByID(v.t.cards, func(c ledger.GiftCard) bool {
		return f.RetailerID == nil || c.RetailerID == *f.RetailerID
	})
	slices.SortStableFunc(out, func(a, b ledger.GiftCard) int {
		if c := cmp.Compare(a.RetailerID, b.RetailerID); c != 0 {
			return c
		}
		return strings.Compare(a.SKU, b.SKU)
	})
	return out, nil
}

func (v *view) MaxGiftCardSKU(_ context.Context, retailerID ledger.RetailerID, prefix string) (string, error) {
	best := ""
	for _, c := range v.t.cards {
		if c.RetailerID == retailerID && strings.HasPrefix(c.SKU, prefix) && c.SKU > best {
			best = c.SKU
		}
	}
	return best, nil
}

func (v *view) CreateUsage(_ context.Context, u *ledger.GiftCardUsage) error {
	if _, ok := v.t.cards[u.GiftCardID]; !ok {
		return fmt.Errorf("create usage: gift card %d does not exist", u.GiftCardID)
	}
	u.ID = ledger.UsageID(v.t.next())
	v.t.usages[u.ID] = *u
	return nil
}

func (v *view) ListUsagesByOrder(_ context.Context, orderID ledger.OrderID) ([]ledger.GiftCardUsage, error) {
	return sortedByID(v.t.usages, func(u ledger.GiftCardUsage) bool {
		return u.OrderID != nil && *u.OrderID == orderID
	}), nil
}

func (v *view) ListUsagesByGiftCard(_ context.Context, cardID ledger.GiftCardID) ([]ledger.GiftCardUsage, error) {
	return sortedByID(v.t.usages, func(u ledger.GiftCardUsage) bool {
		return u.GiftCardID == cardID
	}), nil
}

func (v *view) DeleteUsagesByOrder(_ context.Context, orderID ledger.OrderID) error {
	for id, u := range v.t.usages {
		if u.OrderID != nil && *u.OrderID == orderID {
			delete(v.t.usages, id)
		}
	}
	return nil
}

// =============================================================================
// ORDERS
// =============================================================================

func (v *view) CreateOrder(_ context.Context, o *ledger.Order) error {
	if _, ok := v.t.retailers[o.RetailerID]; !ok {
		return fmt.Errorf("create order: retailer %d does not exist", o.RetailerID)
	}
	o.ID = ledger.OrderID(v.t.next())
	for i := range o.Items {
		o.Items[i].ID = ledger.OrderItemID(v.t.next())
		o.Items[i].OrderID = o.ID
		v.t.orderItems[o.Items[i].ID] = o.Items[i]
	}
	header := *o
	header.Items = nil
	v.t.orders[o.ID] = header
	return nil
}

func (v *view) FindOrder(_ context.Context, id ledger.OrderID) (*ledger.Order, error) {
	o, ok := v.t.orders[id]
	if !ok {
		return nil, nil
	}
	o.Items = sortedByID(v.t.orderItems, func(it ledger.OrderItem) bool { return it.OrderID == id })
	return &o, nil
}

func (v *view) UpdateOrder(_ context.Context, o *ledger.Order) error {
	if _, ok := v.t.orders[o.ID]; !ok {
		return fmt.Errorf("update order %d: no such row", o.ID)
	}
	header := *o
	header.Items = nil
	v.t.orders[o.ID] = header
	return nil
}

func (v *view) DeleteOrder(_ context.Context, id ledger.OrderID) error {
	for itemID, it := range v.t.orderItems {
		if it.OrderID != id {
			continue
		}
		for mid, m := range v.t.movements {
			if m.OrderItemID != nil && *m.OrderItemID == itemID {
				m.OrderItemID = nil
				v.t.movements[mid] = m
			}
		}
		delete(v.t.orderItems, itemID)
	}
	for uid, u := range v.t.usages {
		if u.OrderID != nil && *u.OrderID == id {
			u.OrderID = nil
			v.t.usages[uid] = u
		}
	}
	delete(v.t.orders, id)
	return nil
}

func (v *view) ListOrders(_ context.Context, f ledger.OrderFilter) ([]ledger.Order, error) {
	out := sortedByID(v.t.orders, func(o ledger.Order) bool {
		if f.RetailerID != nil && o.RetailerID != *f.RetailerID {
			return false
		}
		return f.From == nil || !o.OrderDate.Before(*f.From)
	})
	slices.SortStableFunc(out, func(a, b ledger.Order) int {
		if c := b.OrderDate.Compare(a.OrderDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

// =============================================================================
// INVENTORY
// =============================================================================

func (v *view) checkItemKeys(item *ledger.InventoryItem) error {
	for id, existing := range v.t.items {
		if id == item.ID {
			continue
		}
		if item.SKU != nil && existing.SKU != nil && *item.SKU == *existing.SKU {
			return duplicate("inventory item", "sku", *item.SKU)
		}
		if item.UPC != nil && existing.UPC != nil && *item.UPC == *existing.UPC {
			return duplicate("inventory item", "upc", *item.UPC)
		}
	}
	return nil
}

func (v *view) CreateInventoryItem(_ context.Context, item *ledger.InventoryItem) error {
	item.ID = 0
	if err := v.checkItemKeys(item); err != nil {
		return err
	}
	item.ID = ledger.InventoryItemID(v.t.next())
	v.t.items[item.ID] = *item
	return nil
}

func (v *view) FindInventoryItem(_ context.Context, id ledger.InventoryItemID) (*ledger.InventoryItem, error) {
	item, ok := v.t.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (v *view) UpdateInventoryItem(_ context.Context, item *ledger.InventoryItem) error {
	if _, ok := v.t.items[item.ID]; !ok {
		return fmt.Errorf("update inventory item %d: no such row", item.ID)
	}
	if err := v.checkItemKeys(item); err != nil {
		return err
	}
	v.t.items[item.ID] = *item
	return nil
}

func (v *view) DeleteInventoryItem(_ context.Context, id ledger.InventoryItemID) error {
	for mid, m := range v.t.movements {
		if m.InventoryItemID == id {
			delete(v.t.movements, mid)
		}
	}
	for sid, si := range v.t.saleItems {
		if si.InventoryItemID != nil && *si.InventoryItemID == id {
			si.InventoryItemID = nil
			v.t.saleItems[sid] = si
		}
	}
	delete(v.t.items, id)
	return nil
}

func (v *view) ListInventoryItems(_ context.Context) ([]ledger.InventoryItem, error) {
	out := sortedByID(v.t.items, nil)
	slices.SortStableFunc(out, func(a, b ledger.InventoryItem) int { return strings.Compare(a.ItemName, b.ItemName) })
	return out, nil
}

func (v *view) AppendMovement(_ context.Context, m *ledger.InventoryMovement) error {
	if _, ok := v.t.items[m.InventoryItemID]; !ok {
		return fmt.Errorf("append movement: inventory item %d does not exist", m.InventoryItemID)
	}
	m.ID = ledger.MovementID(v.t.next())
	v.t.movements[m.ID] = *m
	return nil
}

func (v *view) FindMovement(_ context.Context, id ledger.MovementID) (*ledger.InventoryMovement, error) {
	m, ok := v.t.movements[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (v *view) ListMovements(_ context.Context, itemID ledger.InventoryItemID) ([]ledger.InventoryMovement, error) {
	return sortedByID(v.t.movements, func(m ledger.InventoryMovement) bool {
		return m.InventoryItemID == itemID
	}), nil
}

func (v *view) DeleteMovementsByItem(_ context.Context, itemID ledger.InventoryItemID) error {
	for id, m := range v.t.movements {
		if m.InventoryItemID == itemID {
			delete(v.t.movements, id)
		}
	}
	return nil
}

// =============================================================================
// SALES
// =============================================================================

func (v *view) CreateSale(_ context.Context, s *ledger.Sale) error {
	s.ID = ledger.SaleID(v.t.next())
	header := *s
	header.Items = nil
	v.t.sales[s.ID] = header
	return nil
}

func (v *view) FindSale(_ context.Context, id ledger.SaleID) (*ledger.Sale, error) {
	s, ok := v.t.sales[id]
	if !ok {
		return nil, nil
	}
	s.Items = sortedByID(v.t.saleItems, func(si ledger.SaleItem) bool { return si.SaleID == id })
	return &s, nil
}

func (v *view) UpdateSale(_ context.Context, s *ledger.Sale) error {
	if _, ok := v.t.sales[s.ID]; !ok {
		return fmt.Errorf("update sale %d: no such row", s.ID)
	}
	header := *s
	header.Items = nil
	v.t.sales[s.ID] = header
	return nil
}

func (v *view) DeleteSale(_ context.Context, id ledger.SaleID) error {
	for sid, si := range v.t.saleItems {
		if si.SaleID == id {
			delete(v.t.saleItems, sid)
		}
	}
	delete(v.t.sales, id)
	return nil
}

func (v *view) ListSales(_ context.Context, f ledger.SaleFilter) ([]ledger.Sale, error) {
	out := sortedByID(v.t.sales, func(s ledger.Sale) bool {
		return f.From == nil || !s.SaleDate.Before(*f.From)
	})
	slices.SortStableFunc(out, func(a, b ledger.Sale) int {
		if c := b.SaleDate.Compare(a.SaleDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (v *view) CreateSaleItem(_ context.Context, si *ledger.SaleItem) error {
	if _, ok := v.t.sales[si.SaleID]; !ok {
		return fmt.Errorf("create sale item: sale %d does not exist", si.SaleID)
	}
	si.ID = ledger.SaleItemID(v.t.next())
	v.t.saleItems[si.ID] = *si
	return nil
}

func (v *view) DeleteSaleItems(_ context.Context, saleID ledger.SaleID) error {
	for id, si := range v.t.saleItems {
		if si.SaleID == saleID {
			delete(v.t.saleItems, id)
		}
	}
	return nil
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (v *view) CreateAccount(_ context.Context, a *ledger.Account) error {
	for _, existing := range v.t.accounts {
		if existing.Name == a.Name {
			return duplicate("account", "name", a.Name)
		}
	}
	a.ID = ledger.AccountID(v.t.next())
	v.t.accounts[a.ID] = *a
	return nil
}

func (v *view) FindAccount(_ context.Context, id ledger.AccountID) (*ledger.Account, error) {
	a, ok := v.t.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (v *view) UpdateAccount(_ context.Context, a *ledger.Account) error {
	if _, ok := v.t.accounts[a.ID]; !ok {
		return fmt.Errorf("update account %d: no such row", a.ID)
	}
	for id, existing := range v.t.accounts {
		if id != a.ID && existing.Name == a.Name {
			return duplicate("account", "name", a.Name)
		}
	}
	v.t.accounts[a.ID] = *a
	return nil
}

func (v *view) DeleteAccount(_ context.Context, id ledger.AccountID) error {
	for txID, tx := range v.t.accountTxs {
		if tx.AccountID == id {
			delete(v.t.accountTxs, txID)
		}
	}
	delete(v.t.accounts, id)
	return nil
}

func (v *view) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	out := sortedByID(v.t.accounts, nil)
	slices.SortStableFunc(out, func(a, b ledger.Account) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (v *view) AppendAccountTransaction(_ context.Context, tx *ledger.AccountTransaction) error {
	if _, ok := v.t.accounts[tx.AccountID]; !ok {
		return fmt.Errorf("append account transaction: account %d does not exist", tx.AccountID)
	}
	tx.ID = ledger.AccountTxID(v.t.next())
	v.t.accountTxs[tx.ID] = *tx
	return nil
}

func (v *view) ListAccountTransactions(_ context.Context, accountID ledger.AccountID) ([]ledger.AccountTransaction, error) {
	return sortedByID(v.t.accountTxs, func(tx ledger.AccountTransaction) bool {
		return tx.AccountID == accountID
	}), nil
}

// =============================================================================
// RECONCILIATION RUNS
// =============================================================================

func (m *Memory) SaveReconciliationRun(_ context.Context, run ledger.ReconciliationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListReconciliationRuns(_ context.Context, limit int) ([]ledger.ReconciliationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.runs)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
