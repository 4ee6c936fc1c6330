/*
store.go - Persistence interfaces for the ledger

PURPOSE:
  Defines the boundary between the engines and the relational store.
  Engines load rows with Find*, mutate the returned value, and save it back
  explicitly with Update*. There is no lazy relationship navigation and no
  implicit dirty tracking.

KEY INTERFACES:
  Store:   every repository the engines need, bound to one unit-of-work
  TxStore: opens a unit-of-work; fn's error rolls back every write

LOOKUP CONTRACT:
  Find* returns (nil, nil) when the row does not exist. Engines turn that
  into a NotFoundError; the store never guesses.

CASCADES (implemented by every Store):
  DeleteGiftCard       -> its usages
  DeleteOrder          -> its items; usages keep the card, order_id cleared
  DeleteInventoryItem  -> its movements; sale items keep the line, item cleared
  DeleteSale           -> its sale items
  DeleteRetailer       -> its gift cards; RESTRICTED while orders exist
  DeleteAccount        -> its transactions

UNIQUENESS (surfaced as DuplicateError):
  retailer code, retailer name, gift card sku, inventory sku, inventory upc,
  account name

IMPLEMENTATIONS:
  - ledger/store/memory.go: in-memory, snapshot rollback
  - store/sqlite/sqlite.go: SQLite via database/sql
*/
package ledger

import (
	"context"
	"time"
)

// =============================================================================
// REPOSITORIES
// =============================================================================

type RetailerStore interface {
	CreateRetailer(ctx context.Context, r *Retailer) error
	FindRetailer(ctx context.Context, id RetailerID) (*Retailer, error)
	FindRetailerByCode(ctx context.Context, code string) (*Retailer, error)
	ListRetailers(ctx context.Context) ([]Retailer, error)
	DeleteRetailer(ctx context.Context, id RetailerID) error
}

// GiftCardFilter narrows ListGiftCards. Zero value lists everything.
type GiftCardFilter struct {
	RetailerID *RetailerID
}

type GiftCardStore interface {
	CreateGiftCard(ctx context.Context, card *GiftCard) error
	FindGiftCard(ctx context.Context, id GiftCardID) (*GiftCard, error)
	UpdateGiftCard(ctx context.Context, card *GiftCard) error
	DeleteGiftCard(ctx context.Context, id GiftCardID) error
	// ListGiftCards is ordered by retailer, then sku.
	ListGiftCards(ctx context.Context, filter GiftCardFilter) ([]GiftCard, error)
	// MaxGiftCardSKU returns the lexicographically greatest sku of the
	// retailer starting with prefix, or "" if there is none.
	MaxGiftCardSKU(ctx context.Context, retailerID RetailerID, prefix string) (string, error)

	CreateUsage(ctx context.Context, usage *GiftCardUsage) error
	ListUsagesByOrder(ctx context.Context, orderID OrderID) ([]GiftCardUsage, error)
	ListUsagesByGiftCard(ctx context.Context, cardID GiftCardID) ([]GiftCardUsage, error)
	DeleteUsagesByOrder(ctx context.Context, orderID OrderID) error
}

// OrderFilter narrows ListOrders. From is inclusive on order date.
type OrderFilter struct {
	RetailerID *RetailerID
	From       *time.Time
}

type OrderStore interface {
	// CreateOrder persists the order header and its Items, assigning ids.
	CreateOrder(ctx context.Context, order *Order) error
	// FindOrder loads the header and its Items.
	FindOrder(ctx context.Context, id OrderID) (*Order, error)
	// UpdateOrder saves header fields only.
	UpdateOrder(ctx context.Context, order *Order) error
	DeleteOrder(ctx context.Context, id OrderID) error
	// ListOrders returns headers ordered by order date descending.
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
}

type InventoryStore interface {
	CreateInventoryItem(ctx context.Context, item *InventoryItem) error
	FindInventoryItem(ctx context.Context, id InventoryItemID) (*InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, item *InventoryItem) error
	DeleteInventoryItem(ctx context.Context, id InventoryItemID) error
	// ListInventoryItems is ordered by item name.
	ListInventoryItems(ctx context.Context) ([]InventoryItem, error)

	AppendMovement(ctx context.Context, m *InventoryMovement) error
	FindMovement(ctx context.Context, id MovementID) (*InventoryMovement, error)
	// ListMovements returns an item's movements in insertion order.
	ListMovements(ctx context.Context, itemID InventoryItemID) ([]InventoryMovement, error)
	DeleteMovementsByItem(ctx context.Context, itemID InventoryItemID) error
}

// SaleFilter narrows ListSales. From is inclusive on sale date.
type SaleFilter struct {
	From *time.Time
}

type SaleStore interface {
	// CreateSale persists the header only; items are added with CreateSaleItem.
	CreateSale(ctx context.Context, sale *Sale) error
	// FindSale loads the header and its Items.
	FindSale(ctx context.Context, id SaleID) (*Sale, error)
	UpdateSale(ctx context.Context, sale *Sale) error
	DeleteSale(ctx context.Context, id SaleID) error
	// ListSales returns headers ordered by sale date descending, then id descending.
	ListSales(ctx context.Context, filter SaleFilter) ([]Sale, error)

	CreateSaleItem(ctx context.Context, item *SaleItem) error
	DeleteSaleItems(ctx context.Context, saleID SaleID) error
}

type AccountStore interface {
	CreateAccount(ctx context.Context, a *Account) error
	FindAccount(ctx context.Context, id AccountID) (*Account, error)
	UpdateAccount(ctx context.Context, a *Account) error
	DeleteAccount(ctx context.Context, id AccountID) error
	// ListAccounts is ordered by name.
	ListAccounts(ctx context.Context) ([]Account, error)

	AppendAccountTransaction(ctx context.Context, tx *AccountTransaction) error
	// ListAccountTransactions returns an account's transactions in insertion order.
	ListAccountTransactions(ctx context.Context, accountID AccountID) ([]AccountTransaction, error)
}

// =============================================================================
// STORE / UNIT OF WORK
// =============================================================================

// Store is the full repository surface, bound to one open unit-of-work.
type Store interface {
	RetailerStore
	GiftCardStore
	OrderStore
	InventoryStore
	SaleStore
	AccountStore
}

// TxStore opens units of work.
type TxStore interface {
	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the Store is discarded.
	// If fn returns nil, the writes are committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// Resetter is implemented by stores that can drop every row, used to load
// demo scenarios onto a clean slate.
type Resetter interface {
	Reset(ctx context.Context) error
}
