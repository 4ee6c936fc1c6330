/*
Package ledger is the balance-keeping core of the gift card manager.

PURPOSE:
  Everything that mutates a monetary or quantity balance lives here:
  gift card balances, order allocations, inventory quantity and cost,
  sale settlement and account balances. Presentation, CSV plumbing and
  schema tooling sit outside and call in.

KEY CONCEPTS IN THIS FILE (types.go):
  - Typed identifiers for every row kind
  - Entity structs mirroring the relational store
  - Request values handed to the engines (Allocation, Adjustment, SaleLine)

DESIGN PRINCIPLES:
  1. Every deduction is mirrored by a recorded movement (usage row,
     inventory movement, account transaction)
  2. Every reversal restores prior state exactly
  3. Engines never commit; the unit-of-work boundary (TxStore.WithTx) does
  4. Rows are loaded and saved explicitly through Store; nothing is lazily
     navigated

SEE ALSO:
  - money.go: decimal wrapper and rounding
  - store.go: persistence interfaces
  - service.go: one unit-of-work per user action
*/
package ledger

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	RetailerID      int64
	GiftCardID      int64
	UsageID         int64
	OrderID         int64
	OrderItemID     int64
	InventoryItemID int64
	MovementID      int64
	SaleID          int64
	SaleItemID      int64
	AccountID       int64
	AccountTxID     int64
)

// =============================================================================
// RETAILER - reference data
// =============================================================================

type Retailer struct {
	ID          RetailerID
	Code        string
	Name        string
	RequiresPIN bool
	Notes       string
	CreatedAt   time.Time
}

// =============================================================================
// GIFT CARDS
// =============================================================================

type GiftCard struct {
	ID               GiftCardID
	RetailerID       RetailerID
	SKU              string
	CardNumber       string
	PIN              string
	AcquisitionCost  Money
	FaceValue        Money
	RemainingBalance Money
	Status           GiftCardStatus
	PurchaseDate     *time.Time
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// GiftCardUsage records one allocation of a card's balance to an order.
// Immutable once written; removed only when the allocation is reversed.
type GiftCardUsage struct {
	ID         UsageID
	GiftCardID GiftCardID
	OrderID    *OrderID
	AmountUsed Money
	UsageDate  time.Time
	CreatedAt  time.Time
}

// Allocation asks for Amount to be deducted from a gift card.
type Allocation struct {
	GiftCardID GiftCardID
	Amount     Money
}

// =============================================================================
// ORDERS
// =============================================================================

type Order struct {
	ID              OrderID
	RetailerID      RetailerID
	OrderNumber     string
	OrderDate       time.Time
	OrderEmail      string
	PaymentMethod   PaymentMethod
	Subtotal        Money
	Tax             Money
	Shipping        Money
	TotalCost       Money
	CreditCardSpend Money
	GiftCardSpend   Money
	Status          OrderStatus
	ReceiptPath     string
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is a line of an Order. It has no lifecycle of its own.
type OrderItem struct {
	ID         OrderItemID
	OrderID    OrderID
	ItemName   string
	SKU        string
	UPC        string
	Quantity   int
	UnitPrice  Money
	TotalPrice Money
}

// =============================================================================
// INVENTORY
// =============================================================================

// InventoryItem is a stock-keeping item. QuantityOnHand, TotalCost and
// AverageCost are owned by the inventory ledger; callers never set them.
type InventoryItem struct {
	ID             InventoryItemID
	ItemName       string
	SKU            *string
	UPC            *string
	QuantityOnHand int
	AverageCost    Money
	TotalCost      Money
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InventoryMovement is an immutable ledger entry. It records the delta, not
// the resulting totals, so replaying an item's movements rebuilds the item.
type InventoryMovement struct {
	ID              MovementID
	InventoryItemID InventoryItemID
	SourceType      InventorySourceType
	SourceID        *int64
	OrderItemID     *OrderItemID
	QuantityChange  int
	CostChange      Money
	MovementDate    time.Time
	Notes           string
}

// Adjustment is a requested change to an inventory item.
type Adjustment struct {
	QuantityChange int
	CostChange     Money
	SourceType     InventorySourceType
	SourceID       *int64
	OrderItemID    *OrderItemID
	Notes          string
}

// =============================================================================
// SALES
// =============================================================================

type Sale struct {
	ID         SaleID
	Buyer      string
	SaleDate   time.Time
	TotalValue Money
	TotalCost  Money
	Profit     Money
	Notes      string
	Items      []SaleItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaleItem snapshots the cost basis of a line at settlement time.
// InventoryItemID is nil once the referenced item has been deleted.
type SaleItem struct {
	ID              SaleItemID
	SaleID          SaleID
	InventoryItemID *InventoryItemID
	Quantity        int
	UnitPrice       Money
	UnitCost        Money
	LineTotal       Money
	LineCost        Money
}

// SaleLine is a requested (item, quantity, price) of a sale.
type SaleLine struct {
	InventoryItemID InventoryItemID
	Quantity        int
	UnitPrice       Money
}

// =============================================================================
// ACCOUNTS
// =============================================================================

type Account struct {
	ID          AccountID
	Name        string
	Type        AccountType
	Balance     Money
	CreditLimit *Money
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccountTransaction is an append-only entry in an account's history.
type AccountTransaction struct {
	ID              AccountTxID
	AccountID       AccountID
	RelatedType     AccountRelatedType
	RelatedID       *int64
	Amount          Money
	Description     string
	TransactionDate time.Time
}

// AccountPosting is a requested account transaction.
type AccountPosting struct {
	RelatedType AccountRelatedType
	RelatedID   *int64
	Amount      Money
	Description string
}
