/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures exchanged with the presentation layer. These
  types decouple the ledger's domain model from the wire contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY ON THE WIRE:
  Amounts are ledger.Money, encoded as JSON strings ("12.50"). Requests may
  send strings or numbers.

DATES:
  Calendar dates (order, sale, purchase, usage) are "2006-01-02".
  Timestamps are RFC3339.

VALIDATION:
  Request types carry go-playground/validator tags, checked by
  decodeJSONBody before a handler sees the value. Money amounts and
  cross-field rules are validated by the ledger engines.

SEE ALSO:
  - validate.go: decoding and validation
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/cardledger/ledger"
)

const dateLayout = "2006-01-02"

// =============================================================================
// RETAILERS
// =============================================================================

type RetailerDTO struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	RequiresPIN bool   `json:"requires_pin"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type CreateRetailerRequest struct {
	Code        string `json:"code" validate:"required,alphanum,max=8"`
	Name        string `json:"name" validate:"required,max=100"`
	RequiresPIN bool   `json:"requires_pin"`
	Notes       string `json:"notes"`
}

// =============================================================================
// GIFT CARDS
// =============================================================================

type GiftCardDTO struct {
	ID               int64        `json:"id"`
	RetailerID       int64        `json:"retailer_id"`
	SKU              string       `json:"sku"`
	CardNumber       string       `json:"card_number"`
	PIN              string       `json:"pin,omitempty"`
	AcquisitionCost  ledger.Money `json:"acquisition_cost"`
	FaceValue        ledger.Money `json:"face_value"`
	RemainingBalance ledger.Money `json:"remaining_balance"`
	Status           string       `json:"status"`
	PurchaseDate     string       `json:"purchase_date,omitempty"`
	Notes            string       `json:"notes,omitempty"`
	CreatedAt        string       `json:"created_at"`
	UpdatedAt        string       `json:"updated_at"`
}

type CreateGiftCardRequest struct {
	RetailerCode     string        `json:"retailer_code" validate:"required"`
	SKU              string        `json:"sku"`
	CardNumber       string        `json:"card_number" validate:"required"`
	PIN              string        `json:"pin"`
	AcquisitionCost  ledger.Money  `json:"acquisition_cost"`
	FaceValue        ledger.Money  `json:"face_value"`
	RemainingBalance *ledger.Money `json:"remaining_balance"`
	Status           string        `json:"status" validate:"omitempty,oneof=active used void archived"`
	PurchaseDate     string        `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	Notes            string        `json:"notes"`
}

type SetGiftCardStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active used void archived"`
}

type ImportSkipDTO struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportGiftCardsResponse struct {
	Created []GiftCardDTO   `json:"created"`
	Skipped []ImportSkipDTO `json:"skipped"`
}

type UsageDTO struct {
	ID         int64        `json:"id"`
	GiftCardID int64        `json:"gift_card_id"`
	OrderID    *int64       `json:"order_id"`
	AmountUsed ledger.Money `json:"amount_used"`
	UsageDate  string       `json:"usage_date"`
}

// =============================================================================
// ORDERS
// =============================================================================

type OrderItemDTO struct {
	ID         int64        `json:"id"`
	ItemName   string       `json:"item_name"`
	SKU        string       `json:"sku,omitempty"`
	UPC        string       `json:"upc,omitempty"`
	Quantity   int          `json:"quantity"`
	UnitPrice  ledger.Money `json:"unit_price"`
	TotalPrice ledger.Money `json:"total_price"`
}

type OrderDTO struct {
	ID              int64          `json:"id"`
	RetailerID      int64          `json:"retailer_id"`
	OrderNumber     string         `json:"order_number"`
	OrderDate       string         `json:"order_date"`
	OrderEmail      string         `json:"order_email,omitempty"`
	PaymentMethod   string         `json:"payment_method"`
	Subtotal        ledger.Money   `json:"subtotal"`
	Tax             ledger.Money   `json:"tax"`
	Shipping        ledger.Money   `json:"shipping"`
	TotalCost       ledger.Money   `json:"total_cost"`
	CreditCardSpend ledger.Money   `json:"credit_card_spend"`
	GiftCardSpend   ledger.Money   `json:"gift_card_spend"`
	Status          string         `json:"status"`
	ReceiptPath     string         `json:"receipt_path,omitempty"`
	Items           []OrderItemDTO `json:"items"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

type OrderItemRequest struct {
	ItemName   string       `json:"item_name" validate:"required"`
	SKU        string       `json:"sku"`
	UPC        string       `json:"upc"`
	Quantity   int          `json:"quantity" validate:"gte=1"`
	UnitPrice  ledger.Money `json:"unit_price"`
	TotalPrice ledger.Money `json:"total_price"`
}

type AllocationRequest struct {
	GiftCardID int64        `json:"gift_card_id" validate:"required,gt=0"`
	Amount     ledger.Money `json:"amount"`
}

// OrderRequest is the body of both create and edit. Items are only read on
// create; an edit keeps the stored items.
type OrderRequest struct {
	RetailerCode    string              `json:"retailer_code" validate:"required"`
	OrderNumber     string              `json:"order_number" validate:"required"`
	OrderDate       string              `json:"order_date" validate:"required,datetime=2006-01-02"`
	OrderEmail      string              `json:"order_email" validate:"omitempty,email"`
	PaymentMethod   string              `json:"payment_method" validate:"required,oneof=gift_card credit_card mixed"`
	Subtotal        ledger.Money        `json:"subtotal"`
	Tax             ledger.Money        `json:"tax"`
	Shipping        ledger.Money        `json:"shipping"`
	TotalCost       ledger.Money        `json:"total_cost"`
	CreditCardSpend ledger.Money        `json:"credit_card_spend"`
	Status          string              `json:"status" validate:"omitempty,oneof=ordered shipped cancelled delivered"`
	ReceiptPath     string              `json:"receipt_path"`
	Items           []OrderItemRequest  `json:"items" validate:"dive"`
	Allocations     []AllocationRequest `json:"allocations" validate:"dive"`
}

type ReplaceAllocationsRequest struct {
	Allocations []AllocationRequest `json:"allocations" validate:"dive"`
}

// =============================================================================
// INVENTORY
// =============================================================================

type InventoryItemDTO struct {
	ID             int64        `json:"id"`
	ItemName       string       `json:"item_name"`
	SKU            *string      `json:"sku"`
	UPC            *string      `json:"upc"`
	QuantityOnHand int          `json:"quantity_on_hand"`
	AverageCost    string       `json:"average_cost"`
	TotalCost      ledger.Money `json:"total_cost"`
	Notes          string       `json:"notes,omitempty"`
	CreatedAt      string       `json:"created_at"`
	UpdatedAt      string       `json:"updated_at"`
}

type InventoryItemRequest struct {
	ItemName string  `json:"item_name" validate:"required"`
	SKU      *string `json:"sku" validate:"omitempty,min=1"`
	UPC      *string `json:"upc" validate:"omitempty,numeric"`
	Notes    string  `json:"notes"`
	// Initial stock, create only.
	InitialQuantity int          `json:"initial_quantity" validate:"gte=0"`
	InitialCost     ledger.Money `json:"initial_cost"`
}

type MovementDTO struct {
	ID              int64        `json:"id"`
	InventoryItemID int64        `json:"inventory_item_id"`
	SourceType      string       `json:"source_type"`
	SourceID        *int64       `json:"source_id"`
	OrderItemID     *int64       `json:"order_item_id"`
	QuantityChange  int          `json:"quantity_change"`
	CostChange      ledger.Money `json:"cost_change"`
	MovementDate    string       `json:"movement_date"`
	Notes           string       `json:"notes,omitempty"`
}

type AdjustmentRequest struct {
	QuantityChange int          `json:"quantity_change"`
	CostChange     ledger.Money `json:"cost_change"`
	SourceType     string       `json:"source_type" validate:"omitempty,oneof=order sale adjustment"`
	SourceID       *int64       `json:"source_id"`
	OrderItemID    *int64       `json:"order_item_id"`
	Notes          string       `json:"notes"`
}

// AdjustmentResponse carries the item after the adjustment and the
// movement that recorded it.
type AdjustmentResponse struct {
	Item     InventoryItemDTO `json:"item"`
	Movement MovementDTO      `json:"movement"`
}

// =============================================================================
// SALES
// =============================================================================

type SaleItemDTO struct {
	ID              int64        `json:"id"`
	InventoryItemID *int64       `json:"inventory_item_id"`
	Quantity        int          `json:"quantity"`
	UnitPrice       ledger.Money `json:"unit_price"`
	UnitCost        string       `json:"unit_cost"`
	LineTotal       ledger.Money `json:"line_total"`
	LineCost        ledger.Money `json:"line_cost"`
}

type SaleDTO struct {
	ID         int64         `json:"id"`
	Buyer      string        `json:"buyer,omitempty"`
	SaleDate   string        `json:"sale_date"`
	TotalValue ledger.Money  `json:"total_value"`
	TotalCost  ledger.Money  `json:"total_cost"`
	Profit     ledger.Money  `json:"profit"`
	Notes      string        `json:"notes,omitempty"`
	Items      []SaleItemDTO `json:"items"`
	CreatedAt  string        `json:"created_at"`
	UpdatedAt  string        `json:"updated_at"`
}

type SaleLineRequest struct {
	InventoryItemID int64        `json:"inventory_item_id" validate:"required,gt=0"`
	Quantity        int          `json:"quantity" validate:"gte=1"`
	UnitPrice       ledger.Money `json:"unit_price"`
}

type SaleRequest struct {
	Buyer    string            `json:"buyer"`
	SaleDate string            `json:"sale_date" validate:"required,datetime=2006-01-02"`
	Notes    string            `json:"notes"`
	Lines    []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// =============================================================================
// ACCOUNTS
// =============================================================================

type AccountDTO struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Balance     ledger.Money  `json:"balance"`
	CreditLimit *ledger.Money `json:"credit_limit"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

type CreateAccountRequest struct {
	Name           string        `json:"name" validate:"required"`
	Type           string        `json:"type" validate:"required,oneof=credit_card bank gift_card_pool"`
	CreditLimit    *ledger.Money `json:"credit_limit"`
	Notes          string        `json:"notes"`
	OpeningBalance ledger.Money  `json:"opening_balance"`
}

type AccountTransactionDTO struct {
	ID              int64        `json:"id"`
	AccountID       int64        `json:"account_id"`
	RelatedType     string       `json:"related_type"`
	RelatedID       *int64       `json:"related_id"`
	Amount          ledger.Money `json:"amount"`
	Description     string       `json:"description,omitempty"`
	TransactionDate string       `json:"transaction_date"`
}

type PostTransactionRequest struct {
	RelatedType string       `json:"related_type" validate:"required,oneof=order sale deposit withdrawal"`
	RelatedID   *int64       `json:"related_id"`
	Amount      ledger.Money `json:"amount"`
	Description string       `json:"description"`
}

type PostTransactionResponse struct {
	Account     AccountDTO            `json:"account"`
	Transaction AccountTransactionDTO `json:"transaction"`
}

// =============================================================================
// ANALYTICS / RECONCILIATION
// =============================================================================

type DashboardDTO struct {
	Retailer  string  `json:"retailer"`
	Timeframe string  `json:"timeframe"`
	From      *string `json:"from"`
	GiftCards struct {
		RemainingBalance ledger.Money `json:"remaining_balance"`
		AcquisitionCost  ledger.Money `json:"acquisition_cost"`
	} `json:"gift_cards"`
	Inventory struct {
		TotalUnits int          `json:"total_units"`
		TotalCost  ledger.Money `json:"total_cost"`
	} `json:"inventory"`
	Orders map[string]int `json:"orders"`
	Sales  struct {
		TotalValue ledger.Money `json:"total_value"`
		TotalCost  ledger.Money `json:"total_cost"`
		Profit     ledger.Money `json:"profit"`
	} `json:"sales"`
}

type DiscrepancyDTO struct {
	Entity  string `json:"entity"`
	ID      int64  `json:"id"`
	Label   string `json:"label"`
	Field   string `json:"field"`
	Stored  string `json:"stored"`
	Derived string `json:"derived"`
}

type ReconciliationReportDTO struct {
	CheckedAt     string           `json:"checked_at"`
	Clean         bool             `json:"clean"`
	Items         int              `json:"items_checked"`
	GiftCards     int              `json:"gift_cards_checked"`
	Orders        int              `json:"orders_checked"`
	Accounts      int              `json:"accounts_checked"`
	Discrepancies []DiscrepancyDTO `json:"discrepancies"`
}

type ReconciliationRunDTO struct {
	ID     string                  `json:"id"`
	Source string                  `json:"source"`
	Report ReconciliationReportDTO `json:"report"`
	Error  string                  `json:"error,omitempty"`
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the body of every non-2xx response. Kind is the ledger
// error kind (NotFound, InsufficientBalance, ...) or Validation.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func fmtTimestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func fmtDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func int64Ptr[T ~int64](v *T) *int64 {
	if v == nil {
		return nil
	}
	out := int64(*v)
	return &out
}

func toRetailerDTO(r ledger.Retailer) RetailerDTO {
	return RetailerDTO{
		ID:          int64(r.ID),
		Code:        r.Code,
		Name:        r.Name,
		RequiresPIN: r.RequiresPIN,
		Notes:       r.Notes,
		CreatedAt:   fmtTimestamp(r.CreatedAt),
	}
}

func toGiftCardDTO(c ledger.GiftCard) GiftCardDTO {
	return GiftCardDTO{
		ID:               int64(c.ID),
		RetailerID:       int64(c.RetailerID),
		SKU:              c.SKU,
		CardNumber:       c.CardNumber,
		PIN:              c.PIN,
		AcquisitionCost:  c.AcquisitionCost,
		FaceValue:        c.FaceValue,
		RemainingBalance: c.RemainingBalance,
		Status:           string(c.Status),
		PurchaseDate:     fmtDatePtr(c.PurchaseDate),
		Notes:            c.Notes,
		CreatedAt:        fmtTimestamp(c.CreatedAt),
		UpdatedAt:        fmtTimestamp(c.UpdatedAt),
	}
}

func toUsageDTO(u ledger.GiftCardUsage) UsageDTO {
	return UsageDTO{
		ID:         int64(u.ID),
		GiftCardID: int64(u.GiftCardID),
		OrderID:    int64Ptr(u.OrderID),
		AmountUsed: u.AmountUsed,
		UsageDate:  u.UsageDate.Format(dateLayout),
	}
}

func toOrderDTO(o ledger.Order) OrderDTO {
	items := make([]OrderItemDTO, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemDTO{
			ID:         int64(it.ID),
			ItemName:   it.ItemName,
			SKU:        it.SKU,
			UPC:        it.UPC,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		}
	}
	return OrderDTO{
		ID:              int64(o.ID),
		RetailerID:      int64(o.RetailerID),
		OrderNumber:     o.OrderNumber,
		OrderDate:       o.OrderDate.Format(dateLayout),
		OrderEmail:      o.OrderEmail,
		PaymentMethod:   string(o.PaymentMethod),
		Subtotal:        o.Subtotal,
		Tax:             o.Tax,
		Shipping:        o.Shipping,
		TotalCost:       o.TotalCost,
		CreditCardSpend: o.CreditCardSpend,
		GiftCardSpend:   o.GiftCardSpend,
		Status:          string(o.Status),
		ReceiptPath:     o.ReceiptPath,
		Items:           items,
		CreatedAt:       fmtTimestamp(o.CreatedAt),
		UpdatedAt:       fmtTimestamp(o.UpdatedAt),
	}
}

func toInventoryItemDTO(it ledger.InventoryItem) InventoryItemDTO {
	return InventoryItemDTO{
		ID:             int64(it.ID),
		ItemName:       it.ItemName,
		SKU:            it.SKU,
		UPC:            it.UPC,
		QuantityOnHand: it.QuantityOnHand,
		AverageCost:    it.AverageCost.UnitCostString(),
		TotalCost:      it.TotalCost,
		Notes:          it.Notes,
		CreatedAt:      fmtTimestamp(it.CreatedAt),
		UpdatedAt:      fmtTimestamp(it.UpdatedAt),
	}
}

func toMovementDTO(m ledger.InventoryMovement) MovementDTO {
	return MovementDTO{
		ID:              int64(m.ID),
		InventoryItemID: int64(m.InventoryItemID),
		SourceType:      string(m.SourceType),
		SourceID:        m.SourceID,
		OrderItemID:     int64Ptr(m.OrderItemID),
		QuantityChange:  m.QuantityChange,
		CostChange:      m.CostChange,
		MovementDate:    fmtTimestamp(m.MovementDate),
		Notes:           m.Notes,
	}
}

func toSaleDTO(s ledger.Sale) SaleDTO {
	items := make([]SaleItemDTO, len(s.Items))
	for i, it := range s.Items {
		items[i] = SaleItemDTO{
			ID:              int64(it.ID),
			InventoryItemID: int64Ptr(it.InventoryItemID),
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			UnitCost:        it.UnitCost.UnitCostString(),
			LineTotal:       it.LineTotal,
			LineCost:        it.LineCost,
		}
	}
	return SaleDTO{
		ID:         int64(s.ID),
		Buyer:      s.Buyer,
		SaleDate:   s.SaleDate.Format(dateLayout),
		TotalValue: s.TotalValue,
		TotalCost:  s.TotalCost,
		Profit:     s.Profit,
		Notes:      s.Notes,
		Items:      items,
		CreatedAt:  fmtTimestamp(s.CreatedAt),
		UpdatedAt:  fmtTimestamp(s.UpdatedAt),
	}
}

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		ID:          int64(a.ID),
		Name:        a.Name,
		Type:        string(a.Type),
		Balance:     a.Balance,
		CreditLimit: a.CreditLimit,
		Notes:       a.Notes,
		CreatedAt:   fmtTimestamp(a.CreatedAt),
		UpdatedAt:   fmtTimestamp(a.UpdatedAt),
	}
}

func toAccountTransactionDTO(t ledger.AccountTransaction) AccountTransactionDTO {
	return AccountTransactionDTO{
		ID:              int64(t.ID),
		AccountID:       int64(t.AccountID),
		RelatedType:     string(t.RelatedType),
		RelatedID:       t.RelatedID,
		Amount:          t.Amount,
		Description:     t.Description,
		TransactionDate: fmtTimestamp(t.TransactionDate),
	}
}

func toDashboardDTO(retailer string, d ledger.Dashboard) DashboardDTO {
	var dto DashboardDTO
	dto.Retailer = retailer
	dto.Timeframe = d.Timeframe
	if d.From != nil {
		from := d.From.Format(dateLayout)
		dto.From = &from
	}
	dto.GiftCards.RemainingBalance = d.GiftCards.RemainingBalance
	dto.GiftCards.AcquisitionCost = d.GiftCards.AcquisitionCost
	dto.Inventory.TotalUnits = d.Inventory.TotalUnits
	dto.Inventory.TotalCost = d.Inventory.TotalCost
	dto.Orders = map[string]int{
		string(ledger.OrderOrdered):   d.Orders.Ordered,
		string(ledger.OrderShipped):   d.Orders.Shipped,
		string(ledger.OrderCancelled): d.Orders.Cancelled,
		string(ledger.OrderDelivered): d.Orders.Delivered,
	}
	dto.Sales.TotalValue = d.Sales.TotalValue
	dto.Sales.TotalCost = d.Sales.TotalCost
	dto.Sales.Profit = d.Sales.Profit
	return dto
}

func toReportDTO(r ledger.ReconciliationReport) ReconciliationReportDTO {
	dto := ReconciliationReportDTO{
		Clean:         r.Clean(),
		Items:         r.Items,
		GiftCards:     r.GiftCards,
		Orders:        r.Orders,
		Accounts:      r.Accounts,
		Discrepancies: make([]DiscrepancyDTO, len(r.Discrepancies)),
	}
	if !r.CheckedAt.IsZero() {
		dto.CheckedAt = fmtTimestamp(r.CheckedAt)
	}
	for i, d := range r.Discrepancies {
		dto.Discrepancies[i] = DiscrepancyDTO{
			Entity:  d.Entity,
			ID:      d.ID,
			Label:   d.Label,
			Field:   d.Field,
			Stored:  d.Stored,
			Derived: d.Derived,
		}
	}
	return dto
}

func toRunDTO(run ledger.ReconciliationRun) ReconciliationRunDTO {
	return ReconciliationRunDTO{
		ID:     run.ID,
		Source: run.Source,
		Report: toReportDTO(run.Report),
		Error:  run.Error,
	}
}
