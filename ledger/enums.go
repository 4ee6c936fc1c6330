package ledger

// =============================================================================
// GIFT CARD STATUS
// =============================================================================

// GiftCardStatus is the lifecycle state of a gift card.
type GiftCardStatus string

const (
	GiftCardActive   GiftCardStatus = "active"
	GiftCardUsed     GiftCardStatus = "used"
	GiftCardVoid     GiftCardStatus = "void"
	GiftCardArchived GiftCardStatus = "archived"
)

// IsValid reports whether the value is a known GiftCardStatus.
func (s GiftCardStatus) IsValid() bool {
	switch s {
	case GiftCardActive, GiftCardUsed, GiftCardVoid, GiftCardArchived:
		return true
	}
	return false
}

// IsTerminal reports whether the status is set externally and must survive
// balance changes.
func (s GiftCardStatus) IsTerminal() bool {
	switch s {
	case GiftCardVoid, GiftCardArchived:
		return true
	case GiftCardActive, GiftCardUsed:
		return false
	}
	return false
}

// ParseGiftCardStatus converts raw input into a GiftCardStatus.
func ParseGiftCardStatus(value string) (GiftCardStatus, error) {
	s := GiftCardStatus(value)
	if !s.IsValid() {
		return "", invalidInput("gift card status %q is not recognised", value)
	}
	return s, nil
}

// =============================================================================
// ORDER STATUS / PAYMENT METHOD
// =============================================================================

// OrderStatus tracks fulfilment of a retailer order.
type OrderStatus string

const (
	OrderOrdered   OrderStatus = "ordered"
	OrderShipped   OrderStatus = "shipped"
	OrderCancelled OrderStatus = "cancelled"
	OrderDelivered OrderStatus = "delivered"
)

// OrderStatuses lists every status in display order.
var OrderStatuses = []OrderStatus{OrderOrdered, OrderShipped, OrderCancelled, OrderDelivered}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderOrdered, OrderShipped, OrderCancelled, OrderDelivered:
		return true
	}
	return false
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	s := OrderStatus(value)
	if !s.IsValid() {
		return "", invalidInput("order status %q is not recognised", value)
	}
	return s, nil
}

// PaymentMethod describes how an order was paid.
type PaymentMethod string

const (
	PaymentGiftCard   PaymentMethod = "gift_card"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentMixed      PaymentMethod = "mixed"
)

func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentGiftCard, PaymentCreditCard, PaymentMixed:
		return true
	}
	return false
}

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	p := PaymentMethod(value)
	if !p.IsValid() {
		return "", invalidInput("payment method %q is not recognised", value)
	}
	return p, nil
}

// =============================================================================
// INVENTORY SOURCE TYPE
// =============================================================================

// InventorySourceType names what caused an inventory movement.
type InventorySourceType string

const (
	SourceOrder      InventorySourceType = "order"
	SourceSale       InventorySourceType = "sale"
	SourceAdjustment InventorySourceType = "adjustment"
)

func (s InventorySourceType) IsValid() bool {
	switch s {
	case SourceOrder, SourceSale, SourceAdjustment:
		return true
	}
	return false
}

func ParseInventorySourceType(value string) (InventorySourceType, error) {
	s := InventorySourceType(value)
	if !s.IsValid() {
		return "", invalidInput("inventory source type %q is not recognised", value)
	}
	return s, nil
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountType is the kind of payment account.
type AccountType string

const (
	AccountCreditCard   AccountType = "credit_card"
	AccountBank         AccountType = "bank"
	AccountGiftCardPool AccountType = "gift_card_pool"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountCreditCard, AccountBank, AccountGiftCardPool:
		return true
	}
	return false
}

func ParseAccountType(value string) (AccountType, error) {
	t := AccountType(value)
	if !t.IsValid() {
		return "", invalidInput("account type %q is not recognised", value)
	}
	return t, nil
}

// AccountRelatedType names what an account transaction refers to.
type AccountRelatedType string

const (
	RelatedOrder      AccountRelatedType = "order"
	RelatedSale       AccountRelatedType = "sale"
	RelatedDeposit    AccountRelatedType = "deposit"
	RelatedWithdrawal AccountRelatedType = "withdrawal"
)

func (t AccountRelatedType) IsValid() bool {
	switch t {
	case RelatedOrder, RelatedSale, RelatedDeposit, RelatedWithdrawal:
		return true
	}
	return false
}

func ParseAccountRelatedType(value string) (AccountRelatedType, error) {
	t := AccountRelatedType(value)
	if !t.IsValid() {
		return "", invalidInput("account related type %q is not recognised", value)
	}
	return t, nil
}
