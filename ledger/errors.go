/*
errors.go - Error taxonomy for the ledger engines

PURPOSE:
  All failure kinds in one place. Engines fail fast with one of these and
  leave atomicity to the unit-of-work; the presentation layer surfaces
  Kind(err) and the message verbatim.

ERROR KINDS:
  NotFound             referenced row does not exist
  InvalidInput         unknown enum value or missing required field
  InvalidAmount        allocation or sale line value has the wrong sign
  InvalidAdjustment    inventory adjustment is a no-op or drives cost negative
  InsufficientBalance  allocation exceeds a card's remaining balance
  InsufficientStock    deduction exceeds on-hand quantity
  DuplicateIdentifier  unique constraint violation reported by the store
  Referenced           restrict-delete violation reported by the store

USAGE:
  if errors.Is(err, ledger.ErrInsufficientBalance) { ... }

  var stock *ledger.InsufficientStockError
  if errors.As(err, &stock) { fmt.Println(stock.ItemName) }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidAdjustment   = errors.New("invalid adjustment")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrReferenced          = errors.New("still referenced")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing row, by id or by natural key.
type NotFoundError struct {
	Entity string
	ID     int64
	Key    string
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q does not exist", e.Entity, e.Key)
	}
	return fmt.Sprintf("%s id %d does not exist", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InsufficientBalanceError identifies the card that could not cover an allocation.
type InsufficientBalanceError struct {
	GiftCardID GiftCardID
	SKU        string
	Available  Money
	Requested  Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("gift card %s does not have enough balance: available %s, requested %s",
		e.SKU, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InsufficientStockError identifies the item that could not cover a deduction.
type InsufficientStockError struct {
	ItemID    InventoryItemID
	ItemName  string
	OnHand    int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s: on hand %d, requested %d",
		e.ItemName, e.OnHand, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// DuplicateError reports a unique constraint violation.
type DuplicateError struct {
	Entity string
	Field  string
	Value  string
}

func (e *DuplicateError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("duplicate %s %s", e.Entity, e.Field)
	}
	return fmt.Sprintf("duplicate %s %s %q", e.Entity, e.Field, e.Value)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateIdentifier }

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func invalidAmount(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAmount, fmt.Sprintf(format, args...))
}

func invalidAdjustment(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAdjustment, fmt.Sprintf(format, args...))
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is caused by the request, so
// correcting the input and retrying can succeed.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidAdjustment) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrDuplicateIdentifier) ||
		errors.Is(err, ErrReferenced)
}

// Kind returns the taxonomy name of err, or "Internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrInvalidAmount):
		return "InvalidAmount"
	case errors.Is(err, ErrInvalidAdjustment):
		return "InvalidAdjustment"
	case errors.Is(err, ErrInsufficientBalance):
		return "InsufficientBalance"
	case errors.Is(err, ErrInsufficientStock):
		return "InsufficientStock"
	case errors.Is(err, ErrDuplicateIdentifier):
		return "DuplicateIdentifier"
	case errors.Is(err, ErrReferenced):
		return "Referenced"
	}
	return "Internal"
}
