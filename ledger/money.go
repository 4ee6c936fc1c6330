/*
money.go - Fixed-point money primitives

PURPOSE:
  Every monetary value in the ledger is a Money. Money wraps
  decimal.Decimal so arithmetic never touches float64, and fixes the two
  rounding scales the system persists:

    Cents (2 places):     balances, totals, line amounts, cost deltas
    Unit cost (4 places): weighted-average cost per unit

ROUNDING:
  Rounding is half-up on magnitude (decimal.Round semantics):
    2.345  -> 2.35
    -2.345 -> -2.35
  Intermediate results (unit cost * quantity) are kept unrounded until the
  caller persists them.

USAGE:
  price := ledger.MustMoney("5.00")
  total := price.MulQty(3).Round()   // 15.00

SEE ALSO:
  - inventory.go: average cost uses RoundUnitCost
  - settlement.go: line totals use Round
*/
package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// CentsScale is the number of decimal places persisted for money.
	CentsScale int32 = 2
	// UnitCostScale is the number of decimal places persisted for average unit cost.
	UnitCostScale int32 = 4
)

// Money is a decimal currency amount. The zero value is 0.
type Money struct {
	Value decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{Value: decimal.Zero}

// NewMoney parses a decimal string such as "12.50".
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money %q: %w", s, err)
	}
	return Money{Value: d}, nil
}

// MustMoney is NewMoney for literals known to be valid.
func MustMoney(s string) Money {
	m, err := NewMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromInt returns a whole-unit amount.
func MoneyFromInt(v int64) Money { return Money{Value: decimal.NewFromInt(v)} }

func (m Money) Add(o Money) Money { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money { return Money{Value: m.Value.Neg()} }
func (m Money) MulQty(q int) Money { return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(q)))} }
func (m Money) DivQty(q int) Money { return Money{Value: m.Value.Div(decimal.NewFromInt(int64(q)))} }
func (m Money) IsZero() bool { return m.Value.IsZero() }
func (m Money) IsNegative() bool { return m.Value.IsNegative() }
func (m Money) IsPositive() bool { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool { return m.Value.LessThan(o.Value) }
func (m Money) Cmp(o Money) int { return m.Value.Cmp(o.Value) }
func (m Money) Round() Money { return Money{Value: m.Value.Round(CentsScale)} }
func (m Money) RoundUnitCost() Money { return Money{Value: m.Value.Round(UnitCostScale)} }

// String renders the amount at cent precision.
func (m Money) String() string { return m.Value.StringFixed(CentsScale) }

// UnitCostString renders the amount at unit-cost precision.
func (m Money) UnitCostString() string { return m.Value.StringFixed(UnitCostScale) }

// MarshalJSON encodes money as a JSON string to keep precision on the wire.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Value.String())
}

// UnmarshalJSON accepts both JSON strings and numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Value.UnmarshalJSON(data)
}

// SumMoney adds amounts without intermediate rounding.
func SumMoney(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
