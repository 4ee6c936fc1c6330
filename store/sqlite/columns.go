package sqlite

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/cardledger/ledger"
)

const dateLayout = "2006-01-02"

// =============================================================================
// ENCODING
// =============================================================================

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func fmtDate(t time.Time) string { return t.Format(dateLayout) }

func fmtNullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtDate(*t)
}

func fmtMoney(m ledger.Money) string { return m.String() }

func fmtUnitCost(m ledger.Money) string { return m.UnitCostString() }

func fmtNullMoney(m *ledger.Money) any {
	if m == nil {
		return nil
	}
	return m.String()
}

// =============================================================================
// DECODING - sql.Scanner adapters
// =============================================================================

func text(src any) (string, bool, error) {
	switch v := src.(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	case []byte:
		return string(v), true, nil
	}
	return "", false, fmt.Errorf("unexpected column type %T", src)
}

type moneyCol struct{ dst *ledger.Money }

func (c moneyCol) Scan(src any) error {
	s, ok, err := text(src)
	if err != nil {
		return err
	}
	if !ok {
		*c.dst = ledger.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("parse money %q: %w", s, err)
	}
	*c.dst = ledger.Money{Value: d}
	return nil
}

type nullMoneyCol struct{ dst **ledger.Money }

func (c nullMoneyCol) Scan(src any) error {
	if src == nil {
		*c.dst = nil
		return nil
	}
	var m ledger.Money
	if err := (moneyCol{&m}).Scan(src); err != nil {
		return err
	}
	*c.dst = &m
	return nil
}

type timeCol struct{ dst *time.Time }

func (c timeCol) Scan(src any) error {
	s, ok, err := text(src)
	if err != nil || !ok {
		return err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	*c.dst = t
	return nil
}

type dateCol struct{ dst *time.Time }

func (c dateCol) Scan(src any) error {
	s, ok, err := text(src)
	if err != nil || !ok {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	*c.dst = t
	return nil
}

type nullDateCol struct{ dst **time.Time }

func (c nullDateCol) Scan(src any) error {
	if src == nil {
		*c.dst = nil
		return nil
	}
	var t time.Time
	if err := (dateCol{&t}).Scan(src); err != nil {
		return err
	}
	*c.dst = &t
	return nil
}

// textCol scans a nullable TEXT column into a plain string ("" for NULL).
type textCol struct{ dst *string }

func (c textCol) Scan(src any) error {
	s, _, err := text(src)
	if err != nil {
		return err
	}
	*c.dst = s
	return nil
}
