/*
Package cardcsv reads and writes gift card CSV files.

COLUMNS:
  card_number, [pin,] acquisition_cost, face_value, remaining_balance

  The pin column is present only for retailers that require a PIN.
  Headers are matched case-insensitively; extra columns are ignored.

IMPORT:
  Parse never persists anything. Rows without a card number, or without a
  PIN for a PIN retailer, are skipped and logged rather than failing the
  file. A money cell that does not parse is logged and left empty. A file
  missing a required column fails as a whole with ledger.ErrInvalidInput.

EXPORT:
  Write emits the header and one row per card in the order given.
*/
package cardcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/warp/cardledger/ledger"
)

const (
	ColCardNumber       = "card_number"
	ColPIN              = "pin"
	ColAcquisitionCost  = "acquisition_cost"
	ColFaceValue        = "face_value"
	ColRemainingBalance = "remaining_balance"
)

// Format is the column layout used for one retailer.
type Format struct {
	RetailerCode string
	Columns      []string
	RequiresPIN  bool
}

// FormatFor returns the layout for r.
func FormatFor(r ledger.Retailer) Format {
	cols := []string{ColCardNumber}
	if r.RequiresPIN {
		cols = append(cols, ColPIN)
	}
	cols = append(cols, ColAcquisitionCost, ColFaceValue, ColRemainingBalance)
	return Format{RetailerCode: r.Code, Columns: cols, RequiresPIN: r.RequiresPIN}
}

// Row is one parsed card. Money fields are nil when the cell was empty or
// unparseable.
type Row struct {
	Line             int
	CardNumber       string
	PIN              string
	AcquisitionCost  *ledger.Money
	FaceValue        *ledger.Money
	RemainingBalance *ledger.Money
}

// GiftCard converts the row to a card for retailerID. A missing remaining
// balance defaults to the face value.
func (r Row) GiftCard(retailerID ledger.RetailerID) ledger.GiftCard {
	card := ledger.GiftCard{
		RetailerID: retailerID,
		CardNumber: r.CardNumber,
		PIN:        r.PIN,
	}
	if r.AcquisitionCost != nil {
		card.AcquisitionCost = *r.AcquisitionCost
	}
	if r.FaceValue != nil {
		card.FaceValue = *r.FaceValue
	}
	card.RemainingBalance = card.FaceValue
	if r.RemainingBalance != nil {
		card.RemainingBalance = *r.RemainingBalance
	}
	return card
}

// Skip records a row left out of the import.
type Skip struct {
	Line   int
	Reason string
}

type Result struct {
	Rows    []Row
	Skipped []Skip
}

// =============================================================================
// IMPORT
// =============================================================================

// Parse reads a CSV file laid out as f. Line numbers count data rows from 1.
func Parse(r io.Reader, f Format, log zerolog.Logger) (Result, error) {
	log = log.With().Str("retailer", f.RetailerCode).Logger()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, fmt.Errorf("%w: csv file is empty", ledger.ErrInvalidInput)
	}
	if err != nil {
		return Result{}, fmt.Errorf("%w: read csv header: %v", ledger.ErrInvalidInput, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, col := range f.Columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return Result{}, fmt.Errorf("%w: csv file is missing required columns: %s",
			ledger.ErrInvalidInput, strings.Join(missing, ", "))
	}

	var res Result
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: read csv row %d: %v", ledger.ErrInvalidInput, line, err)
		}
		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := Row{Line: line, CardNumber: cell(ColCardNumber), PIN: cell(ColPIN)}
		if row.CardNumber == "" {
			res.Skipped = append(res.Skipped, Skip{Line: line, Reason: "missing card_number"})
			log.Warn().Int("row", line).Msg("row skipped: missing card_number")
			continue
		}
		if f.RequiresPIN && row.PIN == "" {
			res.Skipped = append(res.Skipped, Skip{Line: line, Reason: "pin required"})
			log.Warn().Int("row", line).Msg("row skipped: pin required")
			continue
		}
		row.AcquisitionCost = parseMoney(log, line, cell(ColAcquisitionCost))
		row.FaceValue = parseMoney(log, line, cell(ColFaceValue))
		row.RemainingBalance = parseMoney(log, line, cell(ColRemainingBalance))
		res.Rows = append(res.Rows, row)
	}

	log.Info().Int("rows", len(res.Rows)).Int("skipped", len(res.Skipped)).Msg("parsed gift card csv")
	return res, nil
}

func parseMoney(log zerolog.Logger, line int, value string) *ledger.Money {
	if value == "" {
		return nil
	}
	m, err := ledger.NewMoney(value)
	if err != nil {
		log.Warn().Int("row", line).Str("value", value).Msg("could not parse amount")
		return nil
	}
	return &m
}

// =============================================================================
// EXPORT
// =============================================================================

// Write emits cards laid out as f.
func Write(w io.Writer, f Format, cards []ledger.GiftCard) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(f.Columns))
	for _, card := range cards {
		for i, col := range f.Columns {
			switch col {
			case ColCardNumber:
				record[i] = card.CardNumber
			case ColPIN:
				record[i] = card.PIN
			case ColAcquisitionCost:
				record[i] = card.AcquisitionCost.String()
			case ColFaceValue:
				record[i] = card.FaceValue.String()
			case ColRemainingBalance:
				record[i] = card.RemainingBalance.String()
			default:
				record[i] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row for %s: %w", card.SKU, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
