package cardcsv_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cardledger/ledger"
	"github.com/warp/cardledger/ledger/cardcsv"
)

var (
	bestBuy = ledger.Retailer{ID: 1, Code: "BBY", Name: "Best Buy", RequiresPIN: true}
	amazon  = ledger.Retailer{ID: 5, Code: "AMZ", Name: "Amazon"}
)

func TestFormatFor_PinColumnOnlyWhenRequired(t *testing.T) {
	assert.Equal(t,
		[]string{"card_number", "pin", "acquisition_cost", "face_value", "remaining_balance"},
		cardcsv.FormatFor(bestBuy).Columns)
	assert.Equal(t,
		[]string{"card_number", "acquisition_cost", "face_value", "remaining_balance"},
		cardcsv.FormatFor(amazon).Columns)
}

func TestParse_SkipsIncompleteRows(t *testing.T) {
	// GIVEN: a BOM, mixed-case headers, two rows to skip and a bad amount
	input := "\ufeffCard_Number,PIN,acquisition_cost,face_value,remaining_balance\n" +
		"6011000000000001,1234,45.00,50.00,50.00\n" +
		",9999,1,2,3\n" +
		"6011000000000002,,45.00,50.00,50.00\n" +
		"6011000000000003,4321,abc,25.00,\n"

	// WHEN
	res, err := cardcsv.Parse(strings.NewReader(input), cardcsv.FormatFor(bestBuy), zerolog.Nop())

	// THEN
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []cardcsv.Skip{
		{Line: 2, Reason: "missing card_number"},
		{Line: 3, Reason: "pin required"},
	}, res.Skipped)

	first := res.Rows[0]
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, "1234", first.PIN)
	require.NotNil(t, first.FaceValue)
	assert.True(t, ledger.MustMoney("50").Equal(*first.FaceValue))

	last := res.Rows[1]
	assert.Equal(t, 4, last.Line)
	assert.Nil(t, last.AcquisitionCost, "unparseable amount is left empty")
	assert.Nil(t, last.RemainingBalance)

	// AND: the card starts at face value when no balance was given
	card := last.GiftCard(bestBuy.ID)
	assert.Equal(t, bestBuy.ID, card.RetailerID)
	assert.True(t, ledger.MustMoney("25.00").Equal(card.RemainingBalance))
	assert.True(t, card.AcquisitionCost.IsZero())
}

func TestParse_RejectsMissingColumns(t *testing.T) {
	_, err := cardcsv.Parse(strings.NewReader("card_number,face_value\n1,2\n"), cardcsv.FormatFor(bestBuy), zerolog.Nop())

	require.ErrorIs(t, err, ledger.ErrInvalidInput)
	assert.Contains(t, err.Error(), "acquisition_cost, pin, remaining_balance")
}

func TestParse_RejectsEmptyFile(t *testing.T) {
	_, err := cardcsv.Parse(strings.NewReader(""), cardcsv.FormatFor(amazon), zerolog.Nop())
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestWrite_RoundTrips(t *testing.T) {
	cards := []ledger.GiftCard{
		{
			SKU:              "AMZ-20250315-0001",
			CardNumber:       "AQ7Z-00000-0002",
			PIN:              "ignored",
			AcquisitionCost:  ledger.MustMoney("92.5"),
			FaceValue:        ledger.MustMoney("100"),
			RemainingBalance: ledger.MustMoney("25"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, cardcsv.Write(&buf, cardcsv.FormatFor(amazon), cards))
	assert.Equal(t,
		"card_number,acquisition_cost,face_value,remaining_balance\n"+
			"AQ7Z-00000-0002,92.50,100.00,25.00\n",
		buf.String())

	res, err := cardcsv.Parse(&buf, cardcsv.FormatFor(amazon), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	card := res.Rows[0].GiftCard(amazon.ID)
	assert.Empty(t, card.PIN)
	assert.True(t, cards[0].RemainingBalance.Equal(card.RemainingBalance))
}
