/*
handlers_test.go - HTTP tests for the API router

Tests for:
- Error mapping (400 validation, 404, 409, 422, 501)
- Gift card allocation and inventory settlement through the wire
- Scenarios, analytics and reconciliation endpoints
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/cardledger/api"
	"github.com/warp/cardledger/ledger"
	"github.com/warp/cardledger/ledger/store"
	"github.com/warp/cardledger/metrics"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type testServer struct {
	t      *testing.T
	router http.Handler
	svc    *ledger.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithStore(t, store.NewMemory())
}

func newTestServerWithStore(t *testing.T, st ledger.TxStore) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc := ledger.NewService(st,
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithObserver(metrics.NewActionMetrics(reg)),
	)
	_, err := svc.SeedRetailers(context.Background(), ledger.DefaultRetailers)
	require.NoError(t, err)

	h := api.NewHandler(svc, zerolog.Nop())
	return &testServer{
		t:      t,
		router: api.NewRouter(h, api.RouterOptions{Gatherer: reg}),
		svc:    svc,
	}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}

func assertMoney(t *testing.T, want string, got ledger.Money) {
	t.Helper()
	assert.True(t, ledger.MustMoney(want).Equal(got), "want %s, got %s", want, got)
}

func (s *testServer) createCard(face string) api.GiftCardDTO {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/gift-cards", map[string]any{
		"retailer_code":    "BBY",
		"card_number":      "6011000000000001",
		"pin":              "1234",
		"acquisition_cost": "45.00",
		"face_value":       face,
	})
	requireStatus(s.t, rec, http.StatusCreated)
	return decode[api.GiftCardDTO](s.t, rec)
}

func (s *testServer) createOrder(number, amount string, cardID int64) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.do(http.MethodPost, "/api/orders", map[string]any{
		"retailer_code":  "BBY",
		"order_number":   number,
		"order_date":     "2025-03-14",
		"payment_method": "gift_card",
		"total_cost":     amount,
		"allocations":    []map[string]any{{"gift_card_id": cardID, "amount": amount}},
	})
}

// =============================================================================
// HEALTH / METRICS
// =============================================================================

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", nil)
	requireStatus(t, rec, http.StatusOK)

	rec = s.do(http.MethodGet, "/metrics", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "cardledger_actions_total")
}

// =============================================================================
// RETAILERS / VALIDATION
// =============================================================================

func TestRetailers_CreateListAndConflicts(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/retailers", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[[]api.RetailerDTO](t, rec), len(ledger.DefaultRetailers))

	rec = s.do(http.MethodPost, "/api/retailers", api.CreateRetailerRequest{Code: "tgt", Name: "Target"})
	requireStatus(t, rec, http.StatusCreated)
	assert.Equal(t, "TGT", decode[api.RetailerDTO](t, rec).Code)

	// duplicate code is a conflict
	rec = s.do(http.MethodPost, "/api/retailers", api.CreateRetailerRequest{Code: "TGT", Name: "Target Two"})
	requireStatus(t, rec, http.StatusConflict)
	assert.Equal(t, "DuplicateIdentifier", decode[api.ErrorResponse](t, rec).Kind)

	rec = s.do(http.MethodGet, "/api/retailers/nope", nil)
	requireStatus(t, rec, http.StatusNotFound)
	assert.Equal(t, "NotFound", decode[api.ErrorResponse](t, rec).Kind)
}

func TestValidation_FieldDetails(t *testing.T) {
	s := newTestServer(t)

	// WHEN: required fields are missing
	rec := s.do(http.MethodPost, "/api/retailers", map[string]any{"name": "No Code"})

	// THEN: 400 names the field
	requireStatus(t, rec, http.StatusBadRequest)
	resp := decode[struct {
		Kind    string            `json:"kind"`
		Details map[string]string `json:"details"`
	}](t, rec)
	assert.Equal(t, "Validation", resp.Kind)
	assert.Contains(t, resp.Details, "code")
}

func TestValidation_RejectsMalformedBodies(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]struct {
		method, path string
		body         any
	}{
		"unknown field":  {http.MethodPost, "/api/retailers", `{"code":"X","name":"Y","color":"red"}`},
		"broken json":    {http.MethodPost, "/api/retailers", `{"code":`},
		"bad status":     {http.MethodPost, "/api/gift-cards", map[string]any{"retailer_code": "BBY", "card_number": "1", "status": "lost"}},
		"bad date":       {http.MethodPost, "/api/orders", map[string]any{"retailer_code": "BBY", "order_number": "1", "order_date": "14/03/2025", "payment_method": "gift_card"}},
		"no sale lines":  {http.MethodPost, "/api/sales", map[string]any{"sale_date": "2025-03-14", "lines": []any{}}},
		"non-numeric id": {http.MethodGet, "/api/gift-cards/abc", nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(tc.method, tc.path, tc.body)
			requireStatus(t, rec, http.StatusBadRequest)
		})
	}
}

// =============================================================================
// GIFT CARDS / ORDERS
// =============================================================================

func TestGiftCards_AllocationLifecycle(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: a 50.00 card, remaining defaults to face value
	card := s.createCard("50.00")
	assertMoney(t, "50.00", card.RemainingBalance)
	assert.Equal(t, "BBY-20250315-0001", card.SKU)
	assert.Equal(t, "active", card.Status)

	// WHEN: 20.00 and 30.00 are allocated
	rec := s.createOrder("BBY-1001", "20.00", card.ID)
	requireStatus(t, rec, http.StatusCreated)
	first := decode[api.OrderDTO](t, rec)
	assertMoney(t, "20.00", first.GiftCardSpend)
	assert.Equal(t, "ordered", first.Status)

	rec = s.createOrder("BBY-1002", "30.00", card.ID)
	requireStatus(t, rec, http.StatusCreated)
	second := decode[api.OrderDTO](t, rec)

	// THEN: the card is used up
	rec = s.do(http.MethodGet, "/api/gift-cards/"+itoa(card.ID), nil)
	requireStatus(t, rec, http.StatusOK)
	got := decode[api.GiftCardDTO](t, rec)
	assertMoney(t, "0", got.RemainingBalance)
	assert.Equal(t, "used", got.Status)

	// AND: an overdraw is 422 and changes nothing
	rec = s.createOrder("BBY-1003", "60.00", card.ID)
	requireStatus(t, rec, http.StatusUnprocessableEntity)
	assert.Equal(t, "InsufficientBalance", decode[api.ErrorResponse](t, rec).Kind)

	rec = s.do(http.MethodGet, "/api/gift-cards/"+itoa(card.ID)+"/usages", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[[]api.UsageDTO](t, rec), 2)

	// WHEN: both orders are deleted
	requireStatus(t, s.do(http.MethodDelete, "/api/orders/"+itoa(first.ID), nil), http.StatusNoContent)
	requireStatus(t, s.do(http.MethodDelete, "/api/orders/"+itoa(second.ID), nil), http.StatusNoContent)

	// THEN: the balance is restored
	rec = s.do(http.MethodGet, "/api/gift-cards/"+itoa(card.ID), nil)
	got = decode[api.GiftCardDTO](t, rec)
	assertMoney(t, "50.00", got.RemainingBalance)
	assert.Equal(t, "active", got.Status)

	requireStatus(t, s.do(http.MethodDelete, "/api/orders/"+itoa(first.ID), nil), http.StatusNotFound)
}

func TestOrders_EditAndReplaceAllocations(t *testing.T) {
	s := newTestServer(t)
	card := s.createCard("50.00")
	rec := s.createOrder("BBY-1001", "20.00", card.ID)
	requireStatus(t, rec, http.StatusCreated)
	order := decode[api.OrderDTO](t, rec)

	// WHEN: the allocation is raised to 45.00
	rec = s.do(http.MethodPut, "/api/orders/"+itoa(order.ID)+"/allocations", map[string]any{
		"allocations": []map[string]any{{"gift_card_id": card.ID, "amount": "45.00"}},
	})
	requireStatus(t, rec, http.StatusOK)
	assertMoney(t, "45.00", decode[api.OrderDTO](t, rec).GiftCardSpend)

	// WHEN: the order is edited without a status and without allocations
	rec = s.do(http.MethodPut, "/api/orders/"+itoa(order.ID), map[string]any{
		"retailer_code":     "BBY",
		"order_number":      "BBY-1001",
		"order_date":        "2025-03-14",
		"payment_method":    "credit_card",
		"credit_card_spend": "20.00",
	})
	requireStatus(t, rec, http.StatusOK)
	edited := decode[api.OrderDTO](t, rec)

	// THEN: the status is kept and the card is released
	assert.Equal(t, "ordered", edited.Status)
	assert.Equal(t, "credit_card", edited.PaymentMethod)
	assertMoney(t, "0", edited.GiftCardSpend)

	rec = s.do(http.MethodGet, "/api/gift-cards/"+itoa(card.ID), nil)
	assertMoney(t, "50.00", decode[api.GiftCardDTO](t, rec).RemainingBalance)
}

func TestGiftCards_CSVImportExport(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: a Best Buy file with one row missing its PIN
	body := "card_number,pin,acquisition_cost,face_value,remaining_balance\n" +
		"6011000000000001,1234,45.00,50.00,50.00\n" +
		"6011000000000002,,45.00,50.00,50.00\n" +
		"6011000000000003,5678,20.00,25.00,\n"

	// WHEN
	rec := s.do(http.MethodPost, "/api/gift-cards/import?retailer=bby", body)

	// THEN: two cards with sequential skus, one skip
	requireStatus(t, rec, http.StatusCreated)
	resp := decode[api.ImportGiftCardsResponse](t, rec)
	require.Len(t, resp.Created, 2)
	assert.Equal(t, "BBY-20250315-0001", resp.Created[0].SKU)
	assert.Equal(t, "BBY-20250315-0002", resp.Created[1].SKU)
	assertMoney(t, "25.00", resp.Created[1].RemainingBalance)
	assert.Equal(t, []api.ImportSkipDTO{{Row: 2, Reason: "pin required"}}, resp.Skipped)

	// AND: the export carries the same rows in sku order
	rec = s.do(http.MethodGet, "/api/gift-cards/export?retailer=BBY", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"card_number,pin,acquisition_cost,face_value,remaining_balance\n"+
			"6011000000000001,1234,45.00,50.00,50.00\n"+
			"6011000000000003,5678,20.00,25.00,25.00\n",
		rec.Body.String())

	// AND: a file without the required columns is rejected whole
	rec = s.do(http.MethodPost, "/api/gift-cards/import?retailer=BBY", "card_number\n1\n")
	requireStatus(t, rec, http.StatusUnprocessableEntity)
	assert.Equal(t, "InvalidInput", decode[api.ErrorResponse](t, rec).Kind)

	requireStatus(t, s.do(http.MethodGet, "/api/gift-cards/export", nil), http.StatusBadRequest)
	requireStatus(t, s.do(http.MethodGet, "/api/gift-cards/export?retailer=XYZ", nil), http.StatusNotFound)
}

func TestGiftCards_StatusOverride(t *testing.T) {
	s := newTestServer(t)
	card := s.createCard("25.00")

	rec := s.do(http.MethodPut, "/api/gift-cards/"+itoa(card.ID)+"/status", api.SetGiftCardStatusRequest{Status: "void"})
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "void", decode[api.GiftCardDTO](t, rec).Status)

	rec = s.do(http.MethodPut, "/api/gift-cards/999/status", api.SetGiftCardStatusRequest{Status: "void"})
	requireStatus(t, rec, http.StatusNotFound)
}

func TestRetailers_DeleteWithOrdersConflicts(t *testing.T) {
	s := newTestServer(t)
	card := s.createCard("50.00")
	requireStatus(t, s.createOrder("BBY-1001", "20.00", card.ID), http.StatusCreated)

	rec := s.do(http.MethodDelete, "/api/retailers/BBY", nil)
	requireStatus(t, rec, http.StatusConflict)
	assert.Equal(t, "Referenced", decode[api.ErrorResponse](t, rec).Kind)

	requireStatus(t, s.do(http.MethodDelete, "/api/retailers/HDP", nil), http.StatusNoContent)
}

// =============================================================================
// INVENTORY / SALES
// =============================================================================

func TestInventory_SaleSettlement(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: 10 units costing 20.00
	rec := s.do(http.MethodPost, "/api/inventory", map[string]any{
		"item_name":        "USB-C Cable 1m",
		"sku":              "CBL-USBC-1M",
		"initial_quantity": 10,
		"initial_cost":     "20.00",
	})
	requireStatus(t, rec, http.StatusCreated)
	item := decode[api.InventoryItemDTO](t, rec)
	assert.Equal(t, 10, item.QuantityOnHand)
	assert.Equal(t, "2.0000", item.AverageCost)

	// WHEN: 3 are sold at 5.00
	rec = s.do(http.MethodPost, "/api/sales", map[string]any{
		"buyer":     "walk-in",
		"sale_date": "2025-03-15",
		"lines":     []map[string]any{{"inventory_item_id": item.ID, "quantity": 3, "unit_price": "5.00"}},
	})
	requireStatus(t, rec, http.StatusCreated)
	sale := decode[api.SaleDTO](t, rec)

	// THEN
	require.Len(t, sale.Items, 1)
	assertMoney(t, "6.00", sale.Items[0].LineCost)
	assertMoney(t, "15.00", sale.Items[0].LineTotal)
	assert.Equal(t, "2.0000", sale.Items[0].UnitCost)
	assertMoney(t, "9.00", sale.Profit)

	rec = s.do(http.MethodGet, "/api/inventory/"+itoa(item.ID), nil)
	requireStatus(t, rec, http.StatusOK)
	stored := decode[api.InventoryItemDTO](t, rec)
	assert.Equal(t, 7, stored.QuantityOnHand)
	assertMoney(t, "14.00", stored.TotalCost)

	// AND: overselling is 422
	rec = s.do(http.MethodPost, "/api/sales", map[string]any{
		"sale_date": "2025-03-15",
		"lines":     []map[string]any{{"inventory_item_id": item.ID, "quantity": 8, "unit_price": "5.00"}},
	})
	requireStatus(t, rec, http.StatusUnprocessableEntity)
	assert.Equal(t, "InsufficientStock", decode[api.ErrorResponse](t, rec).Kind)

	// AND: deleting the sale restores stock
	requireStatus(t, s.do(http.MethodDelete, "/api/sales/"+itoa(sale.ID), nil), http.StatusNoContent)
	rec = s.do(http.MethodGet, "/api/inventory/"+itoa(item.ID), nil)
	assert.Equal(t, 10, decode[api.InventoryItemDTO](t, rec).QuantityOnHand)
}

func TestInventory_AdjustAndReverse(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/inventory", map[string]any{"item_name": "Plug"})
	requireStatus(t, rec, http.StatusCreated)
	item := decode[api.InventoryItemDTO](t, rec)

	rec = s.do(http.MethodPost, "/api/inventory/"+itoa(item.ID)+"/adjustments", map[string]any{
		"quantity_change": 4, "cost_change": "10.00", "source_type": "order",
	})
	requireStatus(t, rec, http.StatusCreated)
	adj := decode[api.AdjustmentResponse](t, rec)
	assert.Equal(t, 4, adj.Item.QuantityOnHand)
	assert.Equal(t, "2.5000", adj.Item.AverageCost)

	rec = s.do(http.MethodPost, "/api/inventory/"+itoa(item.ID)+"/adjustments", map[string]any{"quantity_change": -9})
	requireStatus(t, rec, http.StatusUnprocessableEntity)

	rec = s.do(http.MethodPost, "/api/movements/"+itoa(adj.Movement.ID)+"/reverse", nil)
	requireStatus(t, rec, http.StatusCreated)
	assert.Equal(t, -4, decode[api.MovementDTO](t, rec).QuantityChange)

	rec = s.do(http.MethodGet, "/api/inventory/"+itoa(item.ID)+"/movements", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[[]api.MovementDTO](t, rec), 2)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestAccounts_PostTransaction(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/accounts", map[string]any{
		"name": "Checking", "type": "bank", "opening_balance": "1500.00",
	})
	requireStatus(t, rec, http.StatusCreated)
	acct := decode[api.AccountDTO](t, rec)
	assertMoney(t, "1500.00", acct.Balance)

	rec = s.do(http.MethodPost, "/api/accounts/"+itoa(acct.ID)+"/transactions", map[string]any{
		"related_type": "withdrawal", "amount": "-200.00", "description": "rent",
	})
	requireStatus(t, rec, http.StatusCreated)
	posted := decode[api.PostTransactionResponse](t, rec)
	assertMoney(t, "1300.00", posted.Account.Balance)

	rec = s.do(http.MethodGet, "/api/accounts/"+itoa(acct.ID)+"/transactions", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[[]api.AccountTransactionDTO](t, rec), 2)

	rec = s.do(http.MethodPost, "/api/accounts/"+itoa(acct.ID)+"/transactions", map[string]any{
		"related_type": "deposit", "amount": "0",
	})
	requireStatus(t, rec, http.StatusUnprocessableEntity)
	assert.Equal(t, "InvalidAmount", decode[api.ErrorResponse](t, rec).Kind)
}

// =============================================================================
// SCENARIOS / ANALYTICS / RECONCILIATION
// =============================================================================

func TestScenarios_LoadFullDemo(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/scenarios", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[[]api.ScenarioDTO](t, rec), 4)

	rec = s.do(http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "full-demo"})
	requireStatus(t, rec, http.StatusOK)

	rec = s.do(http.MethodGet, "/api/scenarios/current", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "full-demo", decode[api.ScenarioDTO](t, rec).ID)

	// THEN: the dashboard sees every retailer's cards and the sale
	rec = s.do(http.MethodGet, "/api/analytics?timeframe=30d", nil)
	requireStatus(t, rec, http.StatusOK)
	dash := decode[api.DashboardDTO](t, rec)
	assert.Equal(t, "ALL", dash.Retailer)
	assertMoney(t, "25.00", dash.GiftCards.RemainingBalance)
	assertMoney(t, "137.50", dash.GiftCards.AcquisitionCost)
	assert.Equal(t, 9, dash.Inventory.TotalUnits)
	assertMoney(t, "9.00", dash.Sales.Profit)
	assert.Equal(t, 2, dash.Orders["ordered"])
	assert.Equal(t, 1, dash.Orders["shipped"])

	rec = s.do(http.MethodGet, "/api/analytics?retailer=bby", nil)
	requireStatus(t, rec, http.StatusOK)
	dash = decode[api.DashboardDTO](t, rec)
	assert.Equal(t, "BBY", dash.Retailer)
	assertMoney(t, "0", dash.GiftCards.RemainingBalance)

	// AND: a freshly loaded scenario reconciles clean
	rec = s.do(http.MethodGet, "/api/reconciliation", nil)
	requireStatus(t, rec, http.StatusOK)
	report := decode[api.ReconciliationReportDTO](t, rec)
	assert.True(t, report.Clean, "%+v", report.Discrepancies)
	assert.Equal(t, 2, report.Accounts)
}

func TestScenarios_UnknownAndReset(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "nope"})
	requireStatus(t, rec, http.StatusBadRequest)

	requireStatus(t, s.do(http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "stocked-item"}), http.StatusOK)
	requireStatus(t, s.do(http.MethodPost, "/api/scenarios/reset", nil), http.StatusOK)

	rec = s.do(http.MethodGet, "/api/inventory", nil)
	requireStatus(t, rec, http.StatusOK)
	assert.Empty(t, decode[[]api.InventoryItemDTO](t, rec))
	rec = s.do(http.MethodGet, "/api/retailers", nil)
	assert.Len(t, decode[[]api.RetailerDTO](t, rec), len(ledger.DefaultRetailers), "reset re-seeds retailers")
}

// txOnly hides the memory store's Reset and run history.
type txOnly struct{ ledger.TxStore }

func TestScenarios_ResetUnsupported(t *testing.T) {
	s := newTestServerWithStore(t, txOnly{store.NewMemory()})

	rec := s.do(http.MethodPost, "/api/scenarios/reset", nil)
	requireStatus(t, rec, http.StatusNotImplemented)
	assert.Equal(t, "Unsupported", decode[api.ErrorResponse](t, rec).Kind)
}

func TestReconciliation_RunHistory(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/reconciliation/run", nil)
	requireStatus(t, rec, http.StatusCreated)
	run := decode[api.ReconciliationRunDTO](t, rec)
	assert.Equal(t, "manual", run.Source)
	assert.True(t, run.Report.Clean)

	rec = s.do(http.MethodGet, "/api/reconciliation/runs?limit=5", nil)
	requireStatus(t, rec, http.StatusOK)
	runs := decode[[]api.ReconciliationRunDTO](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	rec = s.do(http.MethodGet, "/api/reconciliation/runs?limit=0", nil)
	requireStatus(t, rec, http.StatusBadRequest)
}
