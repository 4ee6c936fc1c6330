/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the database with realistic
  data for demos. Every scenario goes through ledger.Service, so the data
  it leaves behind satisfies the same invariants as user-entered data.

AVAILABLE SCENARIOS:
  empty:            Default retailers only
  stocked-item:     10 cables at 2.00 average cost; 3 sold at 5.00
  card-allocation:  50.00 Best Buy card spent across two orders
  full-demo:        Both of the above plus accounts and a drained card

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed the default retailers
 3. Run the scenario's loader

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "stocked-item"}

NOTE:
  Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and error mapping
  - ledger/retailers.go: DefaultRetailers
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/cardledger/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	load func(ctx context.Context, svc *ledger.Service) error
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "empty",
			Name:        "Empty",
			Description: "Default retailers, no cards, orders or stock",
		},
		load: func(context.Context, *ledger.Service) error { return nil },
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "stocked-item",
			Name:        "Stocked Item",
			Description: "10 units at 2.00 average cost, 3 sold at 5.00 for 9.00 profit",
		},
		load: loadStockedItem,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "card-allocation",
			Name:        "Card Allocation",
			Description: "A 50.00 card allocated 20.00 to one order and 30.00 to another",
		},
		load: loadCardAllocation,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "full-demo",
			Name:        "Full Demo",
			Description: "Stock, sales, cards across retailers, orders and accounts",
		},
		load: loadFullDemo,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario resets the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, ok := findScenario(req.ScenarioID)
	if !ok {
		h.writeError(w, r, badRequest("unknown scenario", map[string]string{"scenario_id": req.ScenarioID}))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Service.Reset(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.currentScenario = ""
	if _, err := h.Service.SeedRetailers(r.Context(), ledger.DefaultRetailers); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := s.load(r.Context(), h.Service); err != nil {
		h.writeError(w, r, fmt.Errorf("load scenario %s: %w", s.ID, err))
		return
	}
	h.currentScenario = s.ID
	h.Log.Info().Str("scenario", s.ID).Msg("scenario loaded")

	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// ResetDatabase clears all data and re-seeds the default retailers.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Service.Reset(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.currentScenario = ""
	if _, err := h.Service.SeedRetailers(r.Context(), ledger.DefaultRetailers); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// LOADERS
// =============================================================================

func daysAgo(svc *ledger.Service, n int) time.Time {
	now := svc.Now()
	return time.Date(now.Year(), now.Month(), now.Day()-n, 0, 0, 0, 0, time.UTC)
}

func loadStockedItem(ctx context.Context, svc *ledger.Service) error {
	sku := "CBL-USBC-1M"
	item, err := svc.CreateInventoryItem(ctx, &ledger.InventoryItem{
		ItemName: "USB-C Cable 1m",
		SKU:      &sku,
	}, &ledger.Adjustment{
		QuantityChange: 10,
		CostChange:     ledger.MustMoney("20.00"),
		SourceType:     ledger.SourceAdjustment,
		Notes:          "Opening stock",
	})
	if err != nil {
		return err
	}
	_, err = svc.CreateSale(ctx, &ledger.Sale{
		Buyer:    "Local buyer",
		SaleDate: daysAgo(svc, 1),
	}, []ledger.SaleLine{
		{InventoryItemID: item.ID, Quantity: 3, UnitPrice: ledger.MustMoney("5.00")},
	})
	return err
}

func loadCardAllocation(ctx context.Context, svc *ledger.Service) error {
	bby, err := svc.RetailerByCode(ctx, "BBY")
	if err != nil {
		return err
	}
	card, err := svc.CreateGiftCard(ctx, &ledger.GiftCard{
		RetailerID:       bby.ID,
		CardNumber:       "6011000000000001",
		PIN:              "1234",
		AcquisitionCost:  ledger.MustMoney("45.00"),
		FaceValue:        ledger.MustMoney("50.00"),
		RemainingBalance: ledger.MustMoney("50.00"),
	})
	if err != nil {
		return err
	}

	orders := []struct {
		number string
		amount string
		age    int
	}{
		{"BBY-1001", "20.00", 5},
		{"BBY-1002", "30.00", 2},
	}
	for _, o := range orders {
		amount := ledger.MustMoney(o.amount)
		_, err := svc.CreateOrder(ctx, &ledger.Order{
			RetailerID:    bby.ID,
			OrderNumber:   o.number,
			OrderDate:     daysAgo(svc, o.age),
			PaymentMethod: ledger.PaymentGiftCard,
			Subtotal:      amount,
			TotalCost:     amount,
			Items: []ledger.OrderItem{
				{ItemName: "Accessory " + o.number, Quantity: 1, UnitPrice: amount, TotalPrice: amount},
			},
		}, []ledger.Allocation{{GiftCardID: card.ID, Amount: amount}})
		if err != nil {
			return err
		}
	}
	return nil
}

func loadFullDemo(ctx context.Context, svc *ledger.Service) error {
	if err := loadStockedItem(ctx, svc); err != nil {
		return err
	}
	if err := loadCardAllocation(ctx, svc); err != nil {
		return err
	}

	amz, err := svc.RetailerByCode(ctx, "AMZ")
	if err != nil {
		return err
	}
	card, err := svc.CreateGiftCard(ctx, &ledger.GiftCard{
		RetailerID:       amz.ID,
		CardNumber:       "AQ7Z-00000-0002",
		AcquisitionCost:  ledger.MustMoney("92.50"),
		FaceValue:        ledger.MustMoney("100.00"),
		RemainingBalance: ledger.MustMoney("100.00"),
	})
	if err != nil {
		return err
	}
	order, err := svc.CreateOrder(ctx, &ledger.Order{
		RetailerID:      amz.ID,
		OrderNumber:     "113-0000001",
		OrderDate:       daysAgo(svc, 10),
		PaymentMethod:   ledger.PaymentMixed,
		Subtotal:        ledger.MustMoney("120.00"),
		Tax:             ledger.MustMoney("9.60"),
		TotalCost:       ledger.MustMoney("129.60"),
		CreditCardSpend: ledger.MustMoney("54.60"),
		Status:          ledger.OrderShipped,
		Items: []ledger.OrderItem{
			{ItemName: "Wireless Earbuds", Quantity: 2, UnitPrice: ledger.MustMoney("60.00"), TotalPrice: ledger.MustMoney("120.00")},
		},
	}, []ledger.Allocation{{GiftCardID: card.ID, Amount: ledger.MustMoney("75.00")}})
	if err != nil {
		return err
	}

	sku := "EAR-WL-01"
	earbuds, err := svc.CreateInventoryItem(ctx, &ledger.InventoryItem{ItemName: "Wireless Earbuds", SKU: &sku}, nil)
	if err != nil {
		return err
	}
	orderItemID := order.Items[0].ID
	orderRef := int64(order.ID)
	if _, _, err := svc.AdjustInventory(ctx, earbuds.ID, ledger.Adjustment{
		QuantityChange: 2,
		CostChange:     ledger.MustMoney("120.00"),
		SourceType:     ledger.SourceOrder,
		SourceID:       &orderRef,
		OrderItemID:    &orderItemID,
		Notes:          "Order 113-0000001",
	}); err != nil {
		return err
	}

	if _, err := svc.CreateAccount(ctx, &ledger.Account{
		Name: "Checking",
		Type: ledger.AccountBank,
	}, ledger.MustMoney("1500.00")); err != nil {
		return err
	}
	limit := ledger.MustMoney("5000.00")
	cc, err := svc.CreateAccount(ctx, &ledger.Account{
		Name:        "Rewards Visa",
		Type:        ledger.AccountCreditCard,
		CreditLimit: &limit,
	}, ledger.Zero)
	if err != nil {
		return err
	}
	related := int64(order.ID)
	_, _, err = svc.PostAccountTransaction(ctx, cc.ID, ledger.AccountPosting{
		RelatedType: ledger.RelatedOrder,
		RelatedID:   &related,
		Amount:      ledger.MustMoney("-54.60"),
		Description: "Amazon order 113-0000001",
	})
	return err
}
