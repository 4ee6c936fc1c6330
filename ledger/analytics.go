/*
analytics.go - Read-side rollups for the dashboard

PURPOSE:
  Sums and counts over gift cards, inventory, orders and sales. Nothing
  here writes; the figures are computed from the List* results of one
  unit-of-work so they are consistent with each other.

FILTERS:
  retailer code ""/"ALL"  -> every retailer
  unknown retailer code   -> zero sums / zero counts
  from == nil             -> no date cutoff

TIMEFRAMES:
  24h=1d 3d 7d 30d 3m=90d 6m=180d 12m=365d, subtracted from the reference
  instant and truncated to the day. "all", "" and unknown keys have no
  cutoff.
*/
package ledger

import (
	"context"
	"strings"
	"time"
)

// AllRetailers is the retailer code that disables retailer filtering.
const AllRetailers = "ALL"

type GiftCardSummary struct {
	RemainingBalance Money
	AcquisitionCost  Money
}

type InventorySummary struct {
	TotalUnits int
	TotalCost  Money
}

type OrderStatusSummary struct {
	Ordered   int
	Shipped   int
	Cancelled int
	Delivered int
}

type SalesSummary struct {
	TotalValue Money
	TotalCost  Money
	Profit     Money
}

var timeframes = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"3d":  3 * 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"3m":  90 * 24 * time.Hour,
	"6m":  180 * 24 * time.Hour,
	"12m": 365 * 24 * time.Hour,
}

// TimeframeStart maps a symbolic window to its cutoff date. ok is false
// when the key means "no cutoff".
func TimeframeStart(reference time.Time, key string) (start time.Time, ok bool) {
	d, found := timeframes[key]
	if !found {
		return time.Time{}, false
	}
	t := reference.Add(-d)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), true
}

// Analytics computes dashboard rollups.
type Analytics struct{}

// resolveRetailer returns (nil, true) for "all retailers", the retailer id
// for a known code, and (nil, false) for an unknown code.
func (Analytics) resolveRetailer(ctx context.Context, s Store, code string) (*RetailerID, bool, error) {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, AllRetailers) {
		return nil, true, nil
	}
	r, err := s.FindRetailerByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	id := r.ID
	return &id, true, nil
}

func (a Analytics) GiftCardSummary(ctx context.Context, s Store, retailerCode string) (GiftCardSummary, error) {
	sum := GiftCardSummary{RemainingBalance: Zero, AcquisitionCost: Zero}
	retailerID, known, err := a.resolveRetailer(ctx, s, retailerCode)
	if err != nil || !known {
		return sum, err
	}
	cards, err := s.ListGiftCards(ctx, GiftCardFilter{RetailerID: retailerID})
	if err != nil {
		return sum, err
	}
	for _, c := range cards {
		sum.RemainingBalance = sum.RemainingBalance.Add(c.RemainingBalance)
		sum.AcquisitionCost = sum.AcquisitionCost.Add(c.AcquisitionCost)
	}
	sum.RemainingBalance = sum.RemainingBalance.Round()
	sum.AcquisitionCost = sum.AcquisitionCost.Round()
	return sum, nil
}

func (Analytics) InventorySummary(ctx context.Context, s Store) (InventorySummary, error) {
	sum := InventorySummary{TotalCost: Zero}
	items, err := s.ListInventoryItems(ctx)
	if err != nil {
		return sum, err
	}
	for _, it := range items {
		sum.TotalUnits += it.QuantityOnHand
		sum.TotalCost = sum.TotalCost.Add(it.TotalCost)
	}
	sum.TotalCost = sum.TotalCost.Round()
	return sum, nil
}

func (a Analytics) OrderStatusSummary(ctx context.Context, s Store, retailerCode string, from *time.Time) (OrderStatusSummary, error) {
	var sum OrderStatusSummary
	retailerID, known, err := a.resolveRetailer(ctx, s, retailerCode)
	if err != nil || !known {
		return sum, err
	}
	orders, err := s.ListOrders(ctx, OrderFilter{RetailerID: retailerID, From: from})
	if err != nil {
		return sum, err
	}
	for _, o := range orders {
		switch o.Status {
		case OrderOrdered:
			sum.Ordered++
		case OrderShipped:
			sum.Shipped++
		case OrderCancelled:
			sum.Cancelled++
		case OrderDelivered:
			sum.Delivered++
		}
	}
	return sum, nil
}

func (Analytics) SalesSummary(ctx context.Context, s Store, from *time.Time) (SalesSummary, error) {
	sum := SalesSummary{TotalValue: Zero, TotalCost: Zero, Profit: Zero}
	sales, err := s.ListSales(ctx, SaleFilter{From: from})
	if err != nil {
		return sum, err
	}
	for _, sale := range sales {
		sum.TotalValue = sum.TotalValue.Add(sale.TotalValue)
		sum.TotalCost = sum.TotalCost.Add(sale.TotalCost)
		sum.Profit = sum.Profit.Add(sale.Profit)
	}
	sum.TotalValue = sum.TotalValue.Round()
	sum.TotalCost = sum.TotalCost.Round()
	sum.Profit = sum.Profit.Round()
	return sum, nil
}
