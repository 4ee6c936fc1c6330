/*
giftcard.go - Gift card balance tracker

PURPOSE:
  Keeps a card's status consistent with its remaining balance and issues
  collision-free SKUs.

STATUS RULE:
  After every balance mutation:
    remaining == 0 -> USED
    otherwise      -> ACTIVE
  VOID and ARCHIVED are set externally and are never overwritten by
  balance logic.

SKU FORMAT:
  {retailer_code}-{YYYYMMDD}-{sequence:04d}
  sequence = 1 + numeric suffix of the greatest existing sku with the same
  prefix (a non-numeric suffix counts as 0). Generated inside the same
  unit-of-work that creates the card.
*/
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// STATUS DERIVATION
// =============================================================================

// DeriveStatus returns the status a card with the given balance should have.
func DeriveStatus(current GiftCardStatus, remaining Money) GiftCardStatus {
	switch current {
	case GiftCardVoid, GiftCardArchived:
		return current
	default:
		// active, used, unset or unknown: the balance decides
		if remaining.IsZero() {
			return GiftCardUsed
		}
		return GiftCardActive
	}
}

// =============================================================================
// TRACKER
// =============================================================================

type GiftCardTracker struct {
	Now Clock
}

func NewGiftCardTracker(now Clock) *GiftCardTracker {
	if now == nil {
		now = SystemClock
	}
	return &GiftCardTracker{Now: now}
}

// CreateGiftCard persists a new card. An empty SKU is generated; the status
// is derived from the balance unless the caller set a terminal one.
func (t *GiftCardTracker) CreateGiftCard(ctx context.Context, s Store, card *GiftCard) error {
	retailer, err := s.FindRetailer(ctx, card.RetailerID)
	if err != nil {
		return err
	}
	if retailer == nil {
		return notFound("retailer", int64(card.RetailerID))
	}
	if strings.TrimSpace(card.SKU) == "" {
		sku, err := t.GenerateSKU(ctx, s, retailer)
		if err != nil {
			return err
		}
		card.SKU = sku
	}
	card.AcquisitionCost = card.AcquisitionCost.Round()
	card.FaceValue = card.FaceValue.Round()
	card.RemainingBalance = card.RemainingBalance.Round()
	card.Status = DeriveStatus(card.Status, card.RemainingBalance)
	now := t.Now()
	card.CreatedAt, card.UpdatedAt = now, now
	return s.CreateGiftCard(ctx, card)
}

// GenerateSKU returns the next free sku for retailer on today's date.
func (t *GiftCardTracker) GenerateSKU(ctx context.Context, s Store, retailer *Retailer) (string, error) {
	prefix := fmt.Sprintf("%s-%s", retailer.Code, t.Now().Format("20060102"))
	last, err := s.MaxGiftCardSKU(ctx, retailer.ID, prefix+"-")
	if err != nil {
		return "", fmt.Errorf("look up last sku for %s: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%04d", prefix, skuSequence(last)+1), nil
}

func skuSequence(sku string) int {
	if sku == "" {
		return 0
	}
	suffix := sku[strings.LastIndex(sku, "-")+1:]
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0
	}
	return n
}

// Debit lowers the card's balance and saves it. The caller has already
// checked that amount fits.
func (t *GiftCardTracker) Debit(ctx context.Context, s Store, card *GiftCard, amount Money) error {
	return t.setBalance(ctx, s, card, card.RemainingBalance.Sub(amount))
}

// Credit raises the card's balance and saves it.
func (t *GiftCardTracker) Credit(ctx context.Context, s Store, card *GiftCard, amount Money) error {
	return t.setBalance(ctx, s, card, card.RemainingBalance.Add(amount))
}

func (t *GiftCardTracker) setBalance(ctx context.Context, s Store, card *GiftCard, balance Money) error {
	card.RemainingBalance = balance.Round()
	card.Status = DeriveStatus(card.Status, card.RemainingBalance)
	card.UpdatedAt = t.Now()
	if err := s.UpdateGiftCard(ctx, card); err != nil {
		return fmt.Errorf("save gift card %s: %w", card.SKU, err)
	}
	return nil
}

// SetStatus applies an externally chosen status. VOID and ARCHIVED are
// stored as given; ACTIVE or USED return the card to the balance rule.
func (t *GiftCardTracker) SetStatus(ctx context.Context, s Store, id GiftCardID, status GiftCardStatus) (*GiftCard, error) {
	if !status.IsValid() {
		return nil, invalidInput("gift card status %q is not recognised", status)
	}
	card, err := t.Find(ctx, s, id)
	if err != nil {
		return nil, err
	}
	if status.IsTerminal() {
		card.Status = status
	} else {
		card.Status = DeriveStatus(GiftCardActive, card.RemainingBalance)
	}
	card.UpdatedAt = t.Now()
	if err := s.UpdateGiftCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// DeleteGiftCard removes a card and, by cascade, its usage rows.
func (t *GiftCardTracker) DeleteGiftCard(ctx context.Context, s Store, id GiftCardID) error {
	if _, err := t.Find(ctx, s, id); err != nil {
		return err
	}
	return s.DeleteGiftCard(ctx, id)
}

// Find loads a card or returns a NotFoundError.
func (t *GiftCardTracker) Find(ctx context.Context, s Store, id GiftCardID) (*GiftCard, error) {
	card, err := s.FindGiftCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, notFound("gift card", int64(id))
	}
	return card, nil
}
