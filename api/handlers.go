/*
handlers.go - HTTP API handlers for the gift card ledger

PURPOSE:
  Exposes the ledger service to the local presentation layer. Handles
  request decoding, validation, and JSON serialization, and delegates every
  balance-affecting action to ledger.Service (one unit-of-work per call).

ENDPOINTS:
  Retailers:
    GET    /api/retailers                      List retailers
    POST   /api/retailers                      Create retailer
    GET    /api/retailers/{code}               Get retailer by code
    DELETE /api/retailers/{code}               Delete retailer (409 while orders exist)

  Gift cards:
    GET    /api/gift-cards?retailer=CODE       List cards (ALL or empty = every retailer)
    POST   /api/gift-cards                     Create card (sku generated when empty)
    GET    /api/gift-cards/{id}                Get card
    GET    /api/gift-cards/{id}/usages         Usage history
    PUT    /api/gift-cards/{id}/status         Set status
    DELETE /api/gift-cards/{id}                Delete card and its usages
    GET    /api/gift-cards/export?retailer=    CSV export in the retailer's layout
    POST   /api/gift-cards/import?retailer=    CSV import; bad rows are skipped

  Orders:
    GET    /api/orders?retailer=&timeframe=    List orders
    POST   /api/orders                         Create order with items and allocations
    GET    /api/orders/{id}                    Get order with items
    PUT    /api/orders/{id}                    Edit header and replace allocations
    PUT    /api/orders/{id}/allocations        Replace allocations only
    GET    /api/orders/{id}/usages             Allocations of the order
    DELETE /api/orders/{id}                    Restore allocations and delete

  Inventory, sales (handlers_inventory.go); accounts, analytics,
  reconciliation (handlers_reports.go); scenarios (scenarios.go).

ERROR HANDLING:
  Errors are returned as ErrorResponse with the ledger error kind:
  - 400: Malformed body, validation failures, bad path/query parameters
  - 404: NotFound
  - 409: DuplicateIdentifier, Referenced
  - 422: InvalidInput, InvalidAmount, InvalidAdjustment,
         InsufficientBalance, InsufficientStock
  - 500: Internal errors (logged)

SECURITY NOTE:
  No authentication. The server binds to loopback by default and is meant
  for a single local user.

SEE ALSO:
  - dto.go: Request/response data structures
  - validate.go: Body decoding and parameter parsing
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/warp/cardledger/ledger"
	"github.com/warp/cardledger/ledger/cardcsv"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *ledger.Service
	Log     zerolog.Logger
	// Store is pinged by /healthz when set.
	Store Pinger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler backed by svc.
func NewHandler(svc *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		Service: svc,
		Log:     log,
	}
}

// Health reports liveness and, when a store is attached, its reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Store != nil {
		if err := h.Store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RETAILER HANDLERS
// =============================================================================

func (h *Handler) ListRetailers(w http.ResponseWriter, r *http.Request) {
	retailers, err := h.Service.ListRetailers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]RetailerDTO, len(retailers))
	for i, ret := range retailers {
		dtos[i] = toRetailerDTO(ret)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateRetailer(w http.ResponseWriter, r *http.Request) {
	var req CreateRetailerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ret, err := h.Service.CreateRetailer(r.Context(), &ledger.Retailer{
		Code:        req.Code,
		Name:        req.Name,
		RequiresPIN: req.RequiresPIN,
		Notes:       req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRetailerDTO(*ret))
}

func (h *Handler) GetRetailer(w http.ResponseWriter, r *http.Request) {
	ret, err := h.Service.RetailerByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRetailerDTO(*ret))
}

func (h *Handler) DeleteRetailer(w http.ResponseWriter, r *http.Request) {
	ret, err := h.Service.RetailerByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteRetailer(r.Context(), ret.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// GIFT CARD HANDLERS
// =============================================================================

func (h *Handler) ListGiftCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.Service.ListGiftCards(r.Context(), r.URL.Query().Get("retailer"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]GiftCardDTO, len(cards))
	for i, c := range cards {
		dtos[i] = toGiftCardDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateGiftCard(w http.ResponseWriter, r *http.Request) {
	var req CreateGiftCardRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	purchaseDate, err := parseOptionalDate("purchase_date", req.PurchaseDate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ret, err := h.Service.RetailerByCode(r.Context(), req.RetailerCode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// A new card starts with its whole face value unless told otherwise.
	remaining := req.FaceValue
	if req.RemainingBalance != nil {
		remaining = *req.RemainingBalance
	}
	card, err := h.Service.CreateGiftCard(r.Context(), &ledger.GiftCard{
		RetailerID:       ret.ID,
		SKU:              strings.TrimSpace(req.SKU),
		CardNumber:       req.CardNumber,
		PIN:              req.PIN,
		AcquisitionCost:  req.AcquisitionCost,
		FaceValue:        req.FaceValue,
		RemainingBalance: remaining,
		Status:           ledger.GiftCardStatus(req.Status),
		PurchaseDate:     purchaseDate,
		Notes:            req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGiftCardDTO(*card))
}

func (h *Handler) GetGiftCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	card, err := h.Service.GiftCard(r.Context(), ledger.GiftCardID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGiftCardDTO(*card))
}

func (h *Handler) GetGiftCardUsages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	usages, err := h.Service.GiftCardUsages(r.Context(), ledger.GiftCardID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUsageDTOs(usages))
}

func (h *Handler) SetGiftCardStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req SetGiftCardStatusRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	card, err := h.Service.SetGiftCardStatus(r.Context(), ledger.GiftCardID(id), ledger.GiftCardStatus(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGiftCardDTO(*card))
}

func (h *Handler) DeleteGiftCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteGiftCard(r.Context(), ledger.GiftCardID(id)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// maxImportBytes bounds an uploaded gift card CSV.
const maxImportBytes = 5 << 20

// ImportGiftCards parses a CSV body in the retailer's layout and creates
// every accepted row in one unit-of-work.
func (h *Handler) ImportGiftCards(w http.ResponseWriter, r *http.Request) {
	retailer, err := h.csvRetailer(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	parsed, err := cardcsv.Parse(http.MaxBytesReader(w, r.Body, maxImportBytes), cardcsv.FormatFor(*retailer), h.Log)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cards := make([]ledger.GiftCard, len(parsed.Rows))
	for i, row := range parsed.Rows {
		cards[i] = row.GiftCard(retailer.ID)
	}
	created, err := h.Service.ImportGiftCards(r.Context(), retailer.ID, cards)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := ImportGiftCardsResponse{
		Created: make([]GiftCardDTO, len(created)),
		Skipped: make([]ImportSkipDTO, len(parsed.Skipped)),
	}
	for i, c := range created {
		resp.Created[i] = toGiftCardDTO(c)
	}
	for i, s := range parsed.Skipped {
		resp.Skipped[i] = ImportSkipDTO{Row: s.Line, Reason: s.Reason}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ExportGiftCards writes the retailer's cards as CSV, ordered by SKU.
func (h *Handler) ExportGiftCards(w http.ResponseWriter, r *http.Request) {
	retailer, err := h.csvRetailer(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cards, err := h.Service.ListGiftCards(r.Context(), retailer.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="gift_cards_`+strings.ToLower(retailer.Code)+`.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := cardcsv.Write(w, cardcsv.FormatFor(*retailer), cards); err != nil {
		h.Log.Error().Err(err).Str("retailer", retailer.Code).Msg("gift card export failed")
	}
}

func (h *Handler) csvRetailer(r *http.Request) (*ledger.Retailer, error) {
	code := strings.TrimSpace(r.URL.Query().Get("retailer"))
	if code == "" || strings.EqualFold(code, ledger.AllRetailers) {
		return nil, badRequest("a single retailer is required", map[string]string{"retailer": "required"})
	}
	return h.Service.RetailerByCode(r.Context(), code)
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.ListOrders(r.Context(), r.URL.Query().Get("retailer"), h.timeframeStart(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := h.orderFromRequest(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	for _, it := range req.Items {
		order.Items = append(order.Items, ledger.OrderItem{
			ItemName:   it.ItemName,
			SKU:        it.SKU,
			UPC:        it.UPC,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	created, err := h.Service.CreateOrder(r.Context(), order, toAllocations(req.Allocations))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(*created))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := h.Service.Order(r.Context(), ledger.OrderID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(*order))
}

func (h *Handler) EditOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req OrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := h.orderFromRequest(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	order.ID = ledger.OrderID(id)
	edited, err := h.Service.EditOrder(r.Context(), order, toAllocations(req.Allocations))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(*edited))
}

func (h *Handler) ReplaceAllocations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req ReplaceAllocationsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := h.Service.ReplaceAllocations(r.Context(), ledger.OrderID(id), toAllocations(req.Allocations))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(*order))
}

func (h *Handler) GetOrderUsages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	usages, err := h.Service.OrderUsages(r.Context(), ledger.OrderID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUsageDTOs(usages))
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteOrder(r.Context(), ledger.OrderID(id)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) orderFromRequest(ctx context.Context, req OrderRequest) (*ledger.Order, error) {
	orderDate, err := parseDate("order_date", req.OrderDate)
	if err != nil {
		return nil, err
	}
	ret, err := h.Service.RetailerByCode(ctx, req.RetailerCode)
	if err != nil {
		return nil, err
	}
	return &ledger.Order{
		RetailerID:      ret.ID,
		OrderNumber:     req.OrderNumber,
		OrderDate:       orderDate,
		OrderEmail:      req.OrderEmail,
		PaymentMethod:   ledger.PaymentMethod(req.PaymentMethod),
		Subtotal:        req.Subtotal,
		Tax:             req.Tax,
		Shipping:        req.Shipping,
		TotalCost:       req.TotalCost,
		CreditCardSpend: req.CreditCardSpend,
		Status:          ledger.OrderStatus(req.Status),
		ReceiptPath:     req.ReceiptPath,
	}, nil
}

func toAllocations(reqs []AllocationRequest) []ledger.Allocation {
	out := make([]ledger.Allocation, len(reqs))
	for i, a := range reqs {
		out[i] = ledger.Allocation{GiftCardID: ledger.GiftCardID(a.GiftCardID), Amount: a.Amount}
	}
	return out
}

func toUsageDTOs(usages []ledger.GiftCardUsage) []UsageDTO {
	dtos := make([]UsageDTO, len(usages))
	for i, u := range usages {
		dtos[i] = toUsageDTO(u)
	}
	return dtos
}

// =============================================================================
// HELPERS
// =============================================================================

// timeframeStart resolves ?timeframe= against the service clock. A missing
// or unknown key means no lower bound.
func (h *Handler) timeframeStart(r *http.Request) *time.Time {
	start, ok := ledger.TimeframeStart(h.Service.Now(), r.URL.Query().Get("timeframe"))
	if !ok {
		return nil
	}
	return &start
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// statusFor maps an error to its HTTP status and kind.
func statusFor(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, "Validation"
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, ledger.Kind(err)
	case errors.Is(err, ledger.ErrDuplicateIdentifier), errors.Is(err, ledger.ErrReferenced):
		return http.StatusConflict, ledger.Kind(err)
	case ledger.IsClientError(err):
		return http.StatusUnprocessableEntity, ledger.Kind(err)
	case errors.Is(err, ledger.ErrResetUnsupported):
		return http.StatusNotImplemented, "Unsupported"
	}
	return http.StatusInternalServerError, "Internal"
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Kind: kind}

	var reqErr *requestError
	if errors.As(err, &reqErr) {
		resp.Details = reqErr.details
	}
	if status >= http.StatusInternalServerError {
		h.Log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}
