package api

import (
	"net/http"

	"github.com/warp/cardledger/ledger"
)

// =============================================================================
// INVENTORY HANDLERS
//
//   GET    /api/inventory                       List items
//   POST   /api/inventory                       Create item (optional initial stock)
//   GET    /api/inventory/{id}                  Get item
//   PUT    /api/inventory/{id}                  Edit descriptive fields
//   DELETE /api/inventory/{id}                  Delete item and its movements
//   GET    /api/inventory/{id}/movements        Movement history
//   POST   /api/inventory/{id}/adjustments      Manual adjustment
//   POST   /api/movements/{id}/reverse          Post the negated movement
// =============================================================================

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListInventoryItems(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]InventoryItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toInventoryItemDTO(it)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req InventoryItemRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	var initial *ledger.Adjustment
	if req.InitialQuantity != 0 || !req.InitialCost.IsZero() {
		initial = &ledger.Adjustment{
			QuantityChange: req.InitialQuantity,
			CostChange:     req.InitialCost,
			SourceType:     ledger.SourceAdjustment,
			Notes:          "Initial stock",
		}
	}
	item, err := h.Service.CreateInventoryItem(r.Context(), &ledger.InventoryItem{
		ItemName: req.ItemName,
		SKU:      req.SKU,
		UPC:      req.UPC,
		Notes:    req.Notes,
	}, initial)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInventoryItemDTO(*item))
}

func (h *Handler) GetInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	item, err := h.Service.InventoryItem(r.Context(), ledger.InventoryItemID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryItemDTO(*item))
}

func (h *Handler) UpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req InventoryItemRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	item, err := h.Service.UpdateInventoryItem(r.Context(), &ledger.InventoryItem{
		ID:       ledger.InventoryItemID(id),
		ItemName: req.ItemName,
		SKU:      req.SKU,
		UPC:      req.UPC,
		Notes:    req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryItemDTO(*item))
}

func (h *Handler) DeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteInventoryItem(r.Context(), ledger.InventoryItemID(id)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	movements, err := h.Service.Movements(r.Context(), ledger.InventoryItemID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]MovementDTO, len(movements))
	for i, m := range movements {
		dtos[i] = toMovementDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req AdjustmentRequest
	if err := decodeJSONBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	source := ledger.InventorySourceType(req.SourceType)
	if source == "" {
		source = ledger.SourceAdjustment
	}
	var orderItemID *ledger.OrderItemID
	if req.OrderItemID != nil {
		v := ledger.OrderItemID(*req.OrderItemID)
		orderItemID = &v
	}
	item, movement, err := h.Service.AdjustInventory(r.Context(), ledger.InventoryItemID(id), ledger.Adjustment{
		QuantityChange: req.QuantityChange,
		CostChange:     req.CostChange,
		SourceType:     source,
		SourceID:       req.SourceID,
		OrderItemID:    orderItemID,
		Notes:          req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AdjustmentResponse{
		Item:     toInventoryItemDTO(*item),
		Movement: toMovementDTO(*movement),
	})
}

func (h *Handler) ReverseMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	movement, err := h.Service.ReverseMovement(r.Context(), ledger.MovementID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMovementDTO(*movement))
}

// =============================================================================
// SALE HANDLERS
//
//   GET    /api/sales?timeframe=    List sales
//   POST   /api/sales               Settle a new sale
//   GET    /api/sales/{id}          Get sale with lines
//   PUT    /api/sales/{id}          Reverse and re-settle with new lines
//   DELETE /api/sales/{id}          Reverse and delete
// =============================================================================

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Service.ListSales(r.Context(), h.timeframeStart(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = toSaleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	sale, lines, err := decodeSale(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.Service.CreateSale(r.Context(), sale, lines)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(*created))
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sale, err := h.Service.Sale(r.Context(), ledger.SaleID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(*sale))
}

func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sale, lines, err := decodeSale(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sale.ID = ledger.SaleID(id)
	updated, err := h.Service.UpdateSale(r.Context(), sale, lines)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(*updated))
}

func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteSale(r.Context(), ledger.SaleID(id)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeSale(r *http.Request) (*ledger.Sale, []ledger.SaleLine, error) {
	var req SaleRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return nil, nil, err
	}
	saleDate, err := parseDate("sale_date", req.SaleDate)
	if err != nil {
		return nil, nil, err
	}
	lines := make([]ledger.SaleLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = ledger.SaleLine{
			InventoryItemID: ledger.InventoryItemID(l.InventoryItemID),
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
		}
	}
	return &ledger.Sale{Buyer: req.Buyer, SaleDate: saleDate, Notes: req.Notes}, lines, nil
}
