package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/httputil"
)

// InventoryHandler handles HTTP requests for inventory endpoints.
type InventoryHandler struct {
	service InventoryService
	logger  *slog.Logger
}

// NewInventoryHandler creates a new inventory HTTP handler.
func NewInventoryHandler(svc InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: svc,
		logger:  logger,
	}
}

// StockBatchResponse reports how many lines a reserve, release or commit
// call touched.
type StockBatchResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// BulkUpdateResponse reports how many variants a bulk update changed.
type BulkUpdateResponse struct {
	Success bool `json:"success"`
	Updated int  `json:"updated"`
}

// List handles GET /api/inventory
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if items == nil {
		items = []domain.InventoryItem{}
	}
	httputil.WriteData(w, http.StatusOK, items)
}

// Stats handles GET /api/inventory/stats
func (h *InventoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}

// GetProduct handles GET /api/inventory/{product_id}?color=
func (h *InventoryHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseIntParam(w, "product_id", chi.URLParam(r, "product_id"))
	if !ok {
		return
	}

	stock, err := h.service.GetProduct(r.Context(), productID, r.URL.Query().Get("color"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stock)
}

// Check handles GET /api/inventory/check/{product_id}/{color}/{size}
func (h *InventoryHandler) Check(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseIntParam(w, "product_id", chi.URLParam(r, "product_id"))
	if !ok {
		return
	}
	key := domain.VariantKey{
		ProductID: productID,
		Color:     chi.URLParam(r, "color"),
		Size:      chi.URLParam(r, "size"),
	}

	level, err := h.service.Check(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, level)
}

// Reserve handles POST /api/inventory/reserve
func (h *InventoryHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req domain.StockBatch
	if !decode(w, r, &req) {
		return
	}

	n, err := h.service.Reserve(r.Context(), req.SessionID, req.Items)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, StockBatchResponse{Success: true, Count: n})
}

// Release handles POST /api/inventory/release
func (h *InventoryHandler) Release(w http.ResponseWriter, r *http.Request) {
	var req domain.StockBatch
	if !decode(w, r, &req) {
		return
	}

	n, err := h.service.Release(r.Context(), req.SessionID, req.Items)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, StockBatchResponse{Success: true, Count: n})
}

// Commit handles POST /api/inventory/commit
func (h *InventoryHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req domain.StockBatch
	if !decode(w, r, &req) {
		return
	}

	n, err := h.service.Commit(r.Context(), req.SessionID, req.Items, req.FromHold)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, StockBatchResponse{Success: true, Count: n})
}

// Update handles POST /api/inventory/update
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.InventoryUpdate
	if !decode(w, r, &req) {
		return
	}

	item, err := h.service.Update(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, item)
}

// BulkUpdate handles POST /api/inventory/bulk-update
func (h *InventoryHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkInventoryUpdate
	if !decode(w, r, &req) {
		return
	}

	n, err := h.service.BulkUpdate(r.Context(), req.Updates)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, BulkUpdateResponse{Success: true, Updated: n})
}
