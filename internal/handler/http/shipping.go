package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/httputil"
)

// ShippingHandler handles HTTP requests for shipping endpoints.
type ShippingHandler struct {
	service ShippingService
	logger  *slog.Logger
}

// NewShippingHandler creates a new shipping HTTP handler.
func NewShippingHandler(svc ShippingService, logger *slog.Logger) *ShippingHandler {
	return &ShippingHandler{service: svc, logger: logger}
}

// Rates handles POST /api/shipping/rates
func (h *ShippingHandler) Rates(w http.ResponseWriter, r *http.Request) {
	var req domain.ShippingRateRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Rates(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// CreateLabel handles POST /api/shipping/label
func (h *ShippingHandler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLabelRequest
	if !decode(w, r, &req) {
		return
	}

	label, err := h.service.CreateLabel(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, label)
}

// Track handles GET /api/shipping/tracking/{carrier}/{tracking_number}
func (h *ShippingHandler) Track(w http.ResponseWriter, r *http.Request) {
	tracking, err := h.service.Track(r.Context(), chi.URLParam(r, "carrier"), chi.URLParam(r, "tracking_number"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, tracking)
}
