package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/httputil"
)

// PromoHandler handles HTTP requests for promo code endpoints.
type PromoHandler struct {
	service PromoService
	logger  *slog.Logger
}

// NewPromoHandler creates a new promo HTTP handler.
func NewPromoHandler(svc PromoService, logger *slog.Logger) *PromoHandler {
	return &PromoHandler{service: svc, logger: logger}
}

// SetActiveRequest enables or disables a code.
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// SuccessResponse is the answer of calls that only succeed or not.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Validate handles POST /api/promo/validate
func (h *PromoHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req domain.ValidatePromoRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Validate(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// Use handles POST /api/promo/use/{code}
func (h *PromoHandler) Use(w http.ResponseWriter, r *http.Request) {
	ok, err := h.service.Use(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, SuccessResponse{Success: ok})
}

// List handles GET /api/promo/codes
func (h *PromoHandler) List(w http.ResponseWriter, r *http.Request) {
	promos, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if promos == nil {
		promos = []domain.PromoCode{}
	}
	httputil.WriteData(w, http.StatusOK, promos)
}

// Create handles POST /api/promo/codes
func (h *PromoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePromoRequest
	if !decode(w, r, &req) {
		return
	}

	promo, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, promo)
}

// SetActive handles PATCH /api/promo/codes/{code}
func (h *PromoHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.service.SetActive(r.Context(), chi.URLParam(r, "code"), *req.Active); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, SuccessResponse{Success: true})
}

// Delete handles DELETE /api/promo/codes/{code}
func (h *PromoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code := domain.NormalizeCode(chi.URLParam(r, "code"))
	if err := h.service.Delete(r.Context(), code); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, SuccessResponse{Success: true, Message: "Promo code " + code + " deleted"})
}
