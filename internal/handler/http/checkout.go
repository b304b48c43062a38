package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/httputil"
	"github.com/razeathletics/storefront/pkg/validator"
)

// stripeSignatureHeader carries the webhook signature.
const stripeSignatureHeader = "Stripe-Signature"

// CheckoutHandler handles HTTP requests for checkout endpoints.
type CheckoutHandler struct {
	service CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// CreateSession handles POST /api/checkout/create-session
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if !decode(w, r, &req) {
		return
	}

	session, err := h.service.CreateSession(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, session)
}

// Status handles GET /api/checkout/status/{session_id}
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.GetStatus(r.Context(), chi.URLParam(r, "session_id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, status)
}

// Webhook handles POST /api/webhook/stripe. The raw body is needed for the
// signature check, so it is read before any decoding.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validator.MaxBodyBytes))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "unreadable webhook body"},
		})
		return
	}

	res, err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(stripeSignatureHeader))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}
