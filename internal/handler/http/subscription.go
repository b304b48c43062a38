package http

import (
	"log/slog"
	"net/http"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/httputil"
)

// SubscriptionHandler handles HTTP requests for email subscriptions.
type SubscriptionHandler struct {
	service SubscriptionService
	logger  *slog.Logger
}

// NewSubscriptionHandler creates a new subscription HTTP handler.
func NewSubscriptionHandler(svc SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: svc, logger: logger}
}

// Subscribe handles POST /api/subscribe. A repeat subscription answers 200
// with success false.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req domain.SubscribeRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Subscribe(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// Stats handles GET /api/subscriptions/stats
func (h *SubscriptionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}
