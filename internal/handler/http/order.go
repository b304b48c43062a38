package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/httputil"
	"github.com/razeathletics/storefront/pkg/pagination"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// Create handles POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if !decode(w, r, &req) {
		return
	}

	order, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, order)
}

// List handles GET /api/orders?status=&email=&skip=&limit=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	filter := domain.OrderFilter{
		Status: r.URL.Query().Get("status"),
		Email:  r.URL.Query().Get("email"),
	}

	orders, total, err := h.service.List(r.Context(), filter, p.Skip, p.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeList(w, orders, total, p)
}

// Stats handles GET /api/orders/stats
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}

// Get handles GET /api/orders/{id}. The id may also be an order number.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// Update handles PATCH /api/orders/{id}
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateOrderRequest
	if !decode(w, r, &req) {
		return
	}

	order, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// Track handles GET /api/orders/track/{order_number}?email=
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Track(r.Context(), chi.URLParam(r, "order_number"), r.URL.Query().Get("email"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, view)
}
