package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/httputil"
	"github.com/razeathletics/storefront/pkg/pagination"
)

// WaitlistHandler handles HTTP requests for waitlist endpoints.
type WaitlistHandler struct {
	service WaitlistService
	logger  *slog.Logger
}

// NewWaitlistHandler creates a new waitlist HTTP handler.
func NewWaitlistHandler(svc WaitlistService, logger *slog.Logger) *WaitlistHandler {
	return &WaitlistHandler{service: svc, logger: logger}
}

// Join handles POST /api/waitlist/join
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req domain.JoinWaitlistRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Join(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// Status handles GET /api/waitlist/status
func (h *WaitlistHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, status)
}

// Verify handles GET /api/waitlist/verify/{code}
func (h *WaitlistHandler) Verify(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Verify(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// List handles GET /api/waitlist/admin
func (h *WaitlistHandler) List(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	entries, total, err := h.service.List(r.Context(), p.Skip, p.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeList(w, entries, total, p)
}
