package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/httputil"
	"github.com/razeathletics/storefront/pkg/middleware"
	"github.com/razeathletics/storefront/pkg/pagination"
)

// AdminHandler serves the admin console.
type AdminHandler struct {
	service  AdminService
	subs     SubscriptionService
	waitlist WaitlistService
	orders   OrderService
	cookies  cookieJar
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin HTTP handler.
func NewAdminHandler(
	svc AdminService,
	subs SubscriptionService,
	waitlist WaitlistService,
	orders OrderService,
	cookies cookieJar,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		service:  svc,
		subs:     subs,
		waitlist: waitlist,
		orders:   orders,
		cookies:  cookies,
		logger:   logger,
	}
}

// VerifyResponse tells the console whether its token is still good.
type VerifyResponse struct {
	Authenticated bool `json:"authenticated"`
}

// DeleteSubscriberResponse reports how many subscriptions were removed.
type DeleteSubscriberResponse struct {
	Success      bool  `json:"success"`
	DeletedCount int64 `json:"deleted_count"`
}

// DeleteUserResponse reports whether the account existed.
type DeleteUserResponse struct {
	Success bool `json:"success"`
	Deleted bool `json:"deleted"`
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.AdminLoginRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.cookies.setAdmin(w, res.Token)
	httputil.WriteData(w, http.StatusOK, res)
}

// Logout handles POST /api/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.AdminToken(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.cookies.clear(w, middleware.AdminCookie)
	httputil.WriteData(w, http.StatusOK, SuccessResponse{Success: true, Message: "Logged out"})
}

// Verify handles GET /api/admin/verify
func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ok, err := h.service.Verify(r.Context(), middleware.AdminToken(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, VerifyResponse{Authenticated: ok})
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}

// Users handles GET /api/admin/users
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	users, total, err := h.service.ListUsers(r.Context(), p.Skip, p.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeList(w, users, total, p)
}

// Subscribers handles GET /api/admin/subscribers?source=
func (h *AdminHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	subs, total, err := h.subs.List(r.Context(), r.URL.Query().Get("source"), p.Skip, p.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeList(w, subs, total, p)
}

// Waitlist handles GET /api/admin/waitlist
func (h *AdminHandler) Waitlist(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	entries, total, err := h.waitlist.List(r.Context(), p.Skip, p.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeList(w, entries, total, p)
}

// Orders handles GET /api/admin/orders?status=
func (h *AdminHandler) Orders(w http.ResponseWriter, r *http.Request) {
	p := pagination.FromRequest(r)
	filter := domain.OrderFilter{Status: r.URL.Query().Get("status")}
	orders, total, err := h.orders.List(r.Context(), filter, p.Skip, p.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeList(w, orders, total, p)
}

// BulkEmail handles POST /api/admin/send-bulk-email
func (h *AdminHandler) BulkEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkEmailRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.BulkEmail(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// DeleteSubscriber handles DELETE /api/admin/subscriber/{email}
func (h *AdminHandler) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	n, err := h.subs.DeleteByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, DeleteSubscriberResponse{Success: true, DeletedCount: n})
}

// DeleteUser handles DELETE /api/admin/user/{user_id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteUser(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, DeleteUserResponse{Success: true, Deleted: deleted})
}
