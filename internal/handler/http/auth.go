package http

import (
	"log/slog"
	"net/http"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/httputil"
	"github.com/razeathletics/storefront/pkg/middleware"
)

// AuthHandler handles HTTP requests for customer account endpoints.
type AuthHandler struct {
	service AuthService
	orders  OrderService
	cookies cookieJar
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc AuthService, orders OrderService, cookies cookieJar, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, orders: orders, cookies: cookies, logger: logger}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Register(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.cookies.setSession(w, res.SessionToken, res.ExpiresAt)
	httputil.WriteData(w, http.StatusCreated, res)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.cookies.setSession(w, res.SessionToken, res.ExpiresAt)
	httputil.WriteData(w, http.StatusOK, res)
}

// ExchangeSession handles POST /api/auth/session
func (h *AuthHandler) ExchangeSession(w http.ResponseWriter, r *http.Request) {
	var req domain.SessionExchangeRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.ExchangeSession(r.Context(), req.SessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.cookies.setSession(w, res.SessionToken, res.ExpiresAt)
	httputil.WriteData(w, http.StatusOK, res)
}

// Logout handles POST /api/auth/logout. It always clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.SessionToken(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.cookies.clear(w, middleware.SessionCookie)
	httputil.WriteData(w, http.StatusOK, SuccessResponse{Success: true, Message: "Logged out"})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// Orders handles GET /api/auth/orders
func (h *AuthHandler) Orders(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListByEmail(r.Context(), user.Email)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, orders)
}

// ValidateFirstOrderDiscount handles POST /api/auth/validate-first-order-discount
func (h *AuthHandler) ValidateFirstOrderDiscount(w http.ResponseWriter, r *http.Request) {
	var req domain.FirstOrderDiscountRequest
	if !decode(w, r, &req) {
		return
	}
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	httputil.WriteData(w, http.StatusOK, h.service.ValidateFirstOrderDiscount(r.Context(), user, req.Code))
}

// UseFirstOrderDiscount handles POST /api/auth/use-first-order-discount
func (h *AuthHandler) UseFirstOrderDiscount(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if err := h.service.UseFirstOrderDiscount(r.Context(), user); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, SuccessResponse{Success: true, Message: "First order discount marked as used"})
}

func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, err := h.service.User(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return nil, false
	}
	return user, true
}
