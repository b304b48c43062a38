package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/razeathletics/storefront/pkg/errors"
	"github.com/razeathletics/storefront/pkg/httputil"
	"github.com/razeathletics/storefront/pkg/logger"
)

// Cookie and header names carrying credentials.
const (
	SessionCookie = "session_token"
	AdminCookie   = "admin_token"
	AdminHeader   = "X-Admin-Token"
)

// SessionValidator resolves a customer session token to a user id.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (userID string, err error)
}

// AdminValidator checks an admin console token.
type AdminValidator interface {
	ValidateAdmin(ctx context.Context, token string) error
}

// SessionToken returns the customer token from the session cookie or a
// Bearer Authorization header, in that order.
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AdminToken returns the admin token from the admin cookie or X-Admin-Token.
func AdminToken(r *http.Request) string {
	if c, err := r.Cookie(AdminCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.Header.Get(AdminHeader)
}

// RequireUser rejects requests without a valid customer session.
func RequireUser(v SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("not authenticated"), nil)
				return
			}
			userID, err := v.ValidateSession(r.Context(), token)
			if err != nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired session"), nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(logger.WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalUser attaches the user id when a valid session is present and
// lets anonymous requests through untouched.
func OptionalUser(v SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := SessionToken(r); token != "" {
				if userID, err := v.ValidateSession(r.Context(), token); err == nil {
					r = r.WithContext(logger.WithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests without a live admin session.
func RequireAdmin(v AdminValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := AdminToken(r)
			if token == "" || v.ValidateAdmin(r.Context(), token) != nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("admin authentication required"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	return logger.UserIDFromContext(ctx)
}
