package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/razeathletics/storefront/pkg/httputil"
	"github.com/razeathletics/storefront/pkg/middleware"
	"github.com/razeathletics/storefront/pkg/pagination"
	"github.com/razeathletics/storefront/pkg/validator"
)

// decode reads and validates a JSON body into dst. On failure it writes
// the 400 and returns false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := validator.DecodeAndValidate(w, r, dst); err != nil {
		var valErr *validator.ValidationError
		if errors.As(err, &valErr) {
			httputil.WriteValidationError(w, err)
			return false
		}
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	return true
}

func writeList[T any](w http.ResponseWriter, items []T, total int, p pagination.Params) {
	httputil.WriteData(w, http.StatusOK, pagination.NewResult(items, total, p))
}

// cookieJar sets and clears the credential cookies. The storefront frontend
// lives on another origin, so secure cookies use SameSite=None.
type cookieJar struct {
	secure   bool
	adminTTL time.Duration
}

func (c cookieJar) set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	sameSite := http.SameSiteLaxMode
	if c.secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: sameSite,
	})
}

func (c cookieJar) setSession(w http.ResponseWriter, token string, expiresAt time.Time) {
	c.set(w, middleware.SessionCookie, token, time.Until(expiresAt))
}

func (c cookieJar) setAdmin(w http.ResponseWriter, token string) {
	c.set(w, middleware.AdminCookie, token, c.adminTTL)
}

func (c cookieJar) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
	})
}
