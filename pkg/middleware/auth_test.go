package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubSessions map[string]string

func (s stubSessions) ValidateSession(_ context.Context, token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

type stubAdmin string

func (s stubAdmin) ValidateAdmin(_ context.Context, token string) error {
	if token == string(s) {
		return nil
	}
	return errors.New("expired")
}

func TestSessionToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, SessionToken(req))

	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", SessionToken(req))

	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie-tok"})
	assert.Equal(t, "cookie-tok", SessionToken(req), "cookie wins over header")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, SessionToken(req))
}

func TestRequireUser(t *testing.T) {
	sessions := stubSessions{"good": "user-1"}
	var seen string
	h := RequireUser(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "UNAUTHORIZED")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-1", seen)
}

func TestOptionalUser(t *testing.T) {
	var seen string
	h := OptionalUser(stubSessions{"good": "user-1"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/create-session", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, seen)

	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "user-1", seen)
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(stubAdmin("adm"))(okHandler)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		expect int
	}{
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"wrong header", func(r *http.Request) { r.Header.Set(AdminHeader, "nope") }, http.StatusUnauthorized},
		{"header", func(r *http.Request) { r.Header.Set(AdminHeader, "adm") }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AdminCookie, Value: "adm"}) }, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.expect, rr.Code)
		})
	}
}
