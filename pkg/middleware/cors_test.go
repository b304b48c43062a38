package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS_ListedOriginWithCredentials(t *testing.T) {
	h := CORS(DefaultCORSConfig("https://razetraining.com"))(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/1", nil)
	req.Header.Set("Origin", "https://razetraining.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://razetraining.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", rr.Header().Get("Vary"))
}

func TestCORS_UnlistedOrigin(t *testing.T) {
	h := CORS(DefaultCORSConfig("https://razetraining.com"))(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_WildcardWithCredentialsEchoesOrigin(t *testing.T) {
	h := CORS(DefaultCORSConfig("*"))(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardWithoutCredentials(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"*"}})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS(DefaultCORSConfig("https://razetraining.com"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/checkout/create-session", nil)
	req.Header.Set("Origin", "https://razetraining.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, called)
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), AdminHeader)
	assert.Equal(t, "3600", rr.Header().Get("Access-Control-Max-Age"))
}
