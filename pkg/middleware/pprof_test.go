package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestIPAllowlist(t *testing.T) {
	var buf bytes.Buffer
	h := IPAllowlist([]string{"10.0.0.0/8", "bogus"}, newTestLogger(&buf))(okHandler)

	tests := []struct {
		remote string
		want   int
	}{
		{"10.1.2.3:5000", http.StatusOK},
		{"192.168.1.1:5000", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
		req.RemoteAddr = tt.remote
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, tt.want, rr.Code, tt.remote)
	}
	assert.Contains(t, buf.String(), "invalid allowlist CIDR")
}

func TestIPAllowlist_IgnoresForwardedHeaders(t *testing.T) {
	var buf bytes.Buffer
	h := IPAllowlist([]string{"127.0.0.1/32"}, newTestLogger(&buf))(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:1"
	req.Header.Set("X-Forwarded-For", "127.0.0.1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRegisterPprof(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	RegisterPprof(r, []string{"127.0.0.0/8"}, newTestLogger(&buf))

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
