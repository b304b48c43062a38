package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_BurstThenReject(t *testing.T) {
	var buf bytes.Buffer
	h := NewIPRateLimiter(0.001, 3, newTestLogger(&buf)).Handler(okHandler)

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/inventory/1", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests {
			assert.Contains(t, rr.Body.String(), "RATE_LIMITED")
			assert.Equal(t, "1", rr.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 200, 429, 429}, codes)
}

func TestIPRateLimiter_IndependentPerIP(t *testing.T) {
	var buf bytes.Buffer
	h := NewIPRateLimiter(0.001, 1, newTestLogger(&buf)).Handler(okHandler)

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, addr)
	}
}

func TestVisitorStore_Sweep(t *testing.T) {
	s := newVisitorStore(1, 1, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.allow("a")
	now = now.Add(30 * time.Second)
	s.allow("b")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, s.sweep())
	assert.Equal(t, 1, s.len())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.168.1.5:5555", "192.168.1.5"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:1", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.1:1", "198.51.100.2"},
		{"garbage forwarded", map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.9:1", "10.0.0.9"},
		{"no port", nil, "10.0.0.3", "10.0.0.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
