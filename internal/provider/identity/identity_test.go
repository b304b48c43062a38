package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razeathletics/storefront/pkg/httpclient"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), srv.URL+"/auth/v1/session-data")
}

func TestClient_Exchange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/auth/v1/session-data", r.URL.Path)
		assert.Equal(t, "sess_123", r.Header.Get("X-Session-ID"))
		_, _ = fmt.Fprint(w, `{"id":"g-1","email":" Ana@Example.com","name":"Ana","picture":"https://p/a.png","session_token":"st"}`)
	})

	p, err := c.Exchange(context.Background(), "sess_123")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, "st", p.SessionToken)
}

func TestClient_Exchange_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Exchange(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestClient_Exchange_MissingEmail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"id":"g-1"}`)
	})

	_, err := c.Exchange(context.Background(), "sess")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestClient_Exchange_ProviderDown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Exchange(context.Background(), "sess")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSession)
	assert.True(t, httpclient.IsTemporary(err))
}
