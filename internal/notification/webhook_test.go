package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookClient_Post_FlattensBase(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.Client())
	payload := NewSignupPayload("runner@example.com", "Runner", "WELCOME1A2B3C", "email")
	require.NoError(t, c.Post(context.Background(), srv.URL, payload))

	assert.Equal(t, "runner@example.com", body["email"])
	assert.Equal(t, EventAccountSignup, body["event_type"])
	assert.Equal(t, "WELCOME1A2B3C", body["discount_code"])
	assert.Equal(t, "email", body["signup_method"])
	assert.Equal(t, webhookSource, body["source"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestWebhookClient_Post_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.Client())
	err := c.Post(context.Background(), srv.URL, NewGiveawayPayload("a@x.co"))
	require.Error(t, err)
	assert.True(t, retryable(err))
}
