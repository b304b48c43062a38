package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razeathletics/storefront/pkg/httpclient"
	"github.com/razeathletics/storefront/pkg/logger"
)

const testSecret = "whsec_test"

func newTestStripe(t *testing.T, h http.HandlerFunc) (*Stripe, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewStripe(srv.Client(), StripeConfig{APIKey: "sk_test_123", WebhookSecret: testSecret, BaseURL: srv.URL}), srv
}

func TestStripe_CreateSession(t *testing.T) {
	s, _ := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "idem-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "8100", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "usd", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "raze_checkout", r.PostForm.Get("metadata[source]"))
		assert.Equal(t, "a@x.co", r.PostForm.Get("customer_email"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"id":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1","expires_at":1767225600}`)
	})

	sess, err := s.CreateSession(context.Background(), &SessionInput{
		Amount:         8100,
		Currency:       "usd",
		SuccessURL:     "https://raze.example/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:      "https://raze.example/cart",
		CustomerEmail:  "a@x.co",
		Metadata:       map[string]string{"source": "raze_checkout"},
		IdempotencyKey: "idem-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", sess.URL)
	assert.Equal(t, int64(1767225600), sess.ExpiresAt.Unix())
}

func TestStripe_CreateSession_ProviderError(t *testing.T) {
	s, _ := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprint(w, `{"error":{"code":"parameter_invalid_integer","message":"Invalid integer"}}`)
	})

	_, err := s.CreateSession(context.Background(), &SessionInput{Amount: -1, Currency: "usd"})

	var se *httpclient.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "parameter_invalid_integer", se.Code)
}

func TestStripe_CreateSession_BreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := httpclient.DefaultBreakerConfig("stripe-test")
	cfg.MinRequests = 2
	client := httpclient.NewBreakerClient(srv.Client(), cfg, logger.Discard())
	s := NewStripe(client, StripeConfig{APIKey: "sk", BaseURL: srv.URL})

	for i := 0; i < 2; i++ {
		_, err := s.CreateSession(context.Background(), &SessionInput{Amount: 100, Currency: "usd"})
		require.Error(t, err)
	}
	_, err := s.CreateSession(context.Background(), &SessionInput{Amount: 100, Currency: "usd"})
	assert.True(t, errors.Is(err, httpclient.ErrCircuitOpen))
}

func TestStripe_GetStatus(t *testing.T) {
	s, _ := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)
		_, _ = fmt.Fprint(w, `{"id":"cs_test_1","status":"complete","payment_status":"paid","amount_total":8100,"currency":"usd","metadata":{"source":"raze_checkout"}}`)
	})

	st, err := s.GetStatus(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, SessionComplete, st.Status)
	assert.Equal(t, "paid", st.PaymentStatus)
	assert.Equal(t, int64(8100), st.AmountTotal)
	assert.Equal(t, "raze_checkout", st.Metadata["source"])
}

func TestStripe_GetStatus_NotFound(t *testing.T) {
	s, _ := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, `{"error":{"code":"resource_missing","message":"No such checkout.session"}}`)
	})

	_, err := s.GetStatus(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStripe_ParseWebhook(t *testing.T) {
	now := time.Unix(1767225600, 0)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","payment_status":"paid"}}}`)

	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{name: "valid", header: SignatureHeader(payload, testSecret, now)},
		{name: "wrong secret", header: SignatureHeader(payload, "whsec_other", now), wantErr: true},
		{name: "stale", header: SignatureHeader(payload, testSecret, now.Add(-10*time.Minute)), wantErr: true},
		{name: "missing", header: "", wantErr: true},
		{name: "garbage", header: "t=abc,v1=zz", wantErr: true},
		{
			name:   "second v1 matches",
			header: SignatureHeader(payload, testSecret, now) + ",v1=deadbeef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStripe(http.DefaultClient, StripeConfig{WebhookSecret: testSecret})
			s.now = func() time.Time { return now }

			ev, err := s.ParseWebhook(payload, tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSignature)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, EventCheckoutCompleted, ev.Type)
			assert.Equal(t, "cs_test_1", ev.SessionID)
			assert.Equal(t, "paid", ev.PaymentStatus)
		})
	}
}

func TestVerifySignature_NoSecretRejects(t *testing.T) {
	payload := []byte(`{}`)
	now := time.Now()
	err := VerifySignature(payload, SignatureHeader(payload, "", now), "", now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripe_CreateSession_ClampsExpiry(t *testing.T) {
	now := time.Unix(1767225600, 0).UTC()
	s, _ := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, strconv.FormatInt(now.Add(minSessionLifetime).Unix(), 10), r.PostForm.Get("expires_at"))
		_, _ = fmt.Fprint(w, `{"id":"cs_test_2","url":"u","expires_at":1767227460}`)
	})
	s.now = func() time.Time { return now }

	_, err := s.CreateSession(context.Background(), &SessionInput{
		Amount:    100,
		Currency:  "usd",
		ExpiresAt: now.Add(10 * time.Minute),
	})
	require.NoError(t, err)
}
