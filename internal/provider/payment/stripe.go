package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/razeathletics/storefront/pkg/httpclient"
)

const (
	serviceStripe = "stripe"

	// signatureTolerance bounds the age of a signed webhook.
	signatureTolerance = 5 * time.Minute

	// minSessionLifetime is the shortest expiry Stripe accepts, plus slack
	// for clock skew.
	minSessionLifetime = 31 * time.Minute
)

// StripeConfig configures the Stripe client.
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	BaseURL       string
}

// Stripe talks to the Stripe Checkout REST API.
type Stripe struct {
	client httpclient.Doer
	cfg    StripeConfig
	now    func() time.Time
}

// NewStripe creates a Stripe provider. client is normally breaker-wrapped.
func NewStripe(client httpclient.Doer, cfg StripeConfig) *Stripe {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	return &Stripe{client: client, cfg: cfg, now: time.Now}
}

// Name returns the provider name.
func (s *Stripe) Name() string {
	return serviceStripe
}

type stripeSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	ExpiresAt     int64             `json:"expires_at"`
	Metadata      map[string]string `json:"metadata"`
}

// CreateSession creates a Checkout Session with one line item carrying the
// whole amount.
func (s *Stripe) CreateSession(ctx context.Context, input *SessionInput) (*Session, error) {
	name := input.ProductName
	if name == "" {
		name = "RAZE Order"
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", input.SuccessURL)
	form.Set("cancel_url", input.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", input.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(input.Amount, 10))
	form.Set("line_items[0][price_data][product_data][name]", name)
	if input.CustomerEmail != "" {
		form.Set("customer_email", input.CustomerEmail)
	}
	if !input.ExpiresAt.IsZero() {
		expires := input.ExpiresAt
		if earliest := s.now().Add(minSessionLifetime); expires.Before(earliest) {
			expires = earliest
		}
		form.Set("expires_at", strconv.FormatInt(expires.Unix(), 10))
	}
	for k, v := range input.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v1/checkout/sessions",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build stripe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if input.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", input.IdempotencyKey)
	}
	s.authorize(req)

	var out stripeSession
	if err := httpclient.Send(s.client, req, serviceStripe, &out); err != nil {
		return nil, err
	}
	return &Session{ID: out.ID, URL: out.URL, ExpiresAt: time.Unix(out.ExpiresAt, 0).UTC()}, nil
}

// GetStatus retrieves a Checkout Session.
func (s *Stripe) GetStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.cfg.BaseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("build stripe request: %w", err)
	}
	s.authorize(req)

	var out stripeSession
	if err := httpclient.Send(s.client, req, serviceStripe, &out); err != nil {
		var se *httpclient.StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &SessionStatus{
		ID:            out.ID,
		Status:        out.Status,
		PaymentStatus: out.PaymentStatus,
		AmountTotal:   out.AmountTotal,
		Currency:      out.Currency,
		Metadata:      out.Metadata,
	}, nil
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object stripeSession `json:"object"`
	} `json:"data"`
}

// ParseWebhook verifies a Stripe-Signature header ("t=...,v1=...") against
// the webhook secret and decodes the event.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if err := VerifySignature(payload, signature, s.cfg.WebhookSecret, s.now()); err != nil {
		return nil, err
	}

	var ev stripeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode stripe event: %w", err)
	}
	return &WebhookEvent{
		ID:            ev.ID,
		Type:          ev.Type,
		SessionID:     ev.Data.Object.ID,
		PaymentStatus: ev.Data.Object.PaymentStatus,
	}, nil
}

func (s *Stripe) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
}

// VerifySignature checks a Stripe-Signature header. Any v1 entry may match.
// Signatures older than five minutes are rejected.
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	if secret == "" || header == "" {
		return ErrInvalidSignature
	}

	var (
		ts   int64
		sigs [][]byte
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			ts = n
		case "v1":
			if b, err := hex.DecodeString(v); err == nil {
				sigs = append(sigs, b)
			}
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return ErrInvalidSignature
	}
	if age := now.Sub(time.Unix(ts, 0)); age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	expected := Sign(payload, secret, ts)
	for _, sig := range sigs {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign computes the v1 signature of payload at timestamp ts.
func Sign(payload []byte, secret string, ts int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignatureHeader builds a Stripe-Signature header value for payload.
func SignatureHeader(payload []byte, secret string, ts time.Time) string {
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(Sign(payload, secret, ts.Unix())))
}
