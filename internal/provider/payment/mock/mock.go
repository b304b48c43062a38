package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/razeathletics/storefront/internal/provider/payment"
)

// Provider is a mock payment provider whose sessions are paid as soon as
// they are created. It is intended for development and testing purposes.
type Provider struct {
	mu       sync.Mutex
	sessions map[string]*payment.SessionStatus
}

// NewProvider creates a new mock payment provider.
func NewProvider() *Provider {
	return &Provider{sessions: make(map[string]*payment.SessionStatus)}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// CreateSession records a paid session. The checkout URL is the success
// URL, so the browser returns straight to the storefront.
func (p *Provider) CreateSession(_ context.Context, input *payment.SessionInput) (*payment.Session, error) {
	id := "cs_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	p.mu.Lock()
	p.sessions[id] = &payment.SessionStatus{
		ID:            id,
		Status:        payment.SessionComplete,
		PaymentStatus: "paid",
		AmountTotal:   input.Amount,
		Currency:      input.Currency,
		Metadata:      input.Metadata,
	}
	p.mu.Unlock()

	expires := input.ExpiresAt
	if expires.IsZero() {
		expires = time.Now().Add(30 * time.Minute)
	}
	return &payment.Session{
		ID:        id,
		URL:       strings.ReplaceAll(input.SuccessURL, "{CHECKOUT_SESSION_ID}", id),
		ExpiresAt: expires.UTC(),
	}, nil
}

// GetStatus returns the recorded session.
func (p *Provider) GetStatus(_ context.Context, sessionID string) (*payment.SessionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return nil, payment.ErrSessionNotFound
	}
	out := *s
	return &out, nil
}

// SetPaymentStatus overrides the state of a session.
func (p *Provider) SetPaymentStatus(sessionID, status, paymentStatus string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[sessionID]; ok {
		s.Status = status
		s.PaymentStatus = paymentStatus
	}
}

// ParseWebhook decodes a Stripe shaped event without checking the
// signature.
func (p *Provider) ParseWebhook(payload []byte, _ string) (*payment.WebhookEvent, error) {
	var ev struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID            string `json:"id"`
				PaymentStatus string `json:"payment_status"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode mock event: %w", err)
	}
	return &payment.WebhookEvent{
		ID:            ev.ID,
		Type:          ev.Type,
		SessionID:     ev.Data.Object.ID,
		PaymentStatus: ev.Data.Object.PaymentStatus,
	}, nil
}
