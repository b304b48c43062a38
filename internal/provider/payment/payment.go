// Package payment defines the hosted checkout provider used by the
// checkout orchestrator.
package payment

import (
	"context"
	"errors"
	"time"
)

// Provider session states.
const (
	SessionOpen     = "open"
	SessionComplete = "complete"
	SessionExpired  = "expired"
)

// Webhook event types the orchestrator acts on.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventCheckoutExpired       = "checkout.session.expired"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
)

// Errors returned by providers.
var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrSessionNotFound  = errors.New("payment session not found")
)

// SessionInput holds the parameters of a hosted checkout session. Amount is
// in cents.
type SessionInput struct {
	Amount         int64
	Currency       string
	ProductName    string
	SuccessURL     string
	CancelURL      string
	CustomerEmail  string
	Metadata       map[string]string
	ExpiresAt      time.Time
	IdempotencyKey string
}

// Session is a created hosted checkout.
type Session struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// SessionStatus is the provider's current view of a session.
type SessionStatus struct {
	ID            string
	Status        string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	Metadata      map[string]string
}

// WebhookEvent is a verified provider notification.
type WebhookEvent struct {
	ID            string
	Type          string
	SessionID     string
	PaymentStatus string
}

// Provider defines the interface for payment provider integrations.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "stripe").
	Name() string

	// CreateSession opens a hosted checkout page for the amount.
	CreateSession(ctx context.Context, input *SessionInput) (*Session, error)

	// GetStatus fetches the current state of a session.
	GetStatus(ctx context.Context, sessionID string) (*SessionStatus, error)

	// ParseWebhook verifies the signature header and decodes payload.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
