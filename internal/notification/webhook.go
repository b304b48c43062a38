package notification

import (
	"context"
	"net/http"
	"time"

	"github.com/razeathletics/storefront/pkg/httpclient"
)

// Workflow event types sent to n8n.
const (
	EventAccountSignup = "account_signup"
	EventGiveawayEntry = "giveaway_entry"
	EventLowStock      = "low_stock"
)

const webhookSource = "raze-storefront"

// WebhookPoster posts JSON payloads to workflow automation endpoints.
type WebhookPoster interface {
	Post(ctx context.Context, url string, payload any) error
}

// WebhookClient posts to n8n webhooks.
type WebhookClient struct {
	client httpclient.Doer
}

// NewWebhookClient creates a webhook client.
func NewWebhookClient(client httpclient.Doer) *WebhookClient {
	return &WebhookClient{client: client}
}

// Post sends payload as JSON. Any 2xx reply counts as delivered.
func (c *WebhookClient) Post(ctx context.Context, url string, payload any) error {
	return httpclient.DoJSON(ctx, c.client, "n8n", http.MethodPost, url, nil, payload, nil)
}

// WebhookBase is the part every workflow payload shares.
type WebhookBase struct {
	Email     string    `json:"email,omitempty"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

func newBase(email, eventType string) WebhookBase {
	return WebhookBase{Email: email, EventType: eventType, Timestamp: time.Now().UTC(), Source: webhookSource}
}

// SignupPayload announces a new account so the welcome flow can send the
// discount code.
type SignupPayload struct {
	WebhookBase
	Name         string `json:"name"`
	DiscountCode string `json:"discount_code"`
	SignupMethod string `json:"signup_method"`
}

// NewSignupPayload builds a signup payload.
func NewSignupPayload(email, name, discountCode, method string) SignupPayload {
	return SignupPayload{
		WebhookBase:  newBase(email, EventAccountSignup),
		Name:         name,
		DiscountCode: discountCode,
		SignupMethod: method,
	}
}

// GiveawayPayload announces a giveaway entry.
type GiveawayPayload struct {
	WebhookBase
}

// NewGiveawayPayload builds a giveaway payload.
func NewGiveawayPayload(email string) GiveawayPayload {
	return GiveawayPayload{WebhookBase: newBase(email, EventGiveawayEntry)}
}

// LowStockPayload alerts operations that a variant is running out.
type LowStockPayload struct {
	WebhookBase
	ProductID   int    `json:"product_id"`
	ProductName string `json:"product_name"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Available   int    `json:"available"`
	Threshold   int    `json:"threshold"`
}
