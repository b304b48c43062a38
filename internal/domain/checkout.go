package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Payment transaction status constants.
const (
	TxStatusPending = "pending"
	TxStatusPaid    = "paid"
	TxStatusFailed  = "failed"
	TxStatusExpired = "expired"
)

// Provider payment status constants.
const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusPaid      = "paid"
	PaymentStatusUnpaid    = "unpaid"
)

// CurrencyUSD is the only currency the store charges in.
const CurrencyUSD = "usd"

// CheckoutSource tags payment sessions created by the storefront.
const CheckoutSource = "raze_checkout"

// CheckoutRequest is the cart submitted at checkout. Reserve defaults to
// true when omitted.
type CheckoutRequest struct {
	Items    []OrderItem     `json:"items" validate:"required,min=1,dive"`
	Shipping ShippingAddress `json:"shipping" validate:"required"`
	Pricing
	PromoCode  string `json:"promo_code,omitempty"`
	AccessCode string `json:"access_code,omitempty"`
	OriginURL  string `json:"origin_url" validate:"required,url"`
	Reserve    *bool  `json:"reserve,omitempty"`
	UserID     string `json:"-"`
}

// ShouldReserve reports whether stock is held while the customer pays.
func (r *CheckoutRequest) ShouldReserve() bool {
	return r.Reserve == nil || *r.Reserve
}

// SuccessURL is where the payment page sends the customer back after paying.
// The provider substitutes the session id placeholder.
func (r *CheckoutRequest) SuccessURL() string {
	return strings.TrimRight(r.OriginURL, "/") + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL is where the payment page sends the customer back on cancel.
func (r *CheckoutRequest) CancelURL() string {
	return strings.TrimRight(r.OriginURL, "/") + "/cart"
}

// Metadata is attached to the provider session and the transaction record.
func (r *CheckoutRequest) Metadata() map[string]string {
	return map[string]string{
		"customer_email": r.Shipping.Email,
		"customer_name":  r.Shipping.FullName(),
		"items_count":    strconv.Itoa(len(r.Items)),
		"discount":       FormatCents(r.Discount),
		"source":         CheckoutSource,
	}
}

// PendingOrder is the cart staged between session creation and payment.
type PendingOrder struct {
	SessionID string          `json:"session_id"`
	Items     []OrderItem     `json:"items"`
	Shipping  ShippingAddress `json:"shipping"`
	Pricing
	PromoCode  string    `json:"promo_code,omitempty"`
	AccessCode string    `json:"access_code,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	Reserved   bool      `json:"reserved"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPendingOrder stages req under the provider session id.
func NewPendingOrder(sessionID string, req *CheckoutRequest, reserved bool, now time.Time) *PendingOrder {
	return &PendingOrder{
		SessionID:  sessionID,
		Items:      req.Items,
		Shipping:   req.Shipping,
		Pricing:    req.Pricing,
		PromoCode:  NormalizeCode(req.PromoCode),
		AccessCode: NormalizeCode(req.AccessCode),
		UserID:     req.UserID,
		Reserved:   reserved,
		CreatedAt:  now,
	}
}

// StockRequests returns the ledger requests for the staged items.
func (p *PendingOrder) StockRequests() []StockRequest {
	return StockRequests(p.Items)
}

// ToOrder materializes the staged cart into a confirmed order.
func (p *PendingOrder) ToOrder(now time.Time) *Order {
	shipping := p.Shipping
	shipping.Email = strings.ToLower(strings.TrimSpace(shipping.Email))
	if shipping.Country == "" {
		shipping.Country = DefaultCountry
	}
	return &Order{
		ID:                  uuid.NewString(),
		OrderNumber:         NewOrderNumber(),
		Items:               p.Items,
		Shipping:            shipping,
		Subtotal:            p.Subtotal,
		Discount:            p.Discount,
		DiscountDescription: p.DiscountDescription,
		ShippingCost:        p.ShippingCost,
		Total:               p.Total,
		Status:              OrderStatusConfirmed,
		PaymentSessionID:    p.SessionID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// PaymentTransaction records the provider side of a checkout.
type PaymentTransaction struct {
	ID            string            `json:"id"`
	SessionID     string            `json:"session_id"`
	OrderID       string            `json:"order_id,omitempty"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewPaymentTransaction returns a pending transaction for a new session.
func NewPaymentTransaction(sessionID string, amount int64, metadata map[string]string, now time.Time) *PaymentTransaction {
	return &PaymentTransaction{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		Amount:        amount,
		Currency:      CurrencyUSD,
		Status:        TxStatusPending,
		PaymentStatus: PaymentStatusInitiated,
		Metadata:      metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CheckoutSession is returned to the browser after session creation.
type CheckoutSession struct {
	CheckoutURL string    `json:"checkout_url"`
	SessionID   string    `json:"session_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CheckoutStatus is the answer to a status poll. Order fields are set once
// the order has been materialized.
type CheckoutStatus struct {
	SessionID     string `json:"session_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
	OrderID       string `json:"order_id,omitempty"`
	OrderNumber   string `json:"order_number,omitempty"`
}

// IsPaid reports whether the provider has captured the payment.
func (s *CheckoutStatus) IsPaid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// WebhookResult is returned to the provider after a webhook delivery.
type WebhookResult struct {
	EventType   string `json:"event_type"`
	SessionID   string `json:"session_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
}

// CheckoutCreatedEvent is published after a session is staged.
type CheckoutCreatedEvent struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
	Total     int64  `json:"total"`
	Reserved  bool   `json:"reserved"`
}

// CheckoutExpiredEvent is published when the reaper abandons a session.
type CheckoutExpiredEvent struct {
	SessionID string         `json:"session_id"`
	Reserved  bool           `json:"reserved"`
	Items     []StockRequest `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
}

// OrderConfirmedEvent is published once per materialized order.
type OrderConfirmedEvent struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Email       string `json:"email"`
	Total       int64  `json:"total"`
	SessionID   string `json:"session_id,omitempty"`
	PromoCode   string `json:"promo_code,omitempty"`
}
