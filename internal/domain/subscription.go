package domain

import (
	"strings"
	"time"
)

// Subscription sources.
const (
	SourceGiveawayPopup = "giveaway_popup"
	SourceEarlyAccess   = "early_access"
	SourceNotifyMe      = "notify_me"
)

// DefaultDropName labels subscriptions that do not name a drop.
const DefaultDropName = "Drop 01"

// Subscription answer messages.
const (
	SubscribedMessage               = "Successfully subscribed!"
	AlreadySubscribedMessage        = "This email is already subscribed."
	AlreadySubscribedProductMessage = "This email is already subscribed for this product."
)

// EmailSubscription is a marketing opt-in.
type EmailSubscription struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Source      string    `json:"source"`
	ProductID   string    `json:"product_id,omitempty"`
	ProductName string    `json:"product_name,omitempty"`
	Drop        string    `json:"drop"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubscribeRequest is the body of a subscribe call.
type SubscribeRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Source      string `json:"source" validate:"required,oneof=giveaway_popup early_access notify_me"`
	ProductID   string `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	Drop        string `json:"drop,omitempty"`
}

// Normalize lower-cases the email, defaults the drop name and scopes the
// product to notify_me subscriptions.
func (r *SubscribeRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	if r.Drop == "" {
		r.Drop = DefaultDropName
	}
	if r.Source != SourceNotifyMe {
		r.ProductID = ""
	}
}

// DuplicateMessage is the answer given when the subscription already
// exists.
func (r *SubscribeRequest) DuplicateMessage() string {
	if r.Source == SourceNotifyMe {
		return AlreadySubscribedProductMessage
	}
	return AlreadySubscribedMessage
}

// SubscribeResult is the answer to a subscribe call.
type SubscribeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Email   string `json:"email"`
}

// SubscriptionStats counts subscriptions per source.
type SubscriptionStats struct {
	Total         int `json:"total"`
	GiveawayPopup int `json:"giveaway_popup"`
	EarlyAccess   int `json:"early_access"`
	NotifyMe      int `json:"notify_me"`
}

// NewSubscriptionStats folds per-source counts.
func NewSubscriptionStats(bySource map[string]int) SubscriptionStats {
	stats := SubscriptionStats{
		GiveawayPopup: bySource[SourceGiveawayPopup],
		EarlyAccess:   bySource[SourceEarlyAccess],
		NotifyMe:      bySource[SourceNotifyMe],
	}
	for _, n := range bySource {
		stats.Total += n
	}
	return stats
}

// IsValidSource reports whether source is a known subscription source.
func IsValidSource(source string) bool {
	switch source {
	case SourceGiveawayPopup, SourceEarlyAccess, SourceNotifyMe:
		return true
	}
	return false
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
