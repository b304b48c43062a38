// Package shipping defines the carrier rate, label and tracking provider.
package shipping

import (
	"context"
	"errors"

	"github.com/razeathletics/storefront/internal/domain"
)

// ErrLabelFailed is returned when the carrier refuses to issue a label.
var ErrLabelFailed = errors.New("label purchase failed")

// Provider defines the interface for shipping provider integrations.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "shippo").
	Name() string

	// Rates quotes every service able to carry parcel from one address to
	// another. Amounts are in cents.
	Rates(ctx context.Context, from, to domain.Address, parcel domain.Parcel) ([]domain.ShippingRate, error)

	// PurchaseLabel buys the label of a quoted rate.
	PurchaseLabel(ctx context.Context, rateID string) (*domain.ShippingLabel, error)

	// Track returns the carrier's view of a shipment.
	Track(ctx context.Context, carrier, trackingNumber string) (*domain.ShipmentTracking, error)
}
