package mock

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/razeathletics/storefront/internal/domain"
)

// Provider is a mock shipping provider with a fixed rate card. It is
// intended for development and testing purposes.
type Provider struct{}

// NewProvider creates a new mock shipping provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

func days(n int) *int { return &n }

// Rates returns the same three services for every destination.
func (p *Provider) Rates(_ context.Context, _, _ domain.Address, _ domain.Parcel) ([]domain.ShippingRate, error) {
	return []domain.ShippingRate{
		{ObjectID: "rate_mock_ups_ground", Provider: "UPS", ServiceLevel: "Ground", Amount: 1250, Currency: "USD", EstimatedDays: days(5)},
		{ObjectID: "rate_mock_fedex_2day", Provider: "FedEx", ServiceLevel: "2Day", Amount: 2400, Currency: "USD", EstimatedDays: days(2)},
		{ObjectID: "rate_mock_usps_priority", Provider: "USPS", ServiceLevel: "Priority Mail", Amount: 895, Currency: "USD", EstimatedDays: days(3)},
	}, nil
}

// PurchaseLabel issues a label whose carrier is taken from the rate id.
func (p *Provider) PurchaseLabel(_ context.Context, rateID string) (*domain.ShippingLabel, error) {
	carrier := "USPS"
	switch {
	case strings.Contains(rateID, "ups"):
		carrier = "UPS"
	case strings.Contains(rateID, "fedex"):
		carrier = "FedEx"
	}
	number := "MOCK" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return &domain.ShippingLabel{
		TrackingNumber: number,
		LabelURL:       "https://labels.example.com/" + number + ".pdf",
		Carrier:        carrier,
	}, nil
}

// Track reports every shipment as in transit.
func (p *Provider) Track(_ context.Context, carrier, trackingNumber string) (*domain.ShipmentTracking, error) {
	now := time.Now().UTC()
	eta := now.Add(48 * time.Hour)
	return &domain.ShipmentTracking{
		TrackingNumber: trackingNumber,
		Carrier:        strings.ToLower(carrier),
		Status:         "TRANSIT",
		StatusDetails:  "Your shipment is on its way.",
		Location:       "San Francisco",
		ETA:            &eta,
		History: []domain.TrackingEvent{
			{Status: "PRE_TRANSIT", StatusDetails: "Label created.", Date: &now},
		},
	}, nil
}
