package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/provider/shipping"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
	"github.com/razeathletics/storefront/pkg/httpclient"
)

// OrderLabeler attaches a purchased label to an order.
type OrderLabeler interface {
	AttachLabel(ctx context.Context, idOrNumber string, label *domain.ShippingLabel) (*domain.Order, error)
}

// ShippingService quotes rates, buys labels and tracks parcels through the
// shipping provider.
type ShippingService struct {
	provider shipping.Provider
	orders   OrderLabeler
	logger   *slog.Logger
}

// NewShippingService creates a new shipping service.
func NewShippingService(provider shipping.Provider, orders OrderLabeler, logger *slog.Logger) *ShippingService {
	return &ShippingService{
		provider: provider,
		orders:   orders,
		logger:   logger,
	}
}

// Rates quotes every service from the warehouse to the customer, cheapest
// first.
func (s *ShippingService) Rates(ctx context.Context, req *domain.ShippingRateRequest) (*domain.ShippingRatesResult, error) {
	rates, err := s.provider.Rates(ctx, domain.WarehouseAddress, req.AddressTo.CarrierAddress(), req.Parcel())
	if err != nil {
		return nil, s.providerError(ctx, "rates", err)
	}

	sort.SliceStable(rates, func(i, j int) bool { return rates[i].Amount < rates[j].Amount })
	if rates == nil {
		rates = []domain.ShippingRate{}
	}

	msg := fmt.Sprintf("Found %d shipping options", len(rates))
	if len(rates) == 0 {
		msg = "No shipping options available for this address"
	}
	return &domain.ShippingRatesResult{Success: len(rates) > 0, Rates: rates, Message: msg}, nil
}

// CreateLabel buys the label of a quoted rate and records it on the order.
func (s *ShippingService) CreateLabel(ctx context.Context, req *domain.CreateLabelRequest) (*domain.ShippingLabel, error) {
	label, err := s.provider.PurchaseLabel(ctx, req.RateID)
	if err != nil {
		return nil, s.providerError(ctx, "label", err)
	}

	if _, err := s.orders.AttachLabel(ctx, req.OrderID, label); err != nil {
		s.logger.ErrorContext(ctx, "label purchased but not attached to order",
			slog.String("order_id", req.OrderID),
			slog.String("tracking_number", label.TrackingNumber),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "shipping label created",
		slog.String("order_id", req.OrderID),
		slog.String("carrier", label.Carrier),
		slog.String("tracking_number", label.TrackingNumber),
	)
	return label, nil
}

// Track returns the carrier's view of a shipment.
func (s *ShippingService) Track(ctx context.Context, carrier, trackingNumber string) (*domain.ShipmentTracking, error) {
	if strings.TrimSpace(carrier) == "" || strings.TrimSpace(trackingNumber) == "" {
		return nil, apperrors.InvalidInput("carrier and tracking number are required")
	}
	t, err := s.provider.Track(ctx, carrier, trackingNumber)
	if err != nil {
		return nil, s.providerError(ctx, "tracking", err)
	}
	return t, nil
}

// providerError maps provider failures: refusals and client errors reach
// the caller as bad input, everything else as an unavailable provider.
func (s *ShippingService) providerError(ctx context.Context, op string, err error) error {
	if errors.Is(err, shipping.ErrLabelFailed) {
		return apperrors.InvalidInput(err.Error())
	}

	var se *httpclient.StatusError
	if errors.As(err, &se) && httpclient.IsClientError(se.Status) && se.Status != http.StatusTooManyRequests {
		if se.Status == http.StatusNotFound {
			return apperrors.NotFoundMessage("Shipment not found")
		}
		return apperrors.InvalidInput(se.Message)
	}

	s.logger.ErrorContext(ctx, "shipping provider call failed",
		slog.String("provider", s.provider.Name()),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return apperrors.ProviderUnavailable(s.provider.Name(), err)
}
