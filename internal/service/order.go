package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/event"
	"github.com/razeathletics/storefront/internal/repository"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

// customerOrdersLimit caps the order history returned to a signed in user.
const customerOrdersLimit = 100

// OrderService implements the business logic for order operations.
type OrderService struct {
	repo     repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create places a manual order. It starts pending and takes no stock.
func (s *OrderService) Create(ctx context.Context, req *domain.CreateOrderRequest) (*domain.Order, error) {
	if err := domain.CheckPricing(req.Items, req.Pricing); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	now := s.now()
	shipping := req.Shipping
	shipping.Email = strings.ToLower(strings.TrimSpace(shipping.Email))
	if shipping.Country == "" {
		shipping.Country = domain.DefaultCountry
	}

	order := &domain.Order{
		ID:                  uuid.NewString(),
		OrderNumber:         domain.NewOrderNumber(),
		Items:               req.Items,
		Shipping:            shipping,
		Subtotal:            req.Subtotal,
		Discount:            req.Discount,
		DiscountDescription: req.DiscountDescription,
		ShippingCost:        req.ShippingCost,
		Total:               req.Total,
		Status:              domain.OrderStatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.Int64("total", order.Total),
	)
	return order, nil
}

// Get resolves an order by id or, failing that, by order number.
func (s *OrderService) Get(ctx context.Context, idOrNumber string) (*domain.Order, error) {
	order, err := s.resolve(ctx, idOrNumber)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) resolve(ctx context.Context, idOrNumber string) (*domain.Order, error) {
	if _, perr := uuid.Parse(idOrNumber); perr == nil {
		order, err := s.repo.GetByID(ctx, idOrNumber)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get order: %w", err)
		}
	}

	order, err := s.repo.GetByNumber(ctx, domain.NormalizeOrderNumber(idOrNumber))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMessage("Order not found")
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// List returns orders newest first.
func (s *OrderService) List(ctx context.Context, filter domain.OrderFilter, skip, limit int) ([]domain.Order, int, error) {
	if filter.Status != "" && !domain.IsValidStatus(filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", filter.Status))
	}
	filter.Email = strings.ToLower(strings.TrimSpace(filter.Email))

	orders, total, err := s.repo.List(ctx, filter, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// ListByEmail returns the order history of a customer.
func (s *OrderService) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	orders, _, err := s.List(ctx, domain.OrderFilter{Email: email}, 0, customerOrdersLimit)
	return orders, err
}

// Update applies an admin change. A status change is checked against the
// lifecycle and announced with an order.status_changed event.
func (s *OrderService) Update(ctx context.Context, idOrNumber string, req domain.UpdateOrderRequest) (*domain.Order, error) {
	if req.IsEmpty() {
		return nil, apperrors.InvalidInput("No fields to update")
	}
	if req.Status != nil && !domain.IsValidStatus(*req.Status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid status. Must be one of: %s",
			strings.Join(domain.ValidStatuses(), ", ")))
	}

	current, err := s.resolve(ctx, idOrNumber)
	if err != nil {
		return nil, err
	}

	var oldStatus string
	updated, err := s.repo.Modify(ctx, current.ID, func(o *domain.Order) error {
		oldStatus = o.Status
		now := s.now()
		if req.Status != nil {
			if !o.CanTransitionTo(*req.Status) {
				return apperrors.Conflict(fmt.Sprintf("cannot change status from %s to %s", o.Status, *req.Status))
			}
			o.ApplyStatus(*req.Status, now)
		}
		if req.TrackingNumber != nil {
			o.TrackingNumber = *req.TrackingNumber
		}
		if req.Carrier != nil {
			o.Carrier = *req.Carrier
		}
		if req.EstimatedDelivery != nil {
			o.EstimatedDelivery = *req.EstimatedDelivery
		}
		if req.Notes != nil {
			o.Notes = *req.Notes
		}
		if req.LabelURL != nil {
			o.LabelURL = *req.LabelURL
		}
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMessage("Order not found")
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	if updated.Status != oldStatus {
		s.publishStatusChanged(ctx, updated, oldStatus)
	}

	s.logger.InfoContext(ctx, "order updated",
		slog.String("order_id", updated.ID),
		slog.String("status", updated.Status),
	)
	return updated, nil
}

func (s *OrderService) publishStatusChanged(ctx context.Context, o *domain.Order, oldStatus string) {
	ev := domain.StatusChangedEvent{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		Email:          o.Shipping.Email,
		FirstName:      o.Shipping.FirstName,
		OldStatus:      oldStatus,
		NewStatus:      o.Status,
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
	}
	if err := s.producer.PublishOrderStatusChanged(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}
}

// AttachLabel records a purchased shipping label and moves the order to
// processing.
func (s *OrderService) AttachLabel(ctx context.Context, idOrNumber string, label *domain.ShippingLabel) (*domain.Order, error) {
	status := domain.OrderStatusProcessing
	return s.Update(ctx, idOrNumber, domain.UpdateOrderRequest{
		Status:         &status,
		TrackingNumber: &label.TrackingNumber,
		Carrier:        &label.Carrier,
		LabelURL:       &label.LabelURL,
	})
}

// Track returns the tracking view when email matches the order. A wrong
// email reads as an unknown order.
func (s *OrderService) Track(ctx context.Context, orderNumber, email string) (*domain.TrackingView, error) {
	order, err := s.repo.GetByNumber(ctx, domain.NormalizeOrderNumber(orderNumber))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMessage("Order not found. Please check your order number and email.")
		}
		return nil, fmt.Errorf("track order: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(order.Shipping.Email), strings.TrimSpace(email)) {
		return nil, apperrors.NotFoundMessage("Order not found. Please check your order number and email.")
	}
	view := order.Tracking()
	return &view, nil
}

// Stats returns per status counts and revenue.
func (s *OrderService) Stats(ctx context.Context) (*domain.OrderStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	return stats, nil
}
