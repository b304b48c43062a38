package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/razeathletics/storefront/internal/domain"
	pkgkafka "github.com/razeathletics/storefront/pkg/kafka"
	"github.com/razeathletics/storefront/pkg/logger"
)

// Kafka topic constants for storefront domain events. The event type of
// every envelope equals its topic.
var (
	TopicInventoryReserved  = pkgkafka.Topic("inventory", "reserved")
	TopicInventoryReleased  = pkgkafka.Topic("inventory", "released")
	TopicInventoryCommitted = pkgkafka.Topic("inventory", "committed")
	TopicInventoryLowStock  = pkgkafka.Topic("inventory", "low_stock")
	TopicCheckoutCreated    = pkgkafka.Topic("checkout", "created")
	TopicCheckoutExpired    = pkgkafka.Topic("checkout", "expired")
	TopicOrderConfirmed     = pkgkafka.Topic("order", "confirmed")
	TopicOrderCreated       = pkgkafka.Topic("order", "created")
	TopicOrderStatusChanged = pkgkafka.Topic("order", "status_changed")
	TopicWaitlistJoined     = pkgkafka.Topic("waitlist", "joined")
	TopicUserRegistered     = pkgkafka.Topic("user", "registered")
)

// Aggregate type constants.
const (
	AggregateInventory = "inventory"
	AggregateCheckout  = "checkout"
	AggregateOrder     = "order"
	AggregateWaitlist  = "waitlist"
	AggregateUser      = "user"
)

// SourceStorefront identifies events published by this service.
const SourceStorefront = "storefront-api"

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Email       string `json:"email"`
	Total       int64  `json:"total"`
	ItemCount   int    `json:"item_count"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer. Pass pkgkafka.NoopPublisher
// when no brokers are configured.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if userID := logger.UserIDFromContext(ctx); userID != "" {
		event.WithMetadata("user_id", userID)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
		slog.String("event_id", event.EventID),
	)
	return nil
}

// PublishStockReserved publishes an inventory.reserved event for a checkout
// hold.
func (p *Producer) PublishStockReserved(ctx context.Context, sessionID string, items []domain.StockRequest) error {
	return p.publish(ctx, TopicInventoryReserved, sessionID, AggregateInventory,
		domain.StockEvent{SessionID: sessionID, Items: items})
}

// PublishStockReleased publishes an inventory.released event.
func (p *Producer) PublishStockReleased(ctx context.Context, sessionID string, items []domain.StockRequest) error {
	return p.publish(ctx, TopicInventoryReleased, sessionID, AggregateInventory,
		domain.StockEvent{SessionID: sessionID, Items: items})
}

// PublishStockCommitted publishes an inventory.committed event.
func (p *Producer) PublishStockCommitted(ctx context.Context, sessionID string, items []domain.StockRequest) error {
	return p.publish(ctx, TopicInventoryCommitted, sessionID, AggregateInventory,
		domain.StockEvent{SessionID: sessionID, Items: items})
}

// PublishLowStock publishes an inventory.low_stock event keyed by variant.
func (p *Producer) PublishLowStock(ctx context.Context, ev domain.LowStockEvent) error {
	key := domain.VariantKey{ProductID: ev.ProductID, Color: ev.Color, Size: ev.Size}
	return p.publish(ctx, TopicInventoryLowStock, key.String(), AggregateInventory, ev)
}

// PublishCheckoutCreated publishes a checkout.created event.
func (p *Producer) PublishCheckoutCreated(ctx context.Context, ev domain.CheckoutCreatedEvent) error {
	return p.publish(ctx, TopicCheckoutCreated, ev.SessionID, AggregateCheckout, ev)
}

// PublishCheckoutExpired publishes a checkout.expired event.
func (p *Producer) PublishCheckoutExpired(ctx context.Context, ev domain.CheckoutExpiredEvent) error {
	return p.publish(ctx, TopicCheckoutExpired, ev.SessionID, AggregateCheckout, ev)
}

// PublishOrderConfirmed publishes an order.confirmed event.
func (p *Producer) PublishOrderConfirmed(ctx context.Context, ev domain.OrderConfirmedEvent) error {
	return p.publish(ctx, TopicOrderConfirmed, ev.OrderID, AggregateOrder, ev)
}

// PublishOrderCreated publishes an order.created event for a manual order.
func (p *Producer) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, o.ID, AggregateOrder, OrderCreatedData{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Email:       o.Shipping.Email,
		Total:       o.Total,
		ItemCount:   len(o.Items),
	})
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, ev domain.StatusChangedEvent) error {
	return p.publish(ctx, TopicOrderStatusChanged, ev.OrderID, AggregateOrder, ev)
}

// PublishWaitlistJoined publishes a waitlist.joined event keyed by product.
func (p *Producer) PublishWaitlistJoined(ctx context.Context, ev domain.WaitlistJoinedEvent) error {
	return p.publish(ctx, TopicWaitlistJoined, strconv.Itoa(ev.ProductID), AggregateWaitlist, ev)
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, ev domain.UserRegisteredEvent) error {
	return p.publish(ctx, TopicUserRegistered, ev.UserID, AggregateUser, ev)
}
