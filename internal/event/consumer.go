package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/notification"
	pkgkafka "github.com/razeathletics/storefront/pkg/kafka"
)

// processedEventTTL bounds how long consumed event ids are remembered.
const processedEventTTL = 24 * time.Hour

// TaskEnqueuer accepts background notification tasks.
type TaskEnqueuer interface {
	Enqueue(t notification.Task) bool
}

// ConsumerHandler turns order and inventory events into customer emails
// and operations alerts.
type ConsumerHandler struct {
	dispatcher  TaskEnqueuer
	lowStockURL string
	logger      *slog.Logger
}

// NewConsumerHandler creates a new event consumer handler. An empty
// lowStockURL disables low stock alerts.
func NewConsumerHandler(dispatcher TaskEnqueuer, lowStockURL string, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		dispatcher:  dispatcher,
		lowStockURL: lowStockURL,
		logger:      logger,
	}
}

// Handle processes an incoming Kafka event based on its event type.
func (h *ConsumerHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicOrderStatusChanged:
		return h.handleStatusChanged(ctx, event)
	case TopicInventoryLowStock:
		return h.handleLowStock(ctx, event)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleStatusChanged emails the customer when the order ships or arrives.
func (h *ConsumerHandler) handleStatusChanged(ctx context.Context, event *pkgkafka.Event) error {
	var ev domain.StatusChangedEvent
	if err := event.UnmarshalData(&ev); err != nil {
		return fmt.Errorf("decode status changed event: %w", err)
	}

	email, ok, err := notification.StatusUpdate(&ev)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if !h.dispatcher.Enqueue(notification.EmailTask("order_status_"+ev.NewStatus, email)) {
		h.logger.WarnContext(ctx, "status email not queued",
			slog.String("order_number", ev.OrderNumber),
			slog.String("status", ev.NewStatus),
		)
	}
	return nil
}

// handleLowStock posts the low stock alert to the workflow webhook.
func (h *ConsumerHandler) handleLowStock(ctx context.Context, event *pkgkafka.Event) error {
	var ev domain.LowStockEvent
	if err := event.UnmarshalData(&ev); err != nil {
		return fmt.Errorf("decode low stock event: %w", err)
	}
	if h.lowStockURL == "" {
		h.logger.DebugContext(ctx, "low stock webhook not configured",
			slog.Int("product_id", ev.ProductID),
		)
		return nil
	}

	payload := notification.LowStockPayload{
		WebhookBase: notification.WebhookBase{
			EventType: notification.EventLowStock,
			Timestamp: event.Timestamp,
			Source:    event.Source,
		},
		ProductID:   ev.ProductID,
		ProductName: ev.ProductName,
		Color:       ev.Color,
		Size:        ev.Size,
		Available:   ev.Available,
		Threshold:   ev.Threshold,
	}
	h.dispatcher.Enqueue(notification.WebhookTask("low_stock_alert", h.lowStockURL, payload))
	return nil
}

// ConsumerOptions configures the notifier consumers.
type ConsumerOptions struct {
	Brokers   []string
	GroupID   string
	EnableDLQ bool
	// Redis backs the idempotency store. Nil falls back to memory.
	Redis *redis.Client
}

// NewConsumers creates one consumer per topic the notifier subscribes to.
// Every handler skips events it has already processed.
func NewConsumers(opts ConsumerOptions, handler *ConsumerHandler, logger *slog.Logger) []*pkgkafka.Consumer {
	topics := []string{
		TopicOrderStatusChanged,
		TopicInventoryLowStock,
	}

	var store pkgkafka.IdempotencyStore
	if opts.Redis != nil {
		store = pkgkafka.NewRedisIdempotencyStore(opts.Redis, opts.GroupID, processedEventTTL)
	} else {
		store = pkgkafka.NewMemoryIdempotencyStore(processedEventTTL)
	}
	handle := pkgkafka.IdempotentHandler(store, handler.Handle, logger)

	consumers := make([]*pkgkafka.Consumer, 0, len(topics))

	for _, topic := range topics {
		cfg := pkgkafka.ConsumerConfig{
			Brokers:   opts.Brokers,
			GroupID:   opts.GroupID,
			Topic:     topic,
			MinBytes:  1,
			MaxBytes:  10e6,
			EnableDLQ: opts.EnableDLQ,
		}

		consumers = append(consumers, pkgkafka.NewConsumer(cfg, handle, logger))
	}

	return consumers
}
