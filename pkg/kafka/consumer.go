package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxHandlerRetries is how many times a handler runs for one message
// before the message is dead-lettered (or skipped when DLQ is off).
const maxHandlerRetries = 3

// Handler processes one event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers   []string
	GroupID   string
	Topic     string
	MinBytes  int
	MaxBytes  int
	EnableDLQ bool
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type deadLetterer interface {
	Publish(ctx context.Context, msg kafka.Message, lastErr error, consumerGroup string) error
	Close() error
}

// Consumer reads one topic in a consumer group and hands each event to a
// Handler with bounded retries.
type Consumer struct {
	reader    messageReader
	dlq       deadLetterer
	topic     string
	group     string
	logger    *slog.Logger
	handler   Handler
	backoff   func(attempt int) time.Duration
	closeOnce sync.Once
}

// NewConsumer creates a consumer. With EnableDLQ set, messages that exhaust
// their retries are copied to DLQTopic(topic) before being committed.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	minBytes, maxBytes := cfg.MinBytes, cfg.MaxBytes
	if minBytes <= 0 {
		minBytes = 1
	}
	if maxBytes <= 0 {
		maxBytes = 10e6
	}

	c := &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    cfg.Topic,
			MinBytes: minBytes,
			MaxBytes: maxBytes,
		}),
		topic:   cfg.Topic,
		group:   cfg.GroupID,
		logger:  logger.With(slog.String("topic", cfg.Topic), slog.String("group", cfg.GroupID)),
		handler: handler,
		backoff: func(attempt int) time.Duration { return time.Duration(attempt) * 100 * time.Millisecond },
	}
	if cfg.EnableDLQ {
		c.dlq = NewDLQProducer(cfg.Brokers, logger)
	}
	return c
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping")
				return nil
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if !c.process(ctx, msg) {
			return nil
		}
	}
}

// process handles one message and commits it. It returns false when ctx
// was cancelled mid-retry, leaving the message uncommitted for redelivery.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	ConsumerMessagesReceived.WithLabelValues(c.topic, c.group).Inc()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to unmarshal event, dead-lettering", slog.String("error", err.Error()))
		c.deadLetter(ctx, msg, err)
		c.commit(ctx, msg)
		return true
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&msg.Headers))
	ctx, span := otel.Tracer(tracerName).Start(ctx, "kafka.consume "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", c.topic),
			attribute.String("messaging.kafka.consumer.group", c.group),
			attribute.String("event.type", event.EventType),
		),
	)
	defer span.End()

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		if lastErr = c.handler(ctx, event); lastErr == nil {
			break
		}
		c.logger.Warn("handler failed",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)
		if attempt < maxHandlerRetries {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(c.backoff(attempt)):
			}
		}
	}
	ConsumerProcessingDuration.WithLabelValues(c.topic, c.group).Observe(time.Since(start).Seconds())

	if lastErr != nil {
		span.RecordError(lastErr)
		ConsumerMessagesFailed.WithLabelValues(c.topic, c.group).Inc()
		c.logger.Error("handler failed after all retries",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
			slog.String("error", lastErr.Error()),
		)
		c.deadLetter(ctx, msg, lastErr)
	} else {
		ConsumerMessagesProcessed.WithLabelValues(c.topic, c.group).Inc()
	}

	c.commit(ctx, msg)
	return true
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.dlq == nil {
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.group); err == nil {
		ConsumerDLQPublished.WithLabelValues(c.topic, c.group).Inc()
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit message",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the reader and DLQ writer. Safe to call more than once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
		if c.dlq != nil {
			_ = c.dlq.Close()
		}
	})
	return err
}

const tracerName = "github.com/razeathletics/storefront/pkg/kafka"
