package event

import (
	"context"

	pkgkafka "github.com/razeathletics/storefront/pkg/kafka"
)

// Loopback delivers published events straight to the notifier handler. It
// stands in for the broker when Kafka is disabled so status emails and low
// stock alerts keep flowing on a single node.
type Loopback struct {
	handler *ConsumerHandler
}

// NewLoopback creates a publisher that hands events to handler.
func NewLoopback(handler *ConsumerHandler) *Loopback {
	return &Loopback{handler: handler}
}

// Publish implements pkgkafka.Publisher. Topics nobody consumes are dropped.
func (l *Loopback) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	switch topic {
	case TopicOrderStatusChanged, TopicInventoryLowStock:
		return l.handler.Handle(ctx, event)
	default:
		return nil
	}
}
