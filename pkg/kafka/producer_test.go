package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razeathletics/storefront/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: logger.Discard()}

	evt, err := NewEvent("inventory.reserved", "1:Black:M", "inventory", "storefront", map[string]int{"quantity": 2})
	require.NoError(t, err)
	evt.WithCorrelationID("req-1")

	require.NoError(t, p.Publish(context.Background(), Topic("inventory", "reserved"), evt))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "storefront.inventory.reserved", msg.Topic)
	assert.Equal(t, "1:Black:M", string(msg.Key))
	assert.Equal(t, "inventory.reserved", header(msg, "event_type"))
	assert.Equal(t, "storefront", header(msg, "source"))
	assert.Equal(t, "req-1", header(msg, "correlation_id"))
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("leader not available")}, logger: logger.Discard()}
	evt, _ := NewEvent("order.confirmed", "o", "order", "storefront", nil)

	err := p.Publish(context.Background(), "t", evt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: logger.Discard()}
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"kafka:9092"})
	assert.Equal(t, []string{"kafka:9092"}, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.False(t, cfg.Async)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.Error(t, PingBrokers(context.Background(), nil))
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), "t", &Event{}))
}

func TestDLQProducer_AddsHeaders(t *testing.T) {
	w := &fakeWriter{}
	d := &DLQProducer{writer: w, logger: logger.Discard()}

	orig := kafka.Message{Topic: "storefront.order.status_changed", Partition: 2, Offset: 41, Key: []byte("k"), Value: []byte("v")}
	require.NoError(t, d.Publish(context.Background(), orig, errors.New("smtp down"), "storefront-notifier"))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "storefront.dlq.storefront.order.status_changed", msg.Topic)
	assert.Equal(t, "2", header(msg, "dlq.original_partition"))
	assert.Equal(t, "41", header(msg, "dlq.original_offset"))
	assert.Equal(t, "storefront-notifier", header(msg, "dlq.consumer_group"))
	assert.Equal(t, "smtp down", header(msg, "dlq.error"))
}
