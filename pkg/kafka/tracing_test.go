package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestKafkaHeaderCarrier_SetAndGet(t *testing.T) {
	headers := []kafka.Header{{Key: "event_type", Value: []byte("order.confirmed")}}
	carrier := NewHeaderCarrier(&headers)

	assert.Equal(t, "order.confirmed", carrier.Get("event_type"))
	assert.Empty(t, carrier.Get("missing"))

	carrier.Set("traceparent", "abc")
	carrier.Set("event_type", "order.created")

	assert.Equal(t, "abc", carrier.Get("traceparent"))
	assert.Equal(t, "order.created", carrier.Get("event_type"))
	assert.ElementsMatch(t, []string{"event_type", "traceparent"}, carrier.Keys())
	assert.Len(t, headers, 2)
}

func TestKafkaHeaderCarrier_PropagationRoundTrip(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled, Remote: true,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	var headers []kafka.Header
	prop := propagation.TraceContext{}
	prop.Inject(ctx, NewHeaderCarrier(&headers))

	out := prop.Extract(context.Background(), NewHeaderCarrier(&headers))
	got := trace.SpanContextFromContext(out)
	assert.Equal(t, traceID, got.TraceID())
	assert.Equal(t, spanID, got.SpanID())
}
