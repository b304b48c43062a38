package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Status Rules
// ============================================================================

func TestIsValidStatus(t *testing.T) {
	for _, s := range ValidStatuses() {
		assert.True(t, IsValidStatus(s), "expected %q to be valid", s)
	}
	assert.False(t, IsValidStatus("refunded"))
	assert.False(t, IsValidStatus(""))
	assert.False(t, IsValidStatus("SHIPPED"))
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusConfirmed, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusDelivered, true},
		{OrderStatusDelivered, OrderStatusShipped, true},
		{OrderStatusDelivered, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusCancelled, OrderStatusCancelled, true},
		{OrderStatusPending, "bogus", false},
	}
	for _, tt := range tests {
		o := &Order{Status: tt.from}
		assert.Equal(t, tt.want, o.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestApplyStatus_StampsOnce(t *testing.T) {
	first := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)
	o := &Order{Status: OrderStatusProcessing}

	o.ApplyStatus(OrderStatusShipped, first)
	require.NotNil(t, o.ShippedAt)
	assert.Equal(t, first, *o.ShippedAt)

	o.ApplyStatus(OrderStatusShipped, later)
	assert.Equal(t, first, *o.ShippedAt)

	o.ApplyStatus(OrderStatusDelivered, later)
	require.NotNil(t, o.DeliveredAt)
	assert.Equal(t, later, *o.DeliveredAt)
	assert.Equal(t, first, *o.ShippedAt)
}

// ============================================================================
// Pricing
// ============================================================================

func TestCheckPricing(t *testing.T) {
	items := []OrderItem{
		{ProductID: 1, Quantity: 2, Price: 4500},
		{ProductID: 2, Quantity: 1, Price: 5500},
	}

	assert.NoError(t, CheckPricing(items, Pricing{Subtotal: 14500, Discount: 1450, ShippingCost: 800, Total: 13850}))
	assert.ErrorIs(t, CheckPricing(items, Pricing{Subtotal: 14000, Total: 14000}), ErrSubtotalMismatch)
	assert.ErrorIs(t, CheckPricing(items, Pricing{Subtotal: 14500, Discount: 15000, Total: 0}), ErrDiscountTooLarge)
	assert.ErrorIs(t, CheckPricing(items, Pricing{Subtotal: 14500, ShippingCost: 800, Total: 14500}), ErrTotalMismatch)
}

func TestStockRequests(t *testing.T) {
	reqs := StockRequests([]OrderItem{{ProductID: 1, ProductName: "Tee", Color: "Black", Size: "M", Quantity: 3}})
	require.Len(t, reqs, 1)
	assert.Equal(t, StockRequest{ProductID: 1, ProductName: "Tee", Color: "Black", Size: "M", Quantity: 3}, reqs[0])
}

// ============================================================================
// Numbers and Tracking
// ============================================================================

func TestNewOrderNumber(t *testing.T) {
	n := NewOrderNumber()
	assert.True(t, strings.HasPrefix(n, OrderNumberPrefix))
	assert.Len(t, n, len(OrderNumberPrefix)+8)
	assert.Equal(t, strings.ToUpper(n), n)
	assert.NotEqual(t, n, NewOrderNumber())
}

func TestNormalizeOrderNumber(t *testing.T) {
	assert.Equal(t, "RAZE-AB12CD34", NormalizeOrderNumber("  raze-ab12cd34 "))
}

func TestTimeline(t *testing.T) {
	created := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	shipped := created.Add(24 * time.Hour)
	o := &Order{Status: OrderStatusShipped, CreatedAt: created, ShippedAt: &shipped}

	steps := o.Timeline()
	require.Len(t, steps, 4)
	assert.Equal(t, "Order Confirmed", steps[0].Label)
	assert.True(t, steps[0].Completed)
	assert.Equal(t, created, *steps[0].Date)
	assert.True(t, steps[1].Completed)
	assert.True(t, steps[2].Completed)
	assert.Equal(t, shipped, *steps[2].Date)
	assert.False(t, steps[3].Completed)
	assert.Nil(t, steps[3].Date)
}

func TestTracking_ProjectsAddress(t *testing.T) {
	o := &Order{
		OrderNumber: "RAZE-0000AAAA",
		Status:      OrderStatusConfirmed,
		Shipping: ShippingAddress{
			FirstName: "Sam", LastName: "Lee", Email: "sam@example.com",
			AddressLine1: "1 Main St", City: "Austin", State: "TX", PostalCode: "78701",
		},
	}
	v := o.Tracking()
	assert.Equal(t, "Sam Lee", v.ShippingAddress.Name)
	assert.Equal(t, "1 Main St", v.ShippingAddress.Address)
	assert.Equal(t, DefaultCountry, v.ShippingAddress.Country)
	assert.Len(t, v.Timeline, 4)
}
