package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order status constants.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// OrderNumberPrefix starts every human facing order number.
const OrderNumberPrefix = "RAZE-"

// DefaultCountry is assumed when an address omits its country.
const DefaultCountry = "US"

// Order is a placed customer order.
type Order struct {
	ID                  string          `json:"id"`
	OrderNumber         string          `json:"order_number"`
	Items               []OrderItem     `json:"items"`
	Shipping            ShippingAddress `json:"shipping"`
	Subtotal            int64           `json:"subtotal"`
	Discount            int64           `json:"discount"`
	DiscountDescription string          `json:"discount_description,omitempty"`
	ShippingCost        int64           `json:"shipping_cost"`
	Total               int64           `json:"total"`
	Status              string          `json:"status"`
	TrackingNumber      string          `json:"tracking_number,omitempty"`
	Carrier             string          `json:"carrier,omitempty"`
	LabelURL            string          `json:"label_url,omitempty"`
	EstimatedDelivery   string          `json:"estimated_delivery,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	PaymentSessionID    string          `json:"payment_session_id,omitempty"`
	ShippedAt           *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt         *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// OrderItem is a line of an order. Price is the unit price in cents.
type OrderItem struct {
	ProductID   int    `json:"product_id" validate:"required,gt=0"`
	ProductName string `json:"product_name" validate:"required"`
	Color       string `json:"color" validate:"required"`
	Size        string `json:"size" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	Price       int64  `json:"price" validate:"gte=0"`
	Image       string `json:"image,omitempty"`
}

// LineTotal returns price times quantity.
func (i OrderItem) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// StockRequest converts the line into a ledger request.
func (i OrderItem) StockRequest() StockRequest {
	return StockRequest{
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		Color:       i.Color,
		Size:        i.Size,
		Quantity:    i.Quantity,
	}
}

// StockRequests converts order lines into ledger requests.
func StockRequests(items []OrderItem) []StockRequest {
	reqs := make([]StockRequest, 0, len(items))
	for _, it := range items {
		reqs = append(reqs, it.StockRequest())
	}
	return reqs
}

// ShippingAddress is where an order ships to. Email doubles as the
// customer identity for guest orders.
type ShippingAddress struct {
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone,omitempty"`
	AddressLine1 string `json:"address_line1" validate:"required"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	PostalCode   string `json:"postal_code" validate:"required"`
	Country      string `json:"country"`
}

// FullName joins first and last name.
func (a ShippingAddress) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Pricing is the money breakdown shared by orders, pending orders and
// checkout requests.
type Pricing struct {
	Subtotal            int64  `json:"subtotal" validate:"gte=0"`
	Discount            int64  `json:"discount" validate:"gte=0"`
	DiscountDescription string `json:"discount_description,omitempty"`
	ShippingCost        int64  `json:"shipping_cost" validate:"gte=0"`
	Total               int64  `json:"total" validate:"gte=0"`
}

// Errors returned by CheckPricing.
var (
	ErrSubtotalMismatch = errors.New("subtotal does not match items")
	ErrTotalMismatch    = errors.New("total must equal subtotal - discount + shipping_cost")
	ErrDiscountTooLarge = errors.New("discount exceeds subtotal")
)

// CheckPricing verifies the breakdown against the items it prices.
func CheckPricing(items []OrderItem, p Pricing) error {
	var sum int64
	for _, it := range items {
		sum += it.LineTotal()
	}
	if sum != p.Subtotal {
		return fmt.Errorf("%w: items sum to %d, got %d", ErrSubtotalMismatch, sum, p.Subtotal)
	}
	if p.Discount > p.Subtotal {
		return ErrDiscountTooLarge
	}
	if p.Total != p.Subtotal-p.Discount+p.ShippingCost {
		return ErrTotalMismatch
	}
	return nil
}

// CreateOrderRequest is a manual or guest order placed without payment.
type CreateOrderRequest struct {
	Items    []OrderItem     `json:"items" validate:"required,min=1,dive"`
	Shipping ShippingAddress `json:"shipping" validate:"required"`
	Pricing
}

// UpdateOrderRequest is an admin change to an order. Nil fields are left
// untouched.
type UpdateOrderRequest struct {
	Status            *string `json:"status,omitempty"`
	TrackingNumber    *string `json:"tracking_number,omitempty"`
	Carrier           *string `json:"carrier,omitempty"`
	EstimatedDelivery *string `json:"estimated_delivery,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	LabelURL          *string `json:"-"`
}

// IsEmpty reports whether the update changes nothing.
func (u UpdateOrderRequest) IsEmpty() bool {
	return u.Status == nil && u.TrackingNumber == nil && u.Carrier == nil &&
		u.EstimatedDelivery == nil && u.Notes == nil && u.LabelURL == nil
}

// OrderFilter narrows an order listing.
type OrderFilter struct {
	Status string
	Email  string
}

// NewOrderNumber returns RAZE- followed by the first eight hex characters
// of a random UUID, upper-cased.
func NewOrderNumber() string {
	return OrderNumberPrefix + strings.ToUpper(uuid.NewString()[:8])
}

// NormalizeOrderNumber upper-cases and trims user input.
func NormalizeOrderNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further status change is allowed.
// Only cancelled is final; a delivered order can still be cancelled.
func IsTerminalStatus(status string) bool {
	return status == OrderStatusCancelled
}

// CanTransitionTo checks if the order can move to target. Any valid status
// may be set, except that a cancelled order only accepts cancelled.
func (o *Order) CanTransitionTo(target string) bool {
	if !IsValidStatus(target) {
		return false
	}
	if IsTerminalStatus(o.Status) {
		return target == o.Status
	}
	return true
}

// ApplyStatus sets the status and stamps shipped_at or delivered_at the
// first time the order reaches them.
func (o *Order) ApplyStatus(status string, now time.Time) {
	o.Status = status
	switch status {
	case OrderStatusShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	case OrderStatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	}
}

// TimelineStep is one row of the tracking timeline.
type TimelineStep struct {
	Status    string     `json:"status"`
	Label     string     `json:"label"`
	Completed bool       `json:"completed"`
	Date      *time.Time `json:"date,omitempty"`
}

// Timeline derives the customer facing progress steps from the order.
func (o *Order) Timeline() []TimelineStep {
	created := o.CreatedAt
	shippedOrLater := o.Status == OrderStatusShipped || o.Status == OrderStatusDelivered
	return []TimelineStep{
		{Status: OrderStatusConfirmed, Label: "Order Confirmed", Completed: true, Date: &created},
		{Status: OrderStatusProcessing, Label: "Processing", Completed: o.Status == OrderStatusProcessing || shippedOrLater},
		{Status: OrderStatusShipped, Label: "Shipped", Completed: shippedOrLater, Date: o.ShippedAt},
		{Status: OrderStatusDelivered, Label: "Delivered", Completed: o.Status == OrderStatusDelivered, Date: o.DeliveredAt},
	}
}

// TrackingView is what a customer sees when tracking an order.
type TrackingView struct {
	OrderNumber       string          `json:"order_number"`
	Status            string          `json:"status"`
	Items             []OrderItem     `json:"items"`
	Subtotal          int64           `json:"subtotal"`
	Discount          int64           `json:"discount"`
	ShippingCost      int64           `json:"shipping_cost"`
	Total             int64           `json:"total"`
	ShippingAddress   TrackingAddress `json:"shipping_address"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	Carrier           string          `json:"carrier,omitempty"`
	EstimatedDelivery string          `json:"estimated_delivery,omitempty"`
	Timeline          []TimelineStep  `json:"timeline"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TrackingAddress is the address projection shown on the tracking page.
type TrackingAddress struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Tracking builds the customer tracking view.
func (o *Order) Tracking() TrackingView {
	country := o.Shipping.Country
	if country == "" {
		country = DefaultCountry
	}
	return TrackingView{
		OrderNumber:  o.OrderNumber,
		Status:       o.Status,
		Items:        o.Items,
		Subtotal:     o.Subtotal,
		Discount:     o.Discount,
		ShippingCost: o.ShippingCost,
		Total:        o.Total,
		ShippingAddress: TrackingAddress{
			Name:       o.Shipping.FullName(),
			Address:    o.Shipping.AddressLine1,
			City:       o.Shipping.City,
			State:      o.Shipping.State,
			PostalCode: o.Shipping.PostalCode,
			Country:    country,
		},
		TrackingNumber:    o.TrackingNumber,
		Carrier:           o.Carrier,
		EstimatedDelivery: o.EstimatedDelivery,
		Timeline:          o.Timeline(),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

// OrderStats summarizes orders for the admin dashboard.
type OrderStats struct {
	TotalOrders int            `json:"total_orders"`
	ByStatus    map[string]int `json:"by_status"`
	Revenue     int64          `json:"total_revenue"`
}

// StatusChangedEvent is published whenever an order status changes.
type StatusChangedEvent struct {
	OrderID        string `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	OldStatus      string `json:"old_status"`
	NewStatus      string `json:"new_status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
}
