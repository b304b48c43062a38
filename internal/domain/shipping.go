package domain

import "time"

// Default parcel used when the caller does not describe one.
const (
	DefaultParcelWeightLB = 0.5
	DefaultParcelLengthIn = 10
	DefaultParcelWidthIn  = 8
	DefaultParcelHeightIn = 2
)

// Address is a postal address in the shape carriers expect.
type Address struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// WarehouseAddress is where every parcel ships from.
var WarehouseAddress = Address{
	Name:    "RAZE Training",
	Street1: "965 Mission St",
	City:    "San Francisco",
	State:   "CA",
	Zip:     "94103",
	Country: "US",
	Phone:   "+14155551234",
	Email:   "orders@razetraining.com",
}

// CarrierAddress converts a checkout address for the shipping provider.
func (a ShippingAddress) CarrierAddress() Address {
	country := a.Country
	if country == "" {
		country = DefaultCountry
	}
	return Address{
		Name:    a.FullName(),
		Street1: a.AddressLine1,
		Street2: a.AddressLine2,
		City:    a.City,
		State:   a.State,
		Zip:     a.PostalCode,
		Country: country,
		Phone:   a.Phone,
		Email:   a.Email,
	}
}

// Parcel describes the package dimensions in inches and pounds.
type Parcel struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// ShippingRateRequest asks for rates to an address.
type ShippingRateRequest struct {
	AddressTo ShippingAddress `json:"address_to" validate:"required"`
	Weight    float64         `json:"weight" validate:"gte=0"`
	Length    float64         `json:"length" validate:"gte=0"`
	Width     float64         `json:"width" validate:"gte=0"`
	Height    float64         `json:"height" validate:"gte=0"`
}

// Parcel returns the requested parcel with defaults applied to zero values.
func (r *ShippingRateRequest) Parcel() Parcel {
	p := Parcel{Length: r.Length, Width: r.Width, Height: r.Height, Weight: r.Weight}
	if p.Weight <= 0 {
		p.Weight = DefaultParcelWeightLB
	}
	if p.Length <= 0 {
		p.Length = DefaultParcelLengthIn
	}
	if p.Width <= 0 {
		p.Width = DefaultParcelWidthIn
	}
	if p.Height <= 0 {
		p.Height = DefaultParcelHeightIn
	}
	return p
}

// ShippingRate is one carrier offer. Amount is in cents.
type ShippingRate struct {
	ObjectID      string `json:"object_id"`
	Provider      string `json:"provider"`
	ServiceLevel  string `json:"service_level"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	EstimatedDays *int   `json:"estimated_days,omitempty"`
	DurationTerms string `json:"duration_terms,omitempty"`
}

// ShippingRatesResult is the answer to a rates request.
type ShippingRatesResult struct {
	Success bool           `json:"success"`
	Rates   []ShippingRate `json:"rates"`
	Message string         `json:"message"`
}

// CreateLabelRequest buys a label for a rate and attaches it to an order.
type CreateLabelRequest struct {
	RateID  string `json:"rate_id" validate:"required"`
	OrderID string `json:"order_id" validate:"required"`
}

// ShippingLabel is a purchased label.
type ShippingLabel struct {
	TrackingNumber string `json:"tracking_number"`
	LabelURL       string `json:"label_url"`
	Carrier        string `json:"carrier"`
}

// TrackingEvent is one scan in a carrier's tracking history.
type TrackingEvent struct {
	Status        string     `json:"status"`
	StatusDetails string     `json:"status_details,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	Location      string     `json:"location,omitempty"`
}

// ShipmentTracking is a carrier's view of a parcel.
type ShipmentTracking struct {
	TrackingNumber string          `json:"tracking_number"`
	Carrier        string          `json:"carrier"`
	Status         string          `json:"status"`
	StatusDetails  string          `json:"status_details,omitempty"`
	Location       string          `json:"location,omitempty"`
	ETA            *time.Time      `json:"eta,omitempty"`
	History        []TrackingEvent `json:"history"`
}
