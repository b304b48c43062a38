package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/httpclient"
)

const serviceShippo = "shippo"

// Shippo talks to the Shippo REST API.
type Shippo struct {
	client  httpclient.Doer
	baseURL string
	apiKey  string
}

// NewShippo creates a Shippo provider. client is normally breaker-wrapped.
func NewShippo(client httpclient.Doer, baseURL, apiKey string) *Shippo {
	return &Shippo{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

// Name returns the provider name.
func (s *Shippo) Name() string {
	return serviceShippo
}

type shippoParcel struct {
	Length       string `json:"length"`
	Width        string `json:"width"`
	Height       string `json:"height"`
	DistanceUnit string `json:"distance_unit"`
	Weight       string `json:"weight"`
	MassUnit     string `json:"mass_unit"`
}

type shipmentRequest struct {
	AddressFrom domain.Address `json:"address_from"`
	AddressTo   domain.Address `json:"address_to"`
	Parcels     []shippoParcel `json:"parcels"`
	Async       bool           `json:"async"`
}

type shippoRate struct {
	ObjectID     string `json:"object_id"`
	Provider     string `json:"provider"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ServiceLevel struct {
		Name string `json:"name"`
	} `json:"servicelevel"`
	EstimatedDays *int   `json:"estimated_days"`
	DurationTerms string `json:"duration_terms"`
}

// Rates creates a shipment and returns its rates.
func (s *Shippo) Rates(ctx context.Context, from, to domain.Address, parcel domain.Parcel) ([]domain.ShippingRate, error) {
	body := shipmentRequest{
		AddressFrom: from,
		AddressTo:   to,
		Parcels: []shippoParcel{{
			Length:       formatDim(parcel.Length),
			Width:        formatDim(parcel.Width),
			Height:       formatDim(parcel.Height),
			DistanceUnit: "in",
			Weight:       formatDim(parcel.Weight),
			MassUnit:     "lb",
		}},
	}

	var out struct {
		Rates []shippoRate `json:"rates"`
	}
	if err := s.do(ctx, http.MethodPost, "/shipments/", body, &out); err != nil {
		return nil, err
	}

	rates := make([]domain.ShippingRate, 0, len(out.Rates))
	for _, r := range out.Rates {
		rates = append(rates, toRate(r))
	}
	return rates, nil
}

type shippoTransaction struct {
	Status         string          `json:"status"`
	TrackingNumber string          `json:"tracking_number"`
	LabelURL       string          `json:"label_url"`
	Rate           json.RawMessage `json:"rate"`
	Messages       []struct {
		Text string `json:"text"`
	} `json:"messages"`
}

// PurchaseLabel buys a 4x6 PDF label for rateID.
func (s *Shippo) PurchaseLabel(ctx context.Context, rateID string) (*domain.ShippingLabel, error) {
	body := map[string]any{
		"rate":            rateID,
		"label_file_type": "PDF_4x6",
		"async":           false,
	}

	var tx shippoTransaction
	if err := s.do(ctx, http.MethodPost, "/transactions/", body, &tx); err != nil {
		return nil, err
	}
	if tx.Status != "SUCCESS" {
		msgs := make([]string, 0, len(tx.Messages))
		for _, m := range tx.Messages {
			msgs = append(msgs, m.Text)
		}
		return nil, fmt.Errorf("%w: %s", ErrLabelFailed, strings.Join(msgs, "; "))
	}

	carrier, err := s.carrierOf(ctx, tx.Rate, rateID)
	if err != nil {
		return nil, err
	}
	return &domain.ShippingLabel{
		TrackingNumber: tx.TrackingNumber,
		LabelURL:       tx.LabelURL,
		Carrier:        carrier,
	}, nil
}

// carrierOf reads the carrier from an expanded rate, or fetches the rate
// when the transaction only carries its id.
func (s *Shippo) carrierOf(ctx context.Context, raw json.RawMessage, rateID string) (string, error) {
	var expanded shippoRate
	if len(raw) > 0 && raw[0] == '{' && json.Unmarshal(raw, &expanded) == nil && expanded.Provider != "" {
		return expanded.Provider, nil
	}

	var r shippoRate
	if err := s.do(ctx, http.MethodGet, "/rates/"+url.PathEscape(rateID), nil, &r); err != nil {
		return "", err
	}
	return r.Provider, nil
}

type shippoLocation struct {
	City string `json:"city"`
}

type shippoTrackingStatus struct {
	Status        string          `json:"status"`
	StatusDetails string          `json:"status_details"`
	StatusDate    *time.Time      `json:"status_date"`
	Location      *shippoLocation `json:"location"`
}

type shippoTrack struct {
	TrackingNumber  string                 `json:"tracking_number"`
	Carrier         string                 `json:"carrier"`
	ETA             *time.Time             `json:"eta"`
	TrackingStatus  *shippoTrackingStatus  `json:"tracking_status"`
	TrackingHistory []shippoTrackingStatus `json:"tracking_history"`
}

// Track fetches the tracking status of a shipment.
func (s *Shippo) Track(ctx context.Context, carrier, trackingNumber string) (*domain.ShipmentTracking, error) {
	path := "/tracks/" + url.PathEscape(strings.ToLower(carrier)) + "/" + url.PathEscape(trackingNumber)

	var t shippoTrack
	if err := s.do(ctx, http.MethodGet, path, nil, &t); err != nil {
		return nil, err
	}

	out := &domain.ShipmentTracking{
		TrackingNumber: t.TrackingNumber,
		Carrier:        t.Carrier,
		Status:         "unknown",
		ETA:            t.ETA,
		History:        make([]domain.TrackingEvent, 0, len(t.TrackingHistory)),
	}
	if ts := t.TrackingStatus; ts != nil {
		out.Status = ts.Status
		out.StatusDetails = ts.StatusDetails
		if ts.Location != nil {
			out.Location = ts.Location.City
		}
	}
	for _, h := range t.TrackingHistory {
		ev := domain.TrackingEvent{Status: h.Status, StatusDetails: h.StatusDetails, Date: h.StatusDate}
		if h.Location != nil {
			ev.Location = h.Location.City
		}
		out.History = append(out.History, ev)
	}
	return out, nil
}

func (s *Shippo) do(ctx context.Context, method, path string, body, out any) error {
	header := http.Header{}
	header.Set("Authorization", "ShippoToken "+s.apiKey)
	return httpclient.DoJSON(ctx, s.client, serviceShippo, method, s.baseURL+path, header, body, out)
}

func toRate(r shippoRate) domain.ShippingRate {
	provider := r.Provider
	if provider == "" {
		provider = "Unknown"
	}
	level := r.ServiceLevel.Name
	if level == "" {
		level = "Standard"
	}
	currency := r.Currency
	if currency == "" {
		currency = "USD"
	}
	return domain.ShippingRate{
		ObjectID:      r.ObjectID,
		Provider:      provider,
		ServiceLevel:  level,
		Amount:        amountToCents(r.Amount),
		Currency:      currency,
		EstimatedDays: r.EstimatedDays,
		DurationTerms: r.DurationTerms,
	}
}

// amountToCents parses a decimal dollar string such as "7.35". Unparseable
// amounts count as zero.
func amountToCents(amount string) int64 {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0
	}
	return d.Shift(2).Round(0).IntPart()
}

func formatDim(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
