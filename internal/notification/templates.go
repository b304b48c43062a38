package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/razeathletics/storefront/internal/domain"
)

var emailFuncs = template.FuncMap{
	"money": domain.FormatCents,
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

const layoutTmpl = `{{define "layout"}}<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#0a0a0a;font-family:Arial,sans-serif;color:#ffffff;">
<div style="max-width:600px;margin:0 auto;padding:40px 20px;">
<h1 style="font-size:32px;letter-spacing:6px;margin:0 0 24px;">RAZE</h1>
{{template "content" .}}
<p style="color:#666666;font-size:12px;margin-top:40px;">RAZE Training &middot; Built for discipline.</p>
</div>
</body>
</html>{{end}}`

const orderConfirmationTmpl = `{{define "content"}}
<h2 style="color:#10B981;">Order Confirmed</h2>
<p>Hey {{.Shipping.FirstName}}, thanks for your order. We are getting it ready.</p>
<p><strong>Order number:</strong> {{.OrderNumber}}</p>
<table style="width:100%;border-collapse:collapse;">
{{range .Items}}<tr>
<td style="padding:8px 0;border-bottom:1px solid #222;">{{.ProductName}} ({{.Color}}, {{.Size}}) x {{.Quantity}}</td>
<td style="padding:8px 0;border-bottom:1px solid #222;text-align:right;">{{money .LineTotal}}</td>
</tr>{{end}}
</table>
<p>Subtotal: {{money .Subtotal}}</p>
{{if gt .Discount 0}}<p style="color:#10B981;">Discount{{with .DiscountDescription}} ({{.}}){{end}}: -{{money .Discount}}</p>{{end}}
<p>Shipping: {{if eq .ShippingCost 0}}FREE{{else}}{{money .ShippingCost}}{{end}}</p>
<p style="font-size:18px;"><strong>Total: {{money .Total}}</strong></p>
<p>Shipping to:<br>{{.Shipping.FullName}}<br>{{.Shipping.AddressLine1}}{{with .Shipping.AddressLine2}}<br>{{.}}{{end}}<br>
{{.Shipping.City}}, {{.Shipping.State}} {{.Shipping.PostalCode}}</p>
{{end}}`

const waitlistTmpl = `{{define "content"}}
<h2>You're on the list!</h2>
<p>You are <strong>#{{.Position}}</strong> on the waitlist for the {{.ProductName}}.</p>
<p>Variant: {{.Variant}} &middot; Size: {{.Size}}</p>
<p>Your access code:</p>
<p style="font-size:24px;letter-spacing:4px;background:#1a1a1a;padding:16px;text-align:center;">{{.AccessCode}}</p>
<p>Use this code at checkout when the drop goes live. It works once.</p>
{{end}}`

const statusUpdateTmpl = `{{define "content"}}
<h2>Your order has {{if eq .NewStatus "delivered"}}been delivered{{else}}shipped{{end}}</h2>
<p>Hey {{.FirstName}}, order <strong>{{.OrderNumber}}</strong> is now {{title .NewStatus}}.</p>
{{if .TrackingNumber}}<p>Tracking number: <strong>{{.TrackingNumber}}</strong>{{with .Carrier}} ({{.}}){{end}}</p>{{end}}
{{end}}`

var (
	orderConfirmationEmail = mustParse("order_confirmation", orderConfirmationTmpl)
	waitlistEmail          = mustParse("waitlist", waitlistTmpl)
	statusUpdateEmail      = mustParse("status_update", statusUpdateTmpl)
)

func mustParse(name, content string) *template.Template {
	t := template.Must(template.New(name).Funcs(emailFuncs).Parse(layoutTmpl))
	return template.Must(t.Parse(content))
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// OrderConfirmation renders the receipt sent once an order is paid.
func OrderConfirmation(o *domain.Order) (Email, error) {
	html, err := render(orderConfirmationEmail, o)
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:      []string{o.Shipping.Email},
		Subject: "Order Confirmed - " + o.OrderNumber,
		HTML:    html,
	}, nil
}

// WaitlistConfirmation renders the access code email for a new entry.
func WaitlistConfirmation(e *domain.WaitlistEntry) (Email, error) {
	html, err := render(waitlistEmail, e)
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:      []string{e.Email},
		Subject: "You're on the RAZE Waitlist!",
		HTML:    html,
	}, nil
}

// StatusUpdate renders the shipped or delivered notice. Other statuses
// produce no email and ok is false.
func StatusUpdate(ev *domain.StatusChangedEvent) (email Email, ok bool, err error) {
	var subject string
	switch ev.NewStatus {
	case domain.OrderStatusShipped:
		subject = "Your RAZE order has shipped - " + ev.OrderNumber
	case domain.OrderStatusDelivered:
		subject = "Your RAZE order was delivered - " + ev.OrderNumber
	default:
		return Email{}, false, nil
	}
	if ev.Email == "" {
		return Email{}, false, nil
	}

	html, err := render(statusUpdateEmail, ev)
	if err != nil {
		return Email{}, false, err
	}
	return Email{To: []string{ev.Email}, Subject: subject, HTML: html}, true, nil
}
