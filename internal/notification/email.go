package notification

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/razeathletics/storefront/pkg/httpclient"
)

// Email is one transactional or marketing message.
type Email struct {
	To      []string
	Subject string
	HTML    string
}

// EmailSender delivers emails.
type EmailSender interface {
	Send(ctx context.Context, e Email) error
}

// ResendSender sends email through the Resend REST API.
type ResendSender struct {
	client  httpclient.Doer
	baseURL string
	apiKey  string
	from    string
}

// NewResendSender creates a sender. client is normally a breaker-wrapped
// httpclient.Client.
func NewResendSender(client httpclient.Doer, baseURL, apiKey, from string) *ResendSender {
	return &ResendSender{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// Send posts e to /emails.
func (s *ResendSender) Send(ctx context.Context, e Email) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.apiKey)

	body := resendRequest{From: s.from, To: e.To, Subject: e.Subject, HTML: e.HTML}
	var out resendResponse
	return httpclient.DoJSON(ctx, s.client, "resend", http.MethodPost, s.baseURL+"/emails", header, body, &out)
}

// LogSender logs emails instead of sending them. It stands in for Resend
// when no API key is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the recipients and subject.
func (s *LogSender) Send(ctx context.Context, e Email) error {
	s.logger.InfoContext(ctx, "email not sent, no provider configured",
		slog.Any("to", e.To),
		slog.String("subject", e.Subject),
	)
	return nil
}
