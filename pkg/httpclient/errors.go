package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// StatusError is a non-2xx answer from a provider.
type StatusError struct {
	Service string
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s returned %d (%s): %s", e.Service, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.Status, e.Message)
}

// Temporary reports whether a later retry might succeed.
func (e *StatusError) Temporary() bool {
	return retryableStatus(e.Status)
}

// providerError covers the error bodies of the APIs we call:
// {"error":{"code","message"}} (Stripe), {"error":"..."}, {"message"}
// (Resend) and {"detail"} (Shippo).
type providerError struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Name    string          `json:"name"`
	Detail  string          `json:"detail"`
}

// ParseResponseError reads and closes resp.Body and returns a *StatusError.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	se := &StatusError{Service: service, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(body) == 0 {
		return se
	}

	var pe providerError
	if json.Unmarshal(body, &pe) != nil {
		se.Message = truncate(string(body), 512)
		return se
	}

	var nested struct {
		Code    string `json:"code"`
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	var flat string
	switch {
	case len(pe.Error) > 0 && json.Unmarshal(pe.Error, &nested) == nil && nested.Message != "":
		se.Message = nested.Message
		se.Code = nested.Code
		if se.Code == "" {
			se.Code = nested.Type
		}
	case len(pe.Error) > 0 && json.Unmarshal(pe.Error, &flat) == nil && flat != "":
		se.Message = flat
	case pe.Message != "":
		se.Message, se.Code = pe.Message, pe.Name
	case pe.Detail != "":
		se.Message = pe.Detail
	}
	return se
}

// IsTemporary reports whether err is a StatusError worth retrying later.
func IsTemporary(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Temporary()
}

// IsClientError reports whether status is 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
