// Package pagination parses skip/limit windows for list endpoints.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Params is an offset window over a list.
type Params struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// DefaultParams returns the first page of DefaultLimit items.
func DefaultParams() Params {
	return Params{Skip: 0, Limit: DefaultLimit}
}

// FromRequest reads the skip and limit query parameters. Invalid values
// fall back to defaults and limit is capped at MaxLimit.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("skip")); err == nil && v >= 0 {
		p.Skip = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = min(v, MaxLimit)
	}
	return p
}

// Result is a window of items together with the unwindowed total.
type Result[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Skip    int  `json:"skip"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// NewResult builds a Result. A nil slice is rendered as [].
func NewResult[T any](items []T, total int, p Params) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:   items,
		Total:   total,
		Skip:    p.Skip,
		Limit:   p.Limit,
		HasMore: p.Skip+len(items) < total,
	}
}
