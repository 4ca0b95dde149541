// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vowline/vowline/internal/model"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// PageResponse is the envelope of every paginated list.
type PageResponse[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Pages   int `json:"pages"`
}

// ToPageResponse converts a model page, mapping each item with conv.
func ToPageResponse[M, T any](p *model.Page[M], conv func(M) T) *PageResponse[T] {
	items := make([]T, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, conv(item))
	}
	return &PageResponse[T]{
		Items:   items,
		Total:   p.Total,
		Page:    p.Page,
		PerPage: p.PerPage,
		Pages:   p.Pages,
	}
}

// Date is a calendar date. It accepts "2006-01-02" or RFC 3339 input and
// always encodes as "2006-01-02".
type Date time.Time

// NewDate returns d as a Date pointer, nil when d is nil.
func NewDate(d *time.Time) *Date {
	if d == nil {
		return nil
	}
	v := Date(*d)
	return &v
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time {
	return model.DateOf(time.Time(d))
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(d).Format(DateLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = Date(t)
	return nil
}

// ParseDate parses "2006-01-02" or RFC 3339 into midnight UTC of that date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return model.DateOf(t), nil
}

// DatePtr converts an optional wire date into an optional time.
func DatePtr(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time()
	return &t
}

// Nullable distinguishes an absent field from an explicit null in PATCH
// bodies. Set is true when the key was present; Null when its value was null.
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Null = true
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

// Ptr returns the value when set and not null.
func (n Nullable[T]) Ptr() *T {
	if !n.Set || n.Null {
		return nil
	}
	v := n.Value
	return &v
}

// Cleared reports an explicit null.
func (n Nullable[T]) Cleared() bool {
	return n.Set && n.Null
}

var errTooPrecise = errors.New("at most two decimal places allowed")

// maxWholeUnits bounds the integer part of a decimal so the value in
// hundredths, and sums of such values, stay far from int64 overflow.
const maxWholeUnits = 1_000_000_000_000

var errTooLarge = errors.New("value is too large")

// Money is an amount in cents. It encodes as a JSON number with two
// decimals and decodes from a number or numeric string.
type Money int64

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(formatHundredths(int64(m))), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(b []byte) error {
	v, err := parseHundredths(b)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*m = Money(v)
	return nil
}

// Percent is a rate in basis points. It encodes as a percentage number,
// so 1000 basis points is 10.00.
type Percent int

// MarshalJSON implements json.Marshaler.
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(formatHundredths(int64(p))), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Percent) UnmarshalJSON(b []byte) error {
	v, err := parseHundredths(b)
	if err != nil {
		return fmt.Errorf("invalid percentage: %w", err)
	}
	*p = Percent(v)
	return nil
}

func formatHundredths(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// parseHundredths reads a decimal literal without going through float64.
func parseHundredths(b []byte) (int64, error) {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return 0, errors.New("value required")
	}

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		if strings.TrimRight(frac[2:], "0") != "" {
			return 0, errTooPrecise
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	if strings.ContainsAny(whole, "+-") {
		return 0, fmt.Errorf("invalid decimal %q", s)
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, errTooLarge
	}
	if err != nil {
		return 0, err
	}
	if w > maxWholeUnits {
		return 0, errTooLarge
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid decimal %q", s)
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return v, nil
}
