package models

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the wire format for every date the backend accepts or returns.
const DateFormat = "2006-01-02"

// DateOnly is a calendar date without a time component. It marshals to
// "YYYY-MM-DD" regardless of the internal location.
type DateOnly struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) DateOnly {
	return DateOnly{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) DateOnly {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (DateOnly, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return DateOnly{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOnly{t}, nil
}

func (d DateOnly) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateFormat)
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(DateFormat) + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD" and tolerates full timestamps by
// cutting at the "T" separator, since some backends echo datetimes back.
func (d *DateOnly) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if idx := strings.IndexByte(s, 'T'); idx > 0 {
		s = s[:idx]
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// Before reports whether d is strictly earlier than other.
func (d DateOnly) Before(other DateOnly) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly later than other.
func (d DateOnly) After(other DateOnly) bool {
	return d.Time.After(other.Time)
}
