// Package validate holds the client-side checks performed before any
// network call is issued. The backend remains authoritative; these exist
// only to avoid wasted round-trips.
package validate

import (
	"fmt"
	"strings"
	"time"

	"roomscout/internal/models"
)

// Reasons a submission is rejected locally.
const (
	ReasonMissingField  = "missing_field"
	ReasonPastStartDate = "past_start_date"
	ReasonInvalidRange  = "invalid_range"
)

// ValidationError is a client-detected input problem. It never reaches the
// network.
type ValidationError struct {
	Field   string
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missingField(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Reason:  ReasonMissingField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

// SearchWindow validates the date range of a search submission against the
// caller's clock. Start must be today or later, end strictly after start.
func SearchWindow(start, end models.DateOnly, now time.Time) error {
	if start.IsZero() {
		return missingField("start date")
	}
	if end.IsZero() {
		return missingField("end date")
	}

	today := models.DateOf(now)
	if start.Before(today) {
		return &ValidationError{
			Field:   "start date",
			Reason:  ReasonPastStartDate,
			Message: "start date cannot be in the past",
		}
	}
	if !end.After(start) {
		return &ValidationError{
			Field:   "end date",
			Reason:  ReasonInvalidRange,
			Message: "end date must be after start date",
		}
	}
	return nil
}

// CustomerForm rejects the registration form when any field is blank after
// trimming.
func CustomerForm(form models.CustomerForm) error {
	if strings.TrimSpace(form.FirstName) == "" {
		return missingField("first name")
	}
	if strings.TrimSpace(form.LastName) == "" {
		return missingField("last name")
	}
	if strings.TrimSpace(form.Address) == "" {
		return missingField("address")
	}
	return nil
}
