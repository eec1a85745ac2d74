package validate

import (
	"errors"
	"testing"
	"time"

	"roomscout/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) models.DateOnly {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSearchWindow(t *testing.T) {
	now := time.Date(2026, 9, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		start  models.DateOnly
		end    models.DateOnly
		reason string
	}{
		{"Valid", date("2026-09-15"), date("2026-09-18"), ""},
		{"StartToday", date("2026-09-10"), date("2026-09-11"), ""},
		{"MissingStart", models.DateOnly{}, date("2026-09-18"), ReasonMissingField},
		{"MissingEnd", date("2026-09-15"), models.DateOnly{}, ReasonMissingField},
		{"PastStart", date("2026-09-09"), date("2026-09-18"), ReasonPastStartDate},
		{"EndEqualsStart", date("2026-09-15"), date("2026-09-15"), ReasonInvalidRange},
		{"EndBeforeStart", date("2026-09-15"), date("2026-09-12"), ReasonInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SearchWindow(tt.start, tt.end, now)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.reason, vErr.Reason)
			assert.NotEmpty(t, vErr.Message)
		})
	}
}

// Время суток не влияет: заезд сегодня допустим даже поздно вечером.
func TestSearchWindowIgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2026, 9, 10, 23, 59, 0, 0, time.UTC)
	assert.NoError(t, SearchWindow(date("2026-09-10"), date("2026-09-11"), now))
}

func TestCustomerForm(t *testing.T) {
	valid := models.CustomerForm{FirstName: "Анна", LastName: "Петрова", Address: "Невский 1"}
	assert.NoError(t, CustomerForm(valid))

	tests := []struct {
		name  string
		form  models.CustomerForm
		field string
	}{
		{"EmptyFirstName", models.CustomerForm{LastName: "Петрова", Address: "Невский 1"}, "first name"},
		{"EmptyLastName", models.CustomerForm{FirstName: "Анна", Address: "Невский 1"}, "last name"},
		{"EmptyAddress", models.CustomerForm{FirstName: "Анна", LastName: "Петрова"}, "address"},
		{"WhitespaceOnly", models.CustomerForm{FirstName: "   ", LastName: "Петрова", Address: "Невский 1"}, "first name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CustomerForm(tt.form)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, ReasonMissingField, vErr.Reason)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}
