package flow

import (
	"errors"

	"roomscout/internal/client"
	"roomscout/internal/validate"
)

var (
	// ErrSuperseded marks a search response that arrived after a newer
	// search was issued. The caller should drop it silently.
	ErrSuperseded = errors.New("search superseded by a newer request")

	// ErrBusy rejects a mutating submission while another is in flight.
	ErrBusy = errors.New("another operation is already in progress")

	// ErrNotReady rejects a booking confirmation outside ResultsShown.
	ErrNotReady = errors.New("no search results to book from")

	// ErrNoCustomer rejects a confirmation without a known customer id.
	ErrNoCustomer = errors.New("register or enter a customer id first")

	// ErrNoEmployee rejects a staff renting without an employee id.
	ErrNoEmployee = errors.New("an employee id is required for rentings")
)

// DisplayMessage converts any error crossing the flow boundary into the
// single message shown next to the form or section that triggered it.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}

	var vErr *validate.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}

	var rErr *client.RemoteError
	if errors.As(err, &rErr) {
		return rErr.Detail
	}

	var dErr *client.DecodeError
	if errors.As(err, &dErr) {
		return "the server returned an unexpected response"
	}

	var nErr *client.NetworkError
	if errors.As(err, &nErr) {
		return "could not reach the booking service"
	}

	return err.Error()
}
