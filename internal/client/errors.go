package client

import "fmt"

// RemoteError is a non-2xx reply from the backend. Detail carries the
// human-readable message from the response body when one was present;
// otherwise a generic "HTTP error {status}" string.
type RemoteError struct {
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	return e.Detail
}

// NewRemoteError builds a RemoteError, substituting the generic message
// when the backend supplied no detail.
func NewRemoteError(status int, detail string) *RemoteError {
	if detail == "" {
		detail = fmt.Sprintf("HTTP error %d", status)
	}
	return &RemoteError{Status: status, Detail: detail}
}

// DecodeError means the response body did not match the expected shape.
type DecodeError struct {
	Operation string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NetworkError means the request could not be completed at all.
type NetworkError struct {
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
