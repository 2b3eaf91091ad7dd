package client

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse is returned when a 2xx body is not valid JSON
	ErrMalformedResponse = errors.New("malformed JSON response")
	// ErrResponseTooLarge is returned when a body exceeds the client's cap
	ErrResponseTooLarge = errors.New("response body too large")
)

// StatusError is returned for any non-2xx response
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}
