package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupportedMethod is returned when a resource does not handle the request method.
var ErrUnsupportedMethod = errors.New("unsupported method")

// ErrResourceNotFound is returned when the addressed resource does not exist.
var ErrResourceNotFound = errors.New("resource not found")

// ErrAggregateFailure is returned when any dependent call of a fan-out fails.
var ErrAggregateFailure = errors.New("aggregate failure")

// ErrMalformedBody is returned when a request body does not fit the item schema.
var ErrMalformedBody = errors.New("malformed body")

// ErrUnknownAddress is returned when no server is registered for a request host.
var ErrUnknownAddress = errors.New("unknown address")

// ErrCollectionNotFound is returned by backends when a named collection has never been written.
var ErrCollectionNotFound = errors.New("collection not found")

// ErrNoLink is returned when no link descriptor matches a follow query.
var ErrNoLink = errors.New("no matching link")

// ResponseError wraps a response whose status signals a failure (>= 400).
// Agents return it so that fan-out combinators can treat failed responses and
// transport errors alike.
type ResponseError struct {
	Response *Response
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%d %s", e.Response.Status, e.Response.StatusText)
}

// Unwrap maps the status back onto the sentinel errors so errors.Is works on
// responses received from other servers.
func (e *ResponseError) Unwrap() error {
	switch e.Response.Status {
	case StatusNotFound:
		return ErrResourceNotFound
	case StatusMethodNotAllowed:
		return ErrUnsupportedMethod
	case StatusBadRequest:
		return ErrMalformedBody
	case StatusBadGateway:
		return ErrUnknownAddress
	case StatusInternalServerError, StatusGatewayTimeout:
		return ErrAggregateFailure
	}
	return nil
}

// StatusFor maps an error onto the status code of the terminal response.
func StatusFor(err error) int {
	var respErr *ResponseError
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, context.DeadlineExceeded):
		return StatusGatewayTimeout
	case errors.Is(err, ErrMalformedBody):
		return StatusBadRequest
	case errors.Is(err, ErrUnsupportedMethod):
		return StatusMethodNotAllowed
	case errors.Is(err, ErrAggregateFailure):
		return StatusInternalServerError
	case errors.Is(err, ErrResourceNotFound):
		return StatusNotFound
	case errors.Is(err, ErrUnknownAddress):
		return StatusBadGateway
	case errors.As(err, &respErr):
		return respErr.Response.Status
	}
	return StatusInternalServerError
}
