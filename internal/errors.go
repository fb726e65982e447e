package internal

import (
	"errors"
	"fmt"
	"net/http"
)

// Generic errors
var (
	// ErrResourceNotFound is returned when a receiving a 404.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrResourceAlreadyExists is returned when attempting to create a resource
	// that already exists.
	ErrResourceAlreadyExists = errors.New("resource already exists")

	// ErrUnavailable is returned when a backing service cannot be reached.
	ErrUnavailable = errors.New("service unavailable")
)

type (
	// ErrMissingParameter occurs when the caller has failed to provide a
	// required parameter
	ErrMissingParameter struct {
		Parameter string
	}

	// ErrInvalidParameter occurs when a parameter is present but its value
	// cannot be coerced into the required type.
	ErrInvalidParameter struct {
		Parameter string
		Reason    string
	}
)

func (e *ErrMissingParameter) Error() string {
	return fmt.Sprintf("required parameter missing: %s", e.Parameter)
}

func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Parameter, e.Reason)
}

// HTTPError is an error response received from a roster server.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is maps the status code back onto the error that the server reported, so
// that callers of a remote service can check errors the same way as callers of
// a local service.
func (e *HTTPError) Is(target error) bool {
	switch e.Code {
	case http.StatusNotFound:
		return target == ErrResourceNotFound
	case http.StatusBadRequest:
		return target == ErrResourceAlreadyExists
	case http.StatusServiceUnavailable:
		return target == ErrUnavailable
	}
	return false
}
