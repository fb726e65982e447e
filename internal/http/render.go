package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leg100/roster/internal"
)

// ErrorResponse is the body of an error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

var codes = map[error]int{
	internal.ErrResourceNotFound:      http.StatusNotFound,
	internal.ErrResourceAlreadyExists: http.StatusBadRequest,
	internal.ErrUnavailable:           http.StatusServiceUnavailable,
}

// lookupHTTPCode maps a domain error to a http status code
func lookupHTTPCode(err error) int {
	for domainError, httpError := range codes {
		if errors.Is(err, domainError) {
			return httpError
		}
	}
	var (
		missing *internal.ErrMissingParameter
		invalid *internal.ErrInvalidParameter
	)
	if errors.As(err, &missing) || errors.As(err, &invalid) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

type errorOptions struct {
	detail string
}

type ErrorOption func(*errorOptions)

// WithDetail overrides the error message reported to the client.
func WithDetail(detail string) ErrorOption {
	return func(opts *errorOptions) {
		opts.detail = detail
	}
}

// Error writes an HTTP response with a JSON encoded error.
func Error(w http.ResponseWriter, err error, opts ...ErrorOption) {
	eo := errorOptions{detail: err.Error()}
	for _, fn := range opts {
		fn(&eo)
	}
	JSON(w, lookupHTTPCode(err), &ErrorResponse{Detail: eo.detail})
}

// JSON writes an HTTP response with v encoded as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
