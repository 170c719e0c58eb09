package alerts

import (
	"errors"
	"net/http"
)

// Domain errors for alert operations.
var (
	ErrNotFound       = errors.New("alert not found")
	ErrInvalidAlert   = errors.New("invalid alert")
	ErrAlreadyHandled = errors.New("alert already handled")
)

// MapHTTPStatus maps alert domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyHandled):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidAlert):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
