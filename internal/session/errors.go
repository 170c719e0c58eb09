package session

import (
	"errors"
	"net/http"

	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/reportsync"
)

var (
	ErrSessionClosed       = errors.New("session closed")
	ErrInvalidUser         = errors.New("invalid user id")
	ErrInvalidReport       = errors.New("invalid report id")
	ErrInvalidRequest      = errors.New("invalid assessment request")
	ErrModalityUnavailable = errors.New("modality not provided")
	ErrUnauthorizedUser    = errors.New("user does not match authenticated subject")
)

// MapHTTPStatus maps session and engine errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidUser),
		errors.Is(err, ErrInvalidReport),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorizedUser):
		return http.StatusForbidden
	case errors.Is(err, ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, reportsync.ErrUnknownReport):
		return reportsync.MapHTTPStatus(err)
	}
	return fusion.MapHTTPStatus(err)
}
