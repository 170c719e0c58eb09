package assessments

import (
	"errors"
	"net/http"

	"github.com/wyxpro/mindcare/pkg/storage"
)

// Domain errors for assessment operations.
var (
	ErrNotFound          = errors.New("assessment not found")
	ErrDuplicate         = errors.New("assessment already exists")
	ErrInvalidAssessment = errors.New("invalid assessment")
	ErrNotArchived       = errors.New("assessment has no archived document")
)

// MapHTTPStatus maps assessment domain errors to HTTP status codes,
// deferring to the archive store for anything it does not recognize.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotArchived):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidAssessment):
		return http.StatusBadRequest
	}
	return storage.MapHTTPStatus(err)
}
