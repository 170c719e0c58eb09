package fusion

import (
	"errors"
	"net/http"
)

// Computation errors. Both abort report generation.
var (
	ErrInvalidModalityRange = errors.New("modality value outside valid range")
	ErrInvalidModality      = errors.New("unknown modality")
	ErrWeightSum            = errors.New("weights must sum to 1.0")
)

// MapHTTPStatus maps fusion errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidModalityRange) || errors.Is(err, ErrInvalidModality) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrWeightSum) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
