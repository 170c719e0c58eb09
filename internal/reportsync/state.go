package reportsync

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Status is the sync state of one report.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Errors surfaced by the coordinator.
var (
	ErrSyncFailed    = errors.New("report sync failed")
	ErrSyncCancelled = errors.New("report sync cancelled")
	ErrUnknownReport = errors.New("report not tracked by sync coordinator")
)

// MapHTTPStatus maps sync errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnknownReport) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// State is the sync state machine for one report:
// idle -> syncing -> {success | error}, and error -> syncing on retry.
type State struct {
	ReportID     uuid.UUID `json:"report_id"`
	UserID       uuid.UUID `json:"user_id"`
	Status       Status    `json:"status"`
	RetryCount   int       `json:"retry_count"`
	AssessmentID uuid.UUID `json:"assessment_id,omitzero"`
	LastError    string    `json:"last_error,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`

	Err error `json:"-"`
}

// Terminal reports whether no automatic transition will follow.
func (s State) Terminal() bool {
	return s.Status == StatusSuccess || s.Status == StatusError
}
