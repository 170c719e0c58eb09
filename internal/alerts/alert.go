// Package alerts records clinician-facing risk alerts raised by the
// escalation monitor and fans each one out over messaging.
package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/escalation"
)

// Event subjects, relative to the messaging subject prefix.
const (
	SubjectCreated = "alerts.created"
	SubjectHandled = "alerts.handled"
)

// Alert is a stored risk alert.
type Alert struct {
	ID          uuid.UUID  `json:"id"`
	PatientID   uuid.UUID  `json:"patient_id"`
	AlertType   string     `json:"alert_type"`
	RiskLevel   int        `json:"risk_level"`
	Description string     `json:"description"`
	IsHandled   bool       `json:"is_handled"`
	DataSource  string     `json:"data_source"`
	HandledBy   *uuid.UUID `json:"handled_by"`
	HandledAt   *time.Time `json:"handled_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// HandleCommand marks an alert as handled by a clinician.
type HandleCommand struct {
	HandledBy uuid.UUID `json:"handled_by"`
}

// Event is the messaging payload published when an alert changes.
type Event struct {
	Type  string `json:"type"`
	Alert Alert  `json:"alert"`
}

// Validate checks an incoming alert before it is stored.
func Validate(a escalation.Alert) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("%w: patient_id required", ErrInvalidAlert)
	}
	if strings.TrimSpace(a.AlertType) == "" {
		return fmt.Errorf("%w: alert_type required", ErrInvalidAlert)
	}
	if a.RiskLevel < 0 || a.RiskLevel > 100 {
		return fmt.Errorf("%w: risk_level %d outside 0-100", ErrInvalidAlert, a.RiskLevel)
	}
	if strings.TrimSpace(a.Description) == "" {
		return fmt.Errorf("%w: description required", ErrInvalidAlert)
	}
	if strings.TrimSpace(a.DataSource) == "" {
		return fmt.Errorf("%w: data_source required", ErrInvalidAlert)
	}
	if a.IsHandled {
		return fmt.Errorf("%w: new alerts cannot be handled", ErrInvalidAlert)
	}
	return nil
}
