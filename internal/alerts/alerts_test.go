package alerts_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/alerts"
	"github.com/wyxpro/mindcare/internal/escalation"
)

func validAlert() escalation.Alert {
	return escalation.Alert{
		PatientID:   uuid.New(),
		AlertType:   escalation.AlertType,
		RiskLevel:   85,
		Description: "Multimodal fusion score 85 (extreme).",
		DataSource:  escalation.DataSource,
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", alerts.ErrNotFound, http.StatusNotFound},
		{"already handled", alerts.ErrAlreadyHandled, http.StatusConflict},
		{"invalid", alerts.ErrInvalidAlert, http.StatusBadRequest},
		{"wrapped invalid", fmt.Errorf("create: %w", alerts.ErrInvalidAlert), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := alerts.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*escalation.Alert)
		ok     bool
	}{
		{"valid", func(*escalation.Alert) {}, true},
		{"missing patient", func(a *escalation.Alert) { a.PatientID = uuid.Nil }, false},
		{"missing type", func(a *escalation.Alert) { a.AlertType = " " }, false},
		{"risk above range", func(a *escalation.Alert) { a.RiskLevel = 120 }, false},
		{"risk below range", func(a *escalation.Alert) { a.RiskLevel = -1 }, false},
		{"missing description", func(a *escalation.Alert) { a.Description = "" }, false},
		{"missing source", func(a *escalation.Alert) { a.DataSource = "" }, false},
		{"already handled", func(a *escalation.Alert) { a.IsHandled = true }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAlert()
			tt.mutate(&a)

			err := alerts.Validate(a)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, alerts.ErrInvalidAlert) {
				t.Errorf("err = %v, want ErrInvalidAlert", err)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	patient := uuid.New()

	t.Run("all params present", func(t *testing.T) {
		f := alerts.FiltersFromQuery(url.Values{
			"patient_id":     {patient.String()},
			"alert_type":     {"fusion_risk_high"},
			"is_handled":     {"false"},
			"min_risk_level": {"80"},
		})

		if f.PatientID == nil || *f.PatientID != patient {
			t.Errorf("PatientID = %v", f.PatientID)
		}
		if f.AlertType == nil || *f.AlertType != "fusion_risk_high" {
			t.Errorf("AlertType = %v", f.AlertType)
		}
		if f.IsHandled == nil || *f.IsHandled {
			t.Errorf("IsHandled = %v, want false", f.IsHandled)
		}
		if f.MinRiskLevel == nil || *f.MinRiskLevel != 80 {
			t.Errorf("MinRiskLevel = %v", f.MinRiskLevel)
		}
	})

	t.Run("malformed values ignored", func(t *testing.T) {
		f := alerts.FiltersFromQuery(url.Values{
			"patient_id":     {"x"},
			"is_handled":     {"maybe"},
			"min_risk_level": {"high"},
		})
		if f.PatientID != nil || f.IsHandled != nil || f.MinRiskLevel != nil {
			t.Errorf("filters = %+v", f)
		}
	})
}
