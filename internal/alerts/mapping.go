package alerts

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/pkg/query"
	"github.com/wyxpro/mindcare/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "risk_alerts", "r").
	Project("id", "ID").
	Project("patient_id", "PatientID").
	Project("alert_type", "AlertType").
	Project("risk_level", "RiskLevel").
	Project("description", "Description").
	Project("is_handled", "IsHandled").
	Project("data_source", "DataSource").
	Project("handled_by", "HandledBy").
	Project("handled_at", "HandledAt").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for alert queries.
// Nil fields are ignored.
type Filters struct {
	PatientID    *uuid.UUID `json:"patient_id,omitempty"`
	AlertType    *string    `json:"alert_type,omitempty"`
	IsHandled    *bool      `json:"is_handled,omitempty"`
	MinRiskLevel *int       `json:"min_risk_level,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("PatientID", f.PatientID).
		WhereEquals("AlertType", f.AlertType).
		WhereEquals("IsHandled", f.IsHandled).
		WhereAtLeast("RiskLevel", f.MinRiskLevel)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("patient_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.PatientID = &id
		}
	}

	if v := values.Get("alert_type"); v != "" {
		f.AlertType = &v
	}

	if v := values.Get("is_handled"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.IsHandled = &b
		}
	}

	if v := values.Get("min_risk_level"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MinRiskLevel = &n
		}
	}

	return f
}

func scanAlert(s repository.Scanner) (Alert, error) {
	var a Alert
	err := s.Scan(
		&a.ID,
		&a.PatientID,
		&a.AlertType,
		&a.RiskLevel,
		&a.Description,
		&a.IsHandled,
		&a.DataSource,
		&a.HandledBy,
		&a.HandledAt,
		&a.CreatedAt,
	)
	return a, err
}
