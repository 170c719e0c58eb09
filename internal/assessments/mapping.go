package assessments

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/pkg/query"
	"github.com/wyxpro/mindcare/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "assessments", "a").
	Project("id", "ID").
	Project("user_id", "UserID").
	Project("report_id", "ReportID").
	Project("score", "Score").
	Project("risk_level", "RiskLevel").
	Project("report_details", "ReportDetails").
	Project("weights", "Weights").
	Project("archive_key", "ArchiveKey").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for assessment queries.
// Nil fields are ignored.
type Filters struct {
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	RiskLevel *string    `json:"risk_level,omitempty"`
	MinScore  *int       `json:"min_score,omitempty"`
	Since     *time.Time `json:"since,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("UserID", f.UserID).
		WhereEquals("RiskLevel", f.RiskLevel).
		WhereAtLeast("Score", f.MinScore).
		WhereAtLeast("CreatedAt", f.Since)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Malformed values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("user_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.UserID = &id
		}
	}

	if v := values.Get("risk_level"); v != "" {
		f.RiskLevel = &v
	}

	if v := values.Get("min_score"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MinScore = &n
		}
	}

	if v := values.Get("since"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.Since = &ts
		}
	}

	return f
}

func scanAssessment(s repository.Scanner) (Assessment, error) {
	var (
		a       Assessment
		details []byte
		weights []byte
	)
	err := s.Scan(
		&a.ID,
		&a.UserID,
		&a.ReportID,
		&a.Score,
		&a.RiskLevel,
		&details,
		&weights,
		&a.ArchiveKey,
		&a.CreatedAt,
	)
	if err != nil {
		return a, err
	}

	if err := json.Unmarshal(details, &a.ReportDetails); err != nil {
		return a, fmt.Errorf("decode report_details: %w", err)
	}
	if err := json.Unmarshal(weights, &a.Weights); err != nil {
		return a, fmt.Errorf("decode weights: %w", err)
	}
	return a, nil
}
