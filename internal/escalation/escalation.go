// Package escalation decides whether a completed fusion report must be
// escalated to a clinician and, when it must, submits a risk alert.
//
// Alert submission is best-effort: failures are logged and counted but
// never prevent the report from being shown or synced.
package escalation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wyxpro/mindcare/internal/fusion"
)

const (
	AlertType  = "fusion_risk_high"
	DataSource = "fusion_report"

	// FusedThreshold escalates on the fused score alone.
	FusedThreshold = 80
	// ScaleRawThreshold escalates on a severe PHQ-9 total regardless of weighting.
	ScaleRawThreshold = 20
	// CorroborationThreshold escalates when voice and expression both reach it.
	CorroborationThreshold = 80
)

// ErrAlertSubmission indicates the alert collaborator rejected or failed the alert.
var ErrAlertSubmission = errors.New("risk alert submission failed")

// Trigger names one escalation rule that fired.
type Trigger string

const (
	TriggerFusedScore    Trigger = "fused_score"
	TriggerScaleRaw      Trigger = "scale_raw"
	TriggerCorroboration Trigger = "voice_expression"
)

// Alert is the clinician-facing record created when escalation fires.
type Alert struct {
	PatientID   uuid.UUID `json:"patient_id"`
	AlertType   string    `json:"alert_type"`
	RiskLevel   int       `json:"risk_level"`
	Description string    `json:"description"`
	IsHandled   bool      `json:"is_handled"`
	DataSource  string    `json:"data_source"`
}

// Submitter delivers alerts to the alert-ingestion collaborator.
type Submitter interface {
	SubmitRiskAlert(ctx context.Context, alert Alert) (uuid.UUID, error)
}

// Outcome reports what happened when a report was evaluated.
type Outcome struct {
	Triggered bool      `json:"triggered"`
	Triggers  []Trigger `json:"triggers,omitempty"`
	AlertID   uuid.UUID `json:"alert_id,omitzero"`
	Error     string    `json:"error,omitempty"`
}

// Triggers returns every escalation rule satisfied by the given values.
func Triggers(fused int, scaleRaw float64, voiceN, expressionN int) []Trigger {
	var fired []Trigger
	if fused >= FusedThreshold {
		fired = append(fired, TriggerFusedScore)
	}
	if scaleRaw >= ScaleRawThreshold {
		fired = append(fired, TriggerScaleRaw)
	}
	if voiceN >= CorroborationThreshold && expressionN >= CorroborationThreshold {
		fired = append(fired, TriggerCorroboration)
	}
	return fired
}

// Evaluate reports whether any escalation rule fires.
func Evaluate(fused int, scaleRaw float64, voiceN, expressionN int) bool {
	return len(Triggers(fused, scaleRaw, voiceN, expressionN)) > 0
}

// NewAlert builds the alert for a report.
func NewAlert(r fusion.Report, triggers []Trigger) Alert {
	return Alert{
		PatientID:   r.UserID,
		AlertType:   AlertType,
		RiskLevel:   r.FusedScore,
		Description: describe(r, triggers),
		IsHandled:   false,
		DataSource:  DataSource,
	}
}

func describe(r fusion.Report, triggers []Trigger) string {
	names := make([]string, len(triggers))
	for i, t := range triggers {
		names[i] = string(t)
	}
	return fmt.Sprintf(
		"Multimodal fusion score %d (%s). PHQ-9 raw %g -> %d, voice %g -> %d, expression %g -> %d. Triggers: %s.",
		r.FusedScore, r.RiskLevel,
		r.Readings.Scale, r.Normalized.Scale,
		r.Readings.Voice, r.Normalized.Voice,
		r.Readings.Expression, r.Normalized.Expression,
		strings.Join(names, ", "),
	)
}

// Monitor evaluates completed reports and submits alerts.
type Monitor struct {
	submitter Submitter
	logger    *slog.Logger

	evaluated metric.Int64Counter
	raised    metric.Int64Counter
	failed    metric.Int64Counter
}

// NewMonitor creates a Monitor. A nil meter falls back to the global provider.
func NewMonitor(submitter Submitter, logger *slog.Logger, meter metric.Meter) *Monitor {
	if meter == nil {
		meter = otel.Meter("mindcare")
	}
	evaluated, _ := meter.Int64Counter("mindcare_escalation_evaluations_total")
	raised, _ := meter.Int64Counter("mindcare_escalation_alerts_total")
	failed, _ := meter.Int64Counter("mindcare_escalation_alert_failures_total")

	return &Monitor{
		submitter: submitter,
		logger:    logger.With("system", "escalation"),
		evaluated: evaluated,
		raised:    raised,
		failed:    failed,
	}
}

// Escalate evaluates a completed report and submits an alert when a rule
// fires. Submission failures are logged and reported in the Outcome only.
func (m *Monitor) Escalate(ctx context.Context, r fusion.Report) Outcome {
	triggers := Triggers(r.FusedScore, r.Readings.Scale, r.Normalized.Voice, r.Normalized.Expression)
	m.evaluated.Add(ctx, 1)

	if len(triggers) == 0 {
		return Outcome{}
	}

	out := Outcome{Triggered: true, Triggers: triggers}
	attrs := metric.WithAttributes(attribute.String("risk_level", string(r.RiskLevel)))

	id, err := m.submitter.SubmitRiskAlert(ctx, NewAlert(r, triggers))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrAlertSubmission, err)
		m.failed.Add(ctx, 1, attrs)
		m.logger.ErrorContext(
			ctx, "risk alert submission failed",
			"report_id", r.ID,
			"user_id", r.UserID,
			"fused_score", r.FusedScore,
			"error", err,
		)
		out.Error = err.Error()
		return out
	}

	m.raised.Add(ctx, 1, attrs)
	m.logger.WarnContext(
		ctx, "risk alert raised",
		"report_id", r.ID,
		"alert_id", id,
		"user_id", r.UserID,
		"fused_score", r.FusedScore,
		"triggers", triggers,
	)
	out.AlertID = id
	return out
}
