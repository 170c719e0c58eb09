package alerts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/escalation"
	"github.com/wyxpro/mindcare/pkg/messaging"
	"github.com/wyxpro/mindcare/pkg/pagination"
	"github.com/wyxpro/mindcare/pkg/query"
	"github.com/wyxpro/mindcare/pkg/repository"
)

var dbErrors = repository.Errors{
	NotFound: ErrNotFound,
	Invalid:  ErrInvalidAlert,
}

// SubjectFunc resolves an event name to a full messaging subject.
type SubjectFunc func(name string) string

type repo struct {
	db         *sql.DB
	publisher  messaging.Publisher
	subject    SubjectFunc
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an alert repository implementing the System interface.
// publisher may be nil, in which case no events are published.
func New(
	db *sql.DB,
	publisher messaging.Publisher,
	subject SubjectFunc,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	if subject == nil {
		subject = func(name string) string { return name }
	}
	return &repo{
		db:         db,
		publisher:  publisher,
		subject:    subject,
		logger:     logger.With("system", "alerts"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Alert], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	items, total, err := repository.QueryPage(ctx, r.db, qb, page.Page, page.PageSize, scanAlert)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Alert, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAlert)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &a, nil
}

func (r *repo) Create(ctx context.Context, in escalation.Alert) (*Alert, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO risk_alerts(patient_id, alert_type, risk_level, description, data_source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, patient_id, alert_type, risk_level, description, is_handled, data_source, handled_by, handled_at, created_at`

	args := []any{in.PatientID, in.AlertType, in.RiskLevel, in.Description, in.DataSource}

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Alert, error) {
		return repository.QueryOne(ctx, tx, q, args, scanAlert)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	r.logger.Warn(
		"risk alert created",
		"id", a.ID,
		"patient_id", a.PatientID,
		"risk_level", a.RiskLevel,
	)
	r.publish(ctx, SubjectCreated, a)
	return &a, nil
}

// Handle marks an open alert as handled. Handling an alert twice
// returns ErrAlreadyHandled.
func (r *repo) Handle(ctx context.Context, id uuid.UUID, cmd HandleCommand) (*Alert, error) {
	if cmd.HandledBy == uuid.Nil {
		return nil, fmt.Errorf("%w: handled_by required", ErrInvalidAlert)
	}

	q := `
		UPDATE risk_alerts
		SET is_handled = true, handled_by = $2, handled_at = NOW()
		WHERE id = $1 AND NOT is_handled
		RETURNING id, patient_id, alert_type, risk_level, description, is_handled, data_source, handled_by, handled_at, created_at`

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Alert, error) {
		return repository.QueryOne(ctx, tx, q, []any{id, cmd.HandledBy}, scanAlert)
	})
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := r.Find(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyHandled
	}
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	r.logger.Info("risk alert handled", "id", a.ID, "handled_by", cmd.HandledBy)
	r.publish(ctx, SubjectHandled, a)
	return &a, nil
}

func (r *repo) SubmitRiskAlert(ctx context.Context, in escalation.Alert) (uuid.UUID, error) {
	a, err := r.Create(ctx, in)
	if err != nil {
		return uuid.Nil, err
	}
	return a.ID, nil
}

// publish fans the event out. The alert is already stored, so a failed
// publish is logged and not returned.
func (r *repo) publish(ctx context.Context, name string, a Alert) {
	if r.publisher == nil {
		return
	}

	subject := r.subject(name)
	if err := r.publisher.Publish(ctx, subject, Event{Type: name, Alert: a}); err != nil {
		r.logger.Error("alert event publish failed", "id", a.ID, "subject", subject, "error", err)
	}
}
