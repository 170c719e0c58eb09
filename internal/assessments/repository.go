package assessments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/reportsync"
	"github.com/wyxpro/mindcare/pkg/formatting"
	"github.com/wyxpro/mindcare/pkg/pagination"
	"github.com/wyxpro/mindcare/pkg/query"
	"github.com/wyxpro/mindcare/pkg/repository"
	"github.com/wyxpro/mindcare/pkg/storage"
)

var dbErrors = repository.Errors{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Invalid:   ErrInvalidAssessment,
}

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an assessment repository implementing the System interface.
// store may be nil, in which case report documents are not archived.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "assessments"),
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
) (*pagination.PageResult[Assessment], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	items, total, err := repository.QueryPage(ctx, r.db, qb, page.Page, page.PageSize, scanAssessment)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAssessment)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &a, nil
}

func (r *repo) findByReport(ctx context.Context, reportID uuid.UUID) (*Assessment, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ReportID", reportID)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAssessment)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &a, nil
}

// Create stores the submission. Resubmitting a report that is already
// stored returns the existing assessment, so a sync retry after a lost
// response does not create a second row.
func (r *repo) Create(ctx context.Context, sub reportsync.Submission) (*Assessment, error) {
	if err := Validate(sub); err != nil {
		return nil, err
	}

	details, err := json.Marshal(sub.ReportDetails)
	if err != nil {
		return nil, fmt.Errorf("encode report_details: %w", err)
	}
	weights, err := json.Marshal(sub.Weights)
	if err != nil {
		return nil, fmt.Errorf("encode weights: %w", err)
	}

	id := uuid.New()
	key := r.archive(ctx, sub.UserID, id, sub)

	q := `
		INSERT INTO assessments(id, user_id, report_id, score, risk_level, report_details, weights, archive_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (report_id) DO NOTHING
		RETURNING id, user_id, report_id, score, risk_level, report_details, weights, archive_key, created_at`

	args := []any{
		id,
		sub.UserID,
		sub.ReportDetails.ReportID,
		sub.Score,
		string(sub.RiskLevel),
		details,
		weights,
		key,
	}

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Assessment, error) {
		return repository.QueryOne(ctx, tx, q, args, scanAssessment)
	})

	if errors.Is(err, sql.ErrNoRows) {
		r.discard(ctx, key)
		existing, err := r.findByReport(ctx, sub.ReportDetails.ReportID)
		if err != nil {
			return nil, err
		}
		r.logger.Info("assessment already stored", "id", existing.ID, "report_id", existing.ReportID)
		return existing, nil
	}
	if err != nil {
		r.discard(ctx, key)
		return nil, dbErrors.Map(err)
	}

	r.logger.Info(
		"assessment created",
		"id", a.ID,
		"user_id", a.UserID,
		"score", a.Score,
		"risk_level", a.RiskLevel,
	)
	return &a, nil
}

func (r *repo) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]Assessment, error) {
	if limit < 1 {
		limit = r.pagination.DefaultPageSize
	}

	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("UserID", userID).
		BuildLimit(min(limit, r.pagination.MaxPageSize))

	items, err := repository.QueryMany(ctx, r.db, q, args, scanAssessment)
	if err != nil {
		return nil, fmt.Errorf("query recent assessments: %w", err)
	}
	return items, nil
}

func (r *repo) Archive(ctx context.Context, id uuid.UUID) ([]byte, error) {
	a, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.storage == nil || a.ArchiveKey == nil {
		return nil, ErrNotArchived
	}

	data, err := r.storage.Get(ctx, *a.ArchiveKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotArchived
	}
	return data, err
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM assessments WHERE id = $1",
			id,
		)
	})
	if err != nil {
		return dbErrors.Map(err)
	}

	if a.ArchiveKey != nil {
		r.discard(ctx, a.ArchiveKey)
	}

	r.logger.Info("assessment deleted", "id", id)
	return nil
}

func (r *repo) SubmitReport(ctx context.Context, sub reportsync.Submission) (uuid.UUID, error) {
	a, err := r.Create(ctx, sub)
	if err != nil {
		return uuid.Nil, err
	}
	return a.ID, nil
}

func (r *repo) HistoricalReports(ctx context.Context, userID uuid.UUID, limit int) ([]fusion.Report, error) {
	items, err := r.Recent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	reports := make([]fusion.Report, len(items))
	for i, a := range items {
		reports[i] = a.Report()
	}
	return reports, nil
}

// archive writes the report document and returns its key, or nil when
// storage is disabled or the write fails. Archival never blocks storing
// the assessment itself.
func (r *repo) archive(ctx context.Context, userID, id uuid.UUID, sub reportsync.Submission) *string {
	if r.storage == nil {
		return nil
	}

	data, err := json.Marshal(sub)
	if err != nil {
		r.logger.Warn("encode report archive failed", "id", id, "error", err)
		return nil
	}

	key := archiveKey(userID, id)
	if err := r.storage.Put(ctx, key, data, "application/json"); err != nil {
		r.logger.Warn("report archive failed", "id", id, "key", key, "error", err)
		return nil
	}
	r.logger.Debug("report archived", "id", id, "key", key, "size", formatting.FormatBytes(int64(len(data)), 1))
	return &key
}

func (r *repo) discard(ctx context.Context, key *string) {
	if r.storage == nil || key == nil {
		return
	}
	if err := r.storage.Delete(ctx, *key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn("blob delete failed", "key", *key, "error", err)
	}
}
