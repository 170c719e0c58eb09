package assessments

import (
	"context"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/reportsync"
	"github.com/wyxpro/mindcare/pkg/pagination"
)

// System defines the public contract for assessment domain operations.
// It also satisfies reportsync.Store and history.Source.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Assessment], error)

	Find(ctx context.Context, id uuid.UUID) (*Assessment, error)
	Create(ctx context.Context, sub reportsync.Submission) (*Assessment, error)
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]Assessment, error)
	Archive(ctx context.Context, id uuid.UUID) ([]byte, error)
	Delete(ctx context.Context, id uuid.UUID) error

	SubmitReport(ctx context.Context, sub reportsync.Submission) (uuid.UUID, error)
	HistoricalReports(ctx context.Context, userID uuid.UUID, limit int) ([]fusion.Report, error)
}
