package alerts

import (
	"context"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/escalation"
	"github.com/wyxpro/mindcare/pkg/pagination"
)

// System defines the public contract for alert domain operations.
// It also satisfies escalation.Submitter.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Alert], error)

	Find(ctx context.Context, id uuid.UUID) (*Alert, error)
	Create(ctx context.Context, alert escalation.Alert) (*Alert, error)
	Handle(ctx context.Context, id uuid.UUID, cmd HandleCommand) (*Alert, error)

	SubmitRiskAlert(ctx context.Context, alert escalation.Alert) (uuid.UUID, error)
}
