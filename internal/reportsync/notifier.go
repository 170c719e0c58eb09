package reportsync

import (
	"context"
	"log/slog"
)

// Notifier surfaces sync progress to the user. Warn is called on each
// automatic retry and must not block; Fail is called once when retries
// are exhausted and the user must act.
type Notifier interface {
	Warn(ctx context.Context, s State, err error)
	Fail(ctx context.Context, s State, err error)
}

type logNotifier struct {
	logger *slog.Logger
}

// LogNotifier returns a Notifier that writes to the logger.
func LogNotifier(logger *slog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Warn(ctx context.Context, s State, err error) {
	n.logger.WarnContext(
		ctx, "report sync retrying",
		"report_id", s.ReportID,
		"retry", s.RetryCount,
		"max_retries", MaxRetries,
		"error", err,
	)
}

func (n *logNotifier) Fail(ctx context.Context, s State, err error) {
	n.logger.ErrorContext(
		ctx, "report sync failed",
		"report_id", s.ReportID,
		"retries", s.RetryCount,
		"error", err,
	)
}
