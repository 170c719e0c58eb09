// Package reportsync persists completed fusion reports to the remote store
// with a fixed-delay bounded retry and a per-report state machine that
// prevents duplicate in-flight syncs.
package reportsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/wyxpro/mindcare/internal/fusion"
)

const (
	// MaxRetries is the number of automatic resubmissions after the first attempt.
	MaxRetries = 3
	// RetryDelay is the fixed wait between attempts.
	RetryDelay = time.Second
	// DefaultRetention is how many finished reports keep their state.
	DefaultRetention = 1024
)

// Store persists a submission and returns the stored assessment's ID.
type Store interface {
	SubmitReport(ctx context.Context, sub Submission) (uuid.UUID, error)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNotifier sets the user-facing notifier. Defaults to logging.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithOnSuccess registers a hook run after each successful sync.
func WithOnSuccess(fn func(ctx context.Context, s State)) Option {
	return func(c *Coordinator) { c.onSuccess = append(c.onSuccess, fn) }
}

// WithRetryDelay overrides the wait between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.delay = d }
}

// WithRetention bounds how many finished reports stay queryable. The
// oldest finished state is dropped first.
func WithRetention(n int) Option {
	return func(c *Coordinator) { c.retain = max(n, 1) }
}

// WithMeter sets the meter used for sync instruments.
func WithMeter(m metric.Meter) Option {
	return func(c *Coordinator) { c.meter = m }
}

type entry struct {
	state   State
	report  fusion.Report
	weights fusion.WeightSet
	cancel  context.CancelFunc
	seq     uint64
}

type finished struct {
	id  uuid.UUID
	seq uint64
}

// Coordinator tracks one State per report and drives submissions.
type Coordinator struct {
	store     Store
	notifier  Notifier
	onSuccess []func(ctx context.Context, s State)
	delay     time.Duration
	retain    int
	logger    *slog.Logger
	meter     metric.Meter

	attempts  metric.Int64Counter
	successes metric.Int64Counter
	failures  metric.Int64Counter

	mu       sync.Mutex
	entries  map[uuid.UUID]*entry
	finished []finished
	seq      uint64
}

// New creates a Coordinator backed by store.
func New(store Store, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:   store,
		delay:   RetryDelay,
		retain:  DefaultRetention,
		logger:  logger.With("system", "reportsync"),
		entries: make(map[uuid.UUID]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = LogNotifier(c.logger)
	}
	if c.meter == nil {
		c.meter = otel.Meter("mindcare")
	}

	c.attempts, _ = c.meter.Int64Counter("mindcare_sync_attempts_total")
	c.successes, _ = c.meter.Int64Counter("mindcare_sync_success_total")
	c.failures, _ = c.meter.Int64Counter("mindcare_sync_fail_total")

	return c
}

// Sync persists the report and returns its final state. A report that is
// already syncing or already synced is returned unchanged without another
// submission. A report in the error state is resubmitted with a fresh
// retry budget.
//
// Cancelling ctx stops any pending retry; the state is then recorded as
// an error without notifying the user.
func (c *Coordinator) Sync(ctx context.Context, r fusion.Report, weights fusion.WeightSet) State {
	c.mu.Lock()
	e, ok := c.entries[r.ID]
	if ok && (e.state.Status == StatusSyncing || e.state.Status == StatusSuccess) {
		s := e.state
		c.mu.Unlock()
		return s
	}
	if !ok {
		e = &entry{state: State{ReportID: r.ID, UserID: r.UserID, Status: StatusIdle}}
		c.entries[r.ID] = e
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.report = r
	e.weights = weights
	e.cancel = cancel
	e.state.Status = StatusSyncing
	e.state.RetryCount = 0
	e.state.LastError = ""
	e.state.Err = nil
	e.state.UpdatedAt = time.Now()
	c.mu.Unlock()

	defer cancel()
	return c.run(runCtx, e, NewSubmission(r, weights))
}

// Retry re-triggers a tracked report. Only reports in the error state
// are resubmitted.
func (c *Coordinator) Retry(ctx context.Context, reportID uuid.UUID) (State, error) {
	c.mu.Lock()
	e, ok := c.entries[reportID]
	if !ok {
		c.mu.Unlock()
		return State{}, ErrUnknownReport
	}
	if e.state.Status != StatusError {
		s := e.state
		c.mu.Unlock()
		return s, nil
	}
	r, w := e.report, e.weights
	c.mu.Unlock()

	return c.Sync(ctx, r, w), nil
}

// State returns the current state of a report.
func (c *Coordinator) State(reportID uuid.UUID) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[reportID]
	if !ok {
		return State{}, false
	}
	return e.state, true
}

// Cancel stops any in-flight sync for the report.
func (c *Coordinator) Cancel(reportID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[reportID]; ok && e.cancel != nil {
		e.cancel()
	}
}

// Tracked returns the number of reports with a retained state.
func (c *Coordinator) Tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close cancels every in-flight sync. Pending retry timers are cleared
// and no further attempts are made.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.cancel != nil {
			e.cancel()
		}
	}
}

func (c *Coordinator) run(ctx context.Context, e *entry, sub Submission) State {
	for {
		id, err := c.store.SubmitReport(ctx, sub)
		c.attempts.Add(ctx, 1)

		if err == nil {
			return c.succeed(ctx, e, id)
		}
		if ctx.Err() != nil {
			return c.abandon(e, ctx.Err())
		}

		c.mu.Lock()
		if e.state.RetryCount >= MaxRetries {
			e.state.Status = StatusError
			e.state.Err = fmt.Errorf("%w after %d retries: %w", ErrSyncFailed, e.state.RetryCount, err)
			e.state.LastError = e.state.Err.Error()
			e.state.UpdatedAt = time.Now()
			s := e.state
			c.finish(e)
			c.mu.Unlock()

			c.failures.Add(ctx, 1)
			c.notifier.Fail(ctx, s, s.Err)
			return s
		}
		e.state.RetryCount++
		e.state.LastError = err.Error()
		e.state.UpdatedAt = time.Now()
		s := e.state
		c.mu.Unlock()

		c.notifier.Warn(ctx, s, err)

		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return c.abandon(e, ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Coordinator) succeed(ctx context.Context, e *entry, id uuid.UUID) State {
	c.mu.Lock()
	e.state.Status = StatusSuccess
	e.state.AssessmentID = id
	e.state.LastError = ""
	e.state.Err = nil
	e.state.UpdatedAt = time.Now()
	e.report = fusion.Report{}
	s := e.state
	c.finish(e)
	c.mu.Unlock()

	c.successes.Add(ctx, 1)
	c.logger.InfoContext(
		ctx, "report synced",
		"report_id", s.ReportID,
		"assessment_id", id,
		"retries", s.RetryCount,
	)

	for _, fn := range c.onSuccess {
		fn(ctx, s)
	}
	return s
}

func (c *Coordinator) abandon(e *entry, cause error) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.state.Status = StatusError
	e.state.Err = fmt.Errorf("%w: %w", ErrSyncCancelled, cause)
	e.state.LastError = e.state.Err.Error()
	e.state.UpdatedAt = time.Now()
	c.finish(e)

	c.logger.Info("report sync cancelled", "report_id", e.state.ReportID)
	return e.state
}

// finish records e as finished and drops the oldest finished states past
// the retention bound. A state that was retried since it was recorded
// is only dropped through its latest record. c.mu must be held.
func (c *Coordinator) finish(e *entry) {
	c.seq++
	e.seq = c.seq
	c.finished = append(c.finished, finished{id: e.state.ReportID, seq: e.seq})

	for len(c.finished) > c.retain {
		old := c.finished[0]
		c.finished = c.finished[1:]
		if cur, ok := c.entries[old.id]; ok && cur.seq == old.seq && cur.state.Terminal() {
			delete(c.entries, old.id)
		}
	}
}
