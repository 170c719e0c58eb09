// Package session runs one user's assessment flow: compute the report,
// then escalate and persist it concurrently. Sessions own the lifetime of
// their pending syncs, and logout clears the user's cached history.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wyxpro/mindcare/internal/escalation"
	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/history"
	"github.com/wyxpro/mindcare/internal/reportsync"
)

// Result is the outcome of one submitted assessment.
type Result struct {
	Report      fusion.Report      `json:"report"`
	Substituted []fusion.Kind      `json:"substituted,omitempty"`
	Sync        reportsync.State   `json:"sync"`
	Escalation  escalation.Outcome `json:"escalation"`
}

// InvalidateHistory returns a sync success hook that drops the user's
// cached history so the new report shows up on the next read.
func InvalidateHistory(cache *history.Cache) func(context.Context, reportsync.State) {
	return func(_ context.Context, s reportsync.State) {
		cache.Invalidate(s.UserID)
	}
}

// DefaultIdleTimeout ends sessions with no activity for this long.
const DefaultIdleTimeout = 30 * time.Minute

// Option configures a Manager.
type Option func(*Manager)

// WithIdleTimeout sets how long a session with nothing in flight is kept.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idle = d }
}

// Manager tracks open sessions and the collaborators they share.
type Manager struct {
	engine       *fusion.Engine
	monitor      *escalation.Monitor
	sync         *reportsync.Coordinator
	history      *history.Cache
	placeholders fusion.Placeholders
	logger       *slog.Logger
	idle         time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	swept    time.Time
}

// NewManager creates a Manager. The coordinator should be built with
// InvalidateHistory(cache) as a success hook.
func NewManager(
	engine *fusion.Engine,
	monitor *escalation.Monitor,
	coordinator *reportsync.Coordinator,
	cache *history.Cache,
	placeholders fusion.Placeholders,
	logger *slog.Logger,
	opts ...Option,
) *Manager {
	m := &Manager{
		engine:       engine,
		monitor:      monitor,
		sync:         coordinator,
		history:      cache,
		placeholders: placeholders,
		logger:       logger.With("system", "session"),
		idle:         DefaultIdleTimeout,
		sessions:     make(map[uuid.UUID]*Session),
		swept:        time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open returns the user's active session, starting one if needed.
// Sessions idle past the timeout are ended on the way.
func (m *Manager) Open(userID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.sweep(now)

	if s, ok := m.sessions[userID]; ok {
		s.lastUsed = now
		return s
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		userID:   userID,
		manager:  m,
		ctx:      ctx,
		cancel:   cancel,
		lastUsed: now,
	}
	m.sessions[userID] = s
	return s
}

// Active returns the number of open sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// sweep ends idle sessions with nothing in flight, at most once per half
// timeout. m.mu must be held.
func (m *Manager) sweep(now time.Time) {
	if now.Sub(m.swept) < m.idle/2 {
		return
	}
	m.swept = now

	for id, s := range m.sessions {
		if s.active == 0 && now.Sub(s.lastUsed) > m.idle {
			delete(m.sessions, id)
			s.cancel()
			m.logger.Debug("idle session ended", "user_id", id)
		}
	}
}

// History returns up to limit of the user's reports, newest first.
func (m *Manager) History(ctx context.Context, userID uuid.UUID, limit int) ([]fusion.Report, error) {
	return m.history.FetchRecent(ctx, userID, limit)
}

// SyncState returns the sync state of a report.
func (m *Manager) SyncState(reportID uuid.UUID) (reportsync.State, error) {
	s, ok := m.sync.State(reportID)
	if !ok {
		return reportsync.State{}, reportsync.ErrUnknownReport
	}
	return s, nil
}

// Retry manually re-triggers the sync of a report in the error state.
// The retry runs within the owner's session, so logout cancels it.
func (m *Manager) Retry(ctx context.Context, reportID uuid.UUID) (reportsync.State, error) {
	st, err := m.SyncState(reportID)
	if err != nil {
		return reportsync.State{}, err
	}
	return m.Open(st.UserID).retry(ctx, reportID)
}

// Logout closes the user's session and clears their cached history.
func (m *Manager) Logout(userID uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.close()
	}
	m.history.Clear(userID)
	m.logger.Info("user logged out", "user_id", userID)
}

// Close ends every session and cancels all in-flight syncs.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	m.sync.Close()
}

// Session is one user's assessment context. Closing it cancels any sync
// retries it started.
type Session struct {
	userID  uuid.UUID
	manager *Manager
	ctx     context.Context
	cancel  context.CancelFunc

	// guarded by manager.mu
	active   int
	lastUsed time.Time
}

// UserID returns the session owner.
func (s *Session) UserID() uuid.UUID {
	return s.userID
}

// Assess collects every modality from src, substituting the configured
// placeholder for any that cannot be read, and submits the result.
func (s *Session) Assess(ctx context.Context, src fusion.ScoreSource, advice string) (Result, error) {
	readings, substituted := s.manager.placeholders.Collect(ctx, src)
	if len(substituted) > 0 {
		s.manager.logger.InfoContext(
			ctx, "placeholder readings substituted",
			"user_id", s.userID,
			"kinds", substituted,
		)
	}

	res, err := s.Submit(ctx, readings, advice)
	res.Substituted = substituted
	return res, err
}

// Submit computes a report from the readings, attaches the advice, and
// then runs escalation and persistence concurrently. Computation errors
// abort the submission before either starts. Escalation and sync
// failures are reported in the Result, never as an error.
func (s *Session) Submit(ctx context.Context, readings fusion.Readings, advice string) (Result, error) {
	if !s.acquire() {
		return Result{}, ErrSessionClosed
	}
	defer s.release()

	report, err := s.manager.engine.Compute(s.userID, readings)
	if err != nil {
		return Result{}, fmt.Errorf("submit assessment: %w", err)
	}
	report = report.WithAdvice(advice)

	res := Result{Report: report}

	syncCtx, stop := s.scope(ctx)
	defer stop()

	// the alert must reach a clinician even if the caller goes away
	alertCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.Go(func() error {
		res.Escalation = s.manager.monitor.Escalate(alertCtx, report)
		return nil
	})
	g.Go(func() error {
		res.Sync = s.manager.sync.Sync(syncCtx, report, s.manager.engine.Weights())
		return nil
	})
	g.Wait()

	s.manager.logger.InfoContext(
		ctx, "assessment submitted",
		"user_id", s.userID,
		"report_id", report.ID,
		"fused_score", report.FusedScore,
		"risk_level", report.RiskLevel,
		"sync_status", res.Sync.Status,
		"escalated", res.Escalation.Triggered,
	)

	return res, nil
}

func (s *Session) retry(ctx context.Context, reportID uuid.UUID) (reportsync.State, error) {
	if !s.acquire() {
		return reportsync.State{}, ErrSessionClosed
	}
	defer s.release()

	syncCtx, stop := s.scope(ctx)
	defer stop()
	return s.manager.sync.Retry(syncCtx, reportID)
}

// scope derives a context cancelled by either the session or ctx.
func (s *Session) scope(ctx context.Context) (context.Context, func()) {
	scoped, cancel := context.WithCancel(s.ctx)
	stop := context.AfterFunc(ctx, cancel)
	return scoped, func() {
		stop()
		cancel()
	}
}

func (s *Session) acquire() bool {
	s.manager.mu.Lock()
	defer s.manager.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.active++
	s.lastUsed = time.Now()
	return true
}

func (s *Session) release() {
	s.manager.mu.Lock()
	defer s.manager.mu.Unlock()
	s.active--
	s.lastUsed = time.Now()
}

// Close ends the session. Pending sync retries are cancelled without
// notifying the user.
func (s *Session) Close() {
	s.manager.mu.Lock()
	if cur, ok := s.manager.sessions[s.userID]; ok && cur == s {
		delete(s.manager.sessions, s.userID)
	}
	s.manager.mu.Unlock()
	s.close()
}

func (s *Session) close() {
	s.cancel()
}
