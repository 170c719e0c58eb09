package api

import (
	"fmt"

	"github.com/wyxpro/mindcare/internal/alerts"
	"github.com/wyxpro/mindcare/internal/assessments"
	"github.com/wyxpro/mindcare/internal/escalation"
	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/history"
	"github.com/wyxpro/mindcare/internal/reportsync"
	"github.com/wyxpro/mindcare/internal/session"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Assessments assessments.System
	Alerts      alerts.System
	Sessions    *session.Manager
}

// NewDomain creates all domain systems from the API runtime. The
// in-process assessment and alert systems serve as the collaborators of
// the fusion flow.
func NewDomain(runtime *Runtime) (*Domain, error) {
	meter := runtime.Telemetry.Meter("github.com/wyxpro/mindcare")

	assessmentsSystem := assessments.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	alertsSystem := alerts.New(
		runtime.Database.Connection(),
		runtime.Publisher(),
		runtime.Subject,
		runtime.Logger,
		runtime.Pagination,
	)

	engine, err := fusion.NewEngine(runtime.Fusion.Weights)
	if err != nil {
		return nil, fmt.Errorf("fusion engine: %w", err)
	}

	cache := history.New(assessmentsSystem, runtime.Fusion.HistoryCapacity, runtime.Logger)

	coordinator := reportsync.New(
		assessmentsSystem,
		runtime.Logger,
		reportsync.WithOnSuccess(session.InvalidateHistory(cache)),
		reportsync.WithRetryDelay(runtime.Fusion.RetryDelayDuration()),
		reportsync.WithMeter(meter),
		reportsync.WithRetention(runtime.Fusion.SyncRetention),
	)

	monitor := escalation.NewMonitor(alertsSystem, runtime.Logger, meter)

	manager := session.NewManager(
		engine,
		monitor,
		coordinator,
		cache,
		runtime.Fusion.PlaceholderReadings(),
		runtime.Logger,
		session.WithIdleTimeout(runtime.Fusion.SessionIdleTimeoutDuration()),
	)

	lc := runtime.Lifecycle
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		manager.Close()
	})

	return &Domain{
		Assessments: assessmentsSystem,
		Alerts:      alertsSystem,
		Sessions:    manager,
	}, nil
}
