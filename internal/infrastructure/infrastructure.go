// Package infrastructure assembles the shared systems every domain module
// depends on: logging, the database, optional blob storage, optional NATS
// messaging, metrics and bearer token verification.
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wyxpro/mindcare/internal/config"
	"github.com/wyxpro/mindcare/pkg/auth"
	"github.com/wyxpro/mindcare/pkg/database"
	"github.com/wyxpro/mindcare/pkg/lifecycle"
	"github.com/wyxpro/mindcare/pkg/logging"
	"github.com/wyxpro/mindcare/pkg/messaging"
	"github.com/wyxpro/mindcare/pkg/storage"
	"github.com/wyxpro/mindcare/pkg/telemetry"
)

// ServiceName identifies the service in logs and metrics.
const ServiceName = "mindcare"

// Infrastructure holds the core systems required by all domain modules.
// Storage, Messaging and Verifier are nil when their configuration is absent.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Messaging messaging.System
	Telemetry *telemetry.Provider
	Verifier  auth.Verifier
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.Init(cfg.Logging, ServiceName)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil && !errors.Is(err, storage.ErrDisabled) {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}
	if store == nil {
		logger.Info("blob storage disabled, assessments will not be archived")
	}

	msg, err := messaging.New(&cfg.Messaging, logger)
	if err != nil && !errors.Is(err, messaging.ErrDisabled) {
		return nil, fmt.Errorf("messaging init failed: %w", err)
	}
	if msg == nil {
		logger.Info("messaging disabled, alert events will not be published")
	}

	tp, err := telemetry.New(lc.Context(), &cfg.Telemetry, cfg.Version, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}

	var verifier auth.Verifier
	if cfg.Auth.Enabled() {
		verifier = auth.NewVerifier(lc.Context(), &cfg.Auth)
	} else {
		logger.Warn("bearer authentication disabled")
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Messaging: msg,
		Telemetry: tp,
		Verifier:  verifier,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator
// and adds readiness checks for the systems that gate traffic.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	i.Lifecycle.AddCheck("database", i.Database)

	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}

	if i.Messaging != nil {
		if err := i.Messaging.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("messaging start failed: %w", err)
		}
		i.Lifecycle.AddCheck("messaging", i.Messaging)
	}

	if err := i.Telemetry.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("telemetry start failed: %w", err)
	}
	return nil
}

// Publisher returns the messaging publisher, or nil when messaging is disabled.
func (i *Infrastructure) Publisher() messaging.Publisher {
	if i.Messaging == nil {
		return nil
	}
	return i.Messaging
}

// Subject returns the subject builder for alert events.
func (i *Infrastructure) Subject(name string) string {
	if i.Messaging == nil {
		return name
	}
	return i.Messaging.Subject(name)
}

// Check pings the database. It backs the readiness probe alongside the
// lifecycle checks.
func (i *Infrastructure) Check(ctx context.Context) error {
	return i.Database.Check(ctx)
}
