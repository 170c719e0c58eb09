// Package messaging publishes domain events to NATS.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/wyxpro/mindcare/pkg/lifecycle"
)

var (
	// ErrDisabled is returned by New when no NATS URL is configured.
	ErrDisabled = errors.New("messaging not configured")
	// ErrNotConnected is returned when publishing while the connection is down.
	ErrNotConnected = errors.New("messaging not connected")
)

// Publisher sends an event to a subject. Implementations encode the
// payload as JSON.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// System is a Publisher bound to the process lifecycle.
type System interface {
	Publisher
	Subject(name string) string
	Start(lc *lifecycle.Coordinator) error
	Ready() bool
}

type natsSystem struct {
	conn   *nats.Conn
	cfg    Config
	logger *slog.Logger
}

// New connects to NATS. The connection retries in the background when
// the server is not yet reachable, so startup does not fail on a late
// broker. It returns ErrDisabled when no URL is configured.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	logger = logger.With("system", "messaging")

	conn, err := nats.Connect(
		cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(cfg.ConnectTimeoutDuration()),
		nats.ReconnectWait(cfg.ReconnectWaitDuration()),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &natsSystem{conn: conn, cfg: *cfg, logger: logger}, nil
}

func (n *natsSystem) Subject(name string) string {
	return n.cfg.Subject(name)
}

func (n *natsSystem) Ready() bool {
	return n.conn.IsConnected()
}

func (n *natsSystem) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := n.conn.Drain(); err != nil {
			n.logger.Error("nats drain failed", "error", err)
			n.conn.Close()
			return
		}
		n.logger.Info("nats connection drained")
	})
	return nil
}

func (n *natsSystem) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !n.conn.IsConnected() {
		return fmt.Errorf("publish %s: %w", subject, ErrNotConnected)
	}

	data, err := Encode(payload)
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Encode marshals an event payload. Raw byte slices pass through.
func Encode(payload any) ([]byte, error) {
	if b, ok := payload.([]byte); ok {
		return b, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}
