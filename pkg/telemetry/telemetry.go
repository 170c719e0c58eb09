// Package telemetry owns the OpenTelemetry meter provider.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/wyxpro/mindcare/pkg/lifecycle"
)

// Provider wraps the SDK meter provider and its shutdown.
type Provider struct {
	mp       *sdkmetric.MeterProvider
	exporter bool
	logger   *slog.Logger
}

// Option configures a Provider.
type Option func(*options)

type options struct {
	readers []sdkmetric.Reader
}

// WithReader attaches an additional metric reader.
func WithReader(r sdkmetric.Reader) Option {
	return func(o *options) { o.readers = append(o.readers, r) }
}

// New builds the meter provider and installs it globally. When an OTLP
// endpoint is configured a periodic gRPC exporter is attached.
func New(ctx context.Context, cfg *Config, version string, logger *slog.Logger, opts ...Option) (*Provider, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	res := sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(version),
	)

	providerOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range o.readers {
		providerOpts = append(providerOpts, sdkmetric.WithReader(r))
	}

	logger = logger.With("system", "telemetry")

	if cfg.Enabled() {
		exporterOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
		}

		initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exp, err := otlpmetricgrpc.New(initCtx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("create metric exporter: %w", err)
		}

		reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.IntervalDuration()))
		providerOpts = append(providerOpts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(mp)

	if cfg.Enabled() {
		logger.Info("metrics export enabled", "endpoint", cfg.Endpoint, "interval", cfg.Interval)
	}

	return &Provider{mp: mp, exporter: cfg.Enabled(), logger: logger}, nil
}

// Meter returns a named meter from the provider.
func (p *Provider) Meter(name string) metric.Meter {
	return p.mp.Meter(name)
}

// Start registers a shutdown hook that flushes pending metrics.
func (p *Provider) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown(func() {
		<-lc.Context().Done()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := p.mp.Shutdown(ctx); err != nil {
			p.logger.Error("meter provider shutdown failed", "error", err)
			return
		}
		if p.exporter {
			p.logger.Info("metrics flushed")
		}
	})
	return nil
}
