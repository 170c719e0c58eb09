package telemetry_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/wyxpro/mindcare/pkg/telemetry"
)

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := telemetry.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Enabled() {
			t.Error("empty endpoint should be disabled")
		}
		if cfg.IntervalDuration() != 10*time.Second || cfg.ServiceName != "mindcare" {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_OTEL_ENDPOINT", "collector:4317")
		t.Setenv("TEST_OTEL_INSECURE", "true")

		cfg := telemetry.Config{}
		err := cfg.Finalize(&telemetry.Env{Endpoint: "TEST_OTEL_ENDPOINT", Insecure: "TEST_OTEL_INSECURE"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.Enabled() || !cfg.Insecure {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("invalid interval", func(t *testing.T) {
		for _, interval := range []string{"often", "-1s"} {
			cfg := telemetry.Config{Interval: interval}
			if err := cfg.Finalize(nil); err == nil {
				t.Errorf("interval %q accepted", interval)
			}
		}
	})
}

func TestProviderRecords(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	cfg := telemetry.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	p, err := telemetry.New(
		context.Background(), &cfg, "test",
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		telemetry.WithReader(reader),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	counter, err := p.Meter("test").Int64Counter("mindcare_test_total")
	if err != nil {
		t.Fatal(err)
	}
	counter.Add(context.Background(), 3)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mindcare_test_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("data type = %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
}
