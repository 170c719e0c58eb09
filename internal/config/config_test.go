package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wyxpro/mindcare/internal/config"
	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/reportsync"
	"github.com/wyxpro/mindcare/internal/session"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "15s"
write_timeout = "30s"

[database]
host = "localhost"
port = 5432
name = "mindcare"
user = "mindcare"
password = "mindcare"
ssl_mode = "disable"

[storage]
container_name = "reports"
connection_string = "UseDevelopmentStorage=true"

[messaging]
url = "nats://localhost:4222"

[logging]
format = "json"
level = "debug"

[api]
base_path = "/api"

[api.pagination]
default_page_size = 25
max_page_size = 50

[fusion]
history_capacity = 5
retry_delay = "1s"

[fusion.weights]
scale = 0.6
voice = 0.2
expression = 0.2
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[fusion.placeholders]
scale = 5
voice = 40
expression = 40
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("db host: got %s, want localhost", cfg.Database.Host)
	}
	if !cfg.Storage.Enabled() || cfg.Storage.ContainerName != "reports" {
		t.Errorf("storage: got %+v", cfg.Storage)
	}
	if !cfg.Messaging.Enabled() {
		t.Error("messaging should be enabled")
	}
	if cfg.Auth.Enabled() || cfg.Telemetry.Enabled() {
		t.Error("auth and telemetry should default to disabled")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("logging: got %+v", cfg.Logging)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 || cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination: got %+v", cfg.API.Pagination)
	}
	want := fusion.WeightSet{Scale: 0.6, Voice: 0.2, Expression: 0.2}
	if cfg.Fusion.Weights != want {
		t.Errorf("weights: got %+v, want %+v", cfg.Fusion.Weights, want)
	}
	if cfg.Fusion.RetryDelayDuration() != time.Second {
		t.Errorf("retry delay: got %v", cfg.Fusion.RetryDelayDuration())
	}
	if cfg.API.MaxBodySizeBytes() != 1<<20 {
		t.Errorf("max body size: got %d, want 1MB", cfg.API.MaxBodySizeBytes())
	}
	if cfg.API.OpenAPI.Title != "MindCare API" {
		t.Errorf("openapi title: got %q", cfg.API.OpenAPI.Title)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv("MINDCARE_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
	if cfg.Fusion.Weights.Scale != 0.6 {
		t.Errorf("weights: got %+v, want base weights", cfg.Fusion.Weights)
	}
	p := cfg.Fusion.PlaceholderReadings()
	if p.Scale != 5 || p.Voice != 40 || p.Expression != 40 {
		t.Errorf("placeholders: got %+v", p)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("MINDCARE_DB_NAME", "testdb")
	t.Setenv("MINDCARE_NATS_URL", "nats://broker:4222")
	t.Setenv("MINDCARE_LOG_FORMAT", "json")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if cfg.Storage.Enabled() {
		t.Error("storage should be disabled without a connection")
	}
	if cfg.Messaging.URL != "nats://broker:4222" {
		t.Errorf("nats url from env: got %s", cfg.Messaging.URL)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("log format from env: got %s", cfg.Logging.Format)
	}
	if cfg.Fusion.Weights != fusion.DefaultWeights() {
		t.Errorf("weights default: got %+v", cfg.Fusion.Weights)
	}
	if cfg.Fusion.HistoryCapacity != 5 {
		t.Errorf("history capacity default: got %d, want 5", cfg.Fusion.HistoryCapacity)
	}
	if cfg.Fusion.PlaceholderReadings() != fusion.DefaultPlaceholders() {
		t.Errorf("placeholders default: got %+v", cfg.Fusion.PlaceholderReadings())
	}
	if cfg.Fusion.SyncRetention != reportsync.DefaultRetention {
		t.Errorf("sync retention default: got %d", cfg.Fusion.SyncRetention)
	}
	if cfg.Fusion.SessionIdleTimeoutDuration() != session.DefaultIdleTimeout {
		t.Errorf("session idle default: got %v", cfg.Fusion.SessionIdleTimeoutDuration())
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("MINDCARE_VERSION", "2.0.0")
	t.Setenv("MINDCARE_SERVER_PORT", "3000")
	t.Setenv("MINDCARE_FUSION_WEIGHTS", "0.4, 0.3, 0.3")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	want := fusion.WeightSet{Scale: 0.4, Voice: 0.3, Expression: 0.3}
	if cfg.Fusion.Weights != want {
		t.Errorf("weights: got %+v, want %+v", cfg.Fusion.Weights, want)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name   string
		config string
		env    map[string]string
		weight bool
	}{
		{name: "malformed toml", config: `[server`},
		{name: "weights do not sum to one", config: "[fusion.weights]\nscale = 0.5\nvoice = 0.5\nexpression = 0.5\n", weight: true},
		{name: "negative weight", env: map[string]string{"MINDCARE_FUSION_WEIGHTS": "1.2,-0.2,0"}, weight: true},
		{name: "weights env malformed", env: map[string]string{"MINDCARE_FUSION_WEIGHTS": "0.5,0.5"}},
		{name: "placeholder out of range", config: "[fusion.placeholders]\nscale = 30\nvoice = 50\nexpression = 50\n"},
		{name: "zero capacity via env", env: map[string]string{"MINDCARE_FUSION_HISTORY_CAPACITY": "-1"}},
		{name: "bad shutdown timeout", config: `shutdown_timeout = "forever"`},
		{name: "bad port", config: "[server]\nport = 70000\n"},
		{name: "bad log level", config: "[logging]\nlevel = \"trace\"\n"},
		{name: "relative base path", config: "[api]\nbase_path = \"api\"\n"},
		{name: "bad body size", config: "[api]\nmax_body_size = \"lots\"\n"},
		{name: "zero body size", env: map[string]string{"MINDCARE_API_MAX_BODY_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.config != "" {
				writeConfig(t, dir, "config.toml", tt.config)
			}
			chdir(t, dir)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.weight && !errors.Is(err, fusion.ErrWeightSum) {
				t.Errorf("err = %v, want ErrWeightSum", err)
			}
		})
	}
}

func TestEnv(t *testing.T) {
	cfg := &config.Config{}
	if got := cfg.Env(); got != "local" {
		t.Errorf("Env() = %q, want local", got)
	}

	t.Setenv("MINDCARE_ENV", "production")
	if got := cfg.Env(); got != "production" {
		t.Errorf("Env() = %q, want production", got)
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"localhost", 3000, "localhost:3000"},
		{"::1", 8443, "[::1]:8443"},
	}

	for _, tt := range tests {
		cfg := config.ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() = %q, want %q", got, tt.want)
		}
	}
}

func TestServerMerge(t *testing.T) {
	base := config.ServerConfig{Port: 8080, ReadTimeout: "15s", IdleTimeout: "2m"}
	base.Merge(&config.ServerConfig{ReadTimeout: "5s"})

	if base.ReadTimeout != "5s" || base.IdleTimeout != "2m" || base.Port != 8080 {
		t.Errorf("merged = %+v", base)
	}
}
