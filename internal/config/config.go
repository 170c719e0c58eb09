// Package config loads the service configuration from config.toml, an
// optional environment overlay, and MINDCARE_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/wyxpro/mindcare/pkg/auth"
	"github.com/wyxpro/mindcare/pkg/database"
	"github.com/wyxpro/mindcare/pkg/logging"
	"github.com/wyxpro/mindcare/pkg/messaging"
	"github.com/wyxpro/mindcare/pkg/storage"
	"github.com/wyxpro/mindcare/pkg/telemetry"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvMindcareEnv             = "MINDCARE_ENV"
	EnvMindcareShutdownTimeout = "MINDCARE_SHUTDOWN_TIMEOUT"
	EnvMindcareVersion         = "MINDCARE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "MINDCARE_DB_HOST",
	Port:            "MINDCARE_DB_PORT",
	Name:            "MINDCARE_DB_NAME",
	User:            "MINDCARE_DB_USER",
	Password:        "MINDCARE_DB_PASSWORD",
	SSLMode:         "MINDCARE_DB_SSL_MODE",
	MaxOpenConns:    "MINDCARE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "MINDCARE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "MINDCARE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "MINDCARE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "MINDCARE_STORAGE_CONTAINER_NAME",
	ConnectionString: "MINDCARE_STORAGE_CONNECTION_STRING",
	AccountURL:       "MINDCARE_STORAGE_ACCOUNT_URL",
}

var messagingEnv = &messaging.Env{
	URL:            "MINDCARE_NATS_URL",
	Name:           "MINDCARE_NATS_NAME",
	SubjectPrefix:  "MINDCARE_NATS_SUBJECT_PREFIX",
	ConnectTimeout: "MINDCARE_NATS_CONNECT_TIMEOUT",
	ReconnectWait:  "MINDCARE_NATS_RECONNECT_WAIT",
	MaxReconnects:  "MINDCARE_NATS_MAX_RECONNECTS",
}

var authEnv = &auth.Env{
	Issuer:   "MINDCARE_AUTH_ISSUER",
	ClientID: "MINDCARE_AUTH_CLIENT_ID",
	JWKSURL:  "MINDCARE_AUTH_JWKS_URL",
}

var telemetryEnv = &telemetry.Env{
	Endpoint:    "MINDCARE_OTEL_ENDPOINT",
	Insecure:    "MINDCARE_OTEL_INSECURE",
	Interval:    "MINDCARE_OTEL_INTERVAL",
	ServiceName: "MINDCARE_OTEL_SERVICE_NAME",
}

var loggingEnv = &logging.Env{
	Format: "MINDCARE_LOG_FORMAT",
	Level:  "MINDCARE_LOG_LEVEL",
}

// Config is the root configuration for the MindCare service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	Messaging       messaging.Config `toml:"messaging"`
	Auth            auth.Config      `toml:"auth"`
	Telemetry       telemetry.Config `toml:"telemetry"`
	Logging         logging.Config   `toml:"logging"`
	API             APIConfig        `toml:"api"`
	Fusion          FusionConfig     `toml:"fusion"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the MINDCARE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvMindcareEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Messaging.Merge(&overlay.Messaging)
	c.Auth.Merge(&overlay.Auth)
	c.Telemetry.Merge(&overlay.Telemetry)
	c.Logging.Merge(&overlay.Logging)
	c.API.Merge(&overlay.API)
	c.Fusion.Merge(&overlay.Fusion)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"messaging", func() error { return c.Messaging.Finalize(messagingEnv) }},
		{"auth", func() error { return c.Auth.Finalize(authEnv) }},
		{"telemetry", func() error { return c.Telemetry.Finalize(telemetryEnv) }},
		{"logging", func() error { return c.Logging.Finalize(loggingEnv) }},
		{"api", c.API.Finalize},
		{"fusion", c.Fusion.Finalize},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvMindcareShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvMindcareVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvMindcareEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
