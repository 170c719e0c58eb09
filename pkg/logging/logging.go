// Package logging builds the process slog logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config selects the handler format and minimum level.
type Config struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Format string
	Level  string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
}

// SlogLevel returns the configured level. Unknown values resolve to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) loadDefaults() {
	if c.Format == "" {
		c.Format = FormatText
	}
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Format != "" {
		if v := os.Getenv(env.Format); v != "" {
			c.Format = strings.ToLower(v)
		}
	}
	if env.Level != "" {
		if v := os.Getenv(env.Level); v != "" {
			c.Level = strings.ToLower(v)
		}
	}
}

func (c *Config) validate() error {
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("unsupported log format %q", c.Format)
	}
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.Level)
	}
	return nil
}

// New builds a logger writing to w and tags every record with the service name.
func New(w io.Writer, cfg Config, service string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", service)
}

// Init builds a stdout logger and installs it as the slog default.
func Init(cfg Config, service string) *slog.Logger {
	logger := New(os.Stdout, cfg, service)
	slog.SetDefault(logger)
	return logger
}
