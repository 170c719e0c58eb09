package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/history"
	"github.com/wyxpro/mindcare/internal/reportsync"
	"github.com/wyxpro/mindcare/internal/session"
)

const (
	EnvFusionWeights         = "MINDCARE_FUSION_WEIGHTS"
	EnvFusionHistoryCapacity = "MINDCARE_FUSION_HISTORY_CAPACITY"
	EnvFusionRetryDelay      = "MINDCARE_FUSION_RETRY_DELAY"
	EnvFusionSyncRetention   = "MINDCARE_FUSION_SYNC_RETENTION"
	EnvFusionSessionIdle     = "MINDCARE_FUSION_SESSION_IDLE_TIMEOUT"
)

// PlaceholderConfig holds the raw readings substituted for a missing modality.
type PlaceholderConfig struct {
	Scale      float64 `toml:"scale"`
	Voice      float64 `toml:"voice"`
	Expression float64 `toml:"expression"`
}

// FusionConfig holds the scoring weights and session behavior.
type FusionConfig struct {
	Weights         fusion.WeightSet   `toml:"weights"`
	HistoryCapacity int                `toml:"history_capacity"`
	RetryDelay      string             `toml:"retry_delay"`
	Placeholders    *PlaceholderConfig `toml:"placeholders"`
	// SyncRetention bounds how many finished sync states stay queryable.
	SyncRetention      int    `toml:"sync_retention"`
	SessionIdleTimeout string `toml:"session_idle_timeout"`
}

// SessionIdleTimeoutDuration returns SessionIdleTimeout as a time.Duration.
func (c *FusionConfig) SessionIdleTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.SessionIdleTimeout)
	return d
}

// RetryDelayDuration returns RetryDelay as a time.Duration.
func (c *FusionConfig) RetryDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryDelay)
	return d
}

// PlaceholderReadings returns the configured placeholders as fusion values.
func (c *FusionConfig) PlaceholderReadings() fusion.Placeholders {
	if c.Placeholders == nil {
		return fusion.DefaultPlaceholders()
	}
	return fusion.Placeholders{
		Scale:      c.Placeholders.Scale,
		Voice:      c.Placeholders.Voice,
		Expression: c.Placeholders.Expression,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *FusionConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Weights merge as a set.
func (c *FusionConfig) Merge(overlay *FusionConfig) {
	if !overlay.Weights.IsZero() {
		c.Weights = overlay.Weights
	}
	if overlay.HistoryCapacity != 0 {
		c.HistoryCapacity = overlay.HistoryCapacity
	}
	if overlay.RetryDelay != "" {
		c.RetryDelay = overlay.RetryDelay
	}
	if overlay.Placeholders != nil {
		c.Placeholders = overlay.Placeholders
	}
	if overlay.SyncRetention != 0 {
		c.SyncRetention = overlay.SyncRetention
	}
	if overlay.SessionIdleTimeout != "" {
		c.SessionIdleTimeout = overlay.SessionIdleTimeout
	}
}

func (c *FusionConfig) loadDefaults() {
	if c.Weights.IsZero() {
		c.Weights = fusion.DefaultWeights()
	}
	if c.HistoryCapacity == 0 {
		c.HistoryCapacity = history.DefaultCapacity
	}
	if c.RetryDelay == "" {
		c.RetryDelay = reportsync.RetryDelay.String()
	}
	if c.SyncRetention == 0 {
		c.SyncRetention = reportsync.DefaultRetention
	}
	if c.SessionIdleTimeout == "" {
		c.SessionIdleTimeout = session.DefaultIdleTimeout.String()
	}
}

func (c *FusionConfig) loadEnv() error {
	if v := os.Getenv(EnvFusionWeights); v != "" {
		w, err := parseWeights(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFusionWeights, err)
		}
		c.Weights = w
	}
	if v := os.Getenv(EnvFusionHistoryCapacity); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HistoryCapacity = n
		}
	}
	if v := os.Getenv(EnvFusionRetryDelay); v != "" {
		c.RetryDelay = v
	}
	if v := os.Getenv(EnvFusionSyncRetention); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SyncRetention = n
		}
	}
	if v := os.Getenv(EnvFusionSessionIdle); v != "" {
		c.SessionIdleTimeout = v
	}
	return nil
}

func (c *FusionConfig) validate() error {
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if c.HistoryCapacity < 1 {
		return fmt.Errorf("history_capacity must be positive")
	}
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil {
		return fmt.Errorf("invalid retry_delay: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("retry_delay must not be negative")
	}

	if c.SyncRetention < 1 {
		return fmt.Errorf("sync_retention must be positive")
	}
	idle, err := time.ParseDuration(c.SessionIdleTimeout)
	if err != nil {
		return fmt.Errorf("invalid session_idle_timeout: %w", err)
	}
	if idle <= 0 {
		return fmt.Errorf("session_idle_timeout must be positive")
	}

	p := c.PlaceholderReadings()
	for _, in := range fusion.Readings(p).Inputs() {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("placeholders: %w", err)
		}
	}
	return nil
}

// parseWeights reads "scale,voice,expression".
func parseWeights(s string) (fusion.WeightSet, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fusion.WeightSet{}, fmt.Errorf("want scale,voice,expression, got %q", s)
	}

	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fusion.WeightSet{}, fmt.Errorf("parse weight %q: %w", p, err)
		}
		vals[i] = v
	}
	return fusion.WeightSet{Scale: vals[0], Voice: vals[1], Expression: vals[2]}, nil
}
