package messaging

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds NATS connection parameters. Messaging is disabled when URL
// is empty.
type Config struct {
	URL            string `toml:"url"`
	Name           string `toml:"name"`
	SubjectPrefix  string `toml:"subject_prefix"`
	ConnectTimeout string `toml:"connect_timeout"`
	ReconnectWait  string `toml:"reconnect_wait"`
	MaxReconnects  int    `toml:"max_reconnects"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URL            string
	Name           string
	SubjectPrefix  string
	ConnectTimeout string
	ReconnectWait  string
	MaxReconnects  string
}

// Enabled reports whether a NATS server is configured.
func (c *Config) Enabled() bool {
	return c.URL != ""
}

// ConnectTimeoutDuration returns ConnectTimeout as a time.Duration.
func (c *Config) ConnectTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnectTimeout)
	return d
}

// ReconnectWaitDuration returns ReconnectWait as a time.Duration.
func (c *Config) ReconnectWaitDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReconnectWait)
	return d
}

// Subject joins the configured prefix and name.
func (c *Config) Subject(name string) string {
	if c.SubjectPrefix == "" {
		return name
	}
	return c.SubjectPrefix + "." + name
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
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.SubjectPrefix != "" {
		c.SubjectPrefix = overlay.SubjectPrefix
	}
	if overlay.ConnectTimeout != "" {
		c.ConnectTimeout = overlay.ConnectTimeout
	}
	if overlay.ReconnectWait != "" {
		c.ReconnectWait = overlay.ReconnectWait
	}
	if overlay.MaxReconnects != 0 {
		c.MaxReconnects = overlay.MaxReconnects
	}
}

func (c *Config) loadDefaults() {
	if c.Name == "" {
		c.Name = "mindcare"
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "mindcare"
	}
	if c.ConnectTimeout == "" {
		c.ConnectTimeout = "5s"
	}
	if c.ReconnectWait == "" {
		c.ReconnectWait = "2s"
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 60
	}
}

func (c *Config) loadEnv(env *Env) {
	for name, dst := range map[string]*string{
		env.URL:            &c.URL,
		env.Name:           &c.Name,
		env.SubjectPrefix:  &c.SubjectPrefix,
		env.ConnectTimeout: &c.ConnectTimeout,
		env.ReconnectWait:  &c.ReconnectWait,
	} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if env.MaxReconnects != "" {
		if v := os.Getenv(env.MaxReconnects); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxReconnects = n
			}
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ConnectTimeout); err != nil {
		return fmt.Errorf("invalid connect_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.ReconnectWait); err != nil {
		return fmt.Errorf("invalid reconnect_wait: %w", err)
	}
	if c.MaxReconnects < -1 {
		return fmt.Errorf("max_reconnects must be -1 (unlimited) or greater")
	}
	return nil
}
