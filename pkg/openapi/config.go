package openapi

import "os"

// Config holds the document title and description.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// ConfigEnv names the environment variables that override Config.
type ConfigEnv struct {
	Title       string
	Description string
}

// Finalize fills defaults and then applies environment overrides.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.Title = first(c.Title, "MindCare API")
	c.Description = first(c.Description, "Multimodal psychological risk fusion, clinician alerting and assessment sync.")

	if env != nil {
		c.Title = first(lookup(env.Title), c.Title)
		c.Description = first(lookup(env.Description), c.Description)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	c.Title = first(overlay.Title, c.Title)
	c.Description = first(overlay.Description, c.Description)
}

func first(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
