package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/wyxpro/mindcare/pkg/formatting"
	"github.com/wyxpro/mindcare/pkg/middleware"
	"github.com/wyxpro/mindcare/pkg/openapi"
	"github.com/wyxpro/mindcare/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "MINDCARE_CORS_ENABLED",
	Origins:          "MINDCARE_CORS_ORIGINS",
	AllowedMethods:   "MINDCARE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "MINDCARE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "MINDCARE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "MINDCARE_CORS_MAX_AGE",
}

var paginationEnv = &pagination.Env{
	DefaultPageSize: "MINDCARE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "MINDCARE_PAGINATION_MAX_PAGE_SIZE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "MINDCARE_OPENAPI_TITLE",
	Description: "MINDCARE_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, CORS, pagination and OpenAPI settings.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
	OpenAPI     openapi.Config        `toml:"openapi"`
}

// MaxBodySizeBytes returns MaxBodySize as a byte count.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxBodySize)
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base_path %q must start with /", c.BasePath)
	}
	if size, err := formatting.ParseBytes(c.MaxBodySize); err != nil {
		return fmt.Errorf("max_body_size: %w", err)
	} else if size <= 0 {
		return fmt.Errorf("max_body_size must be positive")
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("MINDCARE_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("MINDCARE_API_MAX_BODY_SIZE"); v != "" {
		c.MaxBodySize = v
	}
}
