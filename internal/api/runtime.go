package api

import (
	"github.com/wyxpro/mindcare/internal/config"
	"github.com/wyxpro/mindcare/internal/infrastructure"
	"github.com/wyxpro/mindcare/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Fusion     config.FusionConfig
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		Fusion:         cfg.Fusion,
	}
}
