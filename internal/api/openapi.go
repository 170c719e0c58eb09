package api

import (
	"fmt"

	"github.com/wyxpro/mindcare/internal/alerts"
	"github.com/wyxpro/mindcare/internal/assessments"
	"github.com/wyxpro/mindcare/internal/config"
	"github.com/wyxpro/mindcare/internal/session"
	"github.com/wyxpro/mindcare/pkg/openapi"
	"github.com/wyxpro/mindcare/pkg/routes"
)

// buildSpec describes every route group as an OpenAPI document served
// relative to the module base path.
func buildSpec(cfg *config.Config, bearer bool, groups []routes.Group) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	if bearer {
		spec.RequireBearer("OIDC ID token issued by " + cfg.Auth.Issuer)
	}

	spec.Components.AddSchemas(assessments.Schemas)
	spec.Components.AddSchemas(alerts.Schemas)
	spec.Components.AddSchemas(session.Schemas)

	routes.Describe(spec, groups...)

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}
	return data, nil
}
