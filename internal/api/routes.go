package api

import (
	"net/http"

	"github.com/wyxpro/mindcare/internal/config"
	"github.com/wyxpro/mindcare/internal/session"
	"github.com/wyxpro/mindcare/pkg/auth"
	"github.com/wyxpro/mindcare/pkg/openapi"
	"github.com/wyxpro/mindcare/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, cfg *config.Config, runtime *Runtime) error {
	authenticate := auth.Middleware(runtime.Verifier, runtime.Logger)

	groups := []routes.Group{
		domain.Assessments.Handler().Routes(),
		domain.Alerts.Handler().Routes(),
		session.NewHandler(domain.Sessions, runtime.Logger).Routes(),
	}

	for _, g := range groups {
		routes.Register(mux, g.With(authenticate))
	}

	spec, err := buildSpec(cfg, runtime.Verifier != nil, groups)
	if err != nil {
		return err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))
	return nil
}
