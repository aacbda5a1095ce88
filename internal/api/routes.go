package api

import (
	"net/http"

	"github.com/JaimeStill/verdant/internal/config"
	"github.com/JaimeStill/verdant/internal/pipeline"
	"github.com/JaimeStill/verdant/pkg/openapi"
	"github.com/JaimeStill/verdant/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) []routes.Group {
	groups := []routes.Group{
		pipeline.NewHandler(
			domain.Pipeline,
			domain.Classifier,
			runtime.Logger,
			cfg.API.MaxUploadSizeBytes(),
		).Routes(),
		domain.Diagnoses.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
	}

	routes.Register(mux, groups...)
	return groups
}

func openAPIHandler(cfg *config.Config, groups []routes.Group) (http.HandlerFunc, error) {
	spec := openapi.NewSpec(&cfg.API.OpenAPI, cfg.Version)
	routes.Document(spec, groups...)
	return spec.Handler()
}
