// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/verdant/internal/config"
	"github.com/JaimeStill/verdant/internal/infrastructure"
	"github.com/JaimeStill/verdant/pkg/middleware"
	"github.com/JaimeStill/verdant/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// Domain routes sit behind token verification; the OpenAPI document does not.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	protected := http.NewServeMux()
	groups := registerRoutes(protected, domain, cfg, runtime)

	docs, err := openAPIHandler(cfg, groups)
	if err != nil {
		return nil, fmt.Errorf("build openapi document: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /openapi.json", docs)
	mux.Handle("/", runtime.Auth.Middleware()(protected))

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
