package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/verdant/internal/api"
	"github.com/JaimeStill/verdant/internal/config"
	"github.com/JaimeStill/verdant/internal/infrastructure"
	"github.com/JaimeStill/verdant/pkg/lifecycle"
	"github.com/JaimeStill/verdant/pkg/middleware"
	"github.com/JaimeStill/verdant/pkg/module"
	"github.com/JaimeStill/verdant/web/scalar"
)

const scalarPrefix = "/scalar"

// Modules holds the mounted HTTP modules.
type Modules struct {
	API    *module.Module
	Scalar *module.Module
}

// NewModules builds the API module and the API reference that reads its
// OpenAPI document.
func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	reference := scalar.NewModule(scalarPrefix, cfg.API.BasePath+"/openapi.json")
	reference.Use(middleware.Logger(infra.Logger.With("module", "scalar")))

	return &Modules{API: apiModule, Scalar: reference}, nil
}

// Mount registers every module on router.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Scalar)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()
	router.HandleNative("GET /healthz", healthz)
	router.HandleNative("GET /readyz", readyz(infra.Lifecycle))
	return router
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	probe(w, http.StatusOK, "ok")
}

func readyz(lc *lifecycle.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !lc.Ready() {
			probe(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		probe(w, http.StatusOK, "ready")
	}
}

func probe(w http.ResponseWriter, status int, state string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"status": state})
}
