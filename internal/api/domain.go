package api

import (
	"net/http"

	"github.com/JaimeStill/verdant/internal/classifier"
	"github.com/JaimeStill/verdant/internal/config"
	"github.com/JaimeStill/verdant/internal/diagnoses"
	"github.com/JaimeStill/verdant/internal/pipeline"
	"github.com/JaimeStill/verdant/internal/prompts"
	"github.com/JaimeStill/verdant/internal/recommendations"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Prompts         prompts.System
	Diagnoses       diagnoses.System
	Classifier      classifier.System
	Recommendations recommendations.Generator
	Pipeline        *pipeline.Coordinator
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	promptsSystem := prompts.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	diagnosesSystem := diagnoses.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	loader := classifier.NewLoader(
		&cfg.Classifier,
		&http.Client{Timeout: cfg.Classifier.FetchTimeoutDuration()},
		runtime.Logger,
	)

	classifierSystem := classifier.New(
		loader,
		classifier.NewVisionPredictor(runtime.Agent, promptsSystem, runtime.Logger),
		runtime.Logger,
	)

	generator := recommendations.New(runtime.Agent, promptsSystem, runtime.Logger)

	coordinator := pipeline.NewCoordinator(
		&cfg.Pipeline,
		classifierSystem,
		generator,
		diagnosesSystem,
		runtime.Logger,
	)

	return &Domain{
		Prompts:         promptsSystem,
		Diagnoses:       diagnosesSystem,
		Classifier:      classifierSystem,
		Recommendations: generator,
		Pipeline:        coordinator,
	}
}
