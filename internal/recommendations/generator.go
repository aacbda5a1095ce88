package recommendations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/verdant/internal/prompts"
	"github.com/JaimeStill/verdant/pkg/agent"
	"github.com/JaimeStill/verdant/pkg/formatting"
)

// Generator turns a classification summary into a recommendation.
type Generator interface {
	Generate(ctx context.Context, summary Summary) (*Recommendation, error)
}

type generator struct {
	agent   agent.Agent
	prompts prompts.Source
	logger  *slog.Logger
}

// New creates a Generator backed by the chat model. Each call sends one
// request; failures are not retried.
func New(a agent.Agent, src prompts.Source, logger *slog.Logger) Generator {
	return &generator{
		agent:   a,
		prompts: src,
		logger:  logger.With("system", "recommendations"),
	}
}

func (g *generator) Generate(ctx context.Context, summary Summary) (*Recommendation, error) {
	system, err := prompts.Compose(ctx, g.prompts, prompts.StageRecommend)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerateFailed, err)
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("%w: encode summary: %w", ErrGenerateFailed, err)
	}

	text, err := g.agent.Chat(ctx, agent.Request{
		System: system,
		Prompt: "Here is the prediction data:\n" + string(data),
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerateFailed, err)
	}

	rec, err := Decode(text)
	if err != nil {
		g.logger.Warn("rejected chat reply", "diagnosis", summary.Diagnosis, "reply", formatting.Truncate(text, 200))
		return nil, fmt.Errorf("%w: %w", ErrGenerateFailed, err)
	}

	g.logger.Debug("recommendation generated",
		"diagnosis", summary.Diagnosis,
		"severity", rec.Severity,
		"symptoms", len(rec.KeySymptoms),
	)
	return rec, nil
}
