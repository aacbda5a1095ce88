package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/JaimeStill/verdant/internal/prompts"
	"github.com/JaimeStill/verdant/pkg/agent"
	"github.com/JaimeStill/verdant/pkg/formatting"
)

// Predictor runs inference on a preprocessed PNG for a loaded model and
// returns one prediction per model label, in label order.
type Predictor interface {
	Predict(ctx context.Context, m *Model, png []byte) ([]Prediction, error)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, m *Model, png []byte) ([]Prediction, error)

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, m *Model, png []byte) ([]Prediction, error) {
	return f(ctx, m, png)
}

type visionPredictor struct {
	agent   agent.Agent
	prompts prompts.Source
	logger  *slog.Logger
}

// NewVisionPredictor scores images with a vision model constrained to the
// loaded model's label set.
func NewVisionPredictor(a agent.Agent, src prompts.Source, logger *slog.Logger) Predictor {
	return &visionPredictor{
		agent:   a,
		prompts: src,
		logger:  logger.With("system", "classifier-predictor"),
	}
}

func (p *visionPredictor) Predict(ctx context.Context, m *Model, png []byte) ([]Prediction, error) {
	system, err := prompts.Compose(ctx, p.prompts, prompts.StageClassify)
	if err != nil {
		return nil, err
	}

	labels, err := json.Marshal(m.Labels)
	if err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}

	resp, err := p.agent.Vision(ctx, agent.Request{
		System: system,
		Prompt: "Labels: " + string(labels),
		JSON:   true,
	}, agent.Image{Data: png, MIMEType: "image/png"})
	if err != nil {
		return nil, err
	}

	scores, err := formatting.Parse[map[string]float64](resp)
	if err != nil {
		p.logger.Warn("unparseable vision reply", "model", m.Name, "reply", formatting.Truncate(resp, 200))
		return nil, err
	}

	for label := range scores {
		if !slices.Contains(m.Labels, label) {
			p.logger.Warn("dropping unknown label", "label", label, "model", m.Name)
		}
	}

	return align(m.Labels, scores), nil
}
