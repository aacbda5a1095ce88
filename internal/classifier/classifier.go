// Package classifier loads the leaf image model and scores photos against
// its labels.
package classifier

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/JaimeStill/verdant/pkg/imaging"
)

// System loads the model and classifies decoded images with it.
type System interface {
	// Load returns the cached model, fetching it on first use.
	Load(ctx context.Context) (*Model, error)
	// Model returns the cached model or nil.
	Model() *Model
	// Reset drops the cached model.
	Reset()
	// Classify scores img against the loaded model's labels. It fails with
	// ErrModelNotLoaded when Load has not succeeded.
	Classify(ctx context.Context, img image.Image) ([]Prediction, error)
}

type classifier struct {
	*Loader
	predictor Predictor
	logger    *slog.Logger
}

// New creates a classifier System.
func New(loader *Loader, predictor Predictor, logger *slog.Logger) System {
	return &classifier{
		Loader:    loader,
		predictor: predictor,
		logger:    logger.With("system", "classifier"),
	}
}

func (c *classifier) Classify(ctx context.Context, img image.Image) ([]Prediction, error) {
	m := c.Model()
	if m == nil {
		return nil, ErrModelNotLoaded
	}

	data, err := imaging.EncodePNG(imaging.Square(img, m.ImageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassifyFailed, err)
	}

	predictions, err := c.predictor.Predict(ctx, m, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassifyFailed, err)
	}
	if len(predictions) == 0 {
		return nil, ErrNoPredictions
	}

	c.logger.Debug("image classified", "model", m.Name, "labels", len(predictions))
	return predictions, nil
}
