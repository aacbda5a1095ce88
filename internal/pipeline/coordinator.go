// Package pipeline runs a leaf photo through capture, classification,
// recommendation, and persistence, and reports where the result lives.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/JaimeStill/verdant/internal/classifier"
	"github.com/JaimeStill/verdant/internal/config"
	"github.com/JaimeStill/verdant/internal/diagnoses"
	"github.com/JaimeStill/verdant/internal/recommendations"
)

// Classifier is the model-facing part of the pipeline.
type Classifier interface {
	Load(ctx context.Context) (*classifier.Model, error)
	Model() *classifier.Model
	Classify(ctx context.Context, img image.Image) ([]classifier.Prediction, error)
}

// Persister stores a completed analysis.
type Persister interface {
	Create(ctx context.Context, cmd diagnoses.CreateCommand) (*diagnoses.Diagnosis, error)
}

// Observer receives a Progress event on every session transition.
// Observers run synchronously on the analysis goroutine.
type Observer func(Progress)

// Outcome is the result of a successful run.
type Outcome struct {
	Diagnosis *diagnoses.Diagnosis `json:"diagnosis"`
	Location  string               `json:"location"`
	Session   *Session             `json:"session"`
}

// Coordinator sequences the analysis stages. Stages run strictly in order
// and are never retried; a failed session is terminal.
type Coordinator struct {
	classifier Classifier
	generator  recommendations.Generator
	persister  Persister
	logger     *slog.Logger
	observers  []Observer

	classifyTimeout time.Duration
	generateTimeout time.Duration
	persistTimeout  time.Duration
	detailRoute     string
	maxImagePixels  int
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	cfg *config.PipelineConfig,
	cls Classifier,
	gen recommendations.Generator,
	persister Persister,
	logger *slog.Logger,
	observers ...Observer,
) *Coordinator {
	return &Coordinator{
		classifier:      cls,
		generator:       gen,
		persister:       persister,
		logger:          logger.With("system", "pipeline"),
		observers:       observers,
		classifyTimeout: cfg.ClassifyTimeoutDuration(),
		generateTimeout: cfg.GenerateTimeoutDuration(),
		persistTimeout:  cfg.PersistTimeoutDuration(),
		detailRoute:     cfg.DetailRoute,
		maxImagePixels:  cfg.MaxImagePixels,
	}
}

// Observe registers an observer for subsequent transitions. It must not
// be called while analyses are running.
func (c *Coordinator) Observe(o Observer) {
	c.observers = append(c.observers, o)
}

// Location returns the detail route of a diagnosis.
func (c *Coordinator) Location(d *diagnoses.Diagnosis) string {
	return strings.ReplaceAll(c.detailRoute, "{id}", d.ID.String())
}

// Open validates cropType and makes sure the model is loaded. No session
// is created when either fails.
func (c *Coordinator) Open(ctx context.Context, cropType string, userID *string) (*Session, error) {
	crop, err := ParseCropType(cropType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, cropType)
	}

	if _, err := c.classifier.Load(ctx); err != nil {
		return nil, err
	}

	s := NewSession(crop, userID)
	c.logger.Info("session opened", "session", s.ID, "crop", s.CropType)
	return s, nil
}

// Capture runs the capture stage on s and notifies observers on success.
func (c *Coordinator) Capture(ctx context.Context, s *Session, files []Upload) error {
	if err := Capture(ctx, s, files, c.maxImagePixels); err != nil {
		c.logger.Warn("upload rejected", "session", s.ID, "files", len(files), "error", err)
		return err
	}
	c.logger.Info("stage complete", "session", s.ID, "stage", StageCapture, "files", len(s.Files))
	c.notify(s)
	return nil
}

// Run classifies, generates, and persists a captured session. Each stage
// is bounded by its own timeout derived from ctx. On failure the session
// ends in StatusError.
func (c *Coordinator) Run(ctx context.Context, s *Session) (*Outcome, error) {
	if s.Status != StatusUploading || s.image == nil {
		return nil, fmt.Errorf("%w: run from %s", ErrInvalidTransition, s.Status)
	}

	s.Status = StatusPredicting
	c.notify(s)

	d, err := c.run(ctx, s)
	if err != nil {
		s.Status = StatusError
		c.logger.Error("analysis failed", "session", s.ID, "stage", s.Stage, "error", err)
		c.notify(s)
		return nil, err
	}

	s.Status = StatusComplete
	s.Progress = progressComplete
	c.notify(s)

	location := c.Location(d)
	c.logger.Info("analysis complete", "session", s.ID, "diagnosis", d.ID, "location", location)
	return &Outcome{Diagnosis: d, Location: location, Session: s}, nil
}

// Analyze opens a session, captures files into it, and runs it.
func (c *Coordinator) Analyze(ctx context.Context, cropType string, userID *string, files []Upload) (*Outcome, error) {
	s, err := c.Open(ctx, cropType, userID)
	if err != nil {
		return nil, err
	}
	if err := c.Capture(ctx, s, files); err != nil {
		return nil, err
	}
	return c.Run(ctx, s)
}

func (c *Coordinator) run(ctx context.Context, s *Session) (*diagnoses.Diagnosis, error) {
	model := c.classifier.Model()
	if model == nil {
		s.Stage = StageClassify
		return nil, classifier.ErrModelNotLoaded
	}

	if err := c.classify(ctx, s); err != nil {
		return nil, err
	}
	if err := c.generate(ctx, s); err != nil {
		return nil, err
	}
	return c.persist(ctx, s, model)
}

func (c *Coordinator) classify(ctx context.Context, s *Session) error {
	s.Stage = StageClassify
	ctx, cancel := context.WithTimeout(ctx, c.classifyTimeout)
	defer cancel()

	predictions, err := c.classifier.Classify(ctx, s.image.img)
	if err != nil {
		return err
	}

	result, err := classifier.Top(predictions)
	if err != nil {
		return err
	}

	s.Predictions = predictions
	s.Result = &result
	s.Progress = progressClassified
	c.logger.Info("stage complete", "session", s.ID, "stage", StageClassify,
		"label", result.Label, "confidence", result.Confidence.StringFixed(1))
	c.notify(s)
	return nil
}

func (c *Coordinator) generate(ctx context.Context, s *Session) error {
	s.Stage = StageGenerate
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	rec, err := c.generator.Generate(ctx, recommendations.Summary{
		UserID:     s.UserID,
		CropName:   string(s.CropType),
		Confidence: s.Result.Confidence.StringFixed(1),
		Diagnosis:  s.Result.Label,
	})
	if err != nil {
		return err
	}

	s.Recommendation = rec
	s.Progress = progressGenerated
	c.logger.Info("stage complete", "session", s.ID, "stage", StageGenerate, "severity", rec.Severity)
	c.notify(s)
	return nil
}

func (c *Coordinator) persist(ctx context.Context, s *Session, model *classifier.Model) (*diagnoses.Diagnosis, error) {
	s.Stage = StagePersist
	ctx, cancel := context.WithTimeout(ctx, c.persistTimeout)
	defer cancel()

	d, err := c.persister.Create(ctx, diagnoses.CreateCommand{
		UserID:        s.UserID,
		CropName:      string(s.CropType),
		Confidence:    s.Result.Confidence,
		Diagnosis:     s.Result.Label,
		Severity:      s.Recommendation.Severity,
		TreatmentPlan: s.Recommendation.TreatmentPlan,
		KeySymptoms:   s.Recommendation.KeySymptoms,
		ModelName:     model.Name,
		Image: &diagnoses.Image{
			Data:        s.image.data,
			Filename:    s.image.filename,
			ContentType: s.image.contentType,
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	c.logger.Info("stage complete", "session", s.ID, "stage", StagePersist, "diagnosis", d.ID)
	return d, nil
}

func (c *Coordinator) notify(s *Session) {
	p := s.progress()
	for _, o := range c.observers {
		o(p)
	}
}
