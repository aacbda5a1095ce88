// Package agent wraps the Gemini generateContent API behind text and vision
// calls that return the model's text.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

var (
	ErrNoAPIKey      = errors.New("gemini api key required")
	ErrEmptyResponse = errors.New("model returned no text")
)

// Image is one inline image part of a vision request.
type Image struct {
	Data     []byte
	MIMEType string
}

// Request is a single-turn prompt. System is sent as the system
// instruction when set; JSON asks the model for an application/json reply.
type Request struct {
	System string
	Prompt string
	JSON   bool
}

// Agent sends single-turn prompts to a generative model.
type Agent interface {
	// Chat sends a text-only prompt to the chat model.
	Chat(ctx context.Context, req Request) (string, error)
	// Vision sends the prompt with images to the vision model.
	Vision(ctx context.Context, req Request, images ...Image) (string, error)
	ChatModel() string
	VisionModel() string
}

type gemini struct {
	client      *genai.Client
	chatModel   string
	visionModel string
	temperature *float32
	timeout     time.Duration
	logger      *slog.Logger
}

// New creates a Gemini-backed Agent. No request is made until first use.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (Agent, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	g := &gemini{
		client:      client,
		chatModel:   cfg.ChatModel,
		visionModel: cfg.VisionModel,
		timeout:     cfg.TimeoutDuration(),
		logger:      logger.With("system", "agent"),
	}
	if cfg.Temperature > 0 {
		t := float32(cfg.Temperature)
		g.temperature = &t
	}
	return g, nil
}

func (g *gemini) ChatModel() string   { return g.chatModel }
func (g *gemini) VisionModel() string { return g.visionModel }

func (g *gemini) Chat(ctx context.Context, req Request) (string, error) {
	return g.generate(ctx, g.chatModel, req, []*genai.Part{genai.NewPartFromText(req.Prompt)})
}

func (g *gemini) Vision(ctx context.Context, req Request, images ...Image) (string, error) {
	parts := make([]*genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	return g.generate(ctx, g.visionModel, req, parts)
}

func (g *gemini) generate(ctx context.Context, model string, req Request, parts []*genai.Part) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cfg := &genai.GenerateContentConfig{Temperature: g.temperature}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content with %s: %w", model, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%s: %w", model, ErrEmptyResponse)
	}

	g.logger.Debug("generation complete", "model", model, "parts", len(parts), "duration", time.Since(start))
	return text, nil
}
