package classifier_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/verdant/internal/classifier"
	"github.com/JaimeStill/verdant/internal/prompts"
	"github.com/JaimeStill/verdant/pkg/agent"
	"github.com/JaimeStill/verdant/pkg/formatting"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func leaf() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := range 480 {
		for x := range 640 {
			img.Set(x, y, color.RGBA{R: 40, G: 160, B: 60, A: 255})
		}
	}
	return img
}

func TestClassifyRequiresModel(t *testing.T) {
	ms := newModelServer(t, modelJSON, metadataJSON, http.StatusOK)
	called := false
	sys := classifier.New(newLoader(ms), classifier.PredictorFunc(
		func(context.Context, *classifier.Model, []byte) ([]classifier.Prediction, error) {
			called = true
			return nil, nil
		}), discard)

	if _, err := sys.Classify(context.Background(), leaf()); !errors.Is(err, classifier.ErrModelNotLoaded) {
		t.Fatalf("err = %v, want ErrModelNotLoaded", err)
	}
	if called {
		t.Error("predictor called without a model")
	}
}

func TestClassifyPreprocesses(t *testing.T) {
	ms := newModelServer(t, modelJSON, metadataJSON, http.StatusOK)

	var size image.Point
	sys := classifier.New(newLoader(ms), classifier.PredictorFunc(
		func(_ context.Context, m *classifier.Model, data []byte) ([]classifier.Prediction, error) {
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, err
			}
			size = img.Bounds().Size()
			return []classifier.Prediction{{Label: m.Labels[0], Probability: 1}}, nil
		}), discard)

	if _, err := sys.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	preds, err := sys.Classify(context.Background(), leaf())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if size != image.Pt(224, 224) {
		t.Errorf("predictor input = %v, want 224x224", size)
	}
	if len(preds) != 1 || preds[0].Label != "Healthy" {
		t.Errorf("predictions = %+v", preds)
	}
}

func TestClassifyPredictorError(t *testing.T) {
	ms := newModelServer(t, modelJSON, metadataJSON, http.StatusOK)
	sys := classifier.New(newLoader(ms), classifier.PredictorFunc(
		func(context.Context, *classifier.Model, []byte) ([]classifier.Prediction, error) {
			return nil, errors.New("upstream 500")
		}), discard)

	sys.Load(context.Background())
	if _, err := sys.Classify(context.Background(), leaf()); !errors.Is(err, classifier.ErrClassifyFailed) {
		t.Errorf("err = %v, want ErrClassifyFailed", err)
	}
}

type fakeAgent struct {
	response string
	err      error
	request  agent.Request
	images   []agent.Image
}

func (f *fakeAgent) Chat(_ context.Context, req agent.Request) (string, error) {
	f.request = req
	return f.response, f.err
}

func (f *fakeAgent) Vision(_ context.Context, req agent.Request, images ...agent.Image) (string, error) {
	f.request = req
	f.images = images
	return f.response, f.err
}

func (f *fakeAgent) ChatModel() string   { return "gemini-test" }
func (f *fakeAgent) VisionModel() string { return "gemini-test" }

type staticPrompts struct{}

func (staticPrompts) Instructions(_ context.Context, stage prompts.Stage) (string, error) {
	return prompts.DefaultInstructions(stage)
}

func (staticPrompts) Spec(_ context.Context, stage prompts.Stage) (string, error) {
	return prompts.Spec(stage)
}

func TestVisionPredictor(t *testing.T) {
	model := loadModel(t)
	fa := &fakeAgent{response: "```json\n{\"Leaf Blight\": 0.2, \"Nitrogen Deficiency\": 1.4, \"Powdery Mildew\": 0.5}\n```"}
	p := classifier.NewVisionPredictor(fa, staticPrompts{}, discard)

	preds, err := p.Predict(context.Background(), model, []byte("png"))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	want := []classifier.Prediction{
		{Label: "Healthy", Probability: 0},
		{Label: "Nitrogen Deficiency", Probability: 1},
		{Label: "Leaf Blight", Probability: 0.2},
	}
	if len(preds) != len(want) {
		t.Fatalf("predictions = %+v", preds)
	}
	for i := range want {
		if preds[i] != want[i] {
			t.Errorf("prediction %d = %+v, want %+v", i, preds[i], want[i])
		}
	}

	if !fa.request.JSON {
		t.Error("request did not ask for JSON")
	}
	if !strings.Contains(fa.request.Prompt, `"Nitrogen Deficiency"`) {
		t.Errorf("prompt missing labels: %q", fa.request.Prompt)
	}
	if !strings.Contains(fa.request.System, "plant pathologist") {
		t.Error("system prompt missing classify instructions")
	}
	if len(fa.images) != 1 || fa.images[0].MIMEType != "image/png" {
		t.Errorf("images = %+v", fa.images)
	}
}

func TestVisionPredictorUnparseable(t *testing.T) {
	model := loadModel(t)
	p := classifier.NewVisionPredictor(&fakeAgent{response: "I cannot see a leaf."}, staticPrompts{}, discard)

	_, err := p.Predict(context.Background(), model, []byte("png"))
	if !errors.Is(err, formatting.ErrParseFailed) {
		t.Fatalf("err = %v, want ErrParseFailed", err)
	}
	if strings.Contains(err.Error(), "cannot see") {
		t.Errorf("error exposes reply text: %v", err)
	}
}

func loadModel(t *testing.T) *classifier.Model {
	t.Helper()
	ms := newModelServer(t, modelJSON, metadataJSON, http.StatusOK)
	m, err := newLoader(ms).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}
