package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/JaimeStill/verdant/internal/classifier"
	"github.com/JaimeStill/verdant/internal/config"
	"github.com/JaimeStill/verdant/internal/diagnoses"
	"github.com/JaimeStill/verdant/internal/pipeline"
	"github.com/JaimeStill/verdant/internal/prompts"
	"github.com/JaimeStill/verdant/internal/recommendations"
	"github.com/JaimeStill/verdant/pkg/agent"
	"github.com/JaimeStill/verdant/pkg/imaging"
)

const reply = `{"severity":"Critical","treatment_plan":"Apply Urea 46-0-0","key_symptoms":["Yellowing tips"]}`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func leafPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := range 32 {
		for y := range 24 {
			img.Set(x, y, color.RGBA{G: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fakeClassifier struct {
	model       *classifier.Model
	loadErr     error
	predictions []classifier.Prediction
	err         error
	classified  int
}

func (f *fakeClassifier) Load(context.Context) (*classifier.Model, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.model, nil
}

func (f *fakeClassifier) Model() *classifier.Model { return f.model }

func (f *fakeClassifier) Classify(context.Context, image.Image) ([]classifier.Prediction, error) {
	f.classified++
	return f.predictions, f.err
}

type chatAgent struct {
	response string
	err      error
}

func (a chatAgent) Chat(context.Context, agent.Request) (string, error) { return a.response, a.err }

func (chatAgent) Vision(context.Context, agent.Request, ...agent.Image) (string, error) {
	return "", errors.New("unexpected vision call")
}

func (chatAgent) ChatModel() string   { return "gemini-test" }
func (chatAgent) VisionModel() string { return "gemini-test" }

type defaultPrompts struct{}

func (defaultPrompts) Instructions(_ context.Context, stage prompts.Stage) (string, error) {
	return prompts.DefaultInstructions(stage)
}

func (defaultPrompts) Spec(_ context.Context, stage prompts.Stage) (string, error) {
	return prompts.Spec(stage)
}

type fakePersister struct {
	err   error
	calls int
	cmd   diagnoses.CreateCommand
}

func (f *fakePersister) Create(_ context.Context, cmd diagnoses.CreateCommand) (*diagnoses.Diagnosis, error) {
	f.calls++
	f.cmd = cmd
	if f.err != nil {
		return nil, f.err
	}
	return &diagnoses.Diagnosis{
		ID:            uuid.MustParse("3f2b6c1e-8d0a-4c55-9a43-6b1f0e2d7c19"),
		UserID:        cmd.UserID,
		CropName:      cmd.CropName,
		Confidence:    cmd.Confidence,
		Diagnosis:     cmd.Diagnosis,
		Severity:      cmd.Severity,
		TreatmentPlan: cmd.TreatmentPlan,
		KeySymptoms:   cmd.KeySymptoms,
		ModelName:     cmd.ModelName,
		CreatedAt:     time.Now(),
	}, nil
}

func pipelineConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		ClassifyTimeout: "5s",
		GenerateTimeout: "5s",
		PersistTimeout:  "5s",
		DetailRoute:     "/dashboard/analysis/{id}",
		MaxImagePixels:  1 << 20,
	}
}

type fixture struct {
	classifier *fakeClassifier
	persister  *fakePersister
	events     []pipeline.Progress
	coord      *pipeline.Coordinator
}

func newFixture(response string) *fixture {
	f := &fixture{
		classifier: &fakeClassifier{
			model: &classifier.Model{
				Name:      "leaf-health",
				Labels:    []string{"Healthy", "Nitrogen Deficiency"},
				ImageSize: 224,
			},
			predictions: []classifier.Prediction{
				{Label: "Healthy", Probability: 0.03},
				{Label: "Nitrogen Deficiency", Probability: 0.97},
			},
		},
		persister: &fakePersister{},
	}
	gen := recommendations.New(chatAgent{response: response}, defaultPrompts{}, discard())
	f.coord = pipeline.NewCoordinator(pipelineConfig(), f.classifier, gen, f.persister, discard(),
		func(p pipeline.Progress) { f.events = append(f.events, p) })
	return f
}

func TestParseCropType(t *testing.T) {
	tests := []struct {
		in      string
		want    pipeline.CropType
		wantErr bool
	}{
		{"", pipeline.CropMaize, false},
		{"tomato", pipeline.CropTomato, false},
		{" Wheat ", pipeline.CropWheat, false},
		{"OTHER", pipeline.CropOther, false},
		{"rice", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := pipeline.ParseCropType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCapture(t *testing.T) {
	data := leafPNG(t)

	t.Run("non-image upload leaves session unchanged", func(t *testing.T) {
		s := pipeline.NewSession(pipeline.CropMaize, nil)
		err := pipeline.Capture(context.Background(), s, []pipeline.Upload{
			{Name: "notes.txt", ContentType: "text/plain", Data: []byte("not a leaf")},
		}, 1<<20)
		if !errors.Is(err, pipeline.ErrNoImages) {
			t.Fatalf("err = %v, want ErrNoImages", err)
		}
		if s.Status != pipeline.StatusIdle || s.Progress != 0 || len(s.Files) != 0 {
			t.Errorf("session changed: %+v", s)
		}
	})

	t.Run("undecodable image leaves session unchanged", func(t *testing.T) {
		s := pipeline.NewSession(pipeline.CropMaize, nil)
		err := pipeline.Capture(context.Background(), s, []pipeline.Upload{
			{Name: "broken.png", ContentType: "image/png", Data: []byte("garbage")},
		}, 1<<20)
		if !errors.Is(err, pipeline.ErrInvalidImage) {
			t.Fatalf("err = %v, want ErrInvalidImage", err)
		}
		if s.Status != pipeline.StatusIdle {
			t.Errorf("status = %s, want idle", s.Status)
		}
	})

	t.Run("image over pixel budget leaves session unchanged", func(t *testing.T) {
		s := pipeline.NewSession(pipeline.CropMaize, nil)
		err := pipeline.Capture(context.Background(), s, []pipeline.Upload{
			{Name: "huge.png", ContentType: "image/png", Data: data},
		}, 32*24-1)
		if !errors.Is(err, pipeline.ErrInvalidImage) {
			t.Fatalf("err = %v, want ErrInvalidImage", err)
		}
		if !errors.Is(err, imaging.ErrTooLarge) {
			t.Errorf("err = %v, want ErrTooLarge in chain", err)
		}
		if got := pipeline.MapHTTPStatus(err); got != 400 {
			t.Errorf("status code = %d, want 400", got)
		}
		if s.Status != pipeline.StatusIdle || len(s.Files) != 0 {
			t.Errorf("session changed: %+v", s)
		}
	})

	t.Run("first image analyzed, rest skipped", func(t *testing.T) {
		s := pipeline.NewSession(pipeline.CropTomato, nil)
		err := pipeline.Capture(context.Background(), s, []pipeline.Upload{
			{Name: "notes.txt", ContentType: "text/plain", Data: []byte("x")},
			{Name: "leaf.png", ContentType: "application/octet-stream", Data: data},
			{Name: "second.png", ContentType: "image/png", Data: data},
		}, 1<<20)
		if err != nil {
			t.Fatalf("Capture: %v", err)
		}
		if s.Status != pipeline.StatusUploading || s.Progress != 25 {
			t.Errorf("status = %s progress = %d", s.Status, s.Progress)
		}
		if len(s.Files) != 2 {
			t.Fatalf("files = %+v, want 2 images", s.Files)
		}
		if s.Files[0].Name != "leaf.png" || s.Files[0].Status != pipeline.FileAnalyzed {
			t.Errorf("files[0] = %+v", s.Files[0])
		}
		if s.Files[1].Status != pipeline.FileSkipped {
			t.Errorf("files[1] = %+v", s.Files[1])
		}
	})

	t.Run("rejects capture twice", func(t *testing.T) {
		s := pipeline.NewSession(pipeline.CropMaize, nil)
		files := []pipeline.Upload{{Name: "leaf.png", ContentType: "image/png", Data: data}}
		if err := pipeline.Capture(context.Background(), s, files, 1<<20); err != nil {
			t.Fatal(err)
		}
		if err := pipeline.Capture(context.Background(), s, files, 1<<20); !errors.Is(err, pipeline.ErrInvalidTransition) {
			t.Errorf("err = %v, want ErrInvalidTransition", err)
		}
	})
}

func TestAnalyze(t *testing.T) {
	f := newFixture("```json\n" + reply + "\n```")
	uid := "grower-7"

	out, err := f.coord.Analyze(context.Background(), "maize", &uid, []pipeline.Upload{
		{Name: "leaf.png", ContentType: "image/png", Data: leafPNG(t)},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if out.Location != "/dashboard/analysis/3f2b6c1e-8d0a-4c55-9a43-6b1f0e2d7c19" {
		t.Errorf("location = %s", out.Location)
	}
	if out.Session.Status != pipeline.StatusComplete || out.Session.Progress != 100 {
		t.Errorf("session = %s %d", out.Session.Status, out.Session.Progress)
	}

	cmd := f.persister.cmd
	if f.persister.calls != 1 {
		t.Errorf("persist calls = %d, want 1", f.persister.calls)
	}
	if cmd.Diagnosis != "Nitrogen Deficiency" || !cmd.Confidence.Equal(decimal.RequireFromString("97.0")) {
		t.Errorf("classification = %s %s", cmd.Diagnosis, cmd.Confidence)
	}
	if cmd.Severity != recommendations.SeverityCritical || cmd.TreatmentPlan != "Apply Urea 46-0-0" {
		t.Errorf("recommendation = %s %q", cmd.Severity, cmd.TreatmentPlan)
	}
	if len(cmd.KeySymptoms) != 1 || cmd.KeySymptoms[0] != "Yellowing tips" {
		t.Errorf("symptoms = %v", cmd.KeySymptoms)
	}
	if cmd.CropName != "Maize" || cmd.ModelName != "leaf-health" || cmd.UserID == nil || *cmd.UserID != uid {
		t.Errorf("cmd = %+v", cmd)
	}
	if cmd.Image == nil || cmd.Image.Filename != "leaf.png" || cmd.Image.ContentType != "image/png" {
		t.Errorf("image = %+v", cmd.Image)
	}

	var progress []int
	for _, e := range f.events {
		progress = append(progress, e.Progress)
	}
	want := []int{25, 25, 50, 75, 100}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Fatalf("progress = %v, want %v", progress, want)
		}
	}
	if last := f.events[len(f.events)-1]; last.Status != pipeline.StatusComplete {
		t.Errorf("last event = %+v", last)
	}
}

func TestAnalyzeFailures(t *testing.T) {
	upload := []pipeline.Upload{{Name: "leaf.png", ContentType: "image/png", Data: leafPNG(t)}}

	t.Run("missing severity stops before persist", func(t *testing.T) {
		f := newFixture(`{"treatment_plan":"Apply Urea 46-0-0","key_symptoms":[]}`)

		s, err := f.coord.Open(context.Background(), "", nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.coord.Capture(context.Background(), s, upload); err != nil {
			t.Fatal(err)
		}

		_, err = f.coord.Run(context.Background(), s)
		if !errors.Is(err, recommendations.ErrInvalidResponse) {
			t.Fatalf("err = %v, want ErrInvalidResponse", err)
		}
		if s.Status != pipeline.StatusError || s.Stage != pipeline.StageGenerate {
			t.Errorf("session = %s at %s", s.Status, s.Stage)
		}
		if f.persister.calls != 0 {
			t.Errorf("persist calls = %d, want 0", f.persister.calls)
		}
	})

	t.Run("persist error is not retried", func(t *testing.T) {
		f := newFixture(reply)
		f.persister.err = errors.New("connection reset by peer")

		out, err := f.coord.Analyze(context.Background(), "Potato", nil, upload)
		if !errors.Is(err, pipeline.ErrPersistFailed) {
			t.Fatalf("err = %v, want ErrPersistFailed", err)
		}
		if out != nil {
			t.Errorf("outcome = %+v, want nil", out)
		}
		if f.persister.calls != 1 {
			t.Errorf("persist calls = %d, want 1", f.persister.calls)
		}
		if last := f.events[len(f.events)-1]; last.Status != pipeline.StatusError || last.Stage != pipeline.StagePersist {
			t.Errorf("last event = %+v", last)
		}
	})

	t.Run("model load failure opens no session", func(t *testing.T) {
		f := newFixture(reply)
		f.classifier.loadErr = classifier.ErrModelLoad

		_, err := f.coord.Analyze(context.Background(), "Maize", nil, upload)
		if !errors.Is(err, classifier.ErrModelLoad) {
			t.Fatalf("err = %v, want ErrModelLoad", err)
		}
		if len(f.events) != 0 || f.classifier.classified != 0 {
			t.Errorf("events = %v classified = %d", f.events, f.classifier.classified)
		}
	})

	t.Run("unknown crop", func(t *testing.T) {
		f := newFixture(reply)
		_, err := f.coord.Analyze(context.Background(), "rice", nil, upload)
		if !errors.Is(err, pipeline.ErrInvalidCropType) {
			t.Fatalf("err = %v, want ErrInvalidCropType", err)
		}
	})

	t.Run("classifier error", func(t *testing.T) {
		f := newFixture(reply)
		f.classifier.err = classifier.ErrClassifyFailed

		_, err := f.coord.Analyze(context.Background(), "Maize", nil, upload)
		if !errors.Is(err, classifier.ErrClassifyFailed) {
			t.Fatalf("err = %v", err)
		}
		if pipeline.MapHTTPStatus(err) != 502 {
			t.Errorf("status = %d, want 502", pipeline.MapHTTPStatus(err))
		}
	})

	t.Run("run requires capture", func(t *testing.T) {
		f := newFixture(reply)
		s := pipeline.NewSession(pipeline.CropMaize, nil)
		if _, err := f.coord.Run(context.Background(), s); !errors.Is(err, pipeline.ErrInvalidTransition) {
			t.Errorf("err = %v, want ErrInvalidTransition", err)
		}
	})
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{context.DeadlineExceeded, 504},
		{pipeline.ErrNoImages, 400},
		{pipeline.ErrFileTooLarge, 413},
		{pipeline.ErrInvalidTransition, 409},
		{classifier.ErrModelLoad, 503},
		{recommendations.ErrGenerateFailed, 502},
		{pipeline.ErrPersistFailed, 500},
		{fmt.Errorf("%w: %w", pipeline.ErrPersistFailed, diagnoses.ErrInvalid), 500},
		{diagnoses.ErrInvalid, 400},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := pipeline.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := pipelineConfig()
	cfg.DetailRoute = "/history/{id}/detail"
	c := pipeline.NewCoordinator(cfg, &fakeClassifier{}, nil, nil, discard())

	id := uuid.New()
	if got := c.Location(&diagnoses.Diagnosis{ID: id}); !strings.HasSuffix(got, id.String()+"/detail") {
		t.Errorf("location = %s", got)
	}
}
