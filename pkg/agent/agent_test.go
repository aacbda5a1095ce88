package agent_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/JaimeStill/verdant/pkg/agent"
)

type captured struct {
	mu     sync.Mutex
	path   string
	apiKey string
	body   string
}

func newServer(t *testing.T, reply string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.path = r.URL.Path
		c.apiKey = r.Header.Get("x-goog-api-key")
		c.body = string(body)
		c.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func newAgent(t *testing.T, baseURL string) agent.Agent {
	t.Helper()
	cfg := &agent.Config{APIKey: "test-key", BaseURL: baseURL, ChatModel: "gemini-test"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	a, err := agent.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestChat(t *testing.T) {
	srv, c := newServer(t, `{"severity":"Low"}`)
	a := newAgent(t, srv.URL)

	text, err := a.Chat(context.Background(), agent.Request{
		System: "You are an agronomist.",
		Prompt: "Diagnose Early Blight",
		JSON:   true,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if text != `{"severity":"Low"}` {
		t.Errorf("text = %q", text)
	}

	if !strings.HasSuffix(c.path, "/models/gemini-test:generateContent") {
		t.Errorf("path = %q", c.path)
	}
	if c.apiKey != "test-key" {
		t.Errorf("api key = %q", c.apiKey)
	}
	for _, want := range []string{"Diagnose Early Blight", "You are an agronomist.", "application/json"} {
		if !strings.Contains(c.body, want) {
			t.Errorf("request body missing %q: %s", want, c.body)
		}
	}
}

func TestVision(t *testing.T) {
	srv, c := newServer(t, `{"Healthy":0.9}`)
	a := newAgent(t, srv.URL)

	img := []byte("\x89PNG\r\n\x1a\nleaf-pixels")
	if _, err := a.Vision(context.Background(), agent.Request{Prompt: "Score the labels"}, agent.Image{Data: img, MIMEType: "image/png"}); err != nil {
		t.Fatalf("Vision: %v", err)
	}

	if a.VisionModel() != "gemini-test" {
		t.Errorf("vision model = %q, want chat model fallback", a.VisionModel())
	}
	if !strings.Contains(c.body, base64.StdEncoding.EncodeToString(img)) {
		t.Errorf("request body missing inline image: %s", c.body)
	}
	if !strings.Contains(c.body, "image/png") {
		t.Errorf("request body missing mime type: %s", c.body)
	}
}

func TestEmptyResponse(t *testing.T) {
	srv, _ := newServer(t, "   ")
	a := newAgent(t, srv.URL)

	_, err := a.Chat(context.Background(), agent.Request{Prompt: "hello"})
	if !errors.Is(err, agent.ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"overloaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := newAgent(t, srv.URL)
	if _, err := a.Chat(context.Background(), agent.Request{Prompt: "hello"}); err == nil {
		t.Error("Chat returned nil error for 500")
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		var cfg agent.Config
		if err := cfg.Finalize(nil); !errors.Is(err, agent.ErrNoAPIKey) {
			t.Errorf("err = %v, want ErrNoAPIKey", err)
		}
	})

	t.Run("env overrides and defaults", func(t *testing.T) {
		t.Setenv("VERDANT_TEST_GEMINI_KEY", "k")
		var cfg agent.Config
		if err := cfg.Finalize(&agent.Env{APIKey: "VERDANT_TEST_GEMINI_KEY"}); err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		if cfg.APIKey != "k" || cfg.ChatModel != "gemini-2.5-flash-lite" || cfg.TimeoutDuration().Seconds() != 30 {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("bad temperature", func(t *testing.T) {
		cfg := agent.Config{APIKey: "k", Temperature: 3}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("Finalize returned nil for temperature 3")
		}
	})
}
