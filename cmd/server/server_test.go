package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/verdant/internal/infrastructure"
	"github.com/JaimeStill/verdant/pkg/lifecycle"
)

func TestProbes(t *testing.T) {
	lc := lifecycle.New()
	router := buildRouter(&infrastructure.Infrastructure{Lifecycle: lc})

	get := func(path string) (int, string) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		var body map[string]string
		json.NewDecoder(rec.Body).Decode(&body)
		return rec.Code, body["status"]
	}

	if code, status := get("/healthz"); code != http.StatusOK || status != "ok" {
		t.Errorf("healthz = %d %q", code, status)
	}
	if code, _ := get("/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("readyz before startup = %d, want 503", code)
	}

	lc.WaitForStartup()
	if code, status := get("/readyz"); code != http.StatusOK || status != "ready" {
		t.Errorf("readyz = %d %q", code, status)
	}
}
