package scalar_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/verdant/web/scalar"
)

func TestIndex(t *testing.T) {
	m := scalar.NewModule("/scalar", "/api/openapi.json")

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/scalar/", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, `data-url="/api/openapi.json"`) {
		t.Errorf("body missing spec url:\n%s", body)
	}
}
