package dashboard

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/pkg/theme"
)

type darkDocuments struct{}

func (darkDocuments) DocumentFor(*http.Request) *theme.Document {
	doc := theme.NewDocument()
	e := theme.New(nil, nil, doc)
	e.Apply(theme.Dark)
	return doc
}

func newHandler(t *testing.T, documents DocumentSource) *Handler {
	t.Helper()
	h, err := New(zap.NewNop(), documents)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h
}

func get(h *Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestShell_RendersTheme(t *testing.T) {
	h := newHandler(t, darkDocuments{})

	rec := get(h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `class="dark"`) {
		t.Errorf("dark class missing from shell")
	}
	if !strings.Contains(body, "color-scheme: dark;") {
		t.Errorf("style block missing dark color-scheme")
	}
	if !strings.Contains(body, "--background:") {
		t.Errorf("style block missing palette variables")
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("cache control = %q", cc)
	}
}

func TestShell_DefaultsToLight(t *testing.T) {
	h := newHandler(t, nil)

	body := get(h, "/").Body.String()
	if strings.Contains(body, `class="dark"`) {
		t.Errorf("expected light shell without a document source")
	}
	if !strings.Contains(body, "color-scheme: light;") {
		t.Errorf("expected light color-scheme")
	}
}

func TestSPAFallback(t *testing.T) {
	h := newHandler(t, nil)

	for _, path := range []string{"/lessons", "/reports/abc123", "/chat"} {
		t.Run(path, func(t *testing.T) {
			rec := get(h, path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "<title>StudyHall</title>") {
				t.Errorf("expected shell for %s", path)
			}
		})
	}
}

func TestStaticAssets(t *testing.T) {
	h := newHandler(t, nil)

	rec := get(h, "/assets/app.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "var(--background)") {
		t.Errorf("unexpected asset body")
	}
}

func TestExcludesAPIRoutes(t *testing.T) {
	h := newHandler(t, nil)

	for _, path := range []string{
		"/api/v1/health",
		"/api/v1/auth/login",
		"/healthz",
		"/readyz",
		"/metrics",
	} {
		t.Run(path, func(t *testing.T) {
			if rec := get(h, path); rec.Code != http.StatusNotFound {
				t.Errorf("expected 404 for %s, got %d", path, rec.Code)
			}
		})
	}
}
