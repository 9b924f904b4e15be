package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/studyhallhq/studyhall/pkg/module"
	"go.uber.org/zap"
)

// mockModuleSource satisfies the ModuleSource interface for testing.
type mockModuleSource struct {
	modules []module.Module
	routes  map[string][]module.Route
}

func (m *mockModuleSource) AllRoutes() map[string][]module.Route {
	if m.routes != nil {
		return m.routes
	}
	return map[string][]module.Route{}
}

func (m *mockModuleSource) All() []module.Module {
	return m.modules
}

// stubModule satisfies module.Module for testing.
type stubModule struct {
	info module.ModuleInfo
}

func (s *stubModule) Info() module.ModuleInfo                             { return s.info }
func (s *stubModule) Init(_ context.Context, _ module.Dependencies) error { return nil }
func (s *stubModule) Start(_ context.Context) error                       { return nil }
func (s *stubModule) Stop(_ context.Context) error                        { return nil }

func newTestServer(ready ReadinessChecker) *Server {
	logger, _ := zap.NewDevelopment()
	modules := &mockModuleSource{
		modules: []module.Module{
			&stubModule{info: module.ModuleInfo{
				Name:        "test-module",
				Version:     "1.0.0",
				Description: "A test module",
			}},
		},
	}
	return New("127.0.0.1:0", modules, logger, ready, nil, nil, nil, false, false)
}

func TestHandleHealthz(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "alive" {
		t.Errorf("status = %q, want %q", body["status"], "alive")
	}
}

func TestHandleReadyz_Healthy(t *testing.T) {
	ready := ReadinessChecker(func(_ context.Context) error {
		return nil
	})
	srv := newTestServer(ready)

	req := httptest.NewRequest("GET", "/readyz", http.NoBody)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ready" {
		t.Errorf("status = %q, want %q", body["status"], "ready")
	}
}

func TestHandleReadyz_Unhealthy(t *testing.T) {
	ready := ReadinessChecker(func(_ context.Context) error {
		return errors.New("database unreachable")
	})
	srv := newTestServer(ready)

	req := httptest.NewRequest("GET", "/readyz", http.NoBody)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "not ready" {
		t.Errorf("status = %q, want %q", body["status"], "not ready")
	}
	if !strings.Contains(body["error"], "database unreachable") {
		t.Errorf("error = %q, want it to contain %q", body["error"], "database unreachable")
	}
}

func TestHandleReadyz_NilChecker(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest("GET", "/readyz", http.NoBody)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest("GET", "/api/v1/health", http.NoBody)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]interface{}
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want %q", body["status"], "ok")
	}
	if body["service"] != "studyhall" {
		t.Errorf("service = %v, want %q", body["service"], "studyhall")
	}
	if body["version"] == nil {
		t.Error("expected version field in response")
	}
}

func TestHandleModules(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest("GET", "/api/v1/modules", http.NoBody)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var mods []map[string]string
	json.NewDecoder(w.Body).Decode(&mods)
	if len(mods) != 1 {
		t.Fatalf("len(modules) = %d, want 1", len(mods))
	}
	if mods[0]["name"] != "test-module" {
		t.Errorf("name = %q, want %q", mods[0]["name"], "test-module")
	}
	if mods[0]["version"] != "1.0.0" {
		t.Errorf("version = %q, want %q", mods[0]["version"], "1.0.0")
	}
}

func TestHandleMetrics(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected prometheus Go runtime metrics in /metrics output")
	}
}

func TestMiddlewareChain_Integration(t *testing.T) {
	srv := newTestServer(nil)

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	w := httptest.NewRecorder()

	// Use the full handler (with middleware chain) instead of just the mux.
	srv.httpServer.Handler.ServeHTTP(w, req)

	// Check that middleware headers are present.
	if v := w.Header().Get("X-StudyHall-Version"); v == "" {
		t.Error("expected X-StudyHall-Version header from middleware")
	}
	if v := w.Header().Get("X-Request-ID"); v == "" {
		t.Error("expected X-Request-ID header from middleware")
	}
	if v := w.Header().Get("X-Content-Type-Options"); v != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", v, "nosniff")
	}
	if v := w.Header().Get("X-Frame-Options"); v != "DENY" {
		t.Errorf("X-Frame-Options = %q, want %q", v, "DENY")
	}
}

func TestModuleRoutes_Mounted(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	modules := &mockModuleSource{
		modules: []module.Module{},
		routes: map[string][]module.Route{
			"schedule": {
				{
					Method: "POST",
					Path:   "/lessons",
					Handler: func(w http.ResponseWriter, _ *http.Request) {
						w.WriteHeader(http.StatusCreated)
					},
				},
			},
		},
	}
	srv := New("127.0.0.1:0", modules, logger, nil, nil, nil, nil, false, false)

	req := httptest.NewRequest("POST", "/api/v1/schedule/lessons", http.NoBody)
	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}
