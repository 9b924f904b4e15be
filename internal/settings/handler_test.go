package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/internal/services"
	"github.com/studyhallhq/studyhall/internal/store"
	"github.com/studyhallhq/studyhall/pkg/theme"
)

func setupEnv(t *testing.T) (*Handler, *PaletteStore, *http.ServeMux) {
	t.Helper()

	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo, err := services.NewSQLiteSettingsRepository(context.Background(), db)
	if err != nil {
		t.Fatalf("NewSQLiteSettingsRepository: %v", err)
	}
	palettes, err := NewPaletteStore(context.Background(), repo)
	if err != nil {
		t.Fatalf("NewPaletteStore: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	handler := NewHandler(repo, palettes, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return handler, palettes, mux
}

func doAs(mux *http.ServeMux, method, path, role string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		claims := &auth.Claims{UserID: "test-user", Username: "test", Role: role}
		req = req.WithContext(auth.ContextWithUser(req.Context(), claims))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func validColors(t *testing.T, base theme.Palette) map[string]string {
	t.Helper()
	colors := make(map[string]string, len(base))
	for role, value := range base {
		colors[string(role)] = value
	}
	return colors
}

func TestPlatformSettings_Defaults(t *testing.T) {
	_, _, mux := setupEnv(t)

	w := doAs(mux, "GET", "/api/v1/settings/platform", "student", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got PlatformSettings
	_ = json.NewDecoder(w.Body).Decode(&got)
	if got.PlatformName != "StudyHall" {
		t.Errorf("PlatformName = %q, want StudyHall", got.PlatformName)
	}
	if got.DefaultTimezone != "UTC" {
		t.Errorf("DefaultTimezone = %q, want UTC", got.DefaultTimezone)
	}
}

func TestPlatformSettings_UpdateRoundTrip(t *testing.T) {
	_, _, mux := setupEnv(t)

	w := doAs(mux, "PUT", "/api/v1/settings/platform", "admin", PlatformSettings{
		PlatformName:    "Northside Tutoring",
		DefaultTimezone: "America/Chicago",
		BusinessHours:   "08:00-20:00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	w = doAs(mux, "GET", "/api/v1/settings/platform", "teacher", nil)
	var got PlatformSettings
	_ = json.NewDecoder(w.Body).Decode(&got)
	if got.PlatformName != "Northside Tutoring" {
		t.Errorf("PlatformName = %q", got.PlatformName)
	}
	if got.BusinessHours != "08:00-20:00" {
		t.Errorf("BusinessHours = %q", got.BusinessHours)
	}
}

func TestPlatformSettings_UpdateRequiresAdmin(t *testing.T) {
	_, _, mux := setupEnv(t)

	w := doAs(mux, "PUT", "/api/v1/settings/platform", "teacher", PlatformSettings{PlatformName: "X"})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}

	w = doAs(mux, "PUT", "/api/v1/settings/platform", "", PlatformSettings{PlatformName: "X"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestListPalettes_IncludesBuiltIns(t *testing.T) {
	_, _, mux := setupEnv(t)

	w := doAs(mux, "GET", "/api/v1/settings/palettes", "student", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var palettes []PaletteDefinition
	_ = json.NewDecoder(w.Body).Decode(&palettes)
	if len(palettes) != 2 {
		t.Fatalf("len = %d, want 2 built-ins", len(palettes))
	}
	for i := range palettes {
		if !palettes[i].BuiltIn {
			t.Errorf("palette %s should be built-in", palettes[i].ID)
		}
	}
}

func TestCreatePalette_Valid(t *testing.T) {
	_, _, mux := setupEnv(t)

	w := doAs(mux, "POST", "/api/v1/settings/palettes", "admin", CreatePaletteRequest{
		Name:     "Custom Light",
		BaseMode: "light",
		Colors:   validColors(t, theme.LightPalette),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", w.Code, w.Body.String())
	}

	var d PaletteDefinition
	_ = json.NewDecoder(w.Body).Decode(&d)
	if d.ID == "" {
		t.Error("expected generated ID")
	}
	if d.BuiltIn {
		t.Error("custom palette should not be built-in")
	}
	if d.Version != 1 {
		t.Errorf("Version = %d, want 1", d.Version)
	}
}

func TestCreatePalette_MissingRole(t *testing.T) {
	_, _, mux := setupEnv(t)

	colors := validColors(t, theme.LightPalette)
	delete(colors, "ring")

	w := doAs(mux, "POST", "/api/v1/settings/palettes", "admin", CreatePaletteRequest{
		Name:     "Broken",
		BaseMode: "light",
		Colors:   colors,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body: %s", w.Code, w.Body.String())
	}
}

func TestCreatePalette_FailsContrast(t *testing.T) {
	_, _, mux := setupEnv(t)

	colors := validColors(t, theme.LightPalette)
	colors["foreground"] = "#fefefe" // near-white on white background

	w := doAs(mux, "POST", "/api/v1/settings/palettes", "admin", CreatePaletteRequest{
		Name:     "Low Contrast",
		BaseMode: "light",
		Colors:   colors,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body: %s", w.Code, w.Body.String())
	}
}

func TestCreatePalette_RequiresAdmin(t *testing.T) {
	_, _, mux := setupEnv(t)

	w := doAs(mux, "POST", "/api/v1/settings/palettes", "tutor", CreatePaletteRequest{
		Name:     "Nope",
		BaseMode: "light",
		Colors:   validColors(t, theme.LightPalette),
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestUpdatePalette_BuiltInForbidden(t *testing.T) {
	_, _, mux := setupEnv(t)

	w := doAs(mux, "PUT", "/api/v1/settings/palettes/builtin-light", "admin", UpdatePaletteRequest{
		Name: "Renamed",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403; body: %s", w.Code, w.Body.String())
	}
}

func TestDeletePalette_ResetsActive(t *testing.T) {
	_, palettes, mux := setupEnv(t)
	ctx := context.Background()

	created, err := palettes.Create(ctx, "Custom Dark", "dark", validColors(t, theme.DarkPalette))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := palettes.SetActive(ctx, created.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	w := doAs(mux, "DELETE", "/api/v1/settings/palettes/"+created.ID, "admin", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204; body: %s", w.Code, w.Body.String())
	}

	_, dark := palettes.Active(ctx)
	if dark != "builtin-dark" {
		t.Errorf("active dark palette = %q, want builtin-dark after delete", dark)
	}
}

func TestSetActivePalette(t *testing.T) {
	_, palettes, mux := setupEnv(t)
	ctx := context.Background()

	created, err := palettes.Create(ctx, "Custom Dark", "dark", validColors(t, theme.DarkPalette))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := doAs(mux, "PUT", "/api/v1/settings/palettes/active", "admin", ActivePaletteRequest{
		PaletteID: created.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	var resp ActivePalettesResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Dark != created.ID {
		t.Errorf("Dark = %q, want %q", resp.Dark, created.ID)
	}
	if resp.Light != "builtin-light" {
		t.Errorf("Light = %q, want builtin-light", resp.Light)
	}
}

func TestSetActivePalette_NotFound(t *testing.T) {
	_, _, mux := setupEnv(t)

	w := doAs(mux, "PUT", "/api/v1/settings/palettes/active", "admin", ActivePaletteRequest{
		PaletteID: "nope",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestActivePalette_FallsBackToBuiltIn(t *testing.T) {
	_, palettes, _ := setupEnv(t)
	ctx := context.Background()

	p := palettes.ActivePalette(ctx, theme.Dark)
	if p[theme.RoleBackground] != theme.DarkPalette[theme.RoleBackground] {
		t.Errorf("expected built-in dark palette as fallback")
	}
}
