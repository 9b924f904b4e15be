// Package appearance is the HTTP surface of the theme engine: a cookie-backed
// preference per visitor, client-hint system detection, and the palette
// stylesheet.
package appearance

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/pkg/module"
	"github.com/studyhallhq/studyhall/pkg/theme"
)

// Compile-time interface checks.
var (
	_ module.Module       = (*Module)(nil)
	_ module.HTTPProvider = (*Module)(nil)
)

// PaletteProvider resolves the palette to render for a theme. Wired in main
// to the settings palette store; nil falls back to the built-in palettes.
type PaletteProvider interface {
	ActivePalette(ctx context.Context, t theme.Theme) theme.Palette
}

// Module implements the appearance feature module.
type Module struct {
	logger   *zap.Logger
	cfg      Config
	palettes PaletteProvider
}

// New creates an uninitialized appearance module.
func New() *Module {
	return &Module{}
}

// SetPaletteProvider wires the admin palette store. Call before Start.
func (m *Module) SetPaletteProvider(p PaletteProvider) {
	m.palettes = p
}

// Info implements module.Module.
func (m *Module) Info() module.ModuleInfo {
	return module.ModuleInfo{
		Name:        "appearance",
		Version:     "0.1.0",
		Description: "Per-visitor theme preference and palette stylesheet",
		APIVersion:  module.APIVersionCurrent,
	}
}

// Init implements module.Module.
func (m *Module) Init(ctx context.Context, deps module.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal appearance config: %w", err)
		}
	}
	return nil
}

// Start implements module.Module.
func (m *Module) Start(ctx context.Context) error {
	return nil
}

// Stop implements module.Module.
func (m *Module) Stop(ctx context.Context) error {
	return nil
}

// Health reports module health.
func (m *Module) Health() module.HealthStatus {
	return module.HealthStatus{Status: "healthy"}
}

// RegisterRoutes mounts the stylesheet outside the /api/v1 tree so a plain
// <link> tag can reach it.
func (m *Module) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /appearance/theme.css", m.handleThemeCSS)
}

// DocumentFor resolves the theme for a request and returns a Document ready
// to render into the web shell: dark class, variable block, color-scheme.
// Read-only; it never writes cookies.
func (m *Module) DocumentFor(r *http.Request) *theme.Document {
	doc := theme.NewDocument()
	e := theme.New(readOnlyCookies{r: r}, clientHintSource{r: r}, doc)
	if m.palettes != nil {
		ctx := r.Context()
		e.WithPalettes(func(t theme.Theme) theme.Palette {
			return m.palettes.ActivePalette(ctx, t)
		})
	}
	e.Initialize()
	return doc
}

// engineFor builds a per-request engine: the cookie is the storage, the
// client hint is the system source. No surface; HTTP responses don't apply
// themes, they report them.
func (m *Module) engineFor(w http.ResponseWriter, r *http.Request) *theme.Engine {
	e := theme.New(newCookieStorage(w, r, m.cfg), clientHintSource{r: r}, nil)
	if m.palettes != nil {
		ctx := r.Context()
		e.WithPalettes(func(t theme.Theme) theme.Palette {
			return m.palettes.ActivePalette(ctx, t)
		})
	}
	return e
}
