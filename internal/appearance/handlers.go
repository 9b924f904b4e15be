package appearance

import (
	"encoding/json"
	"net/http"

	"github.com/studyhallhq/studyhall/pkg/module"
	"github.com/studyhallhq/studyhall/pkg/theme"
)

// Routes implements module.HTTPProvider.
func (m *Module) Routes() []module.Route {
	return []module.Route{
		{Method: "GET", Path: "", Handler: m.handleGet},
		{Method: "PUT", Path: "", Handler: m.handlePut},
		{Method: "DELETE", Path: "", Handler: m.handleReset},
	}
}

// AppearanceState is the wire form of a visitor's theme situation.
type AppearanceState struct {
	Preference theme.Preference `json:"preference"`
	Resolved   theme.Theme      `json:"resolved"`
	System     theme.Theme      `json:"system"`
}

// SetPreferenceRequest is the payload for changing the preference.
type SetPreferenceRequest struct {
	Preference string `json:"preference"`
}

func stateOf(e *theme.Engine) AppearanceState {
	pref := theme.PreferenceSystem
	if p, ok := e.Saved(); ok {
		pref = p
	}
	return AppearanceState{
		Preference: pref,
		Resolved:   e.Resolve(pref),
		System:     e.SystemTheme(),
	}
}

// handleGet reports the visitor's preference, what it resolves to, and what
// the OS asked for.
//
//	@Summary		Current appearance state
//	@Tags			appearance
//	@Produce		json
//	@Success		200 {object} AppearanceState
//	@Router			/appearance [get]
func (m *Module) handleGet(w http.ResponseWriter, r *http.Request) {
	setClientHintHeaders(w)
	appearanceWriteJSON(w, http.StatusOK, stateOf(m.engineFor(w, r)))
}

// handlePut saves a new preference in the visitor's cookie.
func (m *Module) handlePut(w http.ResponseWriter, r *http.Request) {
	var req SetPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		appearanceWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pref, ok := theme.ParsePreference(req.Preference)
	if !ok {
		appearanceWriteError(w, http.StatusBadRequest, "preference must be light, dark, or system")
		return
	}

	setClientHintHeaders(w)
	e := m.engineFor(w, r)
	e.Save(pref)
	appearanceWriteJSON(w, http.StatusOK, AppearanceState{
		Preference: pref,
		Resolved:   e.Resolve(pref),
		System:     e.SystemTheme(),
	})
}

// handleReset drops the stored preference, returning the visitor to the
// system default.
func (m *Module) handleReset(w http.ResponseWriter, r *http.Request) {
	setClientHintHeaders(w)
	e := m.engineFor(w, r)
	e.Clear()
	appearanceWriteJSON(w, http.StatusOK, AppearanceState{
		Preference: theme.PreferenceSystem,
		Resolved:   e.SystemTheme(),
		System:     e.SystemTheme(),
	})
}

// handleThemeCSS serves the custom-property stylesheet for the resolved
// theme. Never cached: the resolution depends on a cookie and a client hint.
func (m *Module) handleThemeCSS(w http.ResponseWriter, r *http.Request) {
	e := m.engineFor(w, r)
	state := stateOf(e)

	palette := theme.PaletteFor(state.Resolved)
	if m.palettes != nil {
		palette = m.palettes.ActivePalette(r.Context(), state.Resolved)
	}

	setClientHintHeaders(w)
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(theme.RenderCSS(state.Resolved, palette)))
}

func appearanceWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func appearanceWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://studyhall.app/problems/appearance-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
