// Package settings provides HTTP handlers for platform settings and custom
// palette management.
package settings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/internal/services"
)

// ErrBuiltIn is returned when trying to modify or delete a built-in palette.
var ErrBuiltIn = errors.New("built-in palette is read-only")

// PlatformSettings holds the org-wide options shown on the admin settings page.
// @Description Platform-wide settings.
type PlatformSettings struct {
	PlatformName    string `json:"platform_name" example:"StudyHall Academy"`
	DefaultTimezone string `json:"default_timezone" example:"Europe/Berlin"`
	BusinessHours   string `json:"business_hours" example:"09:00-18:00"`
}

// CreatePaletteRequest is the body for creating a custom palette.
// @Description Request body for creating a custom palette.
type CreatePaletteRequest struct {
	Name     string            `json:"name" example:"High Contrast Dark"`
	BaseMode string            `json:"base_mode" example:"dark"`
	Colors   map[string]string `json:"colors"`
}

// UpdatePaletteRequest is the body for updating a custom palette.
// @Description Request body for updating a custom palette.
type UpdatePaletteRequest struct {
	Name   string            `json:"name,omitempty"`
	Colors map[string]string `json:"colors,omitempty"`
}

// ActivePalettesResponse reports the active palette per base mode.
// @Description The active palette IDs for light and dark mode.
type ActivePalettesResponse struct {
	Light string `json:"light" example:"builtin-light"`
	Dark  string `json:"dark" example:"builtin-dark"`
}

// ActivePaletteRequest is the body for activating a palette.
// @Description Request body for activating a palette.
type ActivePaletteRequest struct {
	PaletteID string `json:"palette_id" example:"builtin-dark"`
}

// SettingsProblemDetail represents an RFC 7807 error response for settings endpoints.
// @Description RFC 7807 Problem Details error response.
type SettingsProblemDetail struct {
	Type   string `json:"type" example:"https://studyhall.app/problems/settings-error"`
	Title  string `json:"title" example:"Bad Request"`
	Status int    `json:"status" example:"400"`
	Detail string `json:"detail" example:"palette missing role \"ring\""`
}

const (
	platformNameKey    = "platform:name"
	defaultTimezoneKey = "platform:default_timezone"
	businessHoursKey   = "platform:business_hours"
)

// Handler provides HTTP handlers for settings endpoints.
type Handler struct {
	settings services.SettingsRepository
	palettes *PaletteStore
	logger   *zap.Logger
}

// NewHandler creates a settings Handler.
func NewHandler(settings services.SettingsRepository, palettes *PaletteStore, logger *zap.Logger) *Handler {
	return &Handler{settings: settings, palettes: palettes, logger: logger}
}

// RegisterRoutes registers settings-related routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/settings/platform", h.handleGetPlatform)
	mux.HandleFunc("PUT /api/v1/settings/platform", h.handleSetPlatform)

	// Literal palette paths before the wildcard.
	mux.HandleFunc("GET /api/v1/settings/palettes", h.handleListPalettes)
	mux.HandleFunc("GET /api/v1/settings/palettes/active", h.handleGetActive)
	mux.HandleFunc("PUT /api/v1/settings/palettes/active", h.handleSetActive)
	mux.HandleFunc("POST /api/v1/settings/palettes", h.handleCreatePalette)
	mux.HandleFunc("GET /api/v1/settings/palettes/{id}", h.handleGetPalette)
	mux.HandleFunc("PUT /api/v1/settings/palettes/{id}", h.handleUpdatePalette)
	mux.HandleFunc("DELETE /api/v1/settings/palettes/{id}", h.handleDeletePalette)
}

// handleGetPlatform returns the platform settings.
//
//	@Summary		Get platform settings
//	@Description	Get the platform name, default timezone, and business hours.
//	@Tags			settings
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	PlatformSettings
//	@Failure		500	{object}	SettingsProblemDetail
//	@Router			/settings/platform [get]
func (h *Handler) handleGetPlatform(w http.ResponseWriter, r *http.Request) {
	out := PlatformSettings{PlatformName: "StudyHall", DefaultTimezone: "UTC"}
	for key, dst := range map[string]*string{
		platformNameKey:    &out.PlatformName,
		defaultTimezoneKey: &out.DefaultTimezone,
		businessHoursKey:   &out.BusinessHours,
	} {
		setting, err := h.settings.Get(r.Context(), key)
		if err == nil {
			*dst = setting.Value
			continue
		}
		if !errors.Is(err, services.ErrNotFound) {
			h.logger.Error("failed to read platform setting", zap.String("key", key), zap.Error(err))
			writeSettingsError(w, http.StatusInternalServerError, "failed to read platform settings")
			return
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSetPlatform updates the platform settings. Admin only.
//
//	@Summary		Update platform settings
//	@Description	Set the platform name, default timezone, and business hours. Requires admin role.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		PlatformSettings	true	"Settings to apply"
//	@Success		200		{object}	PlatformSettings
//	@Failure		400		{object}	SettingsProblemDetail
//	@Failure		403		{object}	SettingsProblemDetail
//	@Router			/settings/platform [put]
func (h *Handler) handleSetPlatform(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin) {
		return
	}

	var req PlatformSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettingsError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.PlatformName) == "" {
		writeSettingsError(w, http.StatusBadRequest, "platform_name is required")
		return
	}

	for key, value := range map[string]string{
		platformNameKey:    req.PlatformName,
		defaultTimezoneKey: req.DefaultTimezone,
		businessHoursKey:   req.BusinessHours,
	} {
		if err := h.settings.Set(r.Context(), key, value); err != nil {
			h.logger.Error("failed to save platform setting", zap.String("key", key), zap.Error(err))
			writeSettingsError(w, http.StatusInternalServerError, "failed to save platform settings")
			return
		}
	}

	writeJSON(w, http.StatusOK, req)
}

// handleListPalettes returns all stored palettes.
//
//	@Summary		List palettes
//	@Description	Get all palettes (built-in and custom).
//	@Tags			settings
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		PaletteDefinition
//	@Failure		500	{object}	SettingsProblemDetail
//	@Router			/settings/palettes [get]
func (h *Handler) handleListPalettes(w http.ResponseWriter, r *http.Request) {
	palettes, err := h.palettes.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list palettes", zap.Error(err))
		writeSettingsError(w, http.StatusInternalServerError, "failed to list palettes")
		return
	}
	writeJSON(w, http.StatusOK, palettes)
}

// handleGetPalette returns a single palette by ID.
//
//	@Summary		Get palette
//	@Description	Get a palette by its ID.
//	@Tags			settings
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Palette ID"
//	@Success		200	{object}	PaletteDefinition
//	@Failure		404	{object}	SettingsProblemDetail
//	@Router			/settings/palettes/{id} [get]
func (h *Handler) handleGetPalette(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	d, err := h.palettes.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeSettingsError(w, http.StatusNotFound, "palette not found")
			return
		}
		h.logger.Error("failed to get palette", zap.String("id", id), zap.Error(err))
		writeSettingsError(w, http.StatusInternalServerError, "failed to get palette")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleCreatePalette creates a new custom palette. Admin only.
//
//	@Summary		Create palette
//	@Description	Create a custom palette. Colors must cover every role and pass the contrast check. Requires admin role.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreatePaletteRequest	true	"Palette definition"
//	@Success		201		{object}	PaletteDefinition
//	@Failure		400		{object}	SettingsProblemDetail
//	@Failure		403		{object}	SettingsProblemDetail
//	@Router			/settings/palettes [post]
func (h *Handler) handleCreatePalette(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin) {
		return
	}

	var req CreatePaletteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettingsError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeSettingsError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.BaseMode != "dark" && req.BaseMode != "light" {
		writeSettingsError(w, http.StatusBadRequest, "base_mode must be \"dark\" or \"light\"")
		return
	}

	d, err := h.palettes.Create(r.Context(), req.Name, req.BaseMode, req.Colors)
	if err != nil {
		writeSettingsError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// handleUpdatePalette updates a custom palette. Admin only.
//
//	@Summary		Update palette
//	@Description	Update a custom palette's name or colors. Built-in palettes cannot be modified. Requires admin role.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string					true	"Palette ID"
//	@Param			request	body		UpdatePaletteRequest	true	"Fields to update"
//	@Success		200		{object}	PaletteDefinition
//	@Failure		400		{object}	SettingsProblemDetail
//	@Failure		403		{object}	SettingsProblemDetail
//	@Failure		404		{object}	SettingsProblemDetail
//	@Router			/settings/palettes/{id} [put]
func (h *Handler) handleUpdatePalette(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin) {
		return
	}

	var req UpdatePaletteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettingsError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	d, err := h.palettes.Update(r.Context(), id, req.Name, req.Colors)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			writeSettingsError(w, http.StatusNotFound, "palette not found")
		case errors.Is(err, ErrBuiltIn):
			writeSettingsError(w, http.StatusForbidden, "cannot modify built-in palette")
		default:
			writeSettingsError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleDeletePalette deletes a custom palette. Admin only.
//
//	@Summary		Delete palette
//	@Description	Delete a custom palette. Built-in palettes cannot be deleted. Requires admin role.
//	@Tags			settings
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Palette ID"
//	@Success		204	"Palette deleted"
//	@Failure		403	{object}	SettingsProblemDetail
//	@Failure		404	{object}	SettingsProblemDetail
//	@Router			/settings/palettes/{id} [delete]
func (h *Handler) handleDeletePalette(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin) {
		return
	}

	id := r.PathValue("id")
	if err := h.palettes.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			writeSettingsError(w, http.StatusNotFound, "palette not found")
		case errors.Is(err, ErrBuiltIn):
			writeSettingsError(w, http.StatusForbidden, "cannot delete built-in palette")
		default:
			h.logger.Error("failed to delete palette", zap.String("id", id), zap.Error(err))
			writeSettingsError(w, http.StatusInternalServerError, "failed to delete palette")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetActive returns the active palette IDs per base mode.
//
//	@Summary		Get active palettes
//	@Description	Get which palette is active for light and dark mode.
//	@Tags			settings
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	ActivePalettesResponse
//	@Router			/settings/palettes/active [get]
func (h *Handler) handleGetActive(w http.ResponseWriter, r *http.Request) {
	light, dark := h.palettes.Active(r.Context())
	writeJSON(w, http.StatusOK, ActivePalettesResponse{Light: light, Dark: dark})
}

// handleSetActive activates a palette for its base mode. Admin only.
//
//	@Summary		Activate palette
//	@Description	Make a palette active for its base mode. The palette must pass validation. Requires admin role.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		ActivePaletteRequest	true	"Palette to activate"
//	@Success		200		{object}	ActivePalettesResponse
//	@Failure		400		{object}	SettingsProblemDetail
//	@Failure		403		{object}	SettingsProblemDetail
//	@Failure		404		{object}	SettingsProblemDetail
//	@Router			/settings/palettes/active [put]
func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin) {
		return
	}

	var req ActivePaletteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettingsError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.PaletteID) == "" {
		writeSettingsError(w, http.StatusBadRequest, "palette_id is required")
		return
	}

	if err := h.palettes.SetActive(r.Context(), req.PaletteID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeSettingsError(w, http.StatusNotFound, "palette not found")
			return
		}
		writeSettingsError(w, http.StatusBadRequest, err.Error())
		return
	}

	light, dark := h.palettes.Active(r.Context())
	writeJSON(w, http.StatusOK, ActivePalettesResponse{Light: light, Dark: dark})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeSettingsError writes an RFC 7807 problem response.
func writeSettingsError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://studyhall.app/problems/settings-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
