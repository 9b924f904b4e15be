package library

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/pkg/listquery"
	"github.com/studyhallhq/studyhall/pkg/module"
)

// Routes implements module.HTTPProvider.
func (m *Module) Routes() []module.Route {
	return []module.Route{
		{Method: "GET", Path: "/materials", Handler: m.handleListMaterials},
		{Method: "POST", Path: "/materials", Handler: m.handleCreateMaterial},
		{Method: "GET", Path: "/materials/{id}", Handler: m.handleGetMaterial},
		{Method: "PUT", Path: "/materials/{id}", Handler: m.handleUpdateMaterial},
		{Method: "DELETE", Path: "/materials/{id}", Handler: m.handleDeleteMaterial},
		{Method: "POST", Path: "/materials/{id}/publish", Handler: m.handlePublishMaterial},
		{Method: "GET", Path: "/materials/{id}/preview", Handler: m.handlePreviewMaterial},
	}
}

// MaterialRequest is the payload for creating or updating a material.
type MaterialRequest struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Level   string `json:"level"`
	Body    string `json:"body"`
}

// listSchema describes how the material list searches, filters, and sorts.
func (m *Module) listSchema() listquery.Schema[Material] {
	return listquery.Schema[Material]{
		SearchText: func(mat Material) []string {
			return []string{mat.Title, mat.Subject, mat.Level, mat.Body}
		},
		Filters: map[string]listquery.FilterFunc[Material]{
			"subject": func(mat Material, v string) bool { return strings.EqualFold(mat.Subject, v) },
			"level":   func(mat Material, v string) bool { return strings.EqualFold(mat.Level, v) },
			"author":  func(mat Material, v string) bool { return mat.AuthorID == v },
			"published": func(mat Material, v string) bool {
				return mat.Published == (v == "true")
			},
		},
		Date: func(mat Material) time.Time { return mat.UpdatedAt },
		Sorts: map[string]listquery.LessFunc[Material]{
			"title":      listquery.CollateStrings(m.collator, func(mat Material) string { return mat.Title }),
			"subject":    listquery.CollateStrings(m.collator, func(mat Material) string { return mat.Subject }),
			"updated_at": listquery.ByTime(func(mat Material) time.Time { return mat.UpdatedAt }),
		},
		DefaultSort: "updated_at",
	}
}

// visibleMaterials returns the materials the caller may see: staff see
// everything, students and parents only published entries.
func (m *Module) visibleMaterials(r *http.Request, claims *auth.Claims) ([]Material, error) {
	params := ListMaterialsParams{}
	if !auth.StaffRoles[auth.Role(claims.Role)] {
		params.PublishedOnly = true
	}
	return m.store.ListMaterials(r.Context(), params)
}

// handleListMaterials lists materials with search, filters, sorting, and
// pagination.
//
//	@Summary		List learning materials
//	@Tags			library
//	@Produce		json
//	@Security		BearerAuth
//	@Param			q query string false "Search text"
//	@Param			sort query string false "Sort key (title, subject, updated_at)"
//	@Success		200 {object} listquery.Result[Material]
//	@Router			/library/materials [get]
func (m *Module) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		libraryWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	materials, err := m.visibleMaterials(r, claims)
	if err != nil {
		m.logger.Warn("failed to list materials", zap.Error(err))
		libraryWriteError(w, http.StatusInternalServerError, "failed to list materials")
		return
	}
	params := listquery.ParseParams(r.URL.Query())
	result := listquery.Apply(materials, params, m.listSchema(), time.Now())
	libraryWriteJSON(w, http.StatusOK, result)
}

// handleCreateMaterial drafts a new material. Staff only.
func (m *Module) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}

	req, ok := m.decodeMaterial(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	mat := &Material{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Subject:   req.Subject,
		Level:     req.Level,
		Body:      req.Body,
		AuthorID:  claims.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.InsertMaterial(r.Context(), mat); err != nil {
		m.logger.Warn("failed to insert material", zap.Error(err))
		libraryWriteError(w, http.StatusInternalServerError, "failed to create material")
		return
	}
	libraryWriteJSON(w, http.StatusCreated, mat)
}

// handleGetMaterial returns one material the caller may see.
func (m *Module) handleGetMaterial(w http.ResponseWriter, r *http.Request) {
	mat, _, ok := m.accessibleMaterial(w, r)
	if !ok {
		return
	}
	libraryWriteJSON(w, http.StatusOK, mat)
}

// handleUpdateMaterial rewrites a material. Author or admin.
func (m *Module) handleUpdateMaterial(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	mat, err := m.store.GetMaterial(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get material", zap.Error(err))
		libraryWriteError(w, http.StatusInternalServerError, "failed to update material")
		return
	}
	if mat == nil {
		libraryWriteError(w, http.StatusNotFound, "material not found")
		return
	}
	if mat.AuthorID != claims.UserID && auth.Role(claims.Role) != auth.RoleAdmin {
		libraryWriteError(w, http.StatusForbidden, "only the author can edit this material")
		return
	}

	req, ok := m.decodeMaterial(w, r)
	if !ok {
		return
	}
	mat.Title = req.Title
	mat.Subject = req.Subject
	mat.Level = req.Level
	mat.Body = req.Body
	mat.UpdatedAt = time.Now().UTC()
	if err := m.store.UpdateMaterial(r.Context(), mat); err != nil {
		m.logger.Warn("failed to update material", zap.Error(err))
		libraryWriteError(w, http.StatusInternalServerError, "failed to update material")
		return
	}
	libraryWriteJSON(w, http.StatusOK, mat)
}

// handleDeleteMaterial removes a material. Author or admin.
func (m *Module) handleDeleteMaterial(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	mat, err := m.store.GetMaterial(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get material", zap.Error(err))
		libraryWriteError(w, http.StatusInternalServerError, "failed to delete material")
		return
	}
	if mat == nil {
		libraryWriteError(w, http.StatusNotFound, "material not found")
		return
	}
	if mat.AuthorID != claims.UserID && auth.Role(claims.Role) != auth.RoleAdmin {
		libraryWriteError(w, http.StatusForbidden, "only the author can delete this material")
		return
	}
	if _, err := m.store.DeleteMaterial(r.Context(), mat.ID); err != nil {
		m.logger.Warn("failed to delete material", zap.Error(err))
		libraryWriteError(w, http.StatusInternalServerError, "failed to delete material")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePublishMaterial flips a draft to published and announces it.
func (m *Module) handlePublishMaterial(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	mat, err := m.store.GetMaterial(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get material", zap.Error(err))
		libraryWriteError(w, http.StatusInternalServerError, "failed to publish material")
		return
	}
	if mat == nil {
		libraryWriteError(w, http.StatusNotFound, "material not found")
		return
	}
	if mat.AuthorID != claims.UserID && auth.Role(claims.Role) != auth.RoleAdmin {
		libraryWriteError(w, http.StatusForbidden, "only the author can publish this material")
		return
	}
	if mat.Published {
		libraryWriteError(w, http.StatusConflict, "material is already published")
		return
	}

	mat.Published = true
	mat.UpdatedAt = time.Now().UTC()
	if err := m.store.UpdateMaterial(r.Context(), mat); err != nil {
		m.logger.Warn("failed to publish material", zap.Error(err))
		libraryWriteError(w, http.StatusInternalServerError, "failed to publish material")
		return
	}

	m.publishEvent(r.Context(), TopicMaterialPublished, MaterialEvent{
		MaterialID: mat.ID,
		Title:      mat.Title,
		Subject:    mat.Subject,
		Level:      mat.Level,
		AuthorID:   mat.AuthorID,
	})
	libraryWriteJSON(w, http.StatusOK, mat)
}

// handlePreviewMaterial renders the markdown body to HTML.
func (m *Module) handlePreviewMaterial(w http.ResponseWriter, r *http.Request) {
	mat, _, ok := m.accessibleMaterial(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(renderMarkdown(mat.Body)))
}

// accessibleMaterial loads the material in the path and enforces read
// access: published materials are platform-wide, drafts author and staff
// only.
func (m *Module) accessibleMaterial(w http.ResponseWriter, r *http.Request) (*Material, *auth.Claims, bool) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		libraryWriteError(w, http.StatusUnauthorized, "authentication required")
		return nil, nil, false
	}
	mat, err := m.store.GetMaterial(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get material", zap.Error(err))
		libraryWriteError(w, http.StatusInternalServerError, "failed to get material")
		return nil, nil, false
	}
	if mat == nil {
		libraryWriteError(w, http.StatusNotFound, "material not found")
		return nil, nil, false
	}
	if !mat.Published && !auth.StaffRoles[auth.Role(claims.Role)] {
		libraryWriteError(w, http.StatusNotFound, "material not found")
		return nil, nil, false
	}
	return mat, claims, true
}

// decodeMaterial reads and validates a material payload, enforcing the
// configured body size cap.
func (m *Module) decodeMaterial(w http.ResponseWriter, r *http.Request) (MaterialRequest, bool) {
	if m.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, m.cfg.MaxUploadBytes)
	}
	var req MaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			libraryWriteError(w, http.StatusRequestEntityTooLarge, "material body exceeds the upload limit")
			return req, false
		}
		libraryWriteError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Title == "" || req.Subject == "" {
		libraryWriteError(w, http.StatusBadRequest, "title and subject are required")
		return req, false
	}
	return req, true
}

func libraryWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func libraryWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://studyhall.app/problems/library-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
