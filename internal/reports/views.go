package reports

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/pkg/listquery"
)

// CreateViewRequest is the payload for saving a list view.
type CreateViewRequest struct {
	Name  string           `json:"name"`
	State listquery.Params `json:"state"`
}

// ViewPatch mutates one saved view. Every present field is applied through
// the corresponding State setter, so filter, search, sort, date, and page
// size changes reset the page while a bare page change does not.
type ViewPatch struct {
	Name    *string              `json:"name,omitempty"`
	Search  *string              `json:"search,omitempty"`
	Filter  *FilterPatch         `json:"filter,omitempty"`
	Dates   *listquery.DateRange `json:"dates,omitempty"`
	Sort    *SortPatch           `json:"sort,omitempty"`
	PerPage *int                 `json:"per_page,omitempty"`
	Page    *int                 `json:"page,omitempty"`
}

// FilterPatch sets one categorical filter; an empty value clears it.
type FilterPatch struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SortPatch replaces the sort key and direction.
type SortPatch struct {
	Key string            `json:"key"`
	Dir listquery.SortDir `json:"dir"`
}

// handleListViews returns the caller's saved views.
func (m *Module) handleListViews(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		reportsWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	views, err := m.store.ListViews(r.Context(), claims.UserID)
	if err != nil {
		m.logger.Warn("failed to list views", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to list views")
		return
	}
	if views == nil {
		views = []SavedView{}
	}
	reportsWriteJSON(w, http.StatusOK, views)
}

// handleCreateView saves a new view for the caller.
func (m *Module) handleCreateView(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		reportsWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req CreateViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reportsWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		reportsWriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now().UTC()
	view := &SavedView{
		ID:        uuid.NewString(),
		UserID:    claims.UserID,
		Name:      strings.TrimSpace(req.Name),
		State:     listquery.NewState(req.State),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.InsertView(r.Context(), view); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			reportsWriteError(w, http.StatusConflict, "a view with this name already exists")
			return
		}
		m.logger.Warn("failed to insert view", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to save view")
		return
	}
	reportsWriteJSON(w, http.StatusCreated, view)
}

// handleGetView returns one of the caller's views.
func (m *Module) handleGetView(w http.ResponseWriter, r *http.Request) {
	view, ok := m.ownedView(w, r)
	if !ok {
		return
	}
	reportsWriteJSON(w, http.StatusOK, view)
}

// handlePatchView applies mutations to a saved view and persists the
// resulting state.
func (m *Module) handlePatchView(w http.ResponseWriter, r *http.Request) {
	view, ok := m.ownedView(w, r)
	if !ok {
		return
	}
	var patch ViewPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		reportsWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			reportsWriteError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		view.Name = name
	}
	if patch.Search != nil {
		view.State.SetSearch(*patch.Search)
	}
	if patch.Filter != nil {
		if patch.Filter.Name == "" {
			reportsWriteError(w, http.StatusBadRequest, "filter name is required")
			return
		}
		view.State.SetFilter(patch.Filter.Name, patch.Filter.Value)
	}
	if patch.Dates != nil {
		if !patch.Dates.Preset.Valid() {
			reportsWriteError(w, http.StatusBadRequest, "unknown date range preset")
			return
		}
		view.State.SetDateRange(*patch.Dates)
	}
	if patch.Sort != nil {
		view.State.SetSort(patch.Sort.Key, patch.Sort.Dir)
	}
	if patch.PerPage != nil {
		view.State.SetPerPage(*patch.PerPage)
	}
	if patch.Page != nil {
		view.State.SetPage(*patch.Page)
	}

	view.UpdatedAt = time.Now().UTC()
	if err := m.store.UpdateView(r.Context(), view); err != nil {
		m.logger.Warn("failed to update view", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to update view")
		return
	}
	reportsWriteJSON(w, http.StatusOK, view)
}

// handleDeleteView removes one of the caller's views.
func (m *Module) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	view, ok := m.ownedView(w, r)
	if !ok {
		return
	}
	if _, err := m.store.DeleteView(r.Context(), view.ID); err != nil {
		m.logger.Warn("failed to delete view", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to delete view")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleViewResults evaluates a saved view against the caller's visible
// reports.
func (m *Module) handleViewResults(w http.ResponseWriter, r *http.Request) {
	view, ok := m.ownedView(w, r)
	if !ok {
		return
	}
	claims := auth.UserFromContext(r.Context())
	visible, err := m.visibleReports(r, claims)
	if err != nil {
		m.logger.Warn("failed to load reports", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to evaluate view")
		return
	}
	result := listquery.Apply(m.toRows(r, visible), view.State.Params(), m.listSchema(), time.Now())
	reportsWriteJSON(w, http.StatusOK, result)
}

// ownedView loads the view in the path and enforces ownership. On failure
// it writes the error response and returns ok=false.
func (m *Module) ownedView(w http.ResponseWriter, r *http.Request) (*SavedView, bool) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		reportsWriteError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	view, err := m.store.GetView(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get view", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to get view")
		return nil, false
	}
	if view == nil || view.UserID != claims.UserID {
		// Hide other users' views entirely.
		reportsWriteError(w, http.StatusNotFound, "view not found")
		return nil, false
	}
	return view, true
}
