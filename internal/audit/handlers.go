package audit

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/pkg/listquery"
	"github.com/studyhallhq/studyhall/pkg/module"
)

// Routes implements module.HTTPProvider.
func (m *Module) Routes() []module.Route {
	return []module.Route{
		{Method: "GET", Path: "/entries", Handler: m.handleListEntries},
	}
}

// auditSchema describes how the audit list searches, filters, and sorts.
func auditSchema() listquery.Schema[Entry] {
	return listquery.Schema[Entry]{
		SearchText: func(e Entry) []string {
			return []string{e.Action, e.Module, e.Actor, e.Entity, e.Detail}
		},
		Filters: map[string]listquery.FilterFunc[Entry]{
			"module": func(e Entry, v string) bool { return e.Module == v },
			"action": func(e Entry, v string) bool { return e.Action == v },
			"actor":  func(e Entry, v string) bool { return e.Actor == v },
			"entity": func(e Entry, v string) bool { return e.Entity == v },
		},
		Date: func(e Entry) time.Time { return e.Time },
		Sorts: map[string]listquery.LessFunc[Entry]{
			"time":   listquery.ByTime(func(e Entry) time.Time { return e.Time }),
			"module": func(a, b Entry) bool { return strings.Compare(a.Module, b.Module) < 0 },
			"action": func(a, b Entry) bool { return strings.Compare(a.Action, b.Action) < 0 },
		},
		DefaultSort: "time",
	}
}

// handleListEntries runs the list query over the audit trail, admin only.
//
//	@Summary		List audit entries
//	@Description	Search, filter, sort, and paginate the audit trail.
//	@Tags			audit
//	@Produce		json
//	@Security		BearerAuth
//	@Param			q query string false "Search term"
//	@Param			range query string false "Relative window: 7d, 30d, 90d"
//	@Success		200 {object} listquery.Result[Entry]
//	@Router			/audit/entries [get]
func (m *Module) handleListEntries(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin) {
		return
	}
	entries, err := m.store.List(r.Context(), 0)
	if err != nil {
		m.logger.Warn("failed to list audit entries", zap.Error(err))
		auditWriteError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}

	params := listquery.ParseParams(r.URL.Query())
	if params.SortKey == "" {
		// The trail reads newest first by default.
		params.SortKey = "time"
		params.SortDir = listquery.Desc
	}
	result := listquery.Apply(entries, params, auditSchema(), time.Now())
	auditWriteJSON(w, http.StatusOK, result)
}

func auditWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func auditWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://studyhall.app/problems/audit-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
