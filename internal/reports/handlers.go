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
	"github.com/studyhallhq/studyhall/pkg/module"
)

// Routes implements module.HTTPProvider.
func (m *Module) Routes() []module.Route {
	return []module.Route{
		{Method: "GET", Path: "/reports", Handler: m.handleListReports},
		{Method: "POST", Path: "/reports", Handler: m.handleCreateReport},
		{Method: "GET", Path: "/reports/{id}", Handler: m.handleGetReport},
		{Method: "PUT", Path: "/reports/{id}", Handler: m.handleUpdateReport},
		{Method: "DELETE", Path: "/reports/{id}", Handler: m.handleDeleteReport},
		{Method: "POST", Path: "/reports/{id}/publish", Handler: m.handlePublishReport},
		{Method: "GET", Path: "/summary", Handler: m.handleSummary},
		{Method: "GET", Path: "/views", Handler: m.handleListViews},
		{Method: "POST", Path: "/views", Handler: m.handleCreateView},
		{Method: "GET", Path: "/views/{id}", Handler: m.handleGetView},
		{Method: "PATCH", Path: "/views/{id}", Handler: m.handlePatchView},
		{Method: "DELETE", Path: "/views/{id}", Handler: m.handleDeleteView},
		{Method: "GET", Path: "/views/{id}/results", Handler: m.handleViewResults},
	}
}

// ReportRow is a report joined with resolved display names for list views.
type ReportRow struct {
	Report
	StudentName string `json:"student_name,omitempty"`
	TutorName   string `json:"tutor_name,omitempty"`
}

// CreateReportRequest is the payload for writing a session report.
type CreateReportRequest struct {
	LessonID  string    `json:"lesson_id"`
	TutorID   string    `json:"tutor_id"`
	StudentID string    `json:"student_id"`
	Subject   string    `json:"subject"`
	HeldAt    time.Time `json:"held_at"`
	Progress  string    `json:"progress"`
	Rating    int       `json:"rating"`
	Homework  string    `json:"homework"`
}

// UpdateReportRequest is the payload for editing a session report.
type UpdateReportRequest struct {
	Subject  string     `json:"subject"`
	HeldAt   *time.Time `json:"held_at"`
	Progress *string    `json:"progress"`
	Rating   *int       `json:"rating"`
	Homework *string    `json:"homework"`
}

// listSchema describes how the report list searches, filters, and sorts.
func (m *Module) listSchema() listquery.Schema[ReportRow] {
	return listquery.Schema[ReportRow]{
		SearchText: func(r ReportRow) []string {
			return []string{r.Subject, r.Progress, r.Homework, r.StudentName, r.TutorName}
		},
		Filters: map[string]listquery.FilterFunc[ReportRow]{
			"student": func(r ReportRow, v string) bool { return r.StudentID == v },
			"tutor":   func(r ReportRow, v string) bool { return r.TutorID == v },
			"subject": func(r ReportRow, v string) bool { return strings.EqualFold(r.Subject, v) },
			"published": func(r ReportRow, v string) bool {
				return (v == "true") == r.Published
			},
			"rating": func(r ReportRow, v string) bool {
				return len(v) == 1 && v[0] >= '1' && v[0] <= '5' && r.Rating == int(v[0]-'0')
			},
		},
		Date: func(r ReportRow) time.Time { return r.HeldAt },
		Sorts: map[string]listquery.LessFunc[ReportRow]{
			"held_at": listquery.ByTime(func(r ReportRow) time.Time { return r.HeldAt }),
			"rating":  listquery.ByInt(func(r ReportRow) int { return r.Rating }),
			"student": listquery.CollateStrings(m.collator, func(r ReportRow) string { return r.StudentName }),
			"subject": listquery.CollateStrings(m.collator, func(r ReportRow) string { return r.Subject }),
		},
		DefaultSort: "held_at",
	}
}

// visibleReports loads the reports the caller is allowed to see.
func (m *Module) visibleReports(r *http.Request, claims *auth.Claims) ([]Report, error) {
	scope := ListReportsParams{}
	switch auth.Role(claims.Role) {
	case auth.RoleAdmin, auth.RoleTeacher:
	case auth.RoleTutor:
		scope.TutorID = claims.UserID
	case auth.RoleStudent:
		scope.StudentIDs = []string{claims.UserID}
		scope.PublishedOnly = true
	case auth.RoleParent:
		if m.guardians == nil {
			return nil, nil
		}
		students, err := m.guardians.StudentsOfGuardian(r.Context(), claims.UserID)
		if err != nil {
			return nil, err
		}
		if len(students) == 0 {
			return nil, nil
		}
		scope.StudentIDs = students
		scope.PublishedOnly = true
	default:
		return nil, nil
	}
	return m.store.ListReports(r.Context(), scope)
}

func (m *Module) toRows(r *http.Request, reports []Report) []ReportRow {
	rows := make([]ReportRow, len(reports))
	names := make(map[string]string)
	resolve := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := m.displayName(r.Context(), id)
		names[id] = name
		return name
	}
	for i, rep := range reports {
		rows[i] = ReportRow{
			Report:      rep,
			StudentName: resolve(rep.StudentID),
			TutorName:   resolve(rep.TutorID),
		}
	}
	return rows
}

// handleListReports runs the list query over the caller's visible reports.
//
//	@Summary		List reports
//	@Description	Search, filter, sort, and paginate session reports.
//	@Tags			reports
//	@Produce		json
//	@Security		BearerAuth
//	@Param			q query string false "Search term"
//	@Param			sort query string false "Sort key: held_at, rating, student, subject"
//	@Param			page query int false "Page number"
//	@Success		200 {object} listquery.Result[ReportRow]
//	@Router			/reports/reports [get]
func (m *Module) handleListReports(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		reportsWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	visible, err := m.visibleReports(r, claims)
	if err != nil {
		m.logger.Warn("failed to load reports", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	params := listquery.ParseParams(r.URL.Query())
	result := listquery.Apply(m.toRows(r, visible), params, m.listSchema(), time.Now())
	reportsWriteJSON(w, http.StatusOK, result)
}

// handleCreateReport writes a new draft report. Tutors author their own.
func (m *Module) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	claims := auth.UserFromContext(r.Context())

	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reportsWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if auth.Role(claims.Role) == auth.RoleTutor || req.TutorID == "" {
		req.TutorID = claims.UserID
	}
	if req.StudentID == "" || strings.TrimSpace(req.Subject) == "" {
		reportsWriteError(w, http.StatusBadRequest, "student_id and subject are required")
		return
	}
	if req.Rating != 0 && (req.Rating < 1 || req.Rating > 5) {
		reportsWriteError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}
	if req.HeldAt.IsZero() {
		req.HeldAt = time.Now().UTC()
	}

	now := time.Now().UTC()
	report := &Report{
		ID:        uuid.NewString(),
		LessonID:  req.LessonID,
		TutorID:   req.TutorID,
		StudentID: req.StudentID,
		Subject:   strings.TrimSpace(req.Subject),
		HeldAt:    req.HeldAt,
		Progress:  req.Progress,
		Rating:    req.Rating,
		Homework:  req.Homework,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.InsertReport(r.Context(), report); err != nil {
		m.logger.Warn("failed to insert report", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to create report")
		return
	}
	reportsWriteJSON(w, http.StatusCreated, report)
}

// handleGetReport returns one report if the caller may see it.
func (m *Module) handleGetReport(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		reportsWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	report, err := m.store.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get report", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to get report")
		return
	}
	if report == nil {
		reportsWriteError(w, http.StatusNotFound, "report not found")
		return
	}
	allowed, err := m.canViewReport(r, claims, report)
	if err != nil {
		m.logger.Warn("failed to check report access", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to get report")
		return
	}
	if !allowed {
		reportsWriteError(w, http.StatusForbidden, "not allowed to view this report")
		return
	}
	reportsWriteJSON(w, http.StatusOK, report)
}

// handleUpdateReport edits a report. Admins and teachers may edit any,
// tutors only their own.
func (m *Module) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	claims := auth.UserFromContext(r.Context())

	report, err := m.store.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get report", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to update report")
		return
	}
	if report == nil {
		reportsWriteError(w, http.StatusNotFound, "report not found")
		return
	}
	if auth.Role(claims.Role) == auth.RoleTutor && report.TutorID != claims.UserID {
		reportsWriteError(w, http.StatusForbidden, "not allowed to edit this report")
		return
	}

	var req UpdateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		reportsWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Subject != "" {
		report.Subject = strings.TrimSpace(req.Subject)
	}
	if req.HeldAt != nil {
		report.HeldAt = *req.HeldAt
	}
	if req.Progress != nil {
		report.Progress = *req.Progress
	}
	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			reportsWriteError(w, http.StatusBadRequest, "rating must be between 1 and 5")
			return
		}
		report.Rating = *req.Rating
	}
	if req.Homework != nil {
		report.Homework = *req.Homework
	}

	report.UpdatedAt = time.Now().UTC()
	if err := m.store.UpdateReport(r.Context(), report); err != nil {
		m.logger.Warn("failed to update report", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to update report")
		return
	}
	reportsWriteJSON(w, http.StatusOK, report)
}

// handlePublishReport marks a report published and announces it.
func (m *Module) handlePublishReport(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	claims := auth.UserFromContext(r.Context())

	report, err := m.store.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get report", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to publish report")
		return
	}
	if report == nil {
		reportsWriteError(w, http.StatusNotFound, "report not found")
		return
	}
	if auth.Role(claims.Role) == auth.RoleTutor && report.TutorID != claims.UserID {
		reportsWriteError(w, http.StatusForbidden, "not allowed to publish this report")
		return
	}
	if report.Published {
		reportsWriteError(w, http.StatusConflict, "report is already published")
		return
	}

	report.Published = true
	report.UpdatedAt = time.Now().UTC()
	if err := m.store.UpdateReport(r.Context(), report); err != nil {
		m.logger.Warn("failed to publish report", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to publish report")
		return
	}

	m.publishEvent(r.Context(), TopicReportPublished, ReportEvent{
		ReportID:  report.ID,
		LessonID:  report.LessonID,
		TutorID:   report.TutorID,
		StudentID: report.StudentID,
		Subject:   report.Subject,
		Rating:    report.Rating,
	})
	reportsWriteJSON(w, http.StatusOK, report)
}

// handleDeleteReport removes a report. Admins may delete any; authors may
// delete their own unpublished drafts.
func (m *Module) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	claims := auth.UserFromContext(r.Context())

	report, err := m.store.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get report", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to delete report")
		return
	}
	if report == nil {
		reportsWriteError(w, http.StatusNotFound, "report not found")
		return
	}
	if auth.Role(claims.Role) != auth.RoleAdmin {
		if report.TutorID != claims.UserID || report.Published {
			reportsWriteError(w, http.StatusForbidden, "only admins can delete published reports")
			return
		}
	}
	if _, err := m.store.DeleteReport(r.Context(), report.ID); err != nil {
		m.logger.Warn("failed to delete report", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to delete report")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSummary builds a per-student summary for a date range.
//
//	@Summary		Student summary
//	@Tags			reports
//	@Produce		json
//	@Security		BearerAuth
//	@Param			student_id query string true "Student"
//	@Param			from query string false "Range start (RFC 3339)"
//	@Param			to query string false "Range end (RFC 3339)"
//	@Success		200 {object} Summary
//	@Router			/reports/summary [get]
func (m *Module) handleSummary(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		reportsWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	studentID := r.URL.Query().Get("student_id")
	if studentID == "" {
		reportsWriteError(w, http.StatusBadRequest, "student_id is required")
		return
	}
	allowed, err := m.canViewStudent(r, claims, studentID)
	if err != nil {
		m.logger.Warn("failed to check summary access", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	if !allowed {
		reportsWriteError(w, http.StatusForbidden, "not allowed to view this student")
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, -1, 0)
	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			reportsWriteError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			reportsWriteError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
	}

	summary, err := m.BuildSummary(r.Context(), studentID, from, to)
	if err != nil {
		m.logger.Warn("failed to build summary", zap.Error(err))
		reportsWriteError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	reportsWriteJSON(w, http.StatusOK, summary)
}

// canViewReport checks role-based access to one report.
func (m *Module) canViewReport(r *http.Request, claims *auth.Claims, rep *Report) (bool, error) {
	switch auth.Role(claims.Role) {
	case auth.RoleAdmin, auth.RoleTeacher:
		return true, nil
	case auth.RoleTutor:
		return rep.TutorID == claims.UserID, nil
	case auth.RoleStudent:
		return rep.StudentID == claims.UserID && rep.Published, nil
	case auth.RoleParent:
		if !rep.Published {
			return false, nil
		}
		return m.isGuardianOf(r, claims.UserID, rep.StudentID)
	}
	return false, nil
}

// canViewStudent checks whether the caller may see a student's summary.
func (m *Module) canViewStudent(r *http.Request, claims *auth.Claims, studentID string) (bool, error) {
	switch auth.Role(claims.Role) {
	case auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor:
		return true, nil
	case auth.RoleStudent:
		return claims.UserID == studentID, nil
	case auth.RoleParent:
		return m.isGuardianOf(r, claims.UserID, studentID)
	}
	return false, nil
}

func (m *Module) isGuardianOf(r *http.Request, guardianID, studentID string) (bool, error) {
	if m.guardians == nil {
		return false, nil
	}
	students, err := m.guardians.StudentsOfGuardian(r.Context(), guardianID)
	if err != nil {
		return false, err
	}
	for _, id := range students {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func reportsWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func reportsWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://studyhall.app/problems/reports-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
