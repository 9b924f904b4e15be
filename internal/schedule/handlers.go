package schedule

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/pkg/module"
)

// Routes implements module.HTTPProvider.
func (m *Module) Routes() []module.Route {
	return []module.Route{
		{Method: "GET", Path: "/lessons", Handler: m.handleListLessons},
		{Method: "POST", Path: "/lessons", Handler: m.handleCreateLesson},
		{Method: "GET", Path: "/lessons/{id}", Handler: m.handleGetLesson},
		{Method: "PUT", Path: "/lessons/{id}", Handler: m.handleUpdateLesson},
		{Method: "POST", Path: "/lessons/{id}/cancel", Handler: m.handleCancelLesson},
	}
}

// CreateLessonRequest is the payload for booking a lesson.
type CreateLessonRequest struct {
	TutorID   string    `json:"tutor_id"`
	StudentID string    `json:"student_id"`
	Subject   string    `json:"subject"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Location  string    `json:"location"`
	Notes     string    `json:"notes"`
}

// UpdateLessonRequest is the payload for editing a lesson.
type UpdateLessonRequest struct {
	Subject  string    `json:"subject"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Location string    `json:"location"`
	Status   string    `json:"status"`
	Notes    string    `json:"notes"`
}

// handleListLessons returns the caller's calendar for a date range.
// Admins see everything, tutors and teachers their own teaching schedule,
// students their own lessons, and parents their linked students' lessons.
//
//	@Summary		List lessons
//	@Tags			schedule
//	@Produce		json
//	@Security		BearerAuth
//	@Param			from query string false "Range start (RFC 3339)"
//	@Param			to query string false "Range end (RFC 3339)"
//	@Param			status query string false "Filter by status"
//	@Success		200 {array} Lesson
//	@Router			/schedule/lessons [get]
func (m *Module) handleListLessons(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		scheduleWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	params := ListLessonsParams{Status: r.URL.Query().Get("status")}
	var err error
	if params.From, err = parseTimeParam(r, "from"); err != nil {
		scheduleWriteError(w, http.StatusBadRequest, "invalid from timestamp")
		return
	}
	if params.To, err = parseTimeParam(r, "to"); err != nil {
		scheduleWriteError(w, http.StatusBadRequest, "invalid to timestamp")
		return
	}

	switch auth.Role(claims.Role) {
	case auth.RoleAdmin:
		params.TutorID = r.URL.Query().Get("tutor_id")
		if id := r.URL.Query().Get("student_id"); id != "" {
			params.StudentIDs = []string{id}
		}
	case auth.RoleTeacher, auth.RoleTutor:
		params.TutorID = claims.UserID
	case auth.RoleStudent:
		params.StudentIDs = []string{claims.UserID}
	case auth.RoleParent:
		if m.guardians == nil {
			scheduleWriteJSON(w, http.StatusOK, []Lesson{})
			return
		}
		students, err := m.guardians.StudentsOfGuardian(r.Context(), claims.UserID)
		if err != nil {
			m.logger.Warn("failed to resolve guardian students", zap.Error(err))
			scheduleWriteError(w, http.StatusInternalServerError, "failed to list lessons")
			return
		}
		if len(students) == 0 {
			scheduleWriteJSON(w, http.StatusOK, []Lesson{})
			return
		}
		params.StudentIDs = students
	default:
		scheduleWriteError(w, http.StatusForbidden, "unknown role")
		return
	}

	lessons, err := m.store.ListLessons(r.Context(), params)
	if err != nil {
		m.logger.Warn("failed to list lessons", zap.Error(err))
		scheduleWriteError(w, http.StatusInternalServerError, "failed to list lessons")
		return
	}
	if lessons == nil {
		lessons = []Lesson{}
	}
	scheduleWriteJSON(w, http.StatusOK, lessons)
}

// handleCreateLesson books a lesson. Staff only; tutors can only book
// themselves. Overlapping scheduled lessons for either party conflict.
//
//	@Summary		Book lesson
//	@Tags			schedule
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			lesson body CreateLessonRequest true "Lesson"
//	@Success		201 {object} Lesson
//	@Failure		409 {object} map[string]any
//	@Router			/schedule/lessons [post]
func (m *Module) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	claims := auth.UserFromContext(r.Context())

	var req CreateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		scheduleWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if auth.Role(claims.Role) == auth.RoleTutor {
		req.TutorID = claims.UserID
	}
	if req.TutorID == "" {
		req.TutorID = claims.UserID
	}
	if req.StudentID == "" || strings.TrimSpace(req.Subject) == "" {
		scheduleWriteError(w, http.StatusBadRequest, "student_id and subject are required")
		return
	}
	if req.StartsAt.IsZero() {
		scheduleWriteError(w, http.StatusBadRequest, "starts_at is required")
		return
	}
	if req.EndsAt.IsZero() {
		req.EndsAt = req.StartsAt.Add(time.Duration(m.cfg.DefaultLessonMinutes) * time.Minute)
	}
	if !req.EndsAt.After(req.StartsAt) {
		scheduleWriteError(w, http.StatusBadRequest, "ends_at must be after starts_at")
		return
	}

	ctx := r.Context()
	overlap, err := m.store.HasOverlap(ctx, req.TutorID, req.StudentID, req.StartsAt, req.EndsAt, "")
	if err != nil {
		m.logger.Warn("overlap check failed", zap.Error(err))
		scheduleWriteError(w, http.StatusInternalServerError, "failed to book lesson")
		return
	}
	if overlap {
		scheduleWriteError(w, http.StatusConflict, "lesson overlaps an existing booking")
		return
	}

	now := time.Now().UTC()
	lesson := &Lesson{
		ID:        uuid.NewString(),
		TutorID:   req.TutorID,
		StudentID: req.StudentID,
		Subject:   strings.TrimSpace(req.Subject),
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		Location:  req.Location,
		Status:    StatusScheduled,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.InsertLesson(ctx, lesson); err != nil {
		m.logger.Warn("failed to insert lesson", zap.Error(err))
		scheduleWriteError(w, http.StatusInternalServerError, "failed to book lesson")
		return
	}

	m.publishEvent(ctx, TopicLessonCreated, lessonEvent(lesson))
	scheduleWriteJSON(w, http.StatusCreated, lesson)
}

// handleGetLesson returns one lesson if the caller may see it.
func (m *Module) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		scheduleWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	lesson, err := m.store.GetLesson(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get lesson", zap.Error(err))
		scheduleWriteError(w, http.StatusInternalServerError, "failed to get lesson")
		return
	}
	if lesson == nil {
		scheduleWriteError(w, http.StatusNotFound, "lesson not found")
		return
	}
	allowed, err := m.canViewLesson(r, claims, lesson)
	if err != nil {
		m.logger.Warn("failed to check lesson access", zap.Error(err))
		scheduleWriteError(w, http.StatusInternalServerError, "failed to get lesson")
		return
	}
	if !allowed {
		scheduleWriteError(w, http.StatusForbidden, "not allowed to view this lesson")
		return
	}
	scheduleWriteJSON(w, http.StatusOK, lesson)
}

// handleUpdateLesson edits a lesson. Admins and teachers may edit any
// lesson, tutors their own. Cancelled lessons are immutable; use the
// cancel endpoint instead of setting the status here.
func (m *Module) handleUpdateLesson(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	claims := auth.UserFromContext(r.Context())

	lesson, err := m.store.GetLesson(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get lesson", zap.Error(err))
		scheduleWriteError(w, http.StatusInternalServerError, "failed to update lesson")
		return
	}
	if lesson == nil {
		scheduleWriteError(w, http.StatusNotFound, "lesson not found")
		return
	}
	if auth.Role(claims.Role) == auth.RoleTutor && lesson.TutorID != claims.UserID {
		scheduleWriteError(w, http.StatusForbidden, "not allowed to edit this lesson")
		return
	}
	if lesson.Status == StatusCancelled {
		scheduleWriteError(w, http.StatusConflict, "cancelled lessons cannot be edited")
		return
	}

	var req UpdateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		scheduleWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Subject != "" {
		lesson.Subject = strings.TrimSpace(req.Subject)
	}
	if !req.StartsAt.IsZero() {
		lesson.StartsAt = req.StartsAt
	}
	if !req.EndsAt.IsZero() {
		lesson.EndsAt = req.EndsAt
	}
	if req.Location != "" {
		lesson.Location = req.Location
	}
	if req.Notes != "" {
		lesson.Notes = req.Notes
	}
	if req.Status != "" {
		if req.Status != StatusScheduled && req.Status != StatusCompleted {
			scheduleWriteError(w, http.StatusBadRequest, "status must be scheduled or completed")
			return
		}
		lesson.Status = req.Status
	}
	if !lesson.EndsAt.After(lesson.StartsAt) {
		scheduleWriteError(w, http.StatusBadRequest, "ends_at must be after starts_at")
		return
	}

	ctx := r.Context()
	if lesson.Status == StatusScheduled {
		overlap, err := m.store.HasOverlap(ctx, lesson.TutorID, lesson.StudentID, lesson.StartsAt, lesson.EndsAt, lesson.ID)
		if err != nil {
			m.logger.Warn("overlap check failed", zap.Error(err))
			scheduleWriteError(w, http.StatusInternalServerError, "failed to update lesson")
			return
		}
		if overlap {
			scheduleWriteError(w, http.StatusConflict, "lesson overlaps an existing booking")
			return
		}
	}

	lesson.UpdatedAt = time.Now().UTC()
	if err := m.store.UpdateLesson(ctx, lesson); err != nil {
		m.logger.Warn("failed to update lesson", zap.Error(err))
		scheduleWriteError(w, http.StatusInternalServerError, "failed to update lesson")
		return
	}

	m.publishEvent(ctx, TopicLessonUpdated, lessonEvent(lesson))
	scheduleWriteJSON(w, http.StatusOK, lesson)
}

// handleCancelLesson cancels a scheduled lesson. Non-admins must respect
// the minimum cancellation notice.
func (m *Module) handleCancelLesson(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	claims := auth.UserFromContext(r.Context())

	lesson, err := m.store.GetLesson(r.Context(), r.PathValue("id"))
	if err != nil {
		m.logger.Warn("failed to get lesson", zap.Error(err))
		scheduleWriteError(w, http.StatusInternalServerError, "failed to cancel lesson")
		return
	}
	if lesson == nil {
		scheduleWriteError(w, http.StatusNotFound, "lesson not found")
		return
	}
	if auth.Role(claims.Role) == auth.RoleTutor && lesson.TutorID != claims.UserID {
		scheduleWriteError(w, http.StatusForbidden, "not allowed to cancel this lesson")
		return
	}
	if lesson.Status != StatusScheduled {
		scheduleWriteError(w, http.StatusConflict, "only scheduled lessons can be cancelled")
		return
	}
	if auth.Role(claims.Role) != auth.RoleAdmin && m.cfg.MinCancelNotice > 0 {
		if time.Until(lesson.StartsAt) < m.cfg.MinCancelNotice {
			scheduleWriteError(w, http.StatusConflict, "lesson starts too soon to cancel")
			return
		}
	}

	lesson.Status = StatusCancelled
	lesson.UpdatedAt = time.Now().UTC()
	if err := m.store.UpdateLesson(r.Context(), lesson); err != nil {
		m.logger.Warn("failed to cancel lesson", zap.Error(err))
		scheduleWriteError(w, http.StatusInternalServerError, "failed to cancel lesson")
		return
	}

	m.publishEvent(r.Context(), TopicLessonCancelled, lessonEvent(lesson))
	scheduleWriteJSON(w, http.StatusOK, lesson)
}

// canViewLesson checks role-based access to a single lesson.
func (m *Module) canViewLesson(r *http.Request, claims *auth.Claims, l *Lesson) (bool, error) {
	switch auth.Role(claims.Role) {
	case auth.RoleAdmin, auth.RoleTeacher:
		return true, nil
	case auth.RoleTutor:
		return l.TutorID == claims.UserID, nil
	case auth.RoleStudent:
		return l.StudentID == claims.UserID, nil
	case auth.RoleParent:
		if m.guardians == nil {
			return false, nil
		}
		students, err := m.guardians.StudentsOfGuardian(r.Context(), claims.UserID)
		if err != nil {
			return false, err
		}
		for _, id := range students {
			if id == l.StudentID {
				return true, nil
			}
		}
		return false, nil
	}
	return false, nil
}

func lessonEvent(l *Lesson) LessonEvent {
	return LessonEvent{
		LessonID:  l.ID,
		TutorID:   l.TutorID,
		StudentID: l.StudentID,
		Subject:   l.Subject,
		StartsAt:  l.StartsAt,
	}
}

func parseTimeParam(r *http.Request, key string) (time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func scheduleWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func scheduleWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://studyhall.app/problems/schedule-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
