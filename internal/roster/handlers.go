package roster

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
		{Method: "GET", Path: "/profiles", Handler: m.handleListProfiles},
		{Method: "GET", Path: "/profiles/{user_id}", Handler: m.handleGetProfile},
		{Method: "PUT", Path: "/profiles/{user_id}", Handler: m.handleUpdateProfile},
		{Method: "GET", Path: "/links", Handler: m.handleListLinks},
		{Method: "POST", Path: "/links", Handler: m.handleCreateLink},
		{Method: "DELETE", Path: "/links/{id}", Handler: m.handleDeleteLink},
		{Method: "GET", Path: "/guardians/{guardian_id}/students", Handler: m.handleGuardianStudents},
		{Method: "GET", Path: "/students/{student_id}/guardians", Handler: m.handleStudentGuardians},
		{Method: "GET", Path: "/assignments", Handler: m.handleListAssignments},
		{Method: "POST", Path: "/assignments", Handler: m.handleCreateAssignment},
		{Method: "DELETE", Path: "/assignments/{id}", Handler: m.handleDeleteAssignment},
	}
}

// UpdateProfileRequest is the payload for profile updates.
type UpdateProfileRequest struct {
	DisplayName string   `json:"display_name"`
	Subjects    []string `json:"subjects"`
	GradeLevel  string   `json:"grade_level"`
	Bio         string   `json:"bio"`
	Timezone    string   `json:"timezone"`
}

// CreateLinkRequest is the payload for creating a guardian link.
type CreateLinkRequest struct {
	GuardianID string `json:"guardian_id"`
	StudentID  string `json:"student_id"`
}

// CreateAssignmentRequest is the payload for creating a tutor assignment.
type CreateAssignmentRequest struct {
	TutorID   string `json:"tutor_id"`
	StudentID string `json:"student_id"`
	Subject   string `json:"subject"`
}

// handleListProfiles returns all profiles, staff only.
//
//	@Summary		List profiles
//	@Tags			roster
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200 {array} Profile
//	@Router			/roster/profiles [get]
func (m *Module) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	profiles, err := m.store.ListProfiles(r.Context())
	if err != nil {
		m.logger.Warn("failed to list profiles", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []Profile{}
	}
	rosterWriteJSON(w, http.StatusOK, profiles)
}

// handleGetProfile returns one profile.
//
//	@Summary		Get profile
//	@Tags			roster
//	@Produce		json
//	@Security		BearerAuth
//	@Param			user_id path string true "User ID"
//	@Success		200 {object} Profile
//	@Failure		404 {object} map[string]any
//	@Router			/roster/profiles/{user_id} [get]
func (m *Module) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	profile, err := m.store.GetProfile(r.Context(), userID)
	if err != nil {
		m.logger.Warn("failed to get profile", zap.String("user_id", userID), zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if profile == nil {
		rosterWriteError(w, http.StatusNotFound, "profile not found")
		return
	}
	rosterWriteJSON(w, http.StatusOK, profile)
}

// handleUpdateProfile upserts a profile. Users may edit their own profile,
// admins may edit any.
//
//	@Summary		Update profile
//	@Tags			roster
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			user_id path string true "User ID"
//	@Param			profile body UpdateProfileRequest true "Profile"
//	@Success		200 {object} Profile
//	@Failure		403 {object} map[string]any
//	@Router			/roster/profiles/{user_id} [put]
func (m *Module) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		rosterWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	userID := r.PathValue("user_id")
	if claims.UserID != userID && claims.Role != string(auth.RoleAdmin) {
		rosterWriteError(w, http.StatusForbidden, "cannot edit another user's profile")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rosterWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		rosterWriteError(w, http.StatusBadRequest, "display_name is required")
		return
	}
	tz := req.Timezone
	if tz == "" {
		tz = "UTC"
	} else if _, err := time.LoadLocation(tz); err != nil {
		rosterWriteError(w, http.StatusBadRequest, "invalid timezone")
		return
	}

	profile := &Profile{
		UserID:      userID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Subjects:    req.Subjects,
		GradeLevel:  req.GradeLevel,
		Bio:         req.Bio,
		Timezone:    tz,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := m.store.UpsertProfile(r.Context(), profile); err != nil {
		m.logger.Warn("failed to save profile", zap.String("user_id", userID), zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	m.publishEvent(r.Context(), TopicProfileUpdated, ProfileEvent{
		UserID:      userID,
		DisplayName: profile.DisplayName,
	})
	rosterWriteJSON(w, http.StatusOK, profile)
}

// handleListLinks returns guardian links, admin only.
func (m *Module) handleListLinks(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin) {
		return
	}
	links, err := m.store.ListGuardianLinks(r.Context(), r.URL.Query().Get("guardian_id"))
	if err != nil {
		m.logger.Warn("failed to list guardian links", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to list guardian links")
		return
	}
	if links == nil {
		links = []GuardianLink{}
	}
	rosterWriteJSON(w, http.StatusOK, links)
}

// handleCreateLink links a guardian to a student, admin only.
//
//	@Summary		Link guardian to student
//	@Tags			roster
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			link body CreateLinkRequest true "Link"
//	@Success		201 {object} GuardianLink
//	@Failure		409 {object} map[string]any
//	@Router			/roster/links [post]
func (m *Module) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin) {
		return
	}
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rosterWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GuardianID == "" || req.StudentID == "" {
		rosterWriteError(w, http.StatusBadRequest, "guardian_id and student_id are required")
		return
	}
	if req.GuardianID == req.StudentID {
		rosterWriteError(w, http.StatusBadRequest, "guardian and student must differ")
		return
	}

	ctx := r.Context()
	exists, err := m.store.HasGuardianLink(ctx, req.GuardianID, req.StudentID)
	if err != nil {
		m.logger.Warn("failed to check guardian link", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to create link")
		return
	}
	if exists {
		rosterWriteError(w, http.StatusConflict, "guardian is already linked to this student")
		return
	}
	count, err := m.store.CountStudentsOfGuardian(ctx, req.GuardianID)
	if err != nil {
		m.logger.Warn("failed to count guardian students", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to create link")
		return
	}
	if m.cfg.MaxStudentsPerGuardian > 0 && count >= m.cfg.MaxStudentsPerGuardian {
		rosterWriteError(w, http.StatusConflict, "guardian has reached the maximum number of linked students")
		return
	}

	link := &GuardianLink{
		ID:         uuid.NewString(),
		GuardianID: req.GuardianID,
		StudentID:  req.StudentID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := m.store.InsertGuardianLink(ctx, link); err != nil {
		m.logger.Warn("failed to insert guardian link", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to create link")
		return
	}

	m.publishEvent(ctx, TopicGuardianLinked, GuardianEvent{
		LinkID:     link.ID,
		GuardianID: link.GuardianID,
		StudentID:  link.StudentID,
	})
	rosterWriteJSON(w, http.StatusCreated, link)
}

// handleDeleteLink removes a guardian link, admin only.
func (m *Module) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin) {
		return
	}
	id := r.PathValue("id")
	link, err := m.store.GetGuardianLink(r.Context(), id)
	if err != nil {
		m.logger.Warn("failed to get guardian link", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to delete link")
		return
	}
	if link == nil {
		rosterWriteError(w, http.StatusNotFound, "link not found")
		return
	}
	if _, err := m.store.DeleteGuardianLink(r.Context(), id); err != nil {
		m.logger.Warn("failed to delete guardian link", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to delete link")
		return
	}

	m.publishEvent(r.Context(), TopicGuardianUnlinked, GuardianEvent{
		LinkID:     link.ID,
		GuardianID: link.GuardianID,
		StudentID:  link.StudentID,
	})
	w.WriteHeader(http.StatusNoContent)
}

// handleGuardianStudents returns a guardian's linked students. Guardians may
// query themselves; staff may query anyone.
func (m *Module) handleGuardianStudents(w http.ResponseWriter, r *http.Request) {
	claims := auth.UserFromContext(r.Context())
	if claims == nil {
		rosterWriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	guardianID := r.PathValue("guardian_id")
	if claims.UserID != guardianID && !auth.StaffRoles[auth.Role(claims.Role)] {
		rosterWriteError(w, http.StatusForbidden, "cannot view another guardian's students")
		return
	}
	ids, err := m.store.StudentsOfGuardian(r.Context(), guardianID)
	if err != nil {
		m.logger.Warn("failed to list guardian students", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to list students")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	rosterWriteJSON(w, http.StatusOK, map[string]any{"guardian_id": guardianID, "student_ids": ids})
}

// handleStudentGuardians returns a student's guardians, staff only.
func (m *Module) handleStudentGuardians(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	studentID := r.PathValue("student_id")
	ids, err := m.store.GuardiansOfStudent(r.Context(), studentID)
	if err != nil {
		m.logger.Warn("failed to list student guardians", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to list guardians")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	rosterWriteJSON(w, http.StatusOK, map[string]any{"student_id": studentID, "guardian_ids": ids})
}

// handleListAssignments returns assignments, staff only.
//
//	@Summary		List assignments
//	@Tags			roster
//	@Produce		json
//	@Security		BearerAuth
//	@Param			tutor_id query string false "Filter by tutor"
//	@Param			student_id query string false "Filter by student"
//	@Success		200 {array} Assignment
//	@Router			/roster/assignments [get]
func (m *Module) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher, auth.RoleTutor) {
		return
	}
	assignments, err := m.store.ListAssignments(r.Context(), ListAssignmentsParams{
		TutorID:   r.URL.Query().Get("tutor_id"),
		StudentID: r.URL.Query().Get("student_id"),
	})
	if err != nil {
		m.logger.Warn("failed to list assignments", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []Assignment{}
	}
	rosterWriteJSON(w, http.StatusOK, assignments)
}

// handleCreateAssignment assigns a tutor to a student for a subject.
func (m *Module) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher) {
		return
	}
	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rosterWriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TutorID == "" || req.StudentID == "" || strings.TrimSpace(req.Subject) == "" {
		rosterWriteError(w, http.StatusBadRequest, "tutor_id, student_id, and subject are required")
		return
	}

	ctx := r.Context()
	exists, err := m.store.HasAssignment(ctx, req.TutorID, req.StudentID, req.Subject)
	if err != nil {
		m.logger.Warn("failed to check assignment", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to create assignment")
		return
	}
	if exists {
		rosterWriteError(w, http.StatusConflict, "assignment already exists")
		return
	}

	assignment := &Assignment{
		ID:        uuid.NewString(),
		TutorID:   req.TutorID,
		StudentID: req.StudentID,
		Subject:   strings.TrimSpace(req.Subject),
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.InsertAssignment(ctx, assignment); err != nil {
		m.logger.Warn("failed to insert assignment", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to create assignment")
		return
	}

	m.publishEvent(ctx, TopicAssignmentCreated, AssignmentEvent{
		AssignmentID: assignment.ID,
		TutorID:      assignment.TutorID,
		StudentID:    assignment.StudentID,
		Subject:      assignment.Subject,
	})
	rosterWriteJSON(w, http.StatusCreated, assignment)
}

// handleDeleteAssignment removes an assignment.
func (m *Module) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	if !auth.RequireRole(w, r, auth.RoleAdmin, auth.RoleTeacher) {
		return
	}
	id := r.PathValue("id")
	assignment, err := m.store.GetAssignment(r.Context(), id)
	if err != nil {
		m.logger.Warn("failed to get assignment", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to delete assignment")
		return
	}
	if assignment == nil {
		rosterWriteError(w, http.StatusNotFound, "assignment not found")
		return
	}
	if _, err := m.store.DeleteAssignment(r.Context(), id); err != nil {
		m.logger.Warn("failed to delete assignment", zap.Error(err))
		rosterWriteError(w, http.StatusInternalServerError, "failed to delete assignment")
		return
	}

	m.publishEvent(r.Context(), TopicAssignmentRemoved, AssignmentEvent{
		AssignmentID: assignment.ID,
		TutorID:      assignment.TutorID,
		StudentID:    assignment.StudentID,
		Subject:      assignment.Subject,
	})
	w.WriteHeader(http.StatusNoContent)
}

func rosterWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func rosterWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://studyhall.app/problems/roster-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
