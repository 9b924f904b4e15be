package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/internal/store"
)

// newTestModule creates a Module wired to an in-memory store and returns it
// with a mux that mounts its routes the way the server does.
func newTestModule(t *testing.T) (*Module, *http.ServeMux) {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.Migrate(ctx, "roster", migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	m := &Module{
		logger: zap.NewNop(),
		store:  NewStore(db.DB()),
		cfg:    DefaultConfig(),
	}

	mux := http.NewServeMux()
	for _, route := range m.Routes() {
		mux.HandleFunc(fmt.Sprintf("%s /api/v1/roster%s", route.Method, route.Path), route.Handler)
	}
	return m, mux
}

// doAs performs a request with claims for the given user and role injected.
func doAs(mux *http.ServeMux, method, path, userID, role, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, http.NoBody)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if userID != "" {
		claims := &auth.Claims{UserID: userID, Username: userID, Role: role}
		r = r.WithContext(auth.ContextWithUser(r.Context(), claims))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestHandleUpdateProfile_Self(t *testing.T) {
	_, mux := newTestModule(t)

	body := `{"display_name":"Maya Chen","subjects":["math"],"timezone":"Europe/Berlin"}`
	w := doAs(mux, http.MethodPut, "/api/v1/roster/profiles/u1", "u1", "student", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var p Profile
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.UserID != "u1" || p.DisplayName != "Maya Chen" {
		t.Errorf("profile = %+v", p)
	}

	w = doAs(mux, http.MethodGet, "/api/v1/roster/profiles/u1", "u1", "student", "")
	if w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}
}

func TestHandleUpdateProfile_OtherUserForbidden(t *testing.T) {
	_, mux := newTestModule(t)

	body := `{"display_name":"Sneaky"}`
	w := doAs(mux, http.MethodPut, "/api/v1/roster/profiles/u2", "u1", "student", body)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}

	// Admins can edit anyone.
	w = doAs(mux, http.MethodPut, "/api/v1/roster/profiles/u2", "admin1", "admin", `{"display_name":"Fixed"}`)
	if w.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", w.Code)
	}
}

func TestHandleUpdateProfile_Validation(t *testing.T) {
	_, mux := newTestModule(t)

	w := doAs(mux, http.MethodPut, "/api/v1/roster/profiles/u1", "u1", "student", `{"display_name":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank name status = %d, want 400", w.Code)
	}

	w = doAs(mux, http.MethodPut, "/api/v1/roster/profiles/u1", "u1", "student",
		`{"display_name":"Maya","timezone":"Mars/Olympus"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad timezone status = %d, want 400", w.Code)
	}
}

func TestHandleGetProfile_NotFound(t *testing.T) {
	_, mux := newTestModule(t)

	w := doAs(mux, http.MethodGet, "/api/v1/roster/profiles/ghost", "u1", "student", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleListProfiles_StaffOnly(t *testing.T) {
	_, mux := newTestModule(t)

	w := doAs(mux, http.MethodGet, "/api/v1/roster/profiles", "u1", "student", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("student status = %d, want 403", w.Code)
	}

	w = doAs(mux, http.MethodGet, "/api/v1/roster/profiles", "t1", "tutor", "")
	if w.Code != http.StatusOK {
		t.Errorf("tutor status = %d, want 200", w.Code)
	}
}

func TestHandleCreateLink(t *testing.T) {
	_, mux := newTestModule(t)

	body := `{"guardian_id":"parent1","student_id":"kid1"}`
	w := doAs(mux, http.MethodPost, "/api/v1/roster/links", "admin1", "admin", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var link GuardianLink
	if err := json.NewDecoder(w.Body).Decode(&link); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if link.ID == "" || link.GuardianID != "parent1" {
		t.Errorf("link = %+v", link)
	}

	// Duplicate pair conflicts.
	w = doAs(mux, http.MethodPost, "/api/v1/roster/links", "admin1", "admin", body)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}
}

func TestHandleCreateLink_AdminOnly(t *testing.T) {
	_, mux := newTestModule(t)

	body := `{"guardian_id":"parent1","student_id":"kid1"}`
	w := doAs(mux, http.MethodPost, "/api/v1/roster/links", "t1", "teacher", body)
	if w.Code != http.StatusForbidden {
		t.Errorf("teacher status = %d, want 403", w.Code)
	}
	w = doAs(mux, http.MethodPost, "/api/v1/roster/links", "", "", body)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}
}

func TestHandleCreateLink_MaxStudentsCap(t *testing.T) {
	m, mux := newTestModule(t)
	m.cfg.MaxStudentsPerGuardian = 2

	for i := 1; i <= 2; i++ {
		body := fmt.Sprintf(`{"guardian_id":"parent1","student_id":"kid%d"}`, i)
		w := doAs(mux, http.MethodPost, "/api/v1/roster/links", "admin1", "admin", body)
		if w.Code != http.StatusCreated {
			t.Fatalf("link %d status = %d", i, w.Code)
		}
	}

	w := doAs(mux, http.MethodPost, "/api/v1/roster/links", "admin1", "admin",
		`{"guardian_id":"parent1","student_id":"kid3"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("over-cap status = %d, want 409", w.Code)
	}
}

func TestHandleGuardianStudents_Scoping(t *testing.T) {
	_, mux := newTestModule(t)

	w := doAs(mux, http.MethodPost, "/api/v1/roster/links", "admin1", "admin",
		`{"guardian_id":"parent1","student_id":"kid1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create link status = %d", w.Code)
	}

	// Guardian sees their own students.
	w = doAs(mux, http.MethodGet, "/api/v1/roster/guardians/parent1/students", "parent1", "parent", "")
	if w.Code != http.StatusOK {
		t.Fatalf("self status = %d", w.Code)
	}
	var resp struct {
		StudentIDs []string `json:"student_ids"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.StudentIDs) != 1 || resp.StudentIDs[0] != "kid1" {
		t.Errorf("student_ids = %v", resp.StudentIDs)
	}

	// Another parent may not.
	w = doAs(mux, http.MethodGet, "/api/v1/roster/guardians/parent1/students", "parent2", "parent", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("other parent status = %d, want 403", w.Code)
	}

	// Staff may.
	w = doAs(mux, http.MethodGet, "/api/v1/roster/guardians/parent1/students", "t1", "teacher", "")
	if w.Code != http.StatusOK {
		t.Errorf("teacher status = %d, want 200", w.Code)
	}
}

func TestHandleAssignments_Lifecycle(t *testing.T) {
	_, mux := newTestModule(t)

	body := `{"tutor_id":"tutor1","student_id":"kid1","subject":"math"}`
	w := doAs(mux, http.MethodPost, "/api/v1/roster/assignments", "t1", "teacher", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var a Assignment
	if err := json.NewDecoder(w.Body).Decode(&a); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Duplicate triple conflicts.
	w = doAs(mux, http.MethodPost, "/api/v1/roster/assignments", "t1", "teacher", body)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}

	// Tutors can list but not create.
	w = doAs(mux, http.MethodGet, "/api/v1/roster/assignments?tutor_id=tutor1", "tutor1", "tutor", "")
	if w.Code != http.StatusOK {
		t.Errorf("list status = %d", w.Code)
	}
	w = doAs(mux, http.MethodPost, "/api/v1/roster/assignments", "tutor1", "tutor",
		`{"tutor_id":"tutor1","student_id":"kid2","subject":"math"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("tutor create status = %d, want 403", w.Code)
	}

	w = doAs(mux, http.MethodDelete, "/api/v1/roster/assignments/"+a.ID, "t1", "teacher", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", w.Code)
	}
	w = doAs(mux, http.MethodDelete, "/api/v1/roster/assignments/"+a.ID, "t1", "teacher", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestHandleCreateAssignment_Validation(t *testing.T) {
	_, mux := newTestModule(t)

	w := doAs(mux, http.MethodPost, "/api/v1/roster/assignments", "admin1", "admin",
		`{"tutor_id":"tutor1","student_id":"kid1","subject":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank subject status = %d, want 400", w.Code)
	}
}
