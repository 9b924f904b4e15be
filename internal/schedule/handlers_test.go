package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/internal/store"
)

// fakeGuardians is a stub GuardianResolver keyed by guardian ID.
type fakeGuardians map[string][]string

func (f fakeGuardians) StudentsOfGuardian(_ context.Context, guardianID string) ([]string, error) {
	return f[guardianID], nil
}

func newTestModule(t *testing.T) (*Module, *http.ServeMux) {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.Migrate(ctx, "schedule", migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	m := &Module{
		logger: zap.NewNop(),
		store:  NewStore(db.DB()),
		cfg:    DefaultConfig(),
	}

	mux := http.NewServeMux()
	for _, route := range m.Routes() {
		mux.HandleFunc(fmt.Sprintf("%s /api/v1/schedule%s", route.Method, route.Path), route.Handler)
	}
	return m, mux
}

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

func bookLesson(t *testing.T, mux *http.ServeMux, tutorID, studentID string, start time.Time) Lesson {
	t.Helper()
	body := fmt.Sprintf(`{"tutor_id":%q,"student_id":%q,"subject":"math","starts_at":%q}`,
		tutorID, studentID, start.Format(time.RFC3339))
	w := doAs(mux, http.MethodPost, "/api/v1/schedule/lessons", "admin1", "admin", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("book lesson status = %d, body = %s", w.Code, w.Body.String())
	}
	var l Lesson
	if err := json.NewDecoder(w.Body).Decode(&l); err != nil {
		t.Fatalf("decode lesson: %v", err)
	}
	return l
}

func TestHandleCreateLesson(t *testing.T) {
	_, mux := newTestModule(t)

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	l := bookLesson(t, mux, "tutor1", "kid1", start)

	if l.Status != StatusScheduled {
		t.Errorf("status = %q, want scheduled", l.Status)
	}
	// Default duration applied when ends_at is omitted.
	if got := l.EndsAt.Sub(l.StartsAt); got != time.Hour {
		t.Errorf("duration = %v, want 1h", got)
	}
}

func TestHandleCreateLesson_OverlapConflict(t *testing.T) {
	_, mux := newTestModule(t)

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	bookLesson(t, mux, "tutor1", "kid1", start)

	// Same tutor, different student, 30 minutes in.
	body := fmt.Sprintf(`{"tutor_id":"tutor1","student_id":"kid2","subject":"math","starts_at":%q}`,
		start.Add(30*time.Minute).Format(time.RFC3339))
	w := doAs(mux, http.MethodPost, "/api/v1/schedule/lessons", "admin1", "admin", body)
	if w.Code != http.StatusConflict {
		t.Errorf("overlap status = %d, want 409", w.Code)
	}
}

func TestHandleCreateLesson_TutorBooksSelf(t *testing.T) {
	_, mux := newTestModule(t)

	// A tutor booking for someone else is forced onto their own schedule.
	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	body := fmt.Sprintf(`{"tutor_id":"other","student_id":"kid1","subject":"math","starts_at":%q}`,
		start.Format(time.RFC3339))
	w := doAs(mux, http.MethodPost, "/api/v1/schedule/lessons", "tutor1", "tutor", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var l Lesson
	if err := json.NewDecoder(w.Body).Decode(&l); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if l.TutorID != "tutor1" {
		t.Errorf("TutorID = %q, want tutor1", l.TutorID)
	}
}

func TestHandleCreateLesson_StudentForbidden(t *testing.T) {
	_, mux := newTestModule(t)

	body := `{"student_id":"kid1","subject":"math","starts_at":"2026-09-01T10:00:00Z"}`
	w := doAs(mux, http.MethodPost, "/api/v1/schedule/lessons", "kid1", "student", body)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestHandleListLessons_RoleScoping(t *testing.T) {
	m, mux := newTestModule(t)
	m.guardians = fakeGuardians{"parent1": {"kid1"}}

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	bookLesson(t, mux, "tutor1", "kid1", start)
	bookLesson(t, mux, "tutor2", "kid2", start)

	tests := []struct {
		name   string
		userID string
		role   string
		want   int
	}{
		{"admin sees all", "admin1", "admin", 2},
		{"tutor sees own", "tutor1", "tutor", 1},
		{"student sees own", "kid2", "student", 1},
		{"parent sees children", "parent1", "parent", 1},
		{"parent without links sees none", "parent2", "parent", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doAs(mux, http.MethodGet, "/api/v1/schedule/lessons", tt.userID, tt.role, "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			var lessons []Lesson
			if err := json.NewDecoder(w.Body).Decode(&lessons); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(lessons) != tt.want {
				t.Errorf("len = %d, want %d", len(lessons), tt.want)
			}
		})
	}
}

func TestHandleListLessons_RangeFilter(t *testing.T) {
	_, mux := newTestModule(t)

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	bookLesson(t, mux, "tutor1", "kid1", start)
	bookLesson(t, mux, "tutor1", "kid1", start.Add(72*time.Hour))

	path := fmt.Sprintf("/api/v1/schedule/lessons?from=%s&to=%s",
		start.Add(-time.Hour).Format(time.RFC3339), start.Add(2*time.Hour).Format(time.RFC3339))
	w := doAs(mux, http.MethodGet, path, "admin1", "admin", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var lessons []Lesson
	if err := json.NewDecoder(w.Body).Decode(&lessons); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lessons) != 1 {
		t.Errorf("len = %d, want 1", len(lessons))
	}

	w = doAs(mux, http.MethodGet, "/api/v1/schedule/lessons?from=yesterday", "admin1", "admin", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad from status = %d, want 400", w.Code)
	}
}

func TestHandleGetLesson_Access(t *testing.T) {
	m, mux := newTestModule(t)
	m.guardians = fakeGuardians{"parent1": {"kid1"}}

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	l := bookLesson(t, mux, "tutor1", "kid1", start)

	tests := []struct {
		name   string
		userID string
		role   string
		want   int
	}{
		{"tutor involved", "tutor1", "tutor", http.StatusOK},
		{"other tutor", "tutor2", "tutor", http.StatusForbidden},
		{"student involved", "kid1", "student", http.StatusOK},
		{"other student", "kid2", "student", http.StatusForbidden},
		{"linked parent", "parent1", "parent", http.StatusOK},
		{"unlinked parent", "parent2", "parent", http.StatusForbidden},
		{"teacher", "teach1", "teacher", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doAs(mux, http.MethodGet, "/api/v1/schedule/lessons/"+l.ID, tt.userID, tt.role, "")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestHandleUpdateLesson_RescheduleConflict(t *testing.T) {
	_, mux := newTestModule(t)

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	l1 := bookLesson(t, mux, "tutor1", "kid1", start)
	bookLesson(t, mux, "tutor1", "kid2", start.Add(3*time.Hour))

	// Moving l1 onto the second lesson's slot conflicts.
	body := fmt.Sprintf(`{"starts_at":%q,"ends_at":%q}`,
		start.Add(3*time.Hour).Format(time.RFC3339), start.Add(4*time.Hour).Format(time.RFC3339))
	w := doAs(mux, http.MethodPut, "/api/v1/schedule/lessons/"+l1.ID, "admin1", "admin", body)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}

	// Moving to a free slot succeeds.
	body = fmt.Sprintf(`{"starts_at":%q,"ends_at":%q}`,
		start.Add(6*time.Hour).Format(time.RFC3339), start.Add(7*time.Hour).Format(time.RFC3339))
	w = doAs(mux, http.MethodPut, "/api/v1/schedule/lessons/"+l1.ID, "admin1", "admin", body)
	if w.Code != http.StatusOK {
		t.Errorf("reschedule status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestHandleUpdateLesson_MarkCompleted(t *testing.T) {
	_, mux := newTestModule(t)

	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	l := bookLesson(t, mux, "tutor1", "kid1", start)

	w := doAs(mux, http.MethodPut, "/api/v1/schedule/lessons/"+l.ID, "tutor1", "tutor",
		`{"status":"completed","notes":"covered fractions"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got Lesson
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != StatusCompleted || got.Notes != "covered fractions" {
		t.Errorf("lesson = %+v", got)
	}

	w = doAs(mux, http.MethodPut, "/api/v1/schedule/lessons/"+l.ID, "admin1", "admin",
		`{"status":"cancelled"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("cancel via update status = %d, want 400", w.Code)
	}
}

func TestHandleCancelLesson_NoticeWindow(t *testing.T) {
	_, mux := newTestModule(t)

	// Lesson inside the 24h notice window.
	soon := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	l := bookLesson(t, mux, "tutor1", "kid1", soon)

	w := doAs(mux, http.MethodPost, "/api/v1/schedule/lessons/"+l.ID+"/cancel", "tutor1", "tutor", "")
	if w.Code != http.StatusConflict {
		t.Errorf("tutor cancel inside notice status = %d, want 409", w.Code)
	}

	// Admins bypass the notice window.
	w = doAs(mux, http.MethodPost, "/api/v1/schedule/lessons/"+l.ID+"/cancel", "admin1", "admin", "")
	if w.Code != http.StatusOK {
		t.Fatalf("admin cancel status = %d", w.Code)
	}
	var got Lesson
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}

	// Already cancelled.
	w = doAs(mux, http.MethodPost, "/api/v1/schedule/lessons/"+l.ID+"/cancel", "admin1", "admin", "")
	if w.Code != http.StatusConflict {
		t.Errorf("double cancel status = %d, want 409", w.Code)
	}
}

func TestHandleCancelLesson_OutsideNotice(t *testing.T) {
	_, mux := newTestModule(t)

	far := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	l := bookLesson(t, mux, "tutor1", "kid1", far)

	w := doAs(mux, http.MethodPost, "/api/v1/schedule/lessons/"+l.ID+"/cancel", "tutor1", "tutor", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
