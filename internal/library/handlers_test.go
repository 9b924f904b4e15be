package library

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/internal/store"
	"github.com/studyhallhq/studyhall/pkg/listquery"
)

func newTestModule(t *testing.T) (*Module, *http.ServeMux) {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.Migrate(ctx, "library", migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	m := &Module{
		logger:   zap.NewNop(),
		store:    NewStore(db.DB()),
		cfg:      DefaultConfig(),
		collator: language.English,
	}

	mux := http.NewServeMux()
	for _, route := range m.Routes() {
		mux.HandleFunc(fmt.Sprintf("%s /api/v1/library%s", route.Method, route.Path), route.Handler)
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

func createMaterial(t *testing.T, mux *http.ServeMux, userID, role, body string) Material {
	t.Helper()
	w := doAs(mux, "POST", "/api/v1/library/materials", userID, role, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create material: status %d, body %s", w.Code, w.Body.String())
	}
	var mat Material
	if err := json.Unmarshal(w.Body.Bytes(), &mat); err != nil {
		t.Fatalf("decode material: %v", err)
	}
	return mat
}

func publish(t *testing.T, mux *http.ServeMux, userID, role, id string) {
	t.Helper()
	w := doAs(mux, "POST", "/api/v1/library/materials/"+id+"/publish", userID, role, "")
	if w.Code != http.StatusOK {
		t.Fatalf("publish: status %d, body %s", w.Code, w.Body.String())
	}
}

func TestCreateMaterial(t *testing.T) {
	_, mux := newTestModule(t)

	mat := createMaterial(t, mux, "tutor-1", "tutor",
		`{"title":"Quadratics","subject":"math","level":"grade 9","body":"## Roots"}`)
	if mat.AuthorID != "tutor-1" || mat.Published {
		t.Fatalf("unexpected material %+v", mat)
	}

	if w := doAs(mux, "POST", "/api/v1/library/materials", "tutor-1", "tutor", `{"subject":"math"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing title: status %d", w.Code)
	}
	if w := doAs(mux, "POST", "/api/v1/library/materials", "student-1", "student", `{"title":"x","subject":"y"}`); w.Code != http.StatusForbidden {
		t.Errorf("student create: status %d", w.Code)
	}
	if w := doAs(mux, "POST", "/api/v1/library/materials", "", "", `{"title":"x","subject":"y"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create: status %d", w.Code)
	}
}

func TestUploadLimit(t *testing.T) {
	m, mux := newTestModule(t)
	m.cfg.MaxUploadBytes = 128

	big := strings.Repeat("a", 256)
	w := doAs(mux, "POST", "/api/v1/library/materials", "tutor-1", "tutor",
		`{"title":"Big","subject":"math","body":"`+big+`"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body: status %d", w.Code)
	}
}

func TestDraftVisibility(t *testing.T) {
	_, mux := newTestModule(t)

	draft := createMaterial(t, mux, "tutor-1", "tutor", `{"title":"Draft","subject":"math","body":"wip"}`)
	path := "/api/v1/library/materials/" + draft.ID

	// Drafts hide from non-staff as if absent.
	if w := doAs(mux, "GET", path, "student-1", "student", ""); w.Code != http.StatusNotFound {
		t.Errorf("student draft get: status %d", w.Code)
	}
	if w := doAs(mux, "GET", path, "teacher-1", "teacher", ""); w.Code != http.StatusOK {
		t.Errorf("teacher draft get: status %d", w.Code)
	}

	publish(t, mux, "tutor-1", "tutor", draft.ID)
	if w := doAs(mux, "GET", path, "student-1", "student", ""); w.Code != http.StatusOK {
		t.Errorf("student published get: status %d", w.Code)
	}
}

func TestPublishRules(t *testing.T) {
	_, mux := newTestModule(t)

	mat := createMaterial(t, mux, "tutor-1", "tutor", `{"title":"Notes","subject":"math","body":"x"}`)
	path := "/api/v1/library/materials/" + mat.ID + "/publish"

	if w := doAs(mux, "POST", path, "tutor-2", "tutor", ""); w.Code != http.StatusForbidden {
		t.Errorf("foreign publish: status %d", w.Code)
	}
	if w := doAs(mux, "POST", path, "tutor-1", "tutor", ""); w.Code != http.StatusOK {
		t.Errorf("author publish: status %d", w.Code)
	}
	if w := doAs(mux, "POST", path, "tutor-1", "tutor", ""); w.Code != http.StatusConflict {
		t.Errorf("double publish: status %d", w.Code)
	}
}

func TestUpdateAndDeleteRules(t *testing.T) {
	_, mux := newTestModule(t)

	mat := createMaterial(t, mux, "tutor-1", "tutor", `{"title":"Old","subject":"math","body":"x"}`)
	path := "/api/v1/library/materials/" + mat.ID

	if w := doAs(mux, "PUT", path, "tutor-2", "tutor", `{"title":"New","subject":"math"}`); w.Code != http.StatusForbidden {
		t.Errorf("foreign update: status %d", w.Code)
	}
	w := doAs(mux, "PUT", path, "tutor-1", "tutor", `{"title":"New","subject":"math","body":"y"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("author update: status %d, body %s", w.Code, w.Body.String())
	}
	var updated Material
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Title != "New" {
		t.Errorf("title = %q", updated.Title)
	}

	if w := doAs(mux, "DELETE", path, "tutor-2", "tutor", ""); w.Code != http.StatusForbidden {
		t.Errorf("foreign delete: status %d", w.Code)
	}
	if w := doAs(mux, "DELETE", path, "admin-1", "admin", ""); w.Code != http.StatusNoContent {
		t.Errorf("admin delete: status %d", w.Code)
	}
	if w := doAs(mux, "GET", path, "admin-1", "admin", ""); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d", w.Code)
	}
}

func TestPreviewRendersMarkdown(t *testing.T) {
	_, mux := newTestModule(t)

	mat := createMaterial(t, mux, "tutor-1", "tutor",
		`{"title":"Tables","subject":"math","body":"# Heading\n\n| a | b |\n|---|---|\n| 1 | 2 |"}`)
	publish(t, mux, "tutor-1", "tutor", mat.ID)

	w := doAs(mux, "GET", "/api/v1/library/materials/"+mat.ID+"/preview", "student-1", "student", "")
	if w.Code != http.StatusOK {
		t.Fatalf("preview: status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	html := w.Body.String()
	if !strings.Contains(html, "<h1>Heading</h1>") {
		t.Errorf("heading not rendered: %q", html)
	}
	if !strings.Contains(html, "<table>") {
		t.Errorf("gfm table not rendered: %q", html)
	}
}

func TestListMaterialsQuery(t *testing.T) {
	_, mux := newTestModule(t)

	a := createMaterial(t, mux, "tutor-1", "tutor", `{"title":"Algebra basics","subject":"math","level":"grade 8","body":"x"}`)
	b := createMaterial(t, mux, "tutor-1", "tutor", `{"title":"Essay structure","subject":"english","level":"grade 8","body":"x"}`)
	c := createMaterial(t, mux, "tutor-2", "tutor", `{"title":"Zoology intro","subject":"biology","level":"grade 9","body":"x"}`)
	publish(t, mux, "tutor-1", "tutor", a.ID)
	publish(t, mux, "tutor-1", "tutor", b.ID)

	decode := func(w *httptest.ResponseRecorder) listquery.Result[Material] {
		t.Helper()
		var res listquery.Result[Material]
		if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		return res
	}

	// Students see published only.
	res := decode(doAs(mux, "GET", "/api/v1/library/materials", "student-1", "student", ""))
	if res.TotalItems != 2 {
		t.Fatalf("student total = %d", res.TotalItems)
	}

	// Staff see drafts too.
	res = decode(doAs(mux, "GET", "/api/v1/library/materials", "teacher-1", "teacher", ""))
	if res.TotalItems != 3 {
		t.Fatalf("staff total = %d", res.TotalItems)
	}

	// Search hits the body of the title.
	res = decode(doAs(mux, "GET", "/api/v1/library/materials?q=algebra", "teacher-1", "teacher", ""))
	if res.TotalItems != 1 || res.Items[0].ID != a.ID {
		t.Fatalf("search result %+v", res.Items)
	}

	// Filters combine.
	res = decode(doAs(mux, "GET", "/api/v1/library/materials?filter.level=grade+8&filter.subject=english", "teacher-1", "teacher", ""))
	if res.TotalItems != 1 || res.Items[0].ID != b.ID {
		t.Fatalf("filter result %+v", res.Items)
	}

	// Title sort is alphabetical.
	res = decode(doAs(mux, "GET", "/api/v1/library/materials?sort=title", "teacher-1", "teacher", ""))
	if len(res.Items) != 3 || res.Items[0].ID != a.ID || res.Items[2].ID != c.ID {
		titles := make([]string, 0, len(res.Items))
		for _, it := range res.Items {
			titles = append(titles, it.Title)
		}
		t.Fatalf("sort order %v", titles)
	}
}
