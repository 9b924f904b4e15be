package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/internal/store"
	"github.com/studyhallhq/studyhall/pkg/listquery"
	"github.com/studyhallhq/studyhall/pkg/module"
	"github.com/studyhallhq/studyhall/pkg/module/moduletest"
)

func TestContract(t *testing.T) {
	moduletest.TestModuleContract(t, func() module.Module { return New() })
}

func newTestModule(t *testing.T) (*Module, *http.ServeMux) {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := db.Migrate(ctx, "audit", migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	m := &Module{
		logger: zap.NewNop(),
		store:  NewStore(db.DB()),
		cfg:    DefaultConfig(),
	}

	mux := http.NewServeMux()
	for _, route := range m.Routes() {
		mux.HandleFunc(fmt.Sprintf("%s /api/v1/audit%s", route.Method, route.Path), route.Handler)
	}
	return m, mux
}

func recordTestEvent(t *testing.T, m *Module, source, topic string, payload any) {
	t.Helper()
	m.recordEvent(context.Background(), module.Event{
		Topic:     topic,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func TestRecordEvent(t *testing.T) {
	m, _ := newTestModule(t)
	ctx := context.Background()

	recordTestEvent(t, m, "schedule", "schedule.lesson_created", map[string]any{
		"lesson_id": "l1",
		"tutor_id":  "tutor1",
	})

	entries, err := m.store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Module != "schedule" || e.Action != "schedule.lesson_created" {
		t.Errorf("entry = %+v", e)
	}
	if e.Entity != "l1" {
		t.Errorf("Entity = %q, want l1", e.Entity)
	}
	if e.Actor != "tutor1" {
		t.Errorf("Actor = %q, want tutor1", e.Actor)
	}
	var detail map[string]string
	if err := json.Unmarshal([]byte(e.Detail), &detail); err != nil {
		t.Fatalf("detail not JSON: %v", err)
	}
	if detail["lesson_id"] != "l1" {
		t.Errorf("detail = %v", detail)
	}
}

func TestRecordEvent_NilPayload(t *testing.T) {
	m, _ := newTestModule(t)

	recordTestEvent(t, m, "auth", "auth.setup_completed", nil)

	entries, err := m.store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Detail != "" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestDeleteBefore(t *testing.T) {
	m, _ := newTestModule(t)
	ctx := context.Background()

	old := &Entry{ID: "e1", Time: time.Now().Add(-100 * 24 * time.Hour), Module: "a", Action: "x", RecordedAt: time.Now()}
	fresh := &Entry{ID: "e2", Time: time.Now(), Module: "a", Action: "y", RecordedAt: time.Now()}
	if err := m.store.Insert(ctx, old); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := m.store.Insert(ctx, fresh); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	n, err := m.store.DeleteBefore(ctx, time.Now().Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	count, err := m.store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestHandleListEntries(t *testing.T) {
	m, mux := newTestModule(t)

	recordTestEvent(t, m, "schedule", "schedule.lesson_created", map[string]any{"lesson_id": "l1"})
	recordTestEvent(t, m, "schedule", "schedule.lesson_cancelled", map[string]any{"lesson_id": "l1"})
	recordTestEvent(t, m, "reports", "reports.report_published", map[string]any{"report_id": "r1"})

	do := func(path, role string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		if role != "" {
			claims := &auth.Claims{UserID: "u", Username: "u", Role: role}
			r = r.WithContext(auth.ContextWithUser(r.Context(), claims))
		}
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		return w
	}

	// Admin only.
	if w := do("/api/v1/audit/entries", "teacher"); w.Code != http.StatusForbidden {
		t.Errorf("teacher status = %d, want 403", w.Code)
	}
	if w := do("/api/v1/audit/entries", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}

	w := do("/api/v1/audit/entries", "admin")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res listquery.Result[Entry]
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.TotalItems != 3 {
		t.Errorf("total = %d, want 3", res.TotalItems)
	}

	// Module filter.
	w = do("/api/v1/audit/entries?filter.module=reports", "admin")
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.TotalItems != 1 || res.Items[0].Action != "reports.report_published" {
		t.Errorf("filtered = %+v", res)
	}

	// Search over action names.
	w = do("/api/v1/audit/entries?q=cancelled", "admin")
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.TotalItems != 1 {
		t.Errorf("search total = %d, want 1", res.TotalItems)
	}
}
