package services

import (
	"context"
	"testing"

	"github.com/studyhallhq/studyhall/internal/store"
)

func testRepo(t *testing.T) *SQLiteSettingsRepository {
	t.Helper()

	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo, err := NewSQLiteSettingsRepository(context.Background(), db)
	if err != nil {
		t.Fatalf("NewSQLiteSettingsRepository: %v", err)
	}
	return repo
}

func TestSettings_SetAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.Set(ctx, "platform_name", "StudyHall Academy"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := repo.Get(ctx, "platform_name")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Value != "StudyHall Academy" {
		t.Errorf("Value = %q, want StudyHall Academy", got.Value)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("expected non-zero UpdatedAt")
	}
}

func TestSettings_Get_NotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	if err != ErrNotFound {
		t.Errorf("Get err = %v, want ErrNotFound", err)
	}
}

func TestSettings_Set_Overwrites(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	_ = repo.Set(ctx, "default_timezone", "UTC")
	if err := repo.Set(ctx, "default_timezone", "Europe/Berlin"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := repo.Get(ctx, "default_timezone")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Value != "Europe/Berlin" {
		t.Errorf("Value = %q, want Europe/Berlin", got.Value)
	}
}

func TestSettings_Delete(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	_ = repo.Set(ctx, "business_hours", "09:00-17:00")
	if err := repo.Delete(ctx, "business_hours"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := repo.Get(ctx, "business_hours"); err != ErrNotFound {
		t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
	}

	// Deleting again is not an error.
	if err := repo.Delete(ctx, "business_hours"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestSettings_GetAll(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	_ = repo.Set(ctx, "b", "2")
	_ = repo.Set(ctx, "a", "1")
	_ = repo.Set(ctx, "c", "3")

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	// Ordered by key.
	if all[0].Key != "a" || all[1].Key != "b" || all[2].Key != "c" {
		t.Errorf("keys = %s,%s,%s, want a,b,c", all[0].Key, all[1].Key, all[2].Key)
	}
}
