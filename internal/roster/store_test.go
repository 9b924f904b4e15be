package roster

import (
	"context"
	"testing"
	"time"

	"github.com/studyhallhq/studyhall/internal/store"
)

// testStore creates an in-memory SQLite database, runs roster migrations,
// and returns a RosterStore ready for testing.
func testStore(t *testing.T) *RosterStore {
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
	return NewStore(db.DB())
}

func TestUpsertAndGetProfile(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	p := &Profile{
		UserID:      "u1",
		DisplayName: "Maya Chen",
		Subjects:    []string{"math", "physics"},
		GradeLevel:  "10",
		Timezone:    "Europe/Berlin",
		UpdatedAt:   now,
	}
	if err := s.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}

	got, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got == nil {
		t.Fatal("GetProfile returned nil")
	}
	if got.DisplayName != "Maya Chen" {
		t.Errorf("DisplayName = %q, want %q", got.DisplayName, "Maya Chen")
	}
	if len(got.Subjects) != 2 || got.Subjects[0] != "math" {
		t.Errorf("Subjects = %v, want [math physics]", got.Subjects)
	}
	if got.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q", got.Timezone)
	}
}

func TestUpsertProfile_Overwrites(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := &Profile{UserID: "u1", DisplayName: "Before", Timezone: "UTC", UpdatedAt: time.Now()}
	if err := s.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	p.DisplayName = "After"
	p.Subjects = []string{"chemistry"}
	if err := s.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile (second): %v", err)
	}

	got, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.DisplayName != "After" {
		t.Errorf("DisplayName = %q, want After", got.DisplayName)
	}
	if len(got.Subjects) != 1 {
		t.Errorf("Subjects = %v", got.Subjects)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	s := testStore(t)
	got, err := s.GetProfile(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing profile, got %+v", got)
	}
}

func TestListProfiles_OrderedByName(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, p := range []Profile{
		{UserID: "u1", DisplayName: "Zoe", Timezone: "UTC", UpdatedAt: time.Now()},
		{UserID: "u2", DisplayName: "Ana", Timezone: "UTC", UpdatedAt: time.Now()},
		{UserID: "u3", DisplayName: "Mia", Timezone: "UTC", UpdatedAt: time.Now()},
	} {
		p := p
		if err := s.UpsertProfile(ctx, &p); err != nil {
			t.Fatalf("UpsertProfile: %v", err)
		}
	}

	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("len = %d, want 3", len(profiles))
	}
	if profiles[0].DisplayName != "Ana" || profiles[2].DisplayName != "Zoe" {
		t.Errorf("unexpected order: %s, %s, %s",
			profiles[0].DisplayName, profiles[1].DisplayName, profiles[2].DisplayName)
	}
}

func TestGuardianLinks(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	link := &GuardianLink{ID: "l1", GuardianID: "parent1", StudentID: "kid1", CreatedAt: time.Now().UTC()}
	if err := s.InsertGuardianLink(ctx, link); err != nil {
		t.Fatalf("InsertGuardianLink: %v", err)
	}
	if err := s.InsertGuardianLink(ctx, &GuardianLink{ID: "l2", GuardianID: "parent1", StudentID: "kid2", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("InsertGuardianLink (second): %v", err)
	}

	exists, err := s.HasGuardianLink(ctx, "parent1", "kid1")
	if err != nil {
		t.Fatalf("HasGuardianLink: %v", err)
	}
	if !exists {
		t.Error("expected link to exist")
	}

	count, err := s.CountStudentsOfGuardian(ctx, "parent1")
	if err != nil {
		t.Fatalf("CountStudentsOfGuardian: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	students, err := s.StudentsOfGuardian(ctx, "parent1")
	if err != nil {
		t.Fatalf("StudentsOfGuardian: %v", err)
	}
	if len(students) != 2 {
		t.Errorf("students = %v", students)
	}

	guardians, err := s.GuardiansOfStudent(ctx, "kid1")
	if err != nil {
		t.Fatalf("GuardiansOfStudent: %v", err)
	}
	if len(guardians) != 1 || guardians[0] != "parent1" {
		t.Errorf("guardians = %v, want [parent1]", guardians)
	}
}

func TestInsertGuardianLink_DuplicateFails(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.InsertGuardianLink(ctx, &GuardianLink{ID: "l1", GuardianID: "p", StudentID: "s", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("InsertGuardianLink: %v", err)
	}
	err := s.InsertGuardianLink(ctx, &GuardianLink{ID: "l2", GuardianID: "p", StudentID: "s", CreatedAt: time.Now()})
	if err == nil {
		t.Error("expected unique constraint error for duplicate pair")
	}
}

func TestDeleteGuardianLink(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.InsertGuardianLink(ctx, &GuardianLink{ID: "l1", GuardianID: "p", StudentID: "s", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("InsertGuardianLink: %v", err)
	}

	found, err := s.DeleteGuardianLink(ctx, "l1")
	if err != nil {
		t.Fatalf("DeleteGuardianLink: %v", err)
	}
	if !found {
		t.Error("expected delete to report found")
	}

	found, err = s.DeleteGuardianLink(ctx, "l1")
	if err != nil {
		t.Fatalf("DeleteGuardianLink (second): %v", err)
	}
	if found {
		t.Error("expected second delete to report not found")
	}
}

func TestAssignments(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := &Assignment{ID: "a1", TutorID: "tutor1", StudentID: "kid1", Subject: "math", CreatedAt: time.Now().UTC()}
	if err := s.InsertAssignment(ctx, a); err != nil {
		t.Fatalf("InsertAssignment: %v", err)
	}
	if err := s.InsertAssignment(ctx, &Assignment{ID: "a2", TutorID: "tutor1", StudentID: "kid2", Subject: "math", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("InsertAssignment (second): %v", err)
	}

	all, err := s.ListAssignments(ctx, ListAssignmentsParams{})
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len = %d, want 2", len(all))
	}

	byStudent, err := s.ListAssignments(ctx, ListAssignmentsParams{StudentID: "kid2"})
	if err != nil {
		t.Fatalf("ListAssignments by student: %v", err)
	}
	if len(byStudent) != 1 || byStudent[0].ID != "a2" {
		t.Errorf("byStudent = %+v", byStudent)
	}

	students, err := s.StudentsOfTutor(ctx, "tutor1")
	if err != nil {
		t.Fatalf("StudentsOfTutor: %v", err)
	}
	if len(students) != 2 {
		t.Errorf("students = %v", students)
	}

	exists, err := s.HasAssignment(ctx, "tutor1", "kid1", "math")
	if err != nil {
		t.Fatalf("HasAssignment: %v", err)
	}
	if !exists {
		t.Error("expected assignment to exist")
	}

	found, err := s.DeleteAssignment(ctx, "a1")
	if err != nil {
		t.Fatalf("DeleteAssignment: %v", err)
	}
	if !found {
		t.Error("expected delete to report found")
	}
}
