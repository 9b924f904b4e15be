// Package testutil provides domain fixture builders shared across test
// packages. Builders return values with sensible defaults; override
// individual fields through the With* options.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/studyhallhq/studyhall/internal/auth"
	"github.com/studyhallhq/studyhall/internal/reports"
	"github.com/studyhallhq/studyhall/internal/schedule"
)

// NewUser returns a student account suitable for test fixtures.
func NewUser(opts ...func(*auth.User)) auth.User {
	u := auth.User{
		ID:          uuid.New().String(),
		Username:    "test-user",
		Email:       "test-user@studyhall.test",
		DisplayName: "Test User",
		Role:        auth.RoleStudent,
		CreatedAt:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

// WithUsername sets the username and email together.
func WithUsername(name string) func(*auth.User) {
	return func(u *auth.User) {
		u.Username = name
		u.Email = name + "@studyhall.test"
	}
}

// WithRole sets the account role.
func WithRole(r auth.Role) func(*auth.User) {
	return func(u *auth.User) { u.Role = r }
}

// NewLesson returns a scheduled one-hour lesson starting tomorrow.
func NewLesson(opts ...func(*schedule.Lesson)) schedule.Lesson {
	now := time.Now().UTC()
	starts := now.Add(24 * time.Hour)
	l := schedule.Lesson{
		ID:        uuid.New().String(),
		TutorID:   "tutor-1",
		StudentID: "student-1",
		Subject:   "math",
		StartsAt:  starts,
		EndsAt:    starts.Add(time.Hour),
		Status:    schedule.StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// WithParticipants sets the tutor and student on a lesson.
func WithParticipants(tutorID, studentID string) func(*schedule.Lesson) {
	return func(l *schedule.Lesson) {
		l.TutorID = tutorID
		l.StudentID = studentID
	}
}

// WithStartsAt moves the lesson to start at t, keeping its length.
func WithStartsAt(t time.Time) func(*schedule.Lesson) {
	return func(l *schedule.Lesson) {
		length := l.EndsAt.Sub(l.StartsAt)
		l.StartsAt = t
		l.EndsAt = t.Add(length)
	}
}

// WithLessonStatus sets the lesson status.
func WithLessonStatus(status string) func(*schedule.Lesson) {
	return func(l *schedule.Lesson) { l.Status = status }
}

// NewReport returns a published report for a lesson held yesterday.
func NewReport(opts ...func(*reports.Report)) reports.Report {
	now := time.Now().UTC()
	r := reports.Report{
		ID:        uuid.New().String(),
		TutorID:   "tutor-1",
		StudentID: "student-1",
		Subject:   "math",
		HeldAt:    now.Add(-24 * time.Hour),
		Progress:  "Good progress.",
		Rating:    4,
		Published: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithStudent sets the student on a report.
func WithStudent(studentID string) func(*reports.Report) {
	return func(r *reports.Report) { r.StudentID = studentID }
}

// WithHeldAt sets when the reported lesson took place.
func WithHeldAt(t time.Time) func(*reports.Report) {
	return func(r *reports.Report) { r.HeldAt = t }
}

// AsDraft marks the report unpublished.
func AsDraft() func(*reports.Report) {
	return func(r *reports.Report) { r.Published = false }
}
