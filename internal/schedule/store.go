package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Lesson statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Lesson is one booked tutoring session.
type Lesson struct {
	ID        string    `json:"id"`
	TutorID   string    `json:"tutor_id"`
	StudentID string    `json:"student_id"`
	Subject   string    `json:"subject"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Location  string    `json:"location,omitempty"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListLessonsParams filters calendar queries. A zero From/To means unbounded
// on that side. StudentIDs restricts to any of the given students.
type ListLessonsParams struct {
	TutorID    string
	StudentIDs []string
	From       time.Time
	To         time.Time
	Status     string
}

// ScheduleStore provides database access for the schedule module.
type ScheduleStore struct {
	db *sql.DB
}

// NewStore creates a ScheduleStore backed by the given database.
func NewStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

const lessonColumns = `id, tutor_id, student_id, subject, starts_at, ends_at, location, status, notes, created_at, updated_at`

// InsertLesson inserts a new lesson record.
func (s *ScheduleStore) InsertLesson(ctx context.Context, l *Lesson) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_lessons (
			id, tutor_id, student_id, subject, starts_at, ends_at, location, status, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.TutorID, l.StudentID, l.Subject, l.StartsAt, l.EndsAt,
		l.Location, l.Status, l.Notes, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	return nil
}

// GetLesson returns a lesson by ID. Returns nil, nil if not found.
func (s *ScheduleStore) GetLesson(ctx context.Context, id string) (*Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+lessonColumns+` FROM schedule_lessons WHERE id = ?`, id)
	l, err := scanLesson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return l, nil
}

// UpdateLesson rewrites the mutable fields of a lesson.
func (s *ScheduleStore) UpdateLesson(ctx context.Context, l *Lesson) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE schedule_lessons SET
			subject = ?, starts_at = ?, ends_at = ?, location = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		l.Subject, l.StartsAt, l.EndsAt, l.Location, l.Status, l.Notes, l.UpdatedAt, l.ID,
	)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	return nil
}

// ListLessons returns lessons matching the filters, ordered by start time.
func (s *ScheduleStore) ListLessons(ctx context.Context, params ListLessonsParams) ([]Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM schedule_lessons WHERE 1=1`
	args := []any{}
	if params.TutorID != "" {
		query += ` AND tutor_id = ?`
		args = append(args, params.TutorID)
	}
	if len(params.StudentIDs) > 0 {
		query += ` AND student_id IN (?` + repeatPlaceholder(len(params.StudentIDs)-1) + `)`
		for _, id := range params.StudentIDs {
			args = append(args, id)
		}
	}
	if !params.From.IsZero() {
		query += ` AND ends_at > ?`
		args = append(args, params.From)
	}
	if !params.To.IsZero() {
		query += ` AND starts_at < ?`
		args = append(args, params.To)
	}
	if params.Status != "" {
		query += ` AND status = ?`
		args = append(args, params.Status)
	}
	query += ` ORDER BY starts_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

// HasOverlap reports whether a scheduled lesson for the tutor or the student
// overlaps [start, end). excludeID skips one lesson, for reschedule checks.
func (s *ScheduleStore) HasOverlap(ctx context.Context, tutorID, studentID string, start, end time.Time, excludeID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM schedule_lessons
		WHERE status = ?
		  AND (tutor_id = ? OR student_id = ?)
		  AND starts_at < ? AND ends_at > ?
		  AND id != ?`,
		StatusScheduled, tutorID, studentID, end, start, excludeID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return count > 0, nil
}

// UpcomingUnreminded returns scheduled lessons starting before the cutoff
// that have not yet had a reminder published.
func (s *ScheduleStore) UpcomingUnreminded(ctx context.Context, cutoff time.Time) ([]Lesson, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+lessonColumns+` FROM schedule_lessons
		WHERE status = ? AND reminded_at IS NULL AND starts_at > ? AND starts_at <= ?
		ORDER BY starts_at`,
		StatusScheduled, time.Now(), cutoff)
	if err != nil {
		return nil, fmt.Errorf("list unreminded lessons: %w", err)
	}
	defer rows.Close()

	var lessons []Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

// MarkReminded records that a reminder was published for a lesson.
func (s *ScheduleStore) MarkReminded(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE schedule_lessons SET reminded_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}

// CountByStatus returns lesson counts grouped by status.
func (s *ScheduleStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM schedule_lessons GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count lessons: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountLessonsForStudent returns how many of a student's lessons in the
// window were completed and how many were cancelled.
func (s *ScheduleStore) CountLessonsForStudent(ctx context.Context, studentID string, from, to time.Time) (held, cancelled int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM schedule_lessons
		WHERE student_id = ? AND starts_at >= ? AND starts_at < ?`,
		StatusCompleted, StatusCancelled, studentID, from, to,
	).Scan(&held, &cancelled)
	if err != nil {
		return 0, 0, fmt.Errorf("count lessons for student: %w", err)
	}
	return held, cancelled, nil
}

func scanLesson(row interface{ Scan(dest ...any) error }) (*Lesson, error) {
	var l Lesson
	err := row.Scan(&l.ID, &l.TutorID, &l.StudentID, &l.Subject, &l.StartsAt, &l.EndsAt,
		&l.Location, &l.Status, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
