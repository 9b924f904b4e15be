package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Profile holds the public-facing details of one account.
type Profile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Subjects    []string  `json:"subjects"`
	GradeLevel  string    `json:"grade_level,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Timezone    string    `json:"timezone"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GuardianLink connects a parent account to a student account.
type GuardianLink struct {
	ID         string    `json:"id"`
	GuardianID string    `json:"guardian_id"`
	StudentID  string    `json:"student_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Assignment connects a tutor or teacher to a student for one subject.
type Assignment struct {
	ID        string    `json:"id"`
	TutorID   string    `json:"tutor_id"`
	StudentID string    `json:"student_id"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

// ListAssignmentsParams filters assignment queries.
type ListAssignmentsParams struct {
	TutorID   string
	StudentID string
}

// RosterStore provides database access for the roster module.
type RosterStore struct {
	db *sql.DB
}

// NewStore creates a RosterStore backed by the given database.
func NewStore(db *sql.DB) *RosterStore {
	return &RosterStore{db: db}
}

// -- Profiles --

// UpsertProfile inserts or replaces the profile for a user.
func (s *RosterStore) UpsertProfile(ctx context.Context, p *Profile) error {
	subjects, err := json.Marshal(p.Subjects)
	if err != nil {
		return fmt.Errorf("marshal subjects: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO roster_profiles (user_id, display_name, subjects, grade_level, bio, timezone, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			subjects     = excluded.subjects,
			grade_level  = excluded.grade_level,
			bio          = excluded.bio,
			timezone     = excluded.timezone,
			updated_at   = excluded.updated_at`,
		p.UserID, p.DisplayName, string(subjects), p.GradeLevel, p.Bio, p.Timezone, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile returns a profile by user ID. Returns nil, nil if not found.
func (s *RosterStore) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, display_name, subjects, grade_level, bio, timezone, updated_at
		FROM roster_profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// ListProfiles returns all profiles ordered by display name.
func (s *RosterStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, display_name, subjects, grade_level, bio, timezone, updated_at
		FROM roster_profiles ORDER BY display_name, user_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	var subjects string
	if err := row.Scan(&p.UserID, &p.DisplayName, &subjects, &p.GradeLevel, &p.Bio, &p.Timezone, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(subjects), &p.Subjects); err != nil {
		p.Subjects = nil
	}
	return &p, nil
}

// -- Guardian links --

// InsertGuardianLink records a parent-student link.
func (s *RosterStore) InsertGuardianLink(ctx context.Context, l *GuardianLink) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO roster_guardian_links (id, guardian_id, student_id, created_at)
		VALUES (?, ?, ?, ?)`,
		l.ID, l.GuardianID, l.StudentID, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert guardian link: %w", err)
	}
	return nil
}

// GetGuardianLink returns a link by ID. Returns nil, nil if not found.
func (s *RosterStore) GetGuardianLink(ctx context.Context, id string) (*GuardianLink, error) {
	var l GuardianLink
	err := s.db.QueryRowContext(ctx, `
		SELECT id, guardian_id, student_id, created_at
		FROM roster_guardian_links WHERE id = ?`, id).
		Scan(&l.ID, &l.GuardianID, &l.StudentID, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get guardian link: %w", err)
	}
	return &l, nil
}

// DeleteGuardianLink removes a link. Returns false if no link existed.
func (s *RosterStore) DeleteGuardianLink(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM roster_guardian_links WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete guardian link: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// HasGuardianLink reports whether a guardian-student pair is already linked.
func (s *RosterStore) HasGuardianLink(ctx context.Context, guardianID, studentID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM roster_guardian_links
		WHERE guardian_id = ? AND student_id = ?`, guardianID, studentID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check guardian link: %w", err)
	}
	return count > 0, nil
}

// CountStudentsOfGuardian returns how many students a guardian is linked to.
func (s *RosterStore) CountStudentsOfGuardian(ctx context.Context, guardianID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM roster_guardian_links WHERE guardian_id = ?`, guardianID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count guardian students: %w", err)
	}
	return count, nil
}

// StudentsOfGuardian returns the student IDs linked to a guardian.
func (s *RosterStore) StudentsOfGuardian(ctx context.Context, guardianID string) ([]string, error) {
	return s.queryIDs(ctx, `
		SELECT student_id FROM roster_guardian_links
		WHERE guardian_id = ? ORDER BY created_at, student_id`, guardianID)
}

// GuardiansOfStudent returns the guardian IDs linked to a student.
func (s *RosterStore) GuardiansOfStudent(ctx context.Context, studentID string) ([]string, error) {
	return s.queryIDs(ctx, `
		SELECT guardian_id FROM roster_guardian_links
		WHERE student_id = ? ORDER BY created_at, guardian_id`, studentID)
}

// ListGuardianLinks returns all links, optionally filtered by guardian.
func (s *RosterStore) ListGuardianLinks(ctx context.Context, guardianID string) ([]GuardianLink, error) {
	query := `SELECT id, guardian_id, student_id, created_at FROM roster_guardian_links`
	args := []any{}
	if guardianID != "" {
		query += ` WHERE guardian_id = ?`
		args = append(args, guardianID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list guardian links: %w", err)
	}
	defer rows.Close()

	var links []GuardianLink
	for rows.Next() {
		var l GuardianLink
		if err := rows.Scan(&l.ID, &l.GuardianID, &l.StudentID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan guardian link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// -- Assignments --

// InsertAssignment records a tutor-student subject assignment.
func (s *RosterStore) InsertAssignment(ctx context.Context, a *Assignment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO roster_assignments (id, tutor_id, student_id, subject, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.TutorID, a.StudentID, a.Subject, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// GetAssignment returns an assignment by ID. Returns nil, nil if not found.
func (s *RosterStore) GetAssignment(ctx context.Context, id string) (*Assignment, error) {
	var a Assignment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tutor_id, student_id, subject, created_at
		FROM roster_assignments WHERE id = ?`, id).
		Scan(&a.ID, &a.TutorID, &a.StudentID, &a.Subject, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return &a, nil
}

// DeleteAssignment removes an assignment. Returns false if none existed.
func (s *RosterStore) DeleteAssignment(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM roster_assignments WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete assignment: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// HasAssignment reports whether the exact tutor-student-subject triple exists.
func (s *RosterStore) HasAssignment(ctx context.Context, tutorID, studentID, subject string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM roster_assignments
		WHERE tutor_id = ? AND student_id = ? AND subject = ?`,
		tutorID, studentID, subject).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return count > 0, nil
}

// ListAssignments returns assignments matching the given filters.
func (s *RosterStore) ListAssignments(ctx context.Context, params ListAssignmentsParams) ([]Assignment, error) {
	query := `SELECT id, tutor_id, student_id, subject, created_at FROM roster_assignments WHERE 1=1`
	args := []any{}
	if params.TutorID != "" {
		query += ` AND tutor_id = ?`
		args = append(args, params.TutorID)
	}
	if params.StudentID != "" {
		query += ` AND student_id = ?`
		args = append(args, params.StudentID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.TutorID, &a.StudentID, &a.Subject, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// StudentsOfTutor returns the distinct student IDs assigned to a tutor.
func (s *RosterStore) StudentsOfTutor(ctx context.Context, tutorID string) ([]string, error) {
	return s.queryIDs(ctx, `
		SELECT DISTINCT student_id FROM roster_assignments
		WHERE tutor_id = ? ORDER BY student_id`, tutorID)
}

func (s *RosterStore) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
