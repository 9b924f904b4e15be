package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studyhallhq/studyhall/pkg/listquery"
)

// Report is one session report written by a tutor or teacher.
type Report struct {
	ID        string    `json:"id"`
	LessonID  string    `json:"lesson_id,omitempty"`
	TutorID   string    `json:"tutor_id"`
	StudentID string    `json:"student_id"`
	Subject   string    `json:"subject"`
	HeldAt    time.Time `json:"held_at"`
	Progress  string    `json:"progress"`
	Rating    int       `json:"rating"`
	Homework  string    `json:"homework,omitempty"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SavedView is one user's persisted list query.
type SavedView struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Name      string           `json:"name"`
	State     *listquery.State `json:"state"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ListReportsParams is the coarse visibility scope applied in SQL before
// the in-memory list query runs.
type ListReportsParams struct {
	TutorID       string
	StudentIDs    []string
	PublishedOnly bool
}

// ReportStore provides database access for the reports module.
type ReportStore struct {
	db *sql.DB
}

// NewStore creates a ReportStore backed by the given database.
func NewStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

const reportColumns = `id, lesson_id, tutor_id, student_id, subject, held_at, progress, rating, homework, published, created_at, updated_at`

// InsertReport inserts a new report record.
func (s *ReportStore) InsertReport(ctx context.Context, r *Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports_reports (
			id, lesson_id, tutor_id, student_id, subject, held_at, progress, rating, homework, published, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.LessonID, r.TutorID, r.StudentID, r.Subject, r.HeldAt,
		r.Progress, r.Rating, r.Homework, r.Published, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetReport returns a report by ID. Returns nil, nil if not found.
func (s *ReportStore) GetReport(ctx context.Context, id string) (*Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports_reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

// UpdateReport rewrites the mutable fields of a report.
func (s *ReportStore) UpdateReport(ctx context.Context, r *Report) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE reports_reports SET
			subject = ?, held_at = ?, progress = ?, rating = ?, homework = ?, published = ?, updated_at = ?
		WHERE id = ?`,
		r.Subject, r.HeldAt, r.Progress, r.Rating, r.Homework, r.Published, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	return nil
}

// DeleteReport removes a report. Returns false if none existed.
func (s *ReportStore) DeleteReport(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports_reports WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete report: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListReports returns reports visible within the given scope, newest
// session first. Fine-grained filtering and sorting happen in listquery.
func (s *ReportStore) ListReports(ctx context.Context, params ListReportsParams) ([]Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports_reports WHERE 1=1`
	args := []any{}
	if params.TutorID != "" {
		query += ` AND tutor_id = ?`
		args = append(args, params.TutorID)
	}
	if len(params.StudentIDs) > 0 {
		query += ` AND student_id IN (?`
		for i := 1; i < len(params.StudentIDs); i++ {
			query += `, ?`
		}
		query += `)`
		for _, id := range params.StudentIDs {
			args = append(args, id)
		}
	}
	if params.PublishedOnly {
		query += ` AND published = 1`
	}
	query += ` ORDER BY held_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// DeleteStaleDrafts removes unpublished reports created before the cutoff.
func (s *ReportStore) DeleteStaleDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reports_reports WHERE published = 0 AND created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale drafts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scanReport(row interface{ Scan(dest ...any) error }) (*Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.LessonID, &r.TutorID, &r.StudentID, &r.Subject, &r.HeldAt,
		&r.Progress, &r.Rating, &r.Homework, &r.Published, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// -- Saved views --

// InsertView saves a new view.
func (s *ReportStore) InsertView(ctx context.Context, v *SavedView) error {
	state, err := json.Marshal(v.State)
	if err != nil {
		return fmt.Errorf("marshal view state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports_views (id, user_id, name, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.UserID, v.Name, string(state), v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert view: %w", err)
	}
	return nil
}

// GetView returns a saved view by ID. Returns nil, nil if not found.
func (s *ReportStore) GetView(ctx context.Context, id string) (*SavedView, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, state, created_at, updated_at
		FROM reports_views WHERE id = ?`, id)
	v, err := scanView(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get view: %w", err)
	}
	return v, nil
}

// ListViews returns one user's saved views ordered by name.
func (s *ReportStore) ListViews(ctx context.Context, userID string) ([]SavedView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, state, created_at, updated_at
		FROM reports_views WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	defer rows.Close()

	var views []SavedView
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan view: %w", err)
		}
		views = append(views, *v)
	}
	return views, rows.Err()
}

// UpdateView persists a view's name and state.
func (s *ReportStore) UpdateView(ctx context.Context, v *SavedView) error {
	state, err := json.Marshal(v.State)
	if err != nil {
		return fmt.Errorf("marshal view state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE reports_views SET name = ?, state = ?, updated_at = ? WHERE id = ?`,
		v.Name, string(state), v.UpdatedAt, v.ID,
	)
	if err != nil {
		return fmt.Errorf("update view: %w", err)
	}
	return nil
}

// DeleteView removes a saved view. Returns false if none existed.
func (s *ReportStore) DeleteView(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports_views WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete view: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scanView(row interface{ Scan(dest ...any) error }) (*SavedView, error) {
	var v SavedView
	var state string
	if err := row.Scan(&v.ID, &v.UserID, &v.Name, &state, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.State = listquery.NewState(listquery.Params{})
	if err := json.Unmarshal([]byte(state), v.State); err != nil {
		return nil, fmt.Errorf("unmarshal view state: %w", err)
	}
	return &v, nil
}
