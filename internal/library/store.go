package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Material is one learning resource with a markdown body.
type Material struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject"`
	Level     string    `json:"level,omitempty"`
	Body      string    `json:"body"`
	Published bool      `json:"published"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LibraryStore provides database access for the library module.
type LibraryStore struct {
	db *sql.DB
}

// NewStore creates a LibraryStore backed by db.
func NewStore(db *sql.DB) *LibraryStore {
	return &LibraryStore{db: db}
}

const materialColumns = `id, title, subject, level, body, published, author_id, created_at, updated_at`

// InsertMaterial creates a material.
func (s *LibraryStore) InsertMaterial(ctx context.Context, mat *Material) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO library_materials (`+materialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mat.ID, mat.Title, mat.Subject, mat.Level, mat.Body,
		mat.Published, mat.AuthorID, mat.CreatedAt, mat.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

// GetMaterial returns one material, or nil when absent.
func (s *LibraryStore) GetMaterial(ctx context.Context, id string) (*Material, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+materialColumns+` FROM library_materials WHERE id = ?`, id)
	mat, err := scanMaterial(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get material: %w", err)
	}
	return mat, nil
}

// UpdateMaterial rewrites a material's mutable fields.
func (s *LibraryStore) UpdateMaterial(ctx context.Context, mat *Material) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE library_materials
		SET title = ?, subject = ?, level = ?, body = ?, published = ?, updated_at = ?
		WHERE id = ?`,
		mat.Title, mat.Subject, mat.Level, mat.Body, mat.Published, mat.UpdatedAt, mat.ID,
	)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return nil
}

// DeleteMaterial removes a material and reports whether it existed.
func (s *LibraryStore) DeleteMaterial(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM library_materials WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete material: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete material: %w", err)
	}
	return n > 0, nil
}

// ListMaterialsParams narrows ListMaterials.
type ListMaterialsParams struct {
	PublishedOnly bool
	AuthorID      string
}

// ListMaterials returns materials matching the params, newest first.
func (s *LibraryStore) ListMaterials(ctx context.Context, p ListMaterialsParams) ([]Material, error) {
	query := `SELECT ` + materialColumns + ` FROM library_materials WHERE 1=1`
	var args []any
	if p.PublishedOnly {
		query += ` AND published = 1`
	}
	if p.AuthorID != "" {
		query += ` AND author_id = ?`
		args = append(args, p.AuthorID)
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	var materials []Material
	for rows.Next() {
		mat, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, *mat)
	}
	return materials, rows.Err()
}

// CountMaterials returns published and draft counts, for the overview.
func (s *LibraryStore) CountMaterials(ctx context.Context) (published, drafts int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN published = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN published = 0 THEN 1 ELSE 0 END), 0)
		FROM library_materials`).Scan(&published, &drafts)
	if err != nil {
		return 0, 0, fmt.Errorf("count materials: %w", err)
	}
	return published, drafts, nil
}

func scanMaterial(row interface{ Scan(dest ...any) error }) (*Material, error) {
	var mat Material
	err := row.Scan(
		&mat.ID, &mat.Title, &mat.Subject, &mat.Level, &mat.Body,
		&mat.Published, &mat.AuthorID, &mat.CreatedAt, &mat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &mat, nil
}
