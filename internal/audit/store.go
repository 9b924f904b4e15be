package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Entry is one recorded bus event.
type Entry struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Actor      string    `json:"actor,omitempty"`
	Module     string    `json:"module"`
	Action     string    `json:"action"`
	Entity     string    `json:"entity,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AuditStore provides database access for the audit module.
type AuditStore struct {
	db *sql.DB
}

// NewStore creates an AuditStore backed by the given database.
func NewStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Insert persists one audit entry.
func (s *AuditStore) Insert(ctx context.Context, e *Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (id, time, actor, module, action, entity, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time, e.Actor, e.Module, e.Action, e.Entity, e.Detail, e.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns entries newest first, capped at limit. Fine-grained
// filtering happens in the list query layer.
func (s *AuditStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10000
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, time, actor, module, action, entity, detail, recorded_at
		FROM audit_entries ORDER BY time DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Time, &e.Actor, &e.Module, &e.Action, &e.Entity, &e.Detail, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (s *AuditStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}

// DeleteBefore removes entries older than the cutoff.
func (s *AuditStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_entries WHERE time < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete audit entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
