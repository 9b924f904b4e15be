package chat

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Thread kinds.
const (
	KindDirect = "direct"
	KindLesson = "lesson"
	KindForum  = "forum"
)

// Thread is one conversation.
type Thread struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title,omitempty"`
	LessonID  string    `json:"lesson_id,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one post in a thread. HTML is rendered from the markdown body
// on the way out and never stored.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	HTML      string    `json:"html,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatStore provides database access for the chat module.
type ChatStore struct {
	db *sql.DB
}

// NewStore creates a ChatStore backed by the given database.
func NewStore(db *sql.DB) *ChatStore {
	return &ChatStore{db: db}
}

// InsertThread creates a thread and its initial membership atomically.
func (s *ChatStore) InsertThread(ctx context.Context, t *Thread, memberIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert thread: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_threads (id, kind, title, lesson_id, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Kind, t.Title, t.LessonID, t.CreatedBy, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert thread: %w", err)
	}
	for _, userID := range memberIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO chat_members (thread_id, user_id, joined_at)
			VALUES (?, ?, ?)`, t.ID, userID, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}
	return tx.Commit()
}

// GetThread returns a thread by ID. Returns nil, nil if not found.
func (s *ChatStore) GetThread(ctx context.Context, id string) (*Thread, error) {
	var t Thread
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, title, lesson_id, created_by, created_at
		FROM chat_threads WHERE id = ?`, id).
		Scan(&t.ID, &t.Kind, &t.Title, &t.LessonID, &t.CreatedBy, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	return &t, nil
}

// ThreadsForUser returns the threads a user belongs to, newest first.
func (s *ChatStore) ThreadsForUser(ctx context.Context, userID string) ([]Thread, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.kind, t.title, t.lesson_id, t.created_by, t.created_at
		FROM chat_threads t
		JOIN chat_members m ON m.thread_id = t.id
		WHERE m.user_id = ?
		ORDER BY t.created_at DESC, t.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()
	return scanThreads(rows)
}

// ListForums returns all forum threads, newest first. Forums are readable
// platform-wide.
func (s *ChatStore) ListForums(ctx context.Context) ([]Thread, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, title, lesson_id, created_by, created_at
		FROM chat_threads WHERE kind = ?
		ORDER BY created_at DESC, id`, KindForum)
	if err != nil {
		return nil, fmt.Errorf("list forums: %w", err)
	}
	defer rows.Close()
	return scanThreads(rows)
}

func scanThreads(rows *sql.Rows) ([]Thread, error) {
	var threads []Thread
	for rows.Next() {
		var t Thread
		if err := rows.Scan(&t.ID, &t.Kind, &t.Title, &t.LessonID, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// AddMember adds a user to a thread. Adding twice is a no-op.
func (s *ChatStore) AddMember(ctx context.Context, threadID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO chat_members (thread_id, user_id, joined_at)
		VALUES (?, ?, ?)`, threadID, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// IsMember reports whether a user belongs to a thread.
func (s *ChatStore) IsMember(ctx context.Context, threadID, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM chat_members WHERE thread_id = ? AND user_id = ?`,
		threadID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check member: %w", err)
	}
	return n > 0, nil
}

// MemberIDs returns the user IDs belonging to a thread.
func (s *ChatStore) MemberIDs(ctx context.Context, threadID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM chat_members WHERE thread_id = ? ORDER BY joined_at, user_id`, threadID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertMessage appends a message to a thread.
func (s *ChatStore) InsertMessage(ctx context.Context, msg *Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, thread_id, author_id, body, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ThreadID, msg.AuthorID, msg.Body, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListMessages returns up to limit messages in a thread, newest first.
// A non-zero before bound pages further back in history.
func (s *ChatStore) ListMessages(ctx context.Context, threadID string, before time.Time, limit int) ([]Message, error) {
	query := `SELECT id, thread_id, author_id, body, created_at FROM chat_messages WHERE thread_id = ?`
	args := []any{threadID}
	if !before.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, before)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.AuthorID, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// RecentMessagesForUser returns the latest messages across a user's
// threads, for the overview feed.
func (s *ChatStore) RecentMessagesForUser(ctx context.Context, userID string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT msg.id, msg.thread_id, msg.author_id, msg.body, msg.created_at
		FROM chat_messages msg
		JOIN chat_members m ON m.thread_id = msg.thread_id
		WHERE m.user_id = ? AND msg.author_id != ?
		ORDER BY msg.created_at DESC, msg.id DESC LIMIT ?`,
		userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.AuthorID, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
