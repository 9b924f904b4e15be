package chat

import (
	"database/sql"

	"github.com/studyhallhq/studyhall/pkg/module"
)

func migrations() []module.Migration {
	return []module.Migration{
		{
			Version:     1,
			Description: "create chat tables (threads, members, messages)",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS chat_threads (
						id         TEXT PRIMARY KEY,
						kind       TEXT NOT NULL,
						title      TEXT NOT NULL DEFAULT '',
						lesson_id  TEXT NOT NULL DEFAULT '',
						created_by TEXT NOT NULL,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_chat_threads_kind ON chat_threads(kind)`,
					`CREATE INDEX IF NOT EXISTS idx_chat_threads_lesson ON chat_threads(lesson_id)`,

					`CREATE TABLE IF NOT EXISTS chat_members (
						thread_id TEXT NOT NULL REFERENCES chat_threads(id) ON DELETE CASCADE,
						user_id   TEXT NOT NULL,
						joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						PRIMARY KEY (thread_id, user_id)
					)`,
					`CREATE INDEX IF NOT EXISTS idx_chat_members_user ON chat_members(user_id)`,

					`CREATE TABLE IF NOT EXISTS chat_messages (
						id         TEXT PRIMARY KEY,
						thread_id  TEXT NOT NULL REFERENCES chat_threads(id) ON DELETE CASCADE,
						author_id  TEXT NOT NULL,
						body       TEXT NOT NULL,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_chat_messages_thread ON chat_messages(thread_id, created_at)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
