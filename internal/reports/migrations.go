package reports

import (
	"database/sql"

	"github.com/studyhallhq/studyhall/pkg/module"
)

func migrations() []module.Migration {
	return []module.Migration{
		{
			Version:     1,
			Description: "create reports tables (reports, views)",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS reports_reports (
						id         TEXT PRIMARY KEY,
						lesson_id  TEXT NOT NULL DEFAULT '',
						tutor_id   TEXT NOT NULL,
						student_id TEXT NOT NULL,
						subject    TEXT NOT NULL,
						held_at    DATETIME NOT NULL,
						progress   TEXT NOT NULL DEFAULT '',
						rating     INTEGER NOT NULL DEFAULT 0,
						homework   TEXT NOT NULL DEFAULT '',
						published  INTEGER NOT NULL DEFAULT 0,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_reports_student ON reports_reports(student_id, held_at)`,
					`CREATE INDEX IF NOT EXISTS idx_reports_tutor ON reports_reports(tutor_id, held_at)`,
					`CREATE INDEX IF NOT EXISTS idx_reports_published ON reports_reports(published)`,

					`CREATE TABLE IF NOT EXISTS reports_views (
						id         TEXT PRIMARY KEY,
						user_id    TEXT NOT NULL,
						name       TEXT NOT NULL,
						state      TEXT NOT NULL DEFAULT '{}',
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						UNIQUE(user_id, name)
					)`,
					`CREATE INDEX IF NOT EXISTS idx_reports_views_user ON reports_views(user_id)`,
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
