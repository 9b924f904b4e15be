package schedule

import (
	"database/sql"

	"github.com/studyhallhq/studyhall/pkg/module"
)

func migrations() []module.Migration {
	return []module.Migration{
		{
			Version:     1,
			Description: "create schedule tables (lessons)",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS schedule_lessons (
						id          TEXT PRIMARY KEY,
						tutor_id    TEXT NOT NULL,
						student_id  TEXT NOT NULL,
						subject     TEXT NOT NULL,
						starts_at   DATETIME NOT NULL,
						ends_at     DATETIME NOT NULL,
						location    TEXT NOT NULL DEFAULT '',
						status      TEXT NOT NULL DEFAULT 'scheduled',
						notes       TEXT NOT NULL DEFAULT '',
						reminded_at DATETIME,
						created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_schedule_lessons_tutor ON schedule_lessons(tutor_id, starts_at)`,
					`CREATE INDEX IF NOT EXISTS idx_schedule_lessons_student ON schedule_lessons(student_id, starts_at)`,
					`CREATE INDEX IF NOT EXISTS idx_schedule_lessons_start ON schedule_lessons(starts_at)`,
					`CREATE INDEX IF NOT EXISTS idx_schedule_lessons_status ON schedule_lessons(status)`,
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
