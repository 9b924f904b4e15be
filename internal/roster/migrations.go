package roster

import (
	"database/sql"

	"github.com/studyhallhq/studyhall/pkg/module"
)

func migrations() []module.Migration {
	return []module.Migration{
		{
			Version:     1,
			Description: "create roster tables (profiles, guardian links, assignments)",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS roster_profiles (
						user_id      TEXT PRIMARY KEY,
						display_name TEXT NOT NULL DEFAULT '',
						subjects     TEXT NOT NULL DEFAULT '[]',
						grade_level  TEXT NOT NULL DEFAULT '',
						bio          TEXT NOT NULL DEFAULT '',
						timezone     TEXT NOT NULL DEFAULT 'UTC',
						updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_roster_profiles_name ON roster_profiles(display_name)`,

					`CREATE TABLE IF NOT EXISTS roster_guardian_links (
						id          TEXT PRIMARY KEY,
						guardian_id TEXT NOT NULL,
						student_id  TEXT NOT NULL,
						created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						UNIQUE(guardian_id, student_id)
					)`,
					`CREATE INDEX IF NOT EXISTS idx_roster_guardians_guardian ON roster_guardian_links(guardian_id)`,
					`CREATE INDEX IF NOT EXISTS idx_roster_guardians_student ON roster_guardian_links(student_id)`,

					`CREATE TABLE IF NOT EXISTS roster_assignments (
						id         TEXT PRIMARY KEY,
						tutor_id   TEXT NOT NULL,
						student_id TEXT NOT NULL,
						subject    TEXT NOT NULL,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						UNIQUE(tutor_id, student_id, subject)
					)`,
					`CREATE INDEX IF NOT EXISTS idx_roster_assignments_tutor ON roster_assignments(tutor_id)`,
					`CREATE INDEX IF NOT EXISTS idx_roster_assignments_student ON roster_assignments(student_id)`,
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
