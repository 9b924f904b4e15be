package library

import (
	"database/sql"

	"github.com/studyhallhq/studyhall/pkg/module"
)

func migrations() []module.Migration {
	return []module.Migration{
		{
			Version:     1,
			Description: "create library materials table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS library_materials (
						id         TEXT PRIMARY KEY,
						title      TEXT NOT NULL,
						subject    TEXT NOT NULL,
						level      TEXT NOT NULL DEFAULT '',
						body       TEXT NOT NULL DEFAULT '',
						published  INTEGER NOT NULL DEFAULT 0,
						author_id  TEXT NOT NULL,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_library_materials_subject ON library_materials(subject)`,
					`CREATE INDEX IF NOT EXISTS idx_library_materials_author ON library_materials(author_id)`,
					`CREATE INDEX IF NOT EXISTS idx_library_materials_published ON library_materials(published)`,
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
