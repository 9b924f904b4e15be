package audit

import (
	"database/sql"

	"github.com/studyhallhq/studyhall/pkg/module"
)

func migrations() []module.Migration {
	return []module.Migration{
		{
			Version:     1,
			Description: "create audit entries table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS audit_entries (
						id          TEXT PRIMARY KEY,
						time        DATETIME NOT NULL,
						actor       TEXT NOT NULL DEFAULT '',
						module      TEXT NOT NULL,
						action      TEXT NOT NULL,
						entity      TEXT NOT NULL DEFAULT '',
						detail      TEXT NOT NULL DEFAULT '',
						recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_audit_entries_time ON audit_entries(time)`,
					`CREATE INDEX IF NOT EXISTS idx_audit_entries_module ON audit_entries(module)`,
					`CREATE INDEX IF NOT EXISTS idx_audit_entries_action ON audit_entries(action)`,
					`CREATE INDEX IF NOT EXISTS idx_audit_entries_actor ON audit_entries(actor)`,
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
