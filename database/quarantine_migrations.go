package database

import (
	"database/sql"
	"fmt"
)

// CreateQuarantineTable создает таблицу карантина.
// Карантин терминален: записи из него не переобрабатываются.
func CreateQuarantineTable(db *sql.DB) error {
	createTableSQL := `
		CREATE TABLE IF NOT EXISTS quarantine_escalations (
			id TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			reason TEXT NOT NULL,
			checked_at TEXT NOT NULL
		)
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create quarantine table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_quarantine_reason ON quarantine_escalations(reason)`); err != nil {
		return fmt.Errorf("failed to create quarantine index: %w", err)
	}

	return nil
}
