// Package database реализует документное хранилище эскалаций поверх SQLite.
// Документ хранится как JSON в колонке doc, нормализованные поля дополнительно
// проецируются в индексируемые колонки для выборок и поиска дублей.
package database

import (
	"database/sql"
	"fmt"
)

// CreateEscalationsTable создает таблицу эскалаций и индексы для поиска дублей
// и выборок отчетности
func CreateEscalationsTable(db *sql.DB) error {
	createTableSQL := `
		CREATE TABLE IF NOT EXISTS escalations (
			id TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			-- Проекции нормализованных полей (NULL до прохода pipeline)
			ticket_url TEXT,
			hash TEXT,
			escalated_to TEXT,
			building_code TEXT,
			yyyymm TEXT,
			escalation_date TEXT,
			normalized INTEGER NOT NULL DEFAULT 0,
			schema_version INTEGER NOT NULL DEFAULT 0,
			ingest_version INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create escalations table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_escalations_ticket_url ON escalations(ticket_url)`,
		`CREATE INDEX IF NOT EXISTS idx_escalations_hash ON escalations(hash)`,
		`CREATE INDEX IF NOT EXISTS idx_escalations_date ON escalations(escalation_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_escalations_yyyymm ON escalations(yyyymm)`,
		`CREATE INDEX IF NOT EXISTS idx_escalations_team ON escalations(escalated_to)`,
		`CREATE INDEX IF NOT EXISTS idx_escalations_building ON escalations(building_code)`,
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create escalations index: %w", err)
		}
	}

	return nil
}
