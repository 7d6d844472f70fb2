package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

func nullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// formatTimestamp единый формат хранения меток времени: RFC 3339 в UTC.
// Лексикографический порядок таких строк совпадает с хронологическим,
// поэтому строковые range-запросы по колонкам дат остаются корректными
// и для записей, созданных до перехода на типизированные даты.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// encodeDoc сериализует документ записи в JSON для хранения
func encodeDoc(doc map[string]any) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(raw), nil
}

// decodeDoc десериализует документ записи из JSON
func decodeDoc(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

// isInMemoryPath определяет, что путь относится к in-memory SQLite
func isInMemoryPath(dbPath string) bool {
	if dbPath == ":memory:" {
		return true
	}

	// Формат file:memdb?mode=memory&cache=shared также хранит БД в памяти
	if strings.HasPrefix(dbPath, "file:") && strings.Contains(dbPath, "mode=memory") {
		return true
	}

	return false
}
