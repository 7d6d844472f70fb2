package database

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound запись с указанным id отсутствует в хранилище
var ErrNotFound = errors.New("escalation record not found")

// DBConfig конфигурация подключения к БД
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// EscalationsDB документное хранилище эскалаций с лентой изменений.
// Каждая запись и удаление публикуют WriteEvent в ленту — это входной
// интерфейс ingestion pipeline'а.
type EscalationsDB struct {
	conn *sql.DB
	feed *ChangeFeed
}

// NewEscalationsDB создает хранилище эскалаций с настройками по умолчанию
func NewEscalationsDB(dbPath string) (*EscalationsDB, error) {
	return NewEscalationsDBWithConfig(dbPath, DBConfig{}, 0)
}

// NewEscalationsDBWithConfig создает хранилище эскалаций с конфигурацией
// пула соединений и размером буфера ленты изменений
func NewEscalationsDBWithConfig(dbPath string, config DBConfig, feedBufferSize int) (*EscalationsDB, error) {
	// Для in-memory SQLite требуется ровно одно соединение, иначе каждое
	// новое соединение получает пустую БД без таблиц.
	if isInMemoryPath(dbPath) {
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := CreateEscalationsTable(conn); err != nil {
		conn.Close()
		return nil, err
	}
	if err := CreateQuarantineTable(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &EscalationsDB{
		conn: conn,
		feed: NewChangeFeed(feedBufferSize),
	}, nil
}

// Feed возвращает ленту изменений хранилища
func (db *EscalationsDB) Feed() *ChangeFeed {
	return db.feed
}

// Close закрывает ленту изменений и соединение с БД
func (db *EscalationsDB) Close() error {
	db.feed.Close()
	return db.conn.Close()
}

// EscalationRecord запись эскалации: документ целиком плюс проекции
// нормализованных полей
type EscalationRecord struct {
	ID             string         `json:"id"`
	Doc            map[string]any `json:"doc"`
	TicketURL      string         `json:"ticket_url,omitempty"`
	Hash           string         `json:"hash,omitempty"`
	EscalatedTo    string         `json:"escalated_to,omitempty"`
	BuildingCode   string         `json:"building_code,omitempty"`
	YYYYMM         string         `json:"yyyymm,omitempty"`
	EscalationDate string         `json:"escalation_date,omitempty"`
	Normalized     bool           `json:"normalized"`
	SchemaVersion  int            `json:"schema_version"`
	IngestVersion  int            `json:"ingest_version"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
}

// Put сохраняет сырой документ записи (создание или обновление продюсером).
// Проекции нормализованных полей при этом сбрасываются: запись пойдет через
// pipeline заново. Публикует событие в ленту изменений.
func (db *EscalationsDB) Put(ctx context.Context, id string, doc map[string]any) error {
	raw, err := encodeDoc(doc)
	if err != nil {
		return err
	}

	now := formatTimestamp(time.Now())
	query := `
		INSERT INTO escalations (id, doc, normalized, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc = excluded.doc,
			normalized = 0,
			updated_at = excluded.updated_at
	`
	if _, err := db.conn.ExecContext(ctx, query, id, raw, now, now); err != nil {
		return fmt.Errorf("failed to put escalation %s: %w", id, err)
	}

	db.feed.Publish(WriteEvent{ID: id, After: doc})
	return nil
}

// Get возвращает запись по id или ErrNotFound
func (db *EscalationsDB) Get(ctx context.Context, id string) (*EscalationRecord, error) {
	query := `
		SELECT id, doc, ticket_url, hash, escalated_to, building_code, yyyymm,
		       escalation_date, normalized, schema_version, ingest_version,
		       created_at, updated_at
		FROM escalations WHERE id = ?
	`
	rec, err := scanEscalation(db.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get escalation %s: %w", id, err)
	}
	return rec, nil
}

// Delete удаляет запись и публикует событие удаления.
// Отсутствующая запись не считается ошибкой.
func (db *EscalationsDB) Delete(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM escalations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete escalation %s: %w", id, err)
	}
	db.feed.Publish(WriteEvent{ID: id, After: nil})
	return nil
}

// FindOtherByTicketURL проверяет, существует ли другая запись (id != excludeID)
// с тем же очищенным ticket URL
func (db *EscalationsDB) FindOtherByTicketURL(ctx context.Context, ticketURL, excludeID string) (bool, error) {
	return db.existsOther(ctx, "ticket_url", ticketURL, excludeID)
}

// FindOtherByHash проверяет, существует ли другая запись с тем же отпечатком
func (db *EscalationsDB) FindOtherByHash(ctx context.Context, hash, excludeID string) (bool, error) {
	return db.existsOther(ctx, "hash", hash, excludeID)
}

func (db *EscalationsDB) existsOther(ctx context.Context, column, value, excludeID string) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM escalations WHERE %s = ? AND id != ?`, column)
	var count int
	if err := db.conn.QueryRowContext(ctx, query, value, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check duplicates by %s: %w", column, err)
	}
	return count > 0, nil
}

// NormalizedMeta проекции нормализованных полей для персиста
type NormalizedMeta struct {
	TicketURL      string
	Hash           string
	EscalatedTo    string
	BuildingCode   string
	YYYYMM         string
	EscalationDate time.Time
	SchemaVersion  int
	UpdatedAt      time.Time
}

// PersistNormalized записывает смерженный документ и проекции нормализованных
// полей одной транзакцией, инкрементируя ingest_version. Публикует событие:
// pipeline увидит собственную запись и завершит повторный проход по маркеру
// normalized без лишней работы.
func (db *EscalationsDB) PersistNormalized(ctx context.Context, id string, doc map[string]any, meta NormalizedMeta) error {
	raw, err := encodeDoc(doc)
	if err != nil {
		return err
	}

	query := `
		UPDATE escalations SET
			doc = ?,
			ticket_url = ?,
			hash = ?,
			escalated_to = ?,
			building_code = ?,
			yyyymm = ?,
			escalation_date = ?,
			normalized = 1,
			schema_version = ?,
			ingest_version = ingest_version + 1,
			updated_at = ?
		WHERE id = ?
	`
	res, err := db.conn.ExecContext(ctx, query,
		raw, meta.TicketURL, meta.Hash, meta.EscalatedTo, meta.BuildingCode,
		meta.YYYYMM, formatTimestamp(meta.EscalationDate), meta.SchemaVersion,
		formatTimestamp(meta.UpdatedAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to persist normalized escalation %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to persist normalized escalation %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	db.feed.Publish(WriteEvent{ID: id, After: doc})
	return nil
}

// QuarantineRecord отбракованная запись: исходный документ + код причины
type QuarantineRecord struct {
	ID        string         `json:"id"`
	Doc       map[string]any `json:"doc"`
	Reason    string         `json:"reason"`
	CheckedAt string         `json:"checked_at"`
}

// Quarantine переносит запись в карантин: вставка карантинной записи и
// удаление оригинала выполняются одной транзакцией, чтобы запись не могла
// пропасть между двумя шагами. Публикует событие удаления.
func (db *EscalationsDB) Quarantine(ctx context.Context, id string, doc map[string]any, reason string, checkedAt time.Time) error {
	raw, err := encodeDoc(doc)
	if err != nil {
		return err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin quarantine transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO quarantine_escalations (id, doc, reason, checked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc = excluded.doc,
			reason = excluded.reason,
			checked_at = excluded.checked_at
	`
	if _, err := tx.ExecContext(ctx, insertQuery, id, raw, reason, formatTimestamp(checkedAt)); err != nil {
		return fmt.Errorf("failed to insert quarantine record %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM escalations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete quarantined escalation %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit quarantine transaction: %w", err)
	}

	db.feed.Publish(WriteEvent{ID: id, After: nil})
	return nil
}

// ListQuarantine возвращает карантинные записи, опционально по коду причины
func (db *EscalationsDB) ListQuarantine(ctx context.Context, reason string, limit int) ([]QuarantineRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, doc, reason, checked_at FROM quarantine_escalations`
	args := []any{}
	if reason != "" {
		query += ` WHERE reason = ?`
		args = append(args, reason)
	}
	query += ` ORDER BY checked_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quarantine records: %w", err)
	}
	defer rows.Close()

	var records []QuarantineRecord
	for rows.Next() {
		var rec QuarantineRecord
		var raw string
		if err := rows.Scan(&rec.ID, &raw, &rec.Reason, &rec.CheckedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quarantine record: %w", err)
		}
		if rec.Doc, err = decodeDoc(raw); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetQuarantined возвращает карантинную запись по id или ErrNotFound
func (db *EscalationsDB) GetQuarantined(ctx context.Context, id string) (*QuarantineRecord, error) {
	var rec QuarantineRecord
	var raw string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, doc, reason, checked_at FROM quarantine_escalations WHERE id = ?`, id,
	).Scan(&rec.ID, &raw, &rec.Reason, &rec.CheckedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quarantine record %s: %w", id, err)
	}
	if rec.Doc, err = decodeDoc(raw); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListParams параметры выборки нормализованных записей
type ListParams struct {
	From     time.Time // нижняя граница escalation_date (включительно)
	To       time.Time // верхняя граница escalation_date (исключительно)
	Team     string
	Building string
	YYYYMM   string
	Query    string // подстрока в теме
	Cursor   string
	Limit    int
}

// List возвращает страницу нормализованных записей, отсортированных по
// escalation_date по убыванию, с курсорной пагинацией. Даты хранятся строками
// RFC 3339 UTC, поэтому строковые сравнения диапазонов эквивалентны
// типизированным и работают для записей любого возраста.
func (db *EscalationsDB) List(ctx context.Context, params ListParams) ([]EscalationRecord, string, error) {
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	conditions := []string{`normalized = 1`}
	args := []any{}

	if !params.From.IsZero() {
		conditions = append(conditions, `escalation_date >= ?`)
		args = append(args, formatTimestamp(params.From))
	}
	if !params.To.IsZero() {
		conditions = append(conditions, `escalation_date < ?`)
		args = append(args, formatTimestamp(params.To))
	}
	if params.Team != "" {
		conditions = append(conditions, `escalated_to = ?`)
		args = append(args, params.Team)
	}
	if params.Building != "" {
		conditions = append(conditions, `building_code = ?`)
		args = append(args, params.Building)
	}
	if params.YYYYMM != "" {
		conditions = append(conditions, `yyyymm = ?`)
		args = append(args, params.YYYYMM)
	}
	if params.Query != "" {
		conditions = append(conditions, `json_extract(doc, '$.subject') LIKE ?`)
		args = append(args, "%"+params.Query+"%")
	}

	if params.Cursor != "" {
		cursorDate, cursorID, err := decodeCursor(params.Cursor)
		if err != nil {
			return nil, "", err
		}
		conditions = append(conditions, `(escalation_date < ? OR (escalation_date = ? AND id < ?))`)
		args = append(args, cursorDate, cursorDate, cursorID)
	}

	query := `
		SELECT id, doc, ticket_url, hash, escalated_to, building_code, yyyymm,
		       escalation_date, normalized, schema_version, ingest_version,
		       created_at, updated_at
		FROM escalations
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY escalation_date DESC, id DESC
		LIMIT ?
	`
	args = append(args, limit+1)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list escalations: %w", err)
	}
	defer rows.Close()

	var records []EscalationRecord
	for rows.Next() {
		rec, err := scanEscalation(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan escalation: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to list escalations: %w", err)
	}

	// Одна лишняя строка в выборке означает наличие следующей страницы
	nextCursor := ""
	if len(records) > limit {
		records = records[:limit]
		last := records[len(records)-1]
		nextCursor = encodeCursor(last.EscalationDate, last.ID)
	}

	return records, nextCursor, nil
}

// Stats агрегаты по нормализованным и карантинным записям
type Stats struct {
	Total            int            `json:"total"`
	Normalized       int            `json:"normalized"`
	ByMonth          map[string]int `json:"by_month"`
	ByTeam           map[string]int `json:"by_team"`
	ByBuilding       map[string]int `json:"by_building"`
	QuarantineTotal  int            `json:"quarantine_total"`
	QuarantineReason map[string]int `json:"quarantine_by_reason"`
}

// GetStats возвращает агрегаты для отчетности
func (db *EscalationsDB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByMonth:          map[string]int{},
		ByTeam:           map[string]int{},
		ByBuilding:       map[string]int{},
		QuarantineReason: map[string]int{},
	}

	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM escalations`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count escalations: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM escalations WHERE normalized = 1`).Scan(&stats.Normalized); err != nil {
		return nil, fmt.Errorf("failed to count normalized escalations: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM quarantine_escalations`).Scan(&stats.QuarantineTotal); err != nil {
		return nil, fmt.Errorf("failed to count quarantine records: %w", err)
	}

	groupings := []struct {
		column string
		dest   map[string]int
	}{
		{"yyyymm", stats.ByMonth},
		{"escalated_to", stats.ByTeam},
		{"building_code", stats.ByBuilding},
	}
	for _, g := range groupings {
		query := fmt.Sprintf(
			`SELECT %s, COUNT(*) FROM escalations WHERE normalized = 1 GROUP BY %s`,
			g.column, g.column,
		)
		if err := db.scanGroupCounts(ctx, query, g.dest); err != nil {
			return nil, err
		}
	}

	if err := db.scanGroupCounts(ctx,
		`SELECT reason, COUNT(*) FROM quarantine_escalations GROUP BY reason`,
		stats.QuarantineReason,
	); err != nil {
		return nil, err
	}

	return stats, nil
}

func (db *EscalationsDB) scanGroupCounts(ctx context.Context, query string, dest map[string]int) error {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key sql.NullString
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan stats row: %w", err)
		}
		if key.Valid && key.String != "" {
			dest[key.String] = count
		}
	}
	return rows.Err()
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEscalation(row rowScanner) (*EscalationRecord, error) {
	var rec EscalationRecord
	var raw string
	var ticketURL, hash, escalatedTo, buildingCode, yyyymm, escalationDate sql.NullString
	var normalized int

	err := row.Scan(
		&rec.ID, &raw, &ticketURL, &hash, &escalatedTo, &buildingCode, &yyyymm,
		&escalationDate, &normalized, &rec.SchemaVersion, &rec.IngestVersion,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.TicketURL = nullString(ticketURL)
	rec.Hash = nullString(hash)
	rec.EscalatedTo = nullString(escalatedTo)
	rec.BuildingCode = nullString(buildingCode)
	rec.YYYYMM = nullString(yyyymm)
	rec.EscalationDate = nullString(escalationDate)
	rec.Normalized = normalized != 0

	if rec.Doc, err = decodeDoc(raw); err != nil {
		return nil, err
	}
	return &rec, nil
}

func encodeCursor(escalationDate, id string) string {
	return base64.URLEncoding.EncodeToString([]byte(escalationDate + "|" + id))
}

func decodeCursor(cursor string) (escalationDate, id string, err error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", "", fmt.Errorf("invalid cursor: %w", err)
	}
	date, recID, found := strings.Cut(string(raw), "|")
	if !found {
		return "", "", fmt.Errorf("invalid cursor format")
	}
	return date, recID, nil
}
