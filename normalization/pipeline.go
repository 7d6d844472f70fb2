package normalization

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"escalationserver/canonical"
	"escalationserver/database"
)

// SchemaVersion текущая версия нормализованной схемы. Записи с этой версией
// и неизменившимся отпечатком повторно не обрабатываются.
const SchemaVersion = 1

// Коды причин карантина
const (
	ReasonMissingRequiredFields = "missing_required_fields"
	ReasonDuplicateTicketURL    = "duplicate_ticketURL"
	ReasonDuplicateHash         = "duplicate_hash"
)

// Outcome исход обработки записи pipeline'ом
type Outcome string

const (
	OutcomeSkipped     Outcome = "skipped"     // удаление или уже нормализованная запись
	OutcomeQuarantined Outcome = "quarantined" // запись отбракована
	OutcomePersisted   Outcome = "persisted"   // нормализованные поля записаны
)

// Store операции хранилища, нужные pipeline'у
type Store interface {
	FindOtherByTicketURL(ctx context.Context, ticketURL, excludeID string) (bool, error)
	FindOtherByHash(ctx context.Context, hash, excludeID string) (bool, error)
	Quarantine(ctx context.Context, id string, doc map[string]any, reason string, checkedAt time.Time) error
	PersistNormalized(ctx context.Context, id string, doc map[string]any, meta database.NormalizedMeta) error
}

// Pipeline конвейер нормализации эскалаций: normalize → validate → dedupe →
// persist-or-quarantine. Запускается на каждое событие записи; не держит
// состояния между вызовами, поэтому безопасен при конкурентных вызовах по
// разным id. Ошибки хранилища пробрасываются наружу — ретраи остаются за
// триггерной инфраструктурой, повторный прогон любой записи безопасен.
type Pipeline struct {
	store      Store
	normalizer *Normalizer
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline создает pipeline поверх хранилища и набора справочников
func NewPipeline(store Store, dicts *canonical.Dictionaries) *Pipeline {
	resolver := canonical.NewResolver(dicts)
	return &Pipeline{
		store:      store,
		normalizer: NewNormalizer(resolver),
		logger:     slog.Default().With("component", "pipeline"),
		now:        time.Now,
	}
}

// NewPipelineWithClock создает pipeline с подменяемыми часами (для тестов)
func NewPipelineWithClock(store Store, dicts *canonical.Dictionaries, now func() time.Time) *Pipeline {
	p := NewPipeline(store, dicts)
	p.now = now
	p.normalizer = NewNormalizerWithClock(canonical.NewResolver(dicts), now)
	return p
}

// Process обрабатывает одно событие записи. after == nil означает удаление —
// это терминальный no-op, не ошибка.
func (p *Pipeline) Process(ctx context.Context, id string, after map[string]any) (Outcome, error) {
	if after == nil {
		return OutcomeSkipped, nil
	}

	fields := p.normalizer.Normalize(after)

	buildingCode := ""
	buildingName := ""
	if fields.Building != nil {
		buildingCode = fields.Building.Code
		buildingName = fields.Building.Name
	}

	hash := Fingerprint(fields.TicketURL, fields.Subject, buildingCode, fields.EscalationDate)

	// Запись уже нормализована текущей версией схемы и сырые поля не менялись:
	// выходим до любых записей в хранилище. Это гасит петлю самотриггера и
	// спурный двойной инкремент ingestVersion.
	if alreadyNormalized(after, hash) {
		return OutcomeSkipped, nil
	}

	if missing := CheckRequired(fields); len(missing) > 0 {
		p.logger.Info("escalation rejected, required fields missing",
			"record_id", id, "missing", missing)
		if err := p.store.Quarantine(ctx, id, after, ReasonMissingRequiredFields, p.now()); err != nil {
			return "", fmt.Errorf("failed to quarantine %s: %w", id, err)
		}
		return OutcomeQuarantined, nil
	}

	// Поиск дублей: по очищенному URL, если он есть, иначе по отпечатку.
	// Проверка и последующая запись не атомарны между разными id — две почти
	// одновременные копии могут обе пройти проверку. Принятый компромисс,
	// см. DESIGN.md.
	duplicate := false
	reason := ""
	var err error
	if fields.TicketURL != "" {
		duplicate, err = p.store.FindOtherByTicketURL(ctx, fields.TicketURL, id)
		reason = ReasonDuplicateTicketURL
	} else {
		duplicate, err = p.store.FindOtherByHash(ctx, hash, id)
		reason = ReasonDuplicateHash
	}
	if err != nil {
		return "", fmt.Errorf("duplicate check failed for %s: %w", id, err)
	}
	if duplicate {
		p.logger.Info("escalation rejected as duplicate", "record_id", id, "reason", reason)
		if err := p.store.Quarantine(ctx, id, after, reason, p.now()); err != nil {
			return "", fmt.Errorf("failed to quarantine %s: %w", id, err)
		}
		return OutcomeQuarantined, nil
	}

	// Merge-семантика: нетронутые сырые поля сохраняются, нормализованные
	// добавляются или перезаписываются поверх.
	merged := make(map[string]any, len(after)+8)
	for k, v := range after {
		merged[k] = v
	}
	if fields.TicketURL != "" {
		merged["ticketURL"] = fields.TicketURL
	}
	merged["buildingCode"] = buildingCode
	merged["buildingName"] = buildingName
	merged["escalatedTo"] = fields.TeamCode
	merged["escalationDate"] = fields.EscalationDate.UTC().Format(time.RFC3339)
	merged["yyyymm"] = fields.YYYYMM
	merged["hash"] = hash
	merged["ingestVersion"] = docInt(after, "ingestVersion") + 1
	merged["updatedAt"] = p.now().UTC().Format(time.RFC3339)
	merged["normalized"] = true
	merged["schemaVersion"] = SchemaVersion

	meta := database.NormalizedMeta{
		TicketURL:      fields.TicketURL,
		Hash:           hash,
		EscalatedTo:    fields.TeamCode,
		BuildingCode:   buildingCode,
		YYYYMM:         fields.YYYYMM,
		EscalationDate: fields.EscalationDate,
		SchemaVersion:  SchemaVersion,
		UpdatedAt:      p.now(),
	}
	if err := p.store.PersistNormalized(ctx, id, merged, meta); err != nil {
		return "", fmt.Errorf("failed to persist normalized %s: %w", id, err)
	}

	p.logger.Info("escalation normalized",
		"record_id", id,
		"building_code", buildingCode,
		"escalated_to", fields.TeamCode,
		"yyyymm", fields.YYYYMM,
	)
	return OutcomePersisted, nil
}

// alreadyNormalized проверяет маркер нормализации и неизменность отпечатка.
// Отпечаток пересчитан из текущих полей: если продюсер поверх нормализованной
// записи поменял сырое поле, хэш разойдется и запись пойдет в обработку.
func alreadyNormalized(doc map[string]any, recomputedHash string) bool {
	normalized, _ := doc["normalized"].(bool)
	if !normalized {
		return false
	}
	if docInt(doc, "schemaVersion") != SchemaVersion {
		return false
	}
	storedHash, _ := doc["hash"].(string)
	return storedHash == recomputedHash
}

// docInt читает числовое поле документа; JSON-декодер дает float64
func docInt(doc map[string]any, key string) int {
	switch v := doc[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
