package normalization

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"escalationserver/canonical"
	"escalationserver/database"
)

func newTestPipeline(t *testing.T) (*Pipeline, *database.EscalationsDB) {
	t.Helper()

	db, err := database.NewEscalationsDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pipeline := NewPipelineWithClock(db, canonical.DefaultDictionaries(), func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	})
	return pipeline, db
}

func rawRecord() map[string]any {
	return map[string]any{
		"subject":        "Printer down",
		"description":    "Printer in the library is offline",
		"escalator":      "jdoe@example.com",
		"building":       "chinn",
		"escalatedTo":    "infra",
		"escalationDate": "2024-03-01T10:00:00Z",
		"ticketURL":      "https://t.example/x?utm=1Subject: hi",
	}
}

func TestPipelinePersistsNormalizedRecord(t *testing.T) {
	pipeline, db := newTestPipeline(t)
	ctx := context.Background()

	doc := rawRecord()
	require.NoError(t, db.Put(ctx, "rec-1", doc))

	outcome, err := pipeline.Process(ctx, "rec-1", doc)
	require.NoError(t, err)
	require.Equal(t, OutcomePersisted, outcome)

	rec, err := db.Get(ctx, "rec-1")
	require.NoError(t, err)
	require.True(t, rec.Normalized)
	require.Equal(t, 1, rec.IngestVersion)

	// Канонизация по примеру из постановки
	require.Equal(t, "CN", rec.BuildingCode)
	require.Equal(t, "Chinn Elementary", rec.Doc["buildingName"])
	require.Equal(t, "INFRA", rec.EscalatedTo)
	require.Equal(t, "https://t.example/x", rec.TicketURL)
	require.Equal(t, "2024-03", rec.YYYYMM)
	require.Equal(t, "2024-03-01T10:00:00Z", rec.Doc["escalationDate"])

	// Merge-семантика: нетронутые сырые поля сохранены
	require.Equal(t, "Printer in the library is offline", rec.Doc["description"])
	require.Equal(t, "jdoe@example.com", rec.Doc["escalator"])
	require.Equal(t, "chinn", rec.Doc["building"])

	require.NotEmpty(t, rec.Hash)
	require.Equal(t, true, rec.Doc["normalized"])
}

// TestPipelineSelfTriggerIdempotence повторный проход по собственной записи
// pipeline'а завершается без записи и без инкремента ingestVersion
func TestPipelineSelfTriggerIdempotence(t *testing.T) {
	pipeline, db := newTestPipeline(t)
	ctx := context.Background()

	doc := rawRecord()
	require.NoError(t, db.Put(ctx, "rec-1", doc))

	outcome, err := pipeline.Process(ctx, "rec-1", doc)
	require.NoError(t, err)
	require.Equal(t, OutcomePersisted, outcome)

	rec, err := db.Get(ctx, "rec-1")
	require.NoError(t, err)

	// Второй проход видит смерженный документ — как при самотриггере
	outcome, err = pipeline.Process(ctx, "rec-1", rec.Doc)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, outcome)

	after, err := db.Get(ctx, "rec-1")
	require.NoError(t, err)
	require.Equal(t, 1, after.IngestVersion, "ingestVersion must not double-increment")
}

// TestPipelineBuildingNameAliasIdempotence здание пришло только под алиасом
// buildingName. Первый проход перезаписывает buildingName каноническим именем;
// самотриггерный проход по смерженному документу обязан узнать это имя,
// сохранить код и не инкрементировать ingestVersion — иначе нормализация
// затирает корректно резолвнутый код синтетическим.
func TestPipelineBuildingNameAliasIdempotence(t *testing.T) {
	pipeline, db := newTestPipeline(t)
	ctx := context.Background()

	doc := rawRecord()
	delete(doc, "building")
	doc["buildingName"] = "chinn"
	require.NoError(t, db.Put(ctx, "rec-1", doc))

	outcome, err := pipeline.Process(ctx, "rec-1", doc)
	require.NoError(t, err)
	require.Equal(t, OutcomePersisted, outcome)

	rec, err := db.Get(ctx, "rec-1")
	require.NoError(t, err)
	require.Equal(t, "CN", rec.BuildingCode)
	require.Equal(t, "Chinn Elementary", rec.Doc["buildingName"])

	// Самотриггер: pipeline видит собственную запись, где сырого building нет
	outcome, err = pipeline.Process(ctx, "rec-1", rec.Doc)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, outcome)

	after, err := db.Get(ctx, "rec-1")
	require.NoError(t, err)
	require.Equal(t, "CN", after.BuildingCode, "canonical code must survive the self-trigger pass")
	require.Equal(t, "Chinn Elementary", after.Doc["buildingName"])
	require.Equal(t, 1, after.IngestVersion)
}

// TestPipelineReprocessesChangedRecord правка сырого поля поверх
// нормализованной записи снимает short-circuit
func TestPipelineReprocessesChangedRecord(t *testing.T) {
	pipeline, db := newTestPipeline(t)
	ctx := context.Background()

	doc := rawRecord()
	require.NoError(t, db.Put(ctx, "rec-1", doc))
	_, err := pipeline.Process(ctx, "rec-1", doc)
	require.NoError(t, err)

	rec, err := db.Get(ctx, "rec-1")
	require.NoError(t, err)

	changed := rec.Doc
	changed["subject"] = "Printer down again"
	require.NoError(t, db.Put(ctx, "rec-1", changed))

	outcome, err := pipeline.Process(ctx, "rec-1", changed)
	require.NoError(t, err)
	require.Equal(t, OutcomePersisted, outcome)

	after, err := db.Get(ctx, "rec-1")
	require.NoError(t, err)
	require.Equal(t, 2, after.IngestVersion)
}

func TestPipelineDeleteIsNoop(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	outcome, err := pipeline.Process(context.Background(), "gone", nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, outcome)
}

func TestPipelineQuarantinesMissingSubject(t *testing.T) {
	pipeline, db := newTestPipeline(t)
	ctx := context.Background()

	doc := rawRecord()
	delete(doc, "subject")
	require.NoError(t, db.Put(ctx, "rec-1", doc))

	outcome, err := pipeline.Process(ctx, "rec-1", doc)
	require.NoError(t, err)
	require.Equal(t, OutcomeQuarantined, outcome)

	// Оригинал удален из основной коллекции
	_, err = db.Get(ctx, "rec-1")
	require.ErrorIs(t, err, database.ErrNotFound)

	// Карантинная запись хранит исходные поля и код причины
	q, err := db.GetQuarantined(ctx, "rec-1")
	require.NoError(t, err)
	require.Equal(t, ReasonMissingRequiredFields, q.Reason)
	require.Equal(t, "chinn", q.Doc["building"])
	require.NotEmpty(t, q.CheckedAt)
}

func TestPipelineQuarantinesMissingDate(t *testing.T) {
	pipeline, db := newTestPipeline(t)
	ctx := context.Background()

	doc := rawRecord()
	delete(doc, "escalationDate")
	require.NoError(t, db.Put(ctx, "rec-1", doc))

	outcome, err := pipeline.Process(ctx, "rec-1", doc)
	require.NoError(t, err)
	require.Equal(t, OutcomeQuarantined, outcome)

	q, err := db.GetQuarantined(ctx, "rec-1")
	require.NoError(t, err)
	require.Equal(t, ReasonMissingRequiredFields, q.Reason)
}

// TestPipelineMalformedDateIsNotRejected битая, но присутствующая дата — это
// обработка деградацией к текущему моменту, а не повод для карантина
func TestPipelineMalformedDateIsNotRejected(t *testing.T) {
	pipeline, db := newTestPipeline(t)
	ctx := context.Background()

	doc := rawRecord()
	doc["escalationDate"] = "not-a-date"
	require.NoError(t, db.Put(ctx, "rec-1", doc))

	outcome, err := pipeline.Process(ctx, "rec-1", doc)
	require.NoError(t, err)
	require.Equal(t, OutcomePersisted, outcome)

	rec, err := db.Get(ctx, "rec-1")
	require.NoError(t, err)
	// Часы pipeline'а в тесте заморожены
	require.Equal(t, "2025-06-15T12:00:00Z", rec.Doc["escalationDate"])
	require.Equal(t, "2025-06", rec.YYYYMM)
}

func TestPipelineQuarantinesDuplicateURL(t *testing.T) {
	pipeline, db := newTestPipeline(t)
	ctx := context.Background()

	first := rawRecord()
	first["ticketURL"] = "https://t.example/y"
	require.NoError(t, db.Put(ctx, "rec-1", first))
	outcome, err := pipeline.Process(ctx, "rec-1", first)
	require.NoError(t, err)
	require.Equal(t, OutcomePersisted, outcome)

	second := rawRecord()
	second["ticketURL"] = "https://t.example/y"
	second["subject"] = "Different subject entirely"
	require.NoError(t, db.Put(ctx, "rec-2", second))
	outcome, err = pipeline.Process(ctx, "rec-2", second)
	require.NoError(t, err)
	require.Equal(t, OutcomeQuarantined, outcome)

	q, err := db.GetQuarantined(ctx, "rec-2")
	require.NoError(t, err)
	require.Equal(t, ReasonDuplicateTicketURL, q.Reason)

	// Первый выживает
	rec, err := db.Get(ctx, "rec-1")
	require.NoError(t, err)
	require.True(t, rec.Normalized)
}

func TestPipelineQuarantinesDuplicateHash(t *testing.T) {
	pipeline, db := newTestPipeline(t)
	ctx := context.Background()

	first := rawRecord()
	delete(first, "ticketURL")
	require.NoError(t, db.Put(ctx, "rec-1", first))
	outcome, err := pipeline.Process(ctx, "rec-1", first)
	require.NoError(t, err)
	require.Equal(t, OutcomePersisted, outcome)

	// Та же тема, здание и дата, без URL — совпадет отпечаток
	second := rawRecord()
	delete(second, "ticketURL")
	require.NoError(t, db.Put(ctx, "rec-2", second))
	outcome, err = pipeline.Process(ctx, "rec-2", second)
	require.NoError(t, err)
	require.Equal(t, OutcomeQuarantined, outcome)

	q, err := db.GetQuarantined(ctx, "rec-2")
	require.NoError(t, err)
	require.Equal(t, ReasonDuplicateHash, q.Reason)
}

// TestPipelineFallbackBuilding неизвестное здание получает синтетический код,
// а не отказ в обработке
func TestPipelineFallbackBuilding(t *testing.T) {
	pipeline, db := newTestPipeline(t)
	ctx := context.Background()

	doc := rawRecord()
	doc["building"] = "Nonexistent Place"
	require.NoError(t, db.Put(ctx, "rec-1", doc))

	outcome, err := pipeline.Process(ctx, "rec-1", doc)
	require.NoError(t, err)
	require.Equal(t, OutcomePersisted, outcome)

	rec, err := db.Get(ctx, "rec-1")
	require.NoError(t, err)
	require.Equal(t, "NONEXIST", rec.BuildingCode)
	require.Equal(t, "Nonexistent Place", rec.Doc["buildingName"])
}
