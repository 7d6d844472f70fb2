package normalization

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"escalationserver/canonical"
)

// urlJunkMarker маркер мусорного хвоста в ticket URL: все после него отрезается.
// Ingest-продюсер склеивает URL с темой письма, отсюда хвосты вида "...Subject: ...".
const urlJunkMarker = "Subject"

// timestampLayouts поддерживаемые форматы входных меток времени
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// NormalizedFields нормализованные поля эскалации, вычисленные из сырой записи
type NormalizedFields struct {
	Subject        string
	TicketURL      string            // очищенный URL, пустая строка если URL не было
	Building       *canonical.Entity // nil, если здание в сырой записи отсутствует
	TeamCode       string            // пустая строка, если команда отсутствует
	EscalationDate time.Time         // всегда валидный instant (fallback: момент обработки)
	DatePresent    bool              // была ли метка времени в сырой записи вообще
	YYYYMM         string            // месячный бакет по UTC, "2006-01"
}

// Normalizer приводит сырую запись эскалации к канонической форме.
// Все шаги тотальны: ни один вход не приводит к ошибке, битые значения
// деградируют к fallback-значениям.
type Normalizer struct {
	resolver *canonical.Resolver
	now      func() time.Time
}

// NewNormalizer создает нормализатор поверх переданного резолвера
func NewNormalizer(resolver *canonical.Resolver) *Normalizer {
	return &Normalizer{
		resolver: resolver,
		now:      time.Now,
	}
}

// NewNormalizerWithClock создает нормализатор с подменяемыми часами (для тестов)
func NewNormalizerWithClock(resolver *canonical.Resolver, now func() time.Time) *Normalizer {
	return &Normalizer{resolver: resolver, now: now}
}

// Normalize извлекает и чистит сырые поля записи.
// Алиасы полей: building|buildingName, escalatedTo|team, escalationDate|receivedDateTime —
// берется первое непустое.
func (n *Normalizer) Normalize(doc map[string]any) NormalizedFields {
	fields := NormalizedFields{
		Subject:   stringField(doc, "subject"),
		TicketURL: CleanTicketURL(stringField(doc, "ticketURL")),
	}

	if rawBuilding := firstStringField(doc, "building", "buildingName"); rawBuilding != "" {
		b := n.resolver.ResolveBuilding(rawBuilding)
		fields.Building = &b
	}
	if rawTeam := firstStringField(doc, "escalatedTo", "team"); rawTeam != "" {
		fields.TeamCode = n.resolver.ResolveTeam(rawTeam).Code
	}

	rawDate := firstField(doc, "escalationDate", "receivedDateTime")
	fields.DatePresent = rawDate != nil
	fields.EscalationDate = n.CoerceTimestamp(rawDate)
	fields.YYYYMM = MonthBucket(fields.EscalationDate)

	return fields
}

// CoerceTimestamp приводит значение произвольного типа к time.Time.
// Принимает time.Time и строку в одном из известных форматов; все остальное
// (включая отсутствующее или битое значение) деградирует к текущему моменту.
// Это обработка битых меток времени, а не обход валидации: проверка
// обязательности даты выполняется отдельно на этапе required-field check.
func (n *Normalizer) CoerceTimestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		if !t.IsZero() {
			return t
		}
	case *time.Time:
		if t != nil && !t.IsZero() {
			return *t
		}
	case string:
		trimmed := strings.TrimSpace(t)
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return ts
			}
		}
	}
	return n.now()
}

// CleanTicketURL чистит сырой ticket URL: отрезает все после маркера мусора,
// убирает пробелы и query-строку (трекинг-параметры). Если строка после
// усечения не парсится как URL, она возвращается как есть.
func CleanTicketURL(raw string) string {
	if raw == "" {
		return ""
	}

	base, _, _ := strings.Cut(raw, urlJunkMarker)
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" {
		return base
	}
	u.RawQuery = ""
	return u.String()
}

// MonthBucket возвращает месячный бакет "YYYY-MM" по календарю UTC
func MonthBucket(t time.Time) string {
	utc := t.UTC()
	return fmt.Sprintf("%04d-%02d", utc.Year(), int(utc.Month()))
}

// stringField возвращает строковое значение поля документа
func stringField(doc map[string]any, key string) string {
	v, ok := doc[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// firstStringField возвращает значение первого непустого поля из списка алиасов
func firstStringField(doc map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := stringField(doc, key); s != "" {
			return s
		}
	}
	return ""
}

// firstField возвращает первое непустое значение из списка алиасов без приведения типа
func firstField(doc map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := doc[key]; ok && v != nil {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v
		}
	}
	return nil
}
