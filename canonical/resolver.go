package canonical

import "strings"

const (
	// UnknownCode сентинел для пустого/отсутствующего входа
	UnknownCode = "UNKNOWN"
	// UnknownName отображаемое имя для неизвестной сущности
	UnknownName = "Unknown"

	maxBuildingCodeLen = 8
	maxTeamCodeLen     = 12
)

// Resolver резолвит свободный текст в каноническую сущность справочника.
// Чистая функция от входа и статических справочников, без побочных эффектов.
type Resolver struct {
	dicts *Dictionaries

	// Индексы имя→код (нижний регистр), строятся один раз в конструкторе
	buildingNames map[string]string
	teamNames     map[string]string
}

// NewResolver создает резолвер поверх переданного набора справочников
func NewResolver(dicts *Dictionaries) *Resolver {
	if dicts == nil {
		dicts = DefaultDictionaries()
	}
	return &Resolver{
		dicts:         dicts,
		buildingNames: nameIndex(dicts.Buildings),
		teamNames:     nameIndex(dicts.Teams),
	}
}

// nameIndex строит индекс отображаемых имен справочника в нижнем регистре
func nameIndex(dict map[string]Entity) map[string]string {
	idx := make(map[string]string, len(dict))
	for code, e := range dict {
		idx[strings.ToLower(e.Name)] = code
	}
	return idx
}

// Resolve возвращает каноническую сущность для произвольного текста.
// Порядок правил, первое совпадение выигрывает:
//  1. точное совпадение с кодом справочника (с учетом регистра);
//  2. совпадение по таблице синонимов (нижний регистр, trim);
//  3. совпадение с кодом без учета регистра;
//  4. совпадение с отображаемым именем сущности без учета регистра;
//  5. fallback: синтетический код из самого текста.
//
// Резолвер тотален: любой вход дает сущность с непустым кодом.
// Резолюция — неподвижная точка: и код, и каноническое имя уже
// резолвнутой сущности резолвятся в нее же.
func (r *Resolver) Resolve(domain Domain, raw string) Entity {
	dict, synonyms, names, maxLen := r.dicts.Buildings, r.dicts.BuildingSynonyms, r.buildingNames, maxBuildingCodeLen
	if domain == DomainTeam {
		dict, synonyms, names, maxLen = r.dicts.Teams, r.dicts.TeamSynonyms, r.teamNames, maxTeamCodeLen
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Entity{Code: UnknownCode, Name: UnknownName}
	}

	// Правило 1: канонические коды резолвятся сами в себя.
	// Это гарантирует идемпотентность повторного прогона нормализации.
	if e, ok := dict[raw]; ok {
		return e
	}

	// Правило 2: таблица синонимов
	if code, ok := synonyms[strings.ToLower(raw)]; ok {
		if e, ok := dict[code]; ok {
			return e
		}
	}

	// Правило 3: код без учета регистра
	upper := strings.ToUpper(raw)
	if e, ok := dict[upper]; ok {
		return e
	}

	// Правило 4: каноническое имя сущности. Нормализация перезаписывает
	// buildingName каноническим именем, поэтому повторный прогон по уже
	// нормализованной записи обязан вернуть тот же код, а не синтетический.
	if code, ok := names[strings.ToLower(raw)]; ok {
		if e, ok := dict[code]; ok {
			return e
		}
	}

	// Правило 5: синтетический код из текста
	return Entity{Code: syntheticCode(raw, maxLen), Name: raw}
}

// ResolveTeam резолвит обозначение команды
func (r *Resolver) ResolveTeam(raw string) Entity {
	return r.Resolve(DomainTeam, raw)
}

// ResolveBuilding резолвит обозначение здания
func (r *Resolver) ResolveBuilding(raw string) Entity {
	return r.Resolve(DomainBuilding, raw)
}

// syntheticCode строит стабильный код из произвольного текста:
// верхний регистр, только [A-Z0-9], усечение до maxLen
func syntheticCode(raw string, maxLen int) string {
	var b strings.Builder
	for _, c := range strings.ToUpper(raw) {
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
		if b.Len() >= maxLen {
			break
		}
	}
	if b.Len() == 0 {
		return UnknownCode
	}
	return b.String()
}
