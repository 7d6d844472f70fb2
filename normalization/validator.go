package normalization

// CheckRequired проверяет обязательные поля нормализованной записи.
// Возвращает список отсутствующих полей; пустой список — запись валидна.
// Это бизнес-правило маршрутизации в карантин, а не системная ошибка.
func CheckRequired(fields NormalizedFields) []string {
	var missing []string

	if fields.Subject == "" {
		missing = append(missing, "subject")
	}
	if fields.Building == nil || fields.Building.Code == "" {
		missing = append(missing, "buildingCode")
	}
	if fields.TeamCode == "" {
		missing = append(missing, "escalatedTo")
	}
	if !fields.DatePresent {
		missing = append(missing, "escalationDate")
	}

	return missing
}
