package normalization

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
)

// fingerprintSeparator разделитель компонент отпечатка.
// Менять нельзя: отпечатки уже персистнутых записей перестанут совпадать.
const fingerprintSeparator = "|"

// Fingerprint строит детерминированный отпечаток записи для поиска дублей.
// Состав: очищенный URL, сырая тема, канонический код здания и RFC 3339
// рендеринг метки времени в UTC, склеенные фиксированным разделителем.
// Одинаковые входы всегда дают одинаковый хэш — на этом держится поиск
// дублей у записей без URL.
func Fingerprint(cleanedURL, subject, buildingCode string, escalationDate time.Time) string {
	base := strings.Join([]string{
		cleanedURL,
		subject,
		buildingCode,
		escalationDate.UTC().Format(time.RFC3339),
	}, fingerprintSeparator)

	sum := sha1.Sum([]byte(base))
	return hex.EncodeToString(sum[:])
}
