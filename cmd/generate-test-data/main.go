// Генератор тестовых данных: создает наборы сырых записей эскалаций
// для прогона через ingest API. Часть записей намеренно бракованная
// (пропущенные поля, мусорные URL, дубликаты), чтобы нагружать карантин.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// rawEscalation сырая запись в том виде, в каком ее шлет ingest-продюсер
type rawEscalation map[string]any

var buildingVariants = []string{
	"CN", "chinn", "EL", "english landing", "GR", "graden", "HW", "hawthorn",
	"HP", "LC", "line creek", "PP", "RN", "SE", "TR", "UC", "CG", "LV",
	"PL", "plaza", "WL", "LD", "lead", "PHHS", "park hill high", "PHS", "AQ",
	"Annex Building", "Warehouse 3",
}

var teamVariants = []string{
	"INFRA", "infra", "infrastructure", "APPS", "apps", "applications",
	"DEV", "developers", "AV", "audiovisual", "Security Ops",
}

func main() {
	count := flag.Int("count", 100, "количество записей")
	output := flag.String("output", "test_escalations.json", "файл вывода")
	seed := flag.Int64("seed", 0, "seed генератора")
	flag.Parse()

	gofakeit.Seed(*seed)

	records := make([]rawEscalation, 0, *count)
	for i := 0; i < *count; i++ {
		records = append(records, generateRecord(i))
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("не удалось создать файл %s: %v", *output, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		log.Fatalf("не удалось записать данные: %v", err)
	}

	log.Printf("✓ Сгенерировано %d записей в %s", len(records), *output)
}

func generateRecord(i int) rawEscalation {
	date := gofakeit.DateRange(
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	)

	rec := rawEscalation{
		"subject":        gofakeit.Sentence(6),
		"description":    gofakeit.Paragraph(1, 3, 8, " "),
		"escalator":      gofakeit.Email(),
		"building":       gofakeit.RandomString(buildingVariants),
		"escalatedTo":    gofakeit.RandomString(teamVariants),
		"escalationDate": date.UTC().Format(time.RFC3339),
		"ticketURL":      fmt.Sprintf("https://tickets.example.com/t/%d?utm_source=mail&utm_medium=link", gofakeit.Number(10000, 99999)),
	}

	// Каждая десятая запись — с мусорным хвостом в URL
	if i%10 == 3 {
		rec["ticketURL"] = rec["ticketURL"].(string) + "Subject: " + gofakeit.Sentence(4)
	}
	// Каждая десятая — без темы (уйдет в карантин)
	if i%10 == 5 {
		delete(rec, "subject")
	}
	// Каждая десятая — с датой под альтернативным ключом
	if i%10 == 7 {
		rec["receivedDateTime"] = rec["escalationDate"]
		delete(rec, "escalationDate")
	}
	// Каждая десятая — с битой датой
	if i%10 == 9 {
		rec["escalationDate"] = "not-a-date"
	}

	return rec
}
