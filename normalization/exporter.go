package normalization

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"escalationserver/database"
)

// ExportFormat формат экспорта
type ExportFormat string

const (
	FormatJSON  ExportFormat = "json"
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "excel"
)

// ExportedEscalation строка экспорта нормализованной записи
type ExportedEscalation struct {
	ID             string `json:"id"`
	Subject        string `json:"subject"`
	Description    string `json:"description"`
	TicketURL      string `json:"ticket_url"`
	Escalator      string `json:"escalator"`
	EscalatedTo    string `json:"escalated_to"`
	BuildingCode   string `json:"building_code"`
	BuildingName   string `json:"building_name"`
	EscalationDate string `json:"escalation_date"`
	YYYYMM         string `json:"yyyymm"`
	Hash           string `json:"hash"`
	IngestVersion  int    `json:"ingest_version"`
	UpdatedAt      string `json:"updated_at"`
}

var exportHeaders = []string{
	"ID", "Subject", "Description", "Ticket URL", "Escalator", "Escalated To",
	"Building Code", "Building Name", "Escalation Date", "Month", "Hash",
	"Ingest Version", "Updated At",
}

// Exporter экспортер нормализованных эскалаций для внешней отчетности
type Exporter struct{}

// NewExporter создает новый экспортер
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export выгружает записи в указанном формате
func (e *Exporter) Export(w io.Writer, format ExportFormat, records []database.EscalationRecord) error {
	items := make([]ExportedEscalation, 0, len(records))
	for _, rec := range records {
		items = append(items, toExported(rec))
	}

	switch format {
	case FormatJSON:
		return e.exportJSON(w, items)
	case FormatCSV:
		return e.exportCSV(w, items)
	case FormatExcel:
		return e.exportExcel(w, items)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func toExported(rec database.EscalationRecord) ExportedEscalation {
	docString := func(key string) string {
		if s, ok := rec.Doc[key].(string); ok {
			return s
		}
		return ""
	}
	return ExportedEscalation{
		ID:             rec.ID,
		Subject:        docString("subject"),
		Description:    docString("description"),
		TicketURL:      rec.TicketURL,
		Escalator:      docString("escalator"),
		EscalatedTo:    rec.EscalatedTo,
		BuildingCode:   rec.BuildingCode,
		BuildingName:   docString("buildingName"),
		EscalationDate: rec.EscalationDate,
		YYYYMM:         rec.YYYYMM,
		Hash:           rec.Hash,
		IngestVersion:  rec.IngestVersion,
		UpdatedAt:      rec.UpdatedAt,
	}
}

func (e *Exporter) exportJSON(w io.Writer, items []ExportedEscalation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("failed to encode JSON export: %w", err)
	}
	return nil
}

func (e *Exporter) exportCSV(w io.Writer, items []ExportedEscalation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeaders); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, item := range items {
		row := []string{
			item.ID, item.Subject, item.Description, item.TicketURL,
			item.Escalator, item.EscalatedTo, item.BuildingCode,
			item.BuildingName, item.EscalationDate, item.YYYYMM, item.Hash,
			fmt.Sprintf("%d", item.IngestVersion), item.UpdatedAt,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV export: %w", err)
	}
	return nil
}

func (e *Exporter) exportExcel(w io.Writer, items []ExportedEscalation) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Escalations"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create export sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	for rowIdx, item := range items {
		values := []any{
			item.ID, item.Subject, item.Description, item.TicketURL,
			item.Escalator, item.EscalatedTo, item.BuildingCode,
			item.BuildingName, item.EscalationDate, item.YYYYMM, item.Hash,
			item.IngestVersion, item.UpdatedAt,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel export: %w", err)
	}
	return nil
}
