package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"escalationserver/database"
	"escalationserver/normalization"
)

// exportPageSize размер страницы при выгрузке записей из хранилища
const exportPageSize = 500

// handleExport выгружает нормализованные записи в JSON, CSV или Excel.
// Фильтры те же, что у списка.
// @Summary Экспорт нормализованных эскалаций
// @Tags export
// @Produce json
// @Param format query string false "json | csv | excel (по умолчанию json)"
// @Param team query string false "Канонический код команды"
// @Param building query string false "Канонический код здания"
// @Param yyyymm query string false "Месячный бакет"
// @Success 200
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /export [get]
func (s *Server) handleExport(c *gin.Context) {
	format := normalization.ExportFormat(c.DefaultQuery("format", string(normalization.FormatJSON)))
	switch format {
	case normalization.FormatJSON, normalization.FormatCSV, normalization.FormatExcel:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported format: %s", format)})
		return
	}

	params := database.ListParams{
		Team:     c.Query("team"),
		Building: c.Query("building"),
		YYYYMM:   c.Query("yyyymm"),
		Limit:    exportPageSize,
	}

	// Собираем все страницы: экспорт — операция отчетности, объемы небольшие
	var records []database.EscalationRecord
	for {
		page, next, err := s.db.List(c.Request.Context(), params)
		if err != nil {
			LogError(c.Request.Context(), err, "failed to load records for export")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load records"})
			return
		}
		records = append(records, page...)
		if next == "" {
			break
		}
		params.Cursor = next
	}

	filename := fmt.Sprintf("escalations_%s", time.Now().UTC().Format("2006-01-02"))
	switch format {
	case normalization.FormatCSV:
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
		c.Header("Content-Type", "text/csv")
	case normalization.FormatExcel:
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, filename))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	default:
		c.Header("Content-Type", "application/json")
	}

	if err := s.exporter.Export(c.Writer, format, records); err != nil {
		LogError(c.Request.Context(), err, "failed to export records", "format", string(format))
		// Заголовки уже могли уйти клиенту, статус менять поздно
		return
	}
}
