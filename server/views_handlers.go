package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"escalationserver/database"
)

// ListEscalationsResponse страница нормализованных записей
type ListEscalationsResponse struct {
	Items      []database.EscalationRecord `json:"items"`
	NextCursor string                      `json:"next_cursor,omitempty"`
}

// ListQuarantineResponse список карантинных записей
type ListQuarantineResponse struct {
	Items []database.QuarantineRecord `json:"items"`
}

// handleListEscalations отдает страницу нормализованных записей.
// Сортировка: escalation_date по убыванию; пагинация курсором.
// @Summary Список нормализованных эскалаций
// @Description Курсорная пагинация по escalation_date (убывание) с фильтрами
// @Tags escalations
// @Produce json
// @Param from query string false "Нижняя граница даты (RFC 3339)"
// @Param to query string false "Верхняя граница даты (RFC 3339)"
// @Param team query string false "Канонический код команды"
// @Param building query string false "Канонический код здания"
// @Param yyyymm query string false "Месячный бакет, например 2024-03"
// @Param q query string false "Подстрока в теме"
// @Param cursor query string false "Курсор следующей страницы"
// @Param limit query int false "Размер страницы (по умолчанию 50)"
// @Success 200 {object} ListEscalationsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /escalations [get]
func (s *Server) handleListEscalations(c *gin.Context) {
	params := database.ListParams{
		Team:     c.Query("team"),
		Building: c.Query("building"),
		YYYYMM:   c.Query("yyyymm"),
		Query:    c.Query("q"),
		Cursor:   c.Query("cursor"),
	}

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		params.Limit = limit
	}
	if v := c.Query("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected RFC 3339"})
			return
		}
		params.From = from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected RFC 3339"})
			return
		}
		params.To = to
	}

	items, nextCursor, err := s.db.List(c.Request.Context(), params)
	if err != nil {
		LogError(c.Request.Context(), err, "failed to list escalations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list escalations"})
		return
	}

	c.JSON(http.StatusOK, ListEscalationsResponse{Items: items, NextCursor: nextCursor})
}

// handleListQuarantine отдает карантинные записи
// @Summary Список карантинных записей
// @Tags quarantine
// @Produce json
// @Param reason query string false "Код причины"
// @Param limit query int false "Максимум записей"
// @Success 200 {object} ListQuarantineResponse
// @Failure 500 {object} ErrorResponse
// @Router /quarantine [get]
func (s *Server) handleListQuarantine(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	items, err := s.db.ListQuarantine(c.Request.Context(), c.Query("reason"), limit)
	if err != nil {
		LogError(c.Request.Context(), err, "failed to list quarantine records")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quarantine records"})
		return
	}

	c.JSON(http.StatusOK, ListQuarantineResponse{Items: items})
}

// handleGetQuarantined возвращает карантинную запись по id
// @Summary Получить карантинную запись
// @Tags quarantine
// @Produce json
// @Param id path string true "ID записи"
// @Success 200 {object} database.QuarantineRecord
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /quarantine/{id} [get]
func (s *Server) handleGetQuarantined(c *gin.Context) {
	id := c.Param("id")

	rec, err := s.db.GetQuarantined(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quarantine record not found"})
			return
		}
		LogError(c.Request.Context(), err, "failed to get quarantine record", "record_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load quarantine record"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// handleStats отдает агрегаты для отчетности
// @Summary Агрегаты по эскалациям
// @Tags system
// @Produce json
// @Success 200 {object} database.Stats
// @Failure 500 {object} ErrorResponse
// @Router /stats [get]
func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.db.GetStats(c.Request.Context())
	if err != nil {
		LogError(c.Request.Context(), err, "failed to compute stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
