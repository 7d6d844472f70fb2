package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"escalationserver/database"
)

// ErrorResponse ответ с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateEscalationResponse ответ на создание записи
type CreateEscalationResponse struct {
	ID string `json:"id"`
}

// handleHealth проверка живости сервера
// @Summary Проверка живости
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleCreateEscalation принимает сырую запись эскалации от ingest-продюсера.
// Запись сохраняется как есть; нормализация происходит асинхронно через
// ленту изменений.
// @Summary Создать сырую запись эскалации
// @Description Сохраняет сырой документ; нормализация выполняется pipeline'ом асинхронно
// @Tags escalations
// @Accept json
// @Produce json
// @Param escalation body map[string]interface{} true "Сырые поля записи"
// @Success 201 {object} CreateEscalationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /escalations [post]
func (s *Server) handleCreateEscalation(c *gin.Context) {
	var doc map[string]any
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	// Id назначает хранилище; клиентский id принимается, если передан
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.New().String()
	}
	delete(doc, "id")

	if err := s.db.Put(c.Request.Context(), id, doc); err != nil {
		LogError(c.Request.Context(), err, "failed to create escalation", "record_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store escalation"})
		return
	}

	c.JSON(http.StatusCreated, CreateEscalationResponse{ID: id})
}

// handleUpdateEscalation обновляет сырую запись; запись снова пойдет через pipeline
// @Summary Обновить запись эскалации
// @Tags escalations
// @Accept json
// @Produce json
// @Param id path string true "ID записи"
// @Param escalation body map[string]interface{} true "Поля записи"
// @Success 200 {object} CreateEscalationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /escalations/{id} [put]
func (s *Server) handleUpdateEscalation(c *gin.Context) {
	id := c.Param("id")

	var doc map[string]any
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	delete(doc, "id")

	if err := s.db.Put(c.Request.Context(), id, doc); err != nil {
		LogError(c.Request.Context(), err, "failed to update escalation", "record_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store escalation"})
		return
	}

	c.JSON(http.StatusOK, CreateEscalationResponse{ID: id})
}

// handleDeleteEscalation удаляет запись из основной коллекции
// @Summary Удалить запись эскалации
// @Tags escalations
// @Produce json
// @Param id path string true "ID записи"
// @Success 204
// @Failure 500 {object} ErrorResponse
// @Router /escalations/{id} [delete]
func (s *Server) handleDeleteEscalation(c *gin.Context) {
	id := c.Param("id")

	if err := s.db.Delete(c.Request.Context(), id); err != nil {
		LogError(c.Request.Context(), err, "failed to delete escalation", "record_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete escalation"})
		return
	}

	c.Status(http.StatusNoContent)
}

// handleGetEscalation возвращает запись по id
// @Summary Получить запись эскалации
// @Tags escalations
// @Produce json
// @Param id path string true "ID записи"
// @Success 200 {object} database.EscalationRecord
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /escalations/{id} [get]
func (s *Server) handleGetEscalation(c *gin.Context) {
	id := c.Param("id")

	rec, err := s.db.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "escalation not found"})
			return
		}
		LogError(c.Request.Context(), err, "failed to get escalation", "record_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load escalation"})
		return
	}

	c.JSON(http.StatusOK, rec)
}
