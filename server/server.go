package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"escalationserver/database"
	"escalationserver/docs"
	"escalationserver/internal/config"
	"escalationserver/normalization"
	"escalationserver/server/middleware"
)

// Server HTTP сервер ingest API и read-views поверх хранилища эскалаций
type Server struct {
	config     *config.Config
	db         *database.EscalationsDB
	exporter   *normalization.Exporter
	httpServer *http.Server
}

// New создает сервер поверх хранилища
func New(cfg *config.Config, db *database.EscalationsDB) *Server {
	return &Server{
		config:   cfg,
		db:       db,
		exporter: normalization.NewExporter(),
	}
}

// Handler строит HTTP handler со всеми маршрутами и middleware.
// Отдельный метод, чтобы тесты могли гонять запросы через httptest
// без запуска настоящего сервера.
func (s *Server) Handler() http.Handler {
	// Режим Gin: release для продакшена, переопределяется через GIN_MODE
	if ginMode := os.Getenv("GIN_MODE"); ginMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.GinRequestIDMiddleware())
	router.Use(middleware.GinRateLimitMiddleware(s.config.RateLimitPerSec, s.config.RateLimitBurst))
	router.Use(gin.Recovery())

	// Swagger UI поверх сгенерированной документации
	docs.SwaggerInfo.Host = "localhost:" + s.config.Port
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)

		// Ingest-поверхность: сырые записи от продюсера
		api.POST("/escalations", s.handleCreateEscalation)
		api.PUT("/escalations/:id", s.handleUpdateEscalation)
		api.DELETE("/escalations/:id", s.handleDeleteEscalation)

		// Read-views для потребителей нормализованной формы
		api.GET("/escalations", s.handleListEscalations)
		api.GET("/escalations/:id", s.handleGetEscalation)
		api.GET("/quarantine", s.handleListQuarantine)
		api.GET("/quarantine/:id", s.handleGetQuarantined)
		api.GET("/stats", s.handleStats)
		api.GET("/export", s.handleExport)
	}

	return router
}

// Start запускает HTTP сервер и блокируется до его остановки
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // Экспорт больших выгрузок
		IdleTimeout:  120 * time.Second,
	}

	Logger.Info("Starting HTTP server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server on %s: %w", addr, err)
	}
	return nil
}

// Shutdown останавливает сервер с ожиданием активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
