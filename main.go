// @title Escalation Normalization Server API
// @version 1.0
// @description API для приема, нормализации и дедупликации записей эскалаций. Карантин отбракованных записей, read-views и экспорт для отчетности.

// @contact.name API Support
// @contact.email support@example.com

// @host localhost:9999
// @BasePath /api
// @schemes http

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"escalationserver/canonical"
	"escalationserver/database"
	"escalationserver/internal/config"
	"escalationserver/normalization"
	"escalationserver/server"
)

func main() {
	log.Println("Запуск Escalation Normalization Server...")

	// Загружаем конфигурацию
	log.Println("[1/4] Загрузка конфигурации...")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("✗ Ошибка загрузки конфигурации: %v", err)
	}
	server.ConfigureLogLevel(cfg.LogLevel)
	log.Printf("✓ Конфигурация загружена. Порт: %s", cfg.Port)

	// Инициализируем хранилище эскалаций
	log.Println("[2/4] Инициализация базы данных...")
	dbConfig := database.DBConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
	db, err := database.NewEscalationsDBWithConfig(cfg.DatabasePath, dbConfig, cfg.PipelineEventsBufferSize)
	if err != nil {
		log.Fatalf("✗ Не удалось инициализировать базу данных по пути %s: %v", cfg.DatabasePath, err)
	}
	defer db.Close()
	log.Printf("✓ БД инициализирована: %s", cfg.DatabasePath)

	// Запускаем pipeline-наблюдателя над лентой изменений
	log.Println("[3/4] Запуск ingestion pipeline...")
	pipeline := normalization.NewPipeline(db, canonical.DefaultDictionaries())
	watcher := normalization.NewWatcher(pipeline, db.Feed())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)
	log.Println("✓ Pipeline запущен")

	// Запускаем HTTP сервер
	log.Println("[4/4] Запуск HTTP сервера...")
	srv := server.New(cfg, db)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Ожидаем сигнал остановки
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Получен сигнал %v, останавливаемся...", sig)
	case err := <-errCh:
		if err != nil {
			log.Fatalf("✗ Ошибка HTTP сервера: %v", err)
		}
	}

	// Graceful shutdown: сначала сервер, затем pipeline
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("✗ Ошибка остановки сервера: %v", err)
	}

	cancel()
	select {
	case <-watcher.Done():
	case <-shutdownCtx.Done():
		log.Println("✗ Pipeline не успел остановиться за отведенное время")
	}

	log.Println("✓ Сервер остановлен")
}
