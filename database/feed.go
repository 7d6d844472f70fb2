package database

import (
	"log/slog"
	"sync"
)

// WriteEvent уведомление об изменении записи в хранилище.
// After == nil означает удаление записи.
type WriteEvent struct {
	ID    string
	After map[string]any
}

// ChangeFeed лента изменений хранилища. Каждая запись или удаление публикует
// событие, которое потребляет pipeline-наблюдатель. Запись pipeline'а сама
// публикует событие — петля самотриггера ограничивается маркером normalized
// на стороне pipeline, а не фидом.
type ChangeFeed struct {
	events chan WriteEvent
	mu     sync.Mutex
	closed bool
	logger *slog.Logger
}

// NewChangeFeed создает ленту изменений с буфером заданного размера
func NewChangeFeed(bufferSize int) *ChangeFeed {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &ChangeFeed{
		events: make(chan WriteEvent, bufferSize),
		logger: slog.Default().With("component", "change_feed"),
	}
}

// Publish публикует событие без блокировки. При переполненном буфере событие
// отбрасывается с предупреждением: потерянный триггер безопасен, повторная
// запись той же записи переигрывает обработку.
func (f *ChangeFeed) Publish(ev WriteEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	select {
	case f.events <- ev:
	default:
		f.logger.Warn("change feed buffer full, event dropped", "record_id", ev.ID)
	}
}

// Events возвращает канал событий для потребителя
func (f *ChangeFeed) Events() <-chan WriteEvent {
	return f.events
}

// Close закрывает ленту; дальнейшие публикации игнорируются
func (f *ChangeFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.events)
}
