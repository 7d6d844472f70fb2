package normalization

import (
	"context"
	"log/slog"

	"escalationserver/database"
)

// Watcher потребитель ленты изменений хранилища: на каждое событие записи
// запускает pipeline. Ошибка хранилища логируется и событие отбрасывается;
// запись остается в сыром виде и будет обработана при следующей записи
// того же документа.
type Watcher struct {
	pipeline *Pipeline
	feed     *database.ChangeFeed
	logger   *slog.Logger
	done     chan struct{}
}

// NewWatcher создает наблюдателя над лентой изменений
func NewWatcher(pipeline *Pipeline, feed *database.ChangeFeed) *Watcher {
	return &Watcher{
		pipeline: pipeline,
		feed:     feed,
		logger:   slog.Default().With("component", "pipeline_watcher"),
		done:     make(chan struct{}),
	}
}

// Run обрабатывает события до отмены контекста или закрытия ленты.
// Запускается в отдельной горутине из main.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.feed.Events():
			if !ok {
				return
			}
			outcome, err := w.pipeline.Process(ctx, ev.ID, ev.After)
			if err != nil {
				w.logger.Error("pipeline processing failed",
					"record_id", ev.ID, "error", err)
				continue
			}
			if outcome != OutcomeSkipped {
				w.logger.Debug("pipeline processed event",
					"record_id", ev.ID, "outcome", string(outcome))
			}
		}
	}
}

// Done возвращает канал, закрываемый после остановки наблюдателя
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}
