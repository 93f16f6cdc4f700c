// Package sweep реализует внутрипроцессный планировщик ежедневных задач.
// Повторная регистрация задачи с тем же идентификатором заменяет прежнее
// расписание, а не создаёт второе.
package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler запускает зарегистрированные задачи по тикеру. Планировщик
// не гарантирует single-flight: если задача ещё работает на следующем
// тике, оба запуска выполняются параллельно.
type Scheduler struct {
	interval time.Duration
	log      *slog.Logger

	mu   sync.Mutex
	jobs map[string]context.CancelFunc
}

// NewScheduler создаёт планировщик с заданным интервалом между запусками.
func NewScheduler(interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		log:      log,
		jobs:     make(map[string]context.CancelFunc),
	}
}

// RegisterDaily регистрирует задачу под идентификатором. Уже
// зарегистрированная задача с тем же id останавливается и заменяется.
func (s *Scheduler) RegisterDaily(jobID string, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.jobs[jobID]; ok {
		cancel()
		s.log.Info("replacing scheduled job", slog.String("job_id", jobID))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.jobs[jobID] = cancel
	s.log.Info("registered daily job", slog.String("job_id", jobID))

	go s.run(ctx, jobID, fn)
}

// Stop останавливает все зарегистрированные задачи.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for jobID, cancel := range s.jobs {
		cancel()
		delete(s.jobs, jobID)
	}
}

func (s *Scheduler) run(ctx context.Context, jobID string, fn func(ctx context.Context)) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.log.Info("starting scheduled job", slog.String("job_id", jobID))
			// Каждый запуск в своей горутине: перекрытие запусков допустимо.
			go fn(ctx)
		}
	}
}
