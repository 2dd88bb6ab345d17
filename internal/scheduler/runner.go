package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// Job — одна итерация периодической фоновой задачи
type Job func(ctx context.Context) error

// Snapshot отражает состояние runner'а для статусных endpoint'ов
type Snapshot struct {
	Name      string        `json:"name"`
	StartedAt time.Time     `json:"started_at"`
	Interval  time.Duration `json:"interval"`
	LastRunAt time.Time     `json:"last_run_at,omitempty"`
	LastError string        `json:"last_error,omitempty"`
	RunCount  int           `json:"run_count"`
}

// Runner выполняет задачу по тикеру. Итерации не накладываются:
// повторный запуск ждет завершения предыдущего.
type Runner struct {
	name     string
	job      Job
	log      *logger.Logger
	interval time.Duration

	runMu sync.Mutex

	mu        sync.RWMutex
	startedAt time.Time
	lastRunAt time.Time
	lastError string
	runCount  int
}

// NewRunner создает новый runner
func NewRunner(name string, job Job, interval time.Duration, log *logger.Logger) *Runner {
	return &Runner{
		name:      name,
		job:       job,
		log:       log,
		interval:  interval,
		startedAt: time.Now(),
	}
}

// Start крутит цикл до отмены контекста
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// RunOnce сохраняет состояние ошибки и логирует контекст
			_ = r.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce выполняет одну итерацию задачи
func (r *Runner) RunOnce(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	err := r.job(ctx)
	runAt := time.Now()

	if err != nil {
		wrappedErr := fmt.Errorf("%s cycle failed: %w", r.name, err)
		r.update(runAt, wrappedErr)
		r.log.Error("Background cycle failed", wrappedErr, "runner", r.name)
		return wrappedErr
	}

	r.update(runAt, nil)
	return nil
}

// Snapshot возвращает копию текущего состояния
func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Snapshot{
		Name:      r.name,
		StartedAt: r.startedAt,
		Interval:  r.interval,
		LastRunAt: r.lastRunAt,
		LastError: r.lastError,
		RunCount:  r.runCount,
	}
}

func (r *Runner) update(runAt time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastRunAt = runAt
	r.runCount++
	if err != nil {
		r.lastError = err.Error()
		return
	}
	r.lastError = ""
}
