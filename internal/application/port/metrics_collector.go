package port

import (
	"context"
	"time"
)

// RawSample представляет сырой замер метрики от collector'а
// Используется для передачи данных между Infrastructure и Application слоями
type RawSample struct {
	MetricID    string
	Value       float64
	CollectedAt time.Time
	Tags        map[string]string
}

// MetricsCollector определяет интерфейс для сбора системных замеров (Port)
// Реализация будет в Infrastructure слое
type MetricsCollector interface {
	// CollectAll собирает все доступные замеры
	CollectAll(ctx context.Context) ([]RawSample, error)

	// CollectCPU собирает замеры загрузки CPU
	CollectCPU(ctx context.Context) ([]RawSample, error)

	// CollectMemory собирает замеры памяти
	CollectMemory(ctx context.Context) ([]RawSample, error)

	// CollectDisk собирает замеры дисков
	CollectDisk(ctx context.Context) ([]RawSample, error)

	// CollectNetwork собирает замеры сети
	CollectNetwork(ctx context.Context) ([]RawSample, error)
}
