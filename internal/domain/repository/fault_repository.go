package repository

import (
	"context"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
)

// FaultRepository определяет интерфейс для долговременного журнала сбоев (Port)
// Реализация будет в Infrastructure слое
type FaultRepository interface {
	// Save сохраняет сбой вместе с его действиями восстановления
	Save(ctx context.Context, fault *entity.Fault) error

	// FindByID находит сбой по идентификатору
	FindByID(ctx context.Context, id string) (*entity.Fault, error)

	// FindByTimeRange находит сбои, обнаруженные в указанном диапазоне
	FindByTimeRange(ctx context.Context, timeRange valueobject.TimeRange) ([]*entity.Fault, error)

	// FindByStatus находит сбои в указанном статусе с ограничением количества
	FindByStatus(ctx context.Context, status valueobject.FaultStatus, limit int) ([]*entity.Fault, error)

	// DeleteOlderThan удаляет терминальные сбои, обнаруженные раньше указанного времени
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// CountByStatus возвращает количество сбоев по каждому статусу
	CountByStatus(ctx context.Context) (map[valueobject.FaultStatus]int64, error)
}
