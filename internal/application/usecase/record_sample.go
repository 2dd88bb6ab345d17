package usecase

import (
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/sla"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// RecordSampleUseCase принимает сырой замер метрики и классифицирует его
// относительно настроенных целей SLA. События переходов обрабатывает
// callback, подключенный к evaluator'у при сборке приложения.
type RecordSampleUseCase struct {
	evaluator *sla.Evaluator
	runtime   *RuntimeConfig
	logger    *logger.Logger
}

// NewRecordSampleUseCase создает новый use case
func NewRecordSampleUseCase(evaluator *sla.Evaluator, runtime *RuntimeConfig, logger *logger.Logger) *RecordSampleUseCase {
	return &RecordSampleUseCase{
		evaluator: evaluator,
		runtime:   runtime,
		logger:    logger,
	}
}

// Execute классифицирует замер. Возвращает (nil, false) для метрик без цели
// или при выключенном SLA-мониторинге.
func (uc *RecordSampleUseCase) Execute(metricID string, value float64, timestamp time.Time) (*dto.SampleDTO, bool) {
	if !uc.runtime.Snapshot().SLAEnabled {
		return nil, false
	}

	sample, tracked := uc.evaluator.RecordSample(metricID, value, timestamp)
	if !tracked {
		uc.logger.Debug("Sample for metric without SLA target ignored", "metric_id", metricID)
		return nil, false
	}

	return dto.FromSample(sample), true
}
