package remediation

import (
	"context"

	"github.com/dreschagin/selfheal-core/internal/application/port"
	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/internal/sla"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// MetricProbe проверяет здоровье сервиса, повторно замеряя метрики,
// приведшие к сбою. Реализует recovery.HealthProbe.
type MetricProbe struct {
	collector port.MetricsCollector
	evaluator *sla.Evaluator
	logger    *logger.Logger
}

// NewMetricProbe создает новый probe
func NewMetricProbe(collector port.MetricsCollector, evaluator *sla.Evaluator, log *logger.Logger) *MetricProbe {
	return &MetricProbe{
		collector: collector,
		evaluator: evaluator,
		logger:    log,
	}
}

// Healthy возвращает true, когда все отслеживаемые метрики сбоя вернулись
// в соответствие. Сбой без единой отслеживаемой метрики считается
// неподтвержденным, и проверка возвращает false.
func (p *MetricProbe) Healthy(ctx context.Context, fault *entity.Fault) bool {
	samples, err := p.collector.CollectAll(ctx)
	if err != nil {
		p.logger.Warn("Health probe collection failed", "fault_id", fault.ID(), "error", err.Error())
		return false
	}

	faultMetrics := fault.Metrics()
	checked := 0

	for _, s := range samples {
		if _, ok := faultMetrics[s.MetricID]; !ok {
			continue
		}
		recorded, tracked := p.evaluator.RecordSample(s.MetricID, s.Value, s.CollectedAt)
		if !tracked {
			continue
		}
		checked++
		if recorded.Status != valueobject.SLAMet {
			return false
		}
	}

	return checked > 0
}
