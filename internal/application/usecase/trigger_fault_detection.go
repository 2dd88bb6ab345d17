package usecase

import (
	"context"
	"fmt"

	"github.com/dreschagin/selfheal-core/internal/application/port"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// ScanSummary — итог ручного прохода обнаружения сбоев
type ScanSummary struct {
	SamplesCollected int `json:"samples_collected"`
	SamplesTracked   int `json:"samples_tracked"`
	BreachedSamples  int `json:"breached_samples"`
}

// TriggerFaultDetectionUseCase выполняет ручной проход обнаружения:
// собирает системные замеры и прогоняет их через SLA-классификацию.
// Нарушения превращаются в сбои через callback evaluator'а.
type TriggerFaultDetectionUseCase struct {
	collector    port.MetricsCollector
	recordSample *RecordSampleUseCase
	logger       *logger.Logger
}

// NewTriggerFaultDetectionUseCase создает новый use case
func NewTriggerFaultDetectionUseCase(
	collector port.MetricsCollector,
	recordSample *RecordSampleUseCase,
	logger *logger.Logger,
) *TriggerFaultDetectionUseCase {
	return &TriggerFaultDetectionUseCase{
		collector:    collector,
		recordSample: recordSample,
		logger:       logger,
	}
}

// Execute собирает и классифицирует все доступные замеры
func (uc *TriggerFaultDetectionUseCase) Execute(ctx context.Context) (*ScanSummary, error) {
	samples, err := uc.collector.CollectAll(ctx)
	if err != nil {
		uc.logger.Error("Failed to collect samples for fault scan", err)
		return nil, fmt.Errorf("failed to collect samples: %w", err)
	}

	summary := &ScanSummary{SamplesCollected: len(samples)}
	for _, s := range samples {
		classified, tracked := uc.recordSample.Execute(s.MetricID, s.Value, s.CollectedAt)
		if !tracked {
			continue
		}
		summary.SamplesTracked++
		if classified.Status == "breached" {
			summary.BreachedSamples++
		}
	}

	uc.logger.Info("Manual fault scan completed",
		"samples_collected", summary.SamplesCollected,
		"samples_tracked", summary.SamplesTracked,
		"breached_samples", summary.BreachedSamples,
	)
	return summary, nil
}
