package usecase

import (
	"fmt"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/internal/sla"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// AddSLATargetUseCase регистрирует или заменяет целевой показатель SLA
type AddSLATargetUseCase struct {
	evaluator *sla.Evaluator
	logger    *logger.Logger
}

// NewAddSLATargetUseCase создает новый use case
func NewAddSLATargetUseCase(evaluator *sla.Evaluator, logger *logger.Logger) *AddSLATargetUseCase {
	return &AddSLATargetUseCase{evaluator: evaluator, logger: logger}
}

// Execute валидирует и регистрирует целевой показатель
func (uc *AddSLATargetUseCase) Execute(target *dto.SLATargetDTO) error {
	polarity := valueobject.MetricPolarity(target.Polarity)
	if target.Polarity == "" {
		polarity = valueobject.LowerIsBetter
	}

	severity := valueobject.SeverityHigh
	if target.Severity != "" {
		severity = valueobject.ParseSeverity(target.Severity)
	}

	err := uc.evaluator.AddTarget(sla.Target{
		MetricID:         target.MetricID,
		Description:      target.Description,
		Polarity:         polarity,
		Threshold:        target.Threshold,
		WarningThreshold: target.WarningThreshold,
		Severity:         severity,
		Unit:             target.Unit,
	})
	if err != nil {
		return fmt.Errorf("failed to add sla target: %w", err)
	}
	return nil
}

// List возвращает все зарегистрированные целевые показатели
func (uc *AddSLATargetUseCase) List() []*dto.SLATargetDTO {
	targets := uc.evaluator.Targets()
	out := make([]*dto.SLATargetDTO, len(targets))
	for i, t := range targets {
		out[i] = dto.FromSLATarget(t)
	}
	return out
}
