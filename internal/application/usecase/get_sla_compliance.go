package usecase

import (
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/sla"
)

// GetSLAComplianceUseCase вычисляет уровень соответствия SLA за окно времени
type GetSLAComplianceUseCase struct {
	evaluator *sla.Evaluator
}

// NewGetSLAComplianceUseCase создает новый use case
func NewGetSLAComplianceUseCase(evaluator *sla.Evaluator) *GetSLAComplianceUseCase {
	return &GetSLAComplianceUseCase{evaluator: evaluator}
}

// Execute возвращает сводки по каждой метрике и общий уровень.
// Пустое окно считается полностью соответствующим (100).
func (uc *GetSLAComplianceUseCase) Execute(hours int) (float64, []*dto.ComplianceDTO) {
	if hours < 1 {
		hours = 24
	}
	window := time.Duration(hours) * time.Hour
	overall := uc.evaluator.ComplianceRate("", window)
	return overall, dto.FromComplianceSummaries(uc.evaluator.ComplianceSummaries(window))
}

// RecentEvents возвращает последние SLA-события, новые первыми
func (uc *GetSLAComplianceUseCase) RecentEvents(limit int) []*dto.SLAEventDTO {
	events := uc.evaluator.RecentEvents(limit)
	out := make([]*dto.SLAEventDTO, len(events))
	for i, ev := range events {
		out[i] = dto.FromSLAEvent(ev)
	}
	return out
}
