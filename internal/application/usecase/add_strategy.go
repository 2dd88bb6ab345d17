package usecase

import (
	"fmt"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/internal/recovery"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// AddStrategyUseCase регистрирует стратегию восстановления.
// Обновление действует только на будущие запуски восстановления.
type AddStrategyUseCase struct {
	orchestrator *recovery.Orchestrator
	logger       *logger.Logger
}

// NewAddStrategyUseCase создает новый use case
func NewAddStrategyUseCase(orchestrator *recovery.Orchestrator, logger *logger.Logger) *AddStrategyUseCase {
	return &AddStrategyUseCase{orchestrator: orchestrator, logger: logger}
}

// Execute валидирует и регистрирует стратегию
func (uc *AddStrategyUseCase) Execute(strategyDTO *dto.StrategyDTO) error {
	minSeverity := valueobject.Severity(strategyDTO.MinSeverity)
	if strategyDTO.MinSeverity == "" {
		minSeverity = valueobject.SeverityLow
	}
	if err := minSeverity.Validate(); err != nil {
		return fmt.Errorf("invalid min severity: %w", err)
	}

	actions := make([]recovery.StrategyAction, len(strategyDTO.Actions))
	for i, a := range strategyDTO.Actions {
		actions[i] = recovery.StrategyAction{
			Type:               a.Type,
			Priority:           a.Priority,
			MaxRetries:         a.MaxRetries,
			DelayMs:            a.DelayMs,
			ExponentialBackoff: a.ExponentialBackoff,
			Parameters:         a.Parameters,
			RollbackAction:     a.RollbackAction,
		}
	}

	return uc.orchestrator.AddStrategy(recovery.Strategy{
		FaultType:   strategyDTO.FaultType,
		MinSeverity: minSeverity,
		Actions:     actions,
	})
}

// List возвращает зарегистрированные стратегии
func (uc *AddStrategyUseCase) List() []*dto.StrategyDTO {
	strategies := uc.orchestrator.Strategies()
	out := make([]*dto.StrategyDTO, len(strategies))
	for i, s := range strategies {
		out[i] = dto.FromStrategy(s)
	}
	return out
}
