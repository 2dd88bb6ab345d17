package usecase

import (
	"context"
	"fmt"

	"github.com/dreschagin/selfheal-core/internal/recovery"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// UpdateConfigUseCase применяет частичное обновление конфигурации ядра.
// Распознанные опции вступают в силу немедленно, неизвестные игнорируются.
type UpdateConfigUseCase struct {
	runtime      *RuntimeConfig
	orchestrator *recovery.Orchestrator
	dispatcher   *Dispatcher
	logger       *logger.Logger
}

// NewUpdateConfigUseCase создает новый use case
func NewUpdateConfigUseCase(
	runtime *RuntimeConfig,
	orchestrator *recovery.Orchestrator,
	dispatcher *Dispatcher,
	logger *logger.Logger,
) *UpdateConfigUseCase {
	return &UpdateConfigUseCase{
		runtime:      runtime,
		orchestrator: orchestrator,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// Execute применяет обновление и возвращает фактически измененные опции
func (uc *UpdateConfigUseCase) Execute(ctx context.Context, partial map[string]interface{}) (map[string]interface{}, error) {
	applied, err := uc.runtime.ApplyPartial(partial)
	if err != nil {
		return nil, fmt.Errorf("failed to update config: %w", err)
	}
	if len(applied) == 0 {
		return applied, nil
	}

	// Немедленные побочные эффекты на работающие компоненты
	opts := uc.runtime.Snapshot()
	if _, ok := applied["maxConcurrentRecoveries"]; ok {
		uc.orchestrator.SetMaxConcurrent(opts.MaxConcurrentRecoveries)
	}
	if _, ok := applied["faultRecoveryEnabled"]; ok {
		uc.orchestrator.SetEnabled(opts.FaultRecoveryEnabled)
	}

	uc.dispatcher.ConfigUpdated(ctx, applied)
	uc.logger.Info("Runtime configuration updated", "changed_keys", len(applied))
	return applied, nil
}
