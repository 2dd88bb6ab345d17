package remediation

import (
	"context"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// DryRunExecutor логирует действия восстановления вместо их выполнения.
// Используется, когда remediation-агент не настроен.
type DryRunExecutor struct {
	logger *logger.Logger
}

// NewDryRunExecutor создает новый dry-run executor
func NewDryRunExecutor(log *logger.Logger) *DryRunExecutor {
	return &DryRunExecutor{logger: log}
}

// Execute логирует действие и сообщает об успехе
func (e *DryRunExecutor) Execute(_ context.Context, fault *entity.Fault, action *entity.RecoveryAction) error {
	e.logger.Info("Dry-run: recovery action skipped",
		"action", action.Type(),
		"fault_id", fault.ID(),
		"fault_type", fault.Type(),
	)
	return nil
}

// Rollback логирует компенсирующее действие и сообщает об успехе
func (e *DryRunExecutor) Rollback(_ context.Context, fault *entity.Fault, rollbackType string) error {
	e.logger.Info("Dry-run: rollback skipped",
		"action", rollbackType,
		"fault_id", fault.ID(),
	)
	return nil
}
