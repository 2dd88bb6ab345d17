package usecase

import (
	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/recovery"
)

const defaultHistoryLimit = 50

// FaultQueryUseCase предоставляет операции чтения и отмены по сбоям
type FaultQueryUseCase struct {
	orchestrator *recovery.Orchestrator
}

// NewFaultQueryUseCase создает новый use case
func NewFaultQueryUseCase(orchestrator *recovery.Orchestrator) *FaultQueryUseCase {
	return &FaultQueryUseCase{orchestrator: orchestrator}
}

// ActiveFaults возвращает активные (нетерминальные) сбои
func (uc *FaultQueryUseCase) ActiveFaults() []*dto.FaultDTO {
	return dto.ToFaultDTOs(uc.orchestrator.Ledger().Active())
}

// AllFaults возвращает активные и удерживаемые терминальные сбои
func (uc *FaultQueryUseCase) AllFaults() []*dto.FaultDTO {
	return dto.ToFaultDTOs(uc.orchestrator.Ledger().All())
}

// RecoveryHistory возвращает последние итоги восстановления, новые первыми
func (uc *FaultQueryUseCase) RecoveryHistory(limit int) []*dto.RecoveryResultDTO {
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	return dto.ToRecoveryResultDTOs(uc.orchestrator.History().Recent(limit))
}

// CancelRecovery запрашивает кооперативную отмену восстановления
func (uc *FaultQueryUseCase) CancelRecovery(faultID string) error {
	return uc.orchestrator.Cancel(faultID)
}
