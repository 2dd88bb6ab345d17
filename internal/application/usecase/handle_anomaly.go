package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/repository"
	"github.com/dreschagin/selfheal-core/internal/domain/service"
	"github.com/dreschagin/selfheal-core/internal/recovery"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// HandleAnomalyUseCase принимает аномалию от источника метрик, транслирует
// ее в канонический сбой и запускает восстановление в отдельной goroutine.
type HandleAnomalyUseCase struct {
	translator   *service.FaultTranslator
	orchestrator *recovery.Orchestrator
	faultRepo    repository.FaultRepository
	dispatcher   *Dispatcher
	runtime      *RuntimeConfig
	logger       *logger.Logger
}

// NewHandleAnomalyUseCase создает новый use case
func NewHandleAnomalyUseCase(
	translator *service.FaultTranslator,
	orchestrator *recovery.Orchestrator,
	faultRepo repository.FaultRepository,
	dispatcher *Dispatcher,
	runtime *RuntimeConfig,
	logger *logger.Logger,
) *HandleAnomalyUseCase {
	return &HandleAnomalyUseCase{
		translator:   translator,
		orchestrator: orchestrator,
		faultRepo:    faultRepo,
		dispatcher:   dispatcher,
		runtime:      runtime,
		logger:       logger,
	}
}

// Execute обрабатывает аномалию. Возвращает сбой (новый или существующий
// после слияния) и признак запуска нового восстановления.
func (uc *HandleAnomalyUseCase) Execute(ctx context.Context, anomaly service.Anomaly) (*dto.FaultDTO, bool, error) {
	fault, merged, err := uc.translator.TranslateAnomaly(anomaly)
	if err != nil {
		return nil, false, fmt.Errorf("failed to translate anomaly: %w", err)
	}
	if fault == nil {
		uc.logger.Debug("Anomaly for untracked metric ignored", "metric_id", anomaly.MetricID)
		return nil, false, nil
	}

	if merged {
		// Дубликат: метрики уже слиты в активный сбой, восстановление идет
		uc.logger.Info("Anomaly merged into active fault",
			"fault_id", fault.ID(),
			"fault_type", fault.Type(),
			"metric_id", anomaly.MetricID,
		)
		return dto.FromFault(fault), false, nil
	}

	// Регистрируем сбой до запуска восстановления, чтобы дедупликация
	// работала и для сбоев, ожидающих начала оркестрации
	uc.orchestrator.Ledger().Insert(fault)
	uc.dispatcher.FaultDetected(ctx, fault)

	uc.logger.Info("Fault detected",
		"fault_id", fault.ID(),
		"fault_type", fault.Type(),
		"service_id", fault.ServiceID(),
		"severity", fault.Severity().String(),
	)

	if !uc.runtime.Snapshot().FaultRecoveryEnabled {
		uc.logger.Warn("Fault recovery disabled, fault left in detected state", "fault_id", fault.ID())
		return dto.FromFault(fault), false, nil
	}

	go uc.recover(fault)
	return dto.FromFault(fault), true, nil
}

// recover выполняет восстановление сбоя как независимый поток управления
func (uc *HandleAnomalyUseCase) recover(fault *entity.Fault) {
	opts := uc.runtime.Snapshot()
	ctx := context.Background()
	if opts.RecoveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.RecoveryTimeout)
		defer cancel()
	}

	result, err := uc.orchestrator.ExecuteRecovery(ctx, fault)
	if err != nil {
		if errors.Is(err, recovery.ErrQueueFull) {
			// Отклоненный сбой покидает активный индекс; источник
			// должен отправить аномалию повторно
			uc.orchestrator.Ledger().Drop(fault)
		}
		uc.logger.Warn("Recovery not executed", "fault_id", fault.ID(), "error", err.Error())
		return
	}

	uc.persist(fault, result)
}

// persist сохраняет терминальный сбой в долговременный журнал (best effort)
func (uc *HandleAnomalyUseCase) persist(fault *entity.Fault, result recovery.Result) {
	if uc.faultRepo == nil {
		return
	}
	if err := uc.faultRepo.Save(context.Background(), fault); err != nil {
		uc.logger.Error("Failed to persist fault", err, "fault_id", fault.ID())
		return
	}
	uc.logger.Debug("Fault persisted", "fault_id", fault.ID(), "success", result.Success)
}
