package entity

import (
	"errors"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/google/uuid"
)

// RecoveryAction представляет один шаг восстановления со своей политикой
// повторных попыток. Принадлежит ровно одному родительскому Fault и
// мутируется только потоком оркестрации, владеющим этим сбоем.
type RecoveryAction struct {
	id             string
	actionType     string
	status         valueobject.ActionStatus
	startTime      *time.Time
	endTime        *time.Time
	success        bool
	retryCount     int
	maxRetries     int
	parameters     map[string]interface{}
	errorMessage   string
	rollbackAction string
}

// NewRecoveryAction создает действие восстановления в статусе pending (Factory Method)
func NewRecoveryAction(
	actionType string,
	maxRetries int,
	parameters map[string]interface{},
	rollbackAction string,
) (*RecoveryAction, error) {
	if actionType == "" {
		return nil, errors.New("action type cannot be empty")
	}
	if maxRetries < 1 {
		return nil, errors.New("max retries must be at least 1")
	}

	params := make(map[string]interface{}, len(parameters))
	for k, v := range parameters {
		params[k] = v
	}

	return &RecoveryAction{
		id:             uuid.New().String(),
		actionType:     actionType,
		status:         valueobject.ActionPending,
		maxRetries:     maxRetries,
		parameters:     params,
		rollbackAction: rollbackAction,
	}, nil
}

// ReconstructRecoveryAction восстанавливает действие из хранилища (для Repository)
func ReconstructRecoveryAction(
	id string,
	actionType string,
	status valueobject.ActionStatus,
	startTime, endTime *time.Time,
	success bool,
	retryCount, maxRetries int,
	parameters map[string]interface{},
	errorMessage string,
	rollbackAction string,
) *RecoveryAction {
	if parameters == nil {
		parameters = make(map[string]interface{})
	}

	return &RecoveryAction{
		id:             id,
		actionType:     actionType,
		status:         status,
		startTime:      startTime,
		endTime:        endTime,
		success:        success,
		retryCount:     retryCount,
		maxRetries:     maxRetries,
		parameters:     parameters,
		errorMessage:   errorMessage,
		rollbackAction: rollbackAction,
	}
}

// ID возвращает идентификатор действия
func (a *RecoveryAction) ID() string {
	return a.id
}

// Type возвращает тип действия
func (a *RecoveryAction) Type() string {
	return a.actionType
}

// Status возвращает текущий статус действия
func (a *RecoveryAction) Status() valueobject.ActionStatus {
	return a.status
}

// StartTime возвращает время начала выполнения
func (a *RecoveryAction) StartTime() *time.Time {
	return a.startTime
}

// EndTime возвращает время окончания выполнения
func (a *RecoveryAction) EndTime() *time.Time {
	return a.endTime
}

// Success возвращает true, если действие завершилось успешно
func (a *RecoveryAction) Success() bool {
	return a.success
}

// RetryCount возвращает число уже выполненных неудачных попыток
func (a *RecoveryAction) RetryCount() int {
	return a.retryCount
}

// MaxRetries возвращает предел попыток выполнения
func (a *RecoveryAction) MaxRetries() int {
	return a.maxRetries
}

// Parameters возвращает параметры действия
func (a *RecoveryAction) Parameters() map[string]interface{} {
	result := make(map[string]interface{}, len(a.parameters))
	for k, v := range a.parameters {
		result[k] = v
	}
	return result
}

// ErrorMessage возвращает текст последней ошибки выполнения
func (a *RecoveryAction) ErrorMessage() string {
	return a.errorMessage
}

// RollbackAction возвращает тип компенсирующего действия (пустая строка — нет)
func (a *RecoveryAction) RollbackAction() string {
	return a.rollbackAction
}

// HasRollback возвращает true, если у действия определен откат
func (a *RecoveryAction) HasRollback() bool {
	return a.rollbackAction != ""
}

// Domain Methods (бизнес-логика)

// Begin отмечает начало выполнения действия
func (a *RecoveryAction) Begin(at time.Time) {
	a.status = valueobject.ActionExecuting
	a.startTime = &at
}

// RecordFailure фиксирует неудачную попытку выполнения
func (a *RecoveryAction) RecordFailure(at time.Time, errMsg string) {
	a.retryCount++
	a.status = valueobject.ActionFailed
	a.errorMessage = errMsg
	a.endTime = &at
}

// Complete фиксирует успешное выполнение действия
func (a *RecoveryAction) Complete(at time.Time) {
	a.status = valueobject.ActionCompleted
	a.success = true
	a.errorMessage = ""
	a.endTime = &at
}

// AttemptsLeft возвращает true, пока не исчерпан лимит попыток
func (a *RecoveryAction) AttemptsLeft() bool {
	return a.retryCount < a.maxRetries
}

// Duration возвращает длительность выполнения действия
func (a *RecoveryAction) Duration() time.Duration {
	if a.startTime == nil || a.endTime == nil {
		return 0
	}
	return a.endTime.Sub(*a.startTime)
}
