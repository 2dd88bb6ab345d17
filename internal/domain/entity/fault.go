package entity

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/google/uuid"
)

// Fault представляет каноническую запись об обнаруженном сбое (Aggregate Root).
// Инвариант: на пару (type, serviceId) существует не более одного сбоя
// в нетерминальном статусе — повторное обнаружение сливает метрики в
// существующую запись вместо создания дубликата.
//
// Слияние повторных обнаружений выполняется из потока приема аномалий,
// пока оркестратор и status-запросы читают тот же сбой, поэтому
// изменяемые поля защищены RWMutex.
type Fault struct {
	id                 string
	faultType          string
	serviceID          string
	severity           valueobject.Severity
	description        string
	affectedComponents []string

	mu                sync.RWMutex
	status            valueobject.FaultStatus
	detectedAt        time.Time
	recoveredAt       *time.Time
	metrics           map[string]float64
	actions           []*RecoveryAction
	retryCount        int
	estimatedDowntime time.Duration
}

// NewFault создает новый сбой в статусе detected (Factory Method)
func NewFault(
	faultType string,
	serviceID string,
	severity valueobject.Severity,
	description string,
	metrics map[string]float64,
	affectedComponents []string,
) (*Fault, error) {
	if faultType == "" {
		return nil, errors.New("fault type cannot be empty")
	}
	if serviceID == "" {
		return nil, errors.New("service id cannot be empty")
	}
	if err := severity.Validate(); err != nil {
		return nil, err
	}

	m := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		m[k] = v
	}

	return &Fault{
		id:                 uuid.New().String(),
		faultType:          faultType,
		serviceID:          serviceID,
		severity:           severity,
		status:             valueobject.FaultDetected,
		description:        description,
		detectedAt:         time.Now(),
		affectedComponents: append([]string(nil), affectedComponents...),
		metrics:            m,
		actions:            make([]*RecoveryAction, 0),
	}, nil
}

// ReconstructFault восстанавливает сбой из хранилища (для Repository)
func ReconstructFault(
	id string,
	faultType string,
	serviceID string,
	severity valueobject.Severity,
	status valueobject.FaultStatus,
	description string,
	detectedAt time.Time,
	recoveredAt *time.Time,
	affectedComponents []string,
	metrics map[string]float64,
	actions []*RecoveryAction,
	retryCount int,
	estimatedDowntime time.Duration,
) *Fault {
	if metrics == nil {
		metrics = make(map[string]float64)
	}
	if actions == nil {
		actions = make([]*RecoveryAction, 0)
	}

	return &Fault{
		id:                 id,
		faultType:          faultType,
		serviceID:          serviceID,
		severity:           severity,
		status:             status,
		description:        description,
		detectedAt:         detectedAt,
		recoveredAt:        recoveredAt,
		affectedComponents: affectedComponents,
		metrics:            metrics,
		actions:            actions,
		retryCount:         retryCount,
		estimatedDowntime:  estimatedDowntime,
	}
}

// ID возвращает идентификатор сбоя
func (f *Fault) ID() string {
	return f.id
}

// Type возвращает тип сбоя
func (f *Fault) Type() string {
	return f.faultType
}

// ServiceID возвращает идентификатор затронутого сервиса
func (f *Fault) ServiceID() string {
	return f.serviceID
}

// Severity возвращает серьезность сбоя
func (f *Fault) Severity() valueobject.Severity {
	return f.severity
}

// Status возвращает текущий статус сбоя
func (f *Fault) Status() valueobject.FaultStatus {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}

// Description возвращает описание сбоя
func (f *Fault) Description() string {
	return f.description
}

// DetectedAt возвращает время последнего обнаружения
func (f *Fault) DetectedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.detectedAt
}

// RecoveredAt возвращает время восстановления (nil, если сбой не восстановлен)
func (f *Fault) RecoveredAt() *time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.recoveredAt
}

// AffectedComponents возвращает список затронутых компонентов
func (f *Fault) AffectedComponents() []string {
	return append([]string(nil), f.affectedComponents...)
}

// Metrics возвращает метрики сбоя
func (f *Fault) Metrics() map[string]float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	// Возвращаем копию для иммутабельности
	result := make(map[string]float64, len(f.metrics))
	for k, v := range f.metrics {
		result[k] = v
	}
	return result
}

// Actions возвращает действия восстановления, привязанные к сбою
func (f *Fault) Actions() []*RecoveryAction {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]*RecoveryAction(nil), f.actions...)
}

// RetryCount возвращает суммарное число повторных попыток по всем действиям
func (f *Fault) RetryCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.retryCount
}

// EstimatedDowntime возвращает оценку простоя от обнаружения до восстановления
func (f *Fault) EstimatedDowntime() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.estimatedDowntime
}

// Domain Methods (бизнес-логика)

// MergeDetection сливает метрики повторного обнаружения в существующий сбой
// и обновляет время обнаружения. Вызывается вместо создания дубликата.
func (f *Fault) MergeDetection(metrics map[string]float64, detectedAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for k, v := range metrics {
		f.metrics[k] = v
	}
	if detectedAt.After(f.detectedAt) {
		f.detectedAt = detectedAt
	}
}

// TransitionTo переводит сбой в новый статус с проверкой допустимости перехода
func (f *Fault) TransitionTo(next valueobject.FaultStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.status.CanTransitionTo(next) {
		return fmt.Errorf("invalid fault transition: %s -> %s", f.status, next)
	}
	f.status = next
	return nil
}

// ForceFail безусловно переводит сбой в failed (граница изоляции оркестратора).
// Терминальные статусы не перезаписываются.
func (f *Fault) ForceFail() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.status.IsTerminal() {
		f.status = valueobject.FaultFailed
	}
}

// MarkRecovered завершает сбой как восстановленный и фиксирует простой
func (f *Fault) MarkRecovered(at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.status.CanTransitionTo(valueobject.FaultRecovered) {
		return fmt.Errorf("invalid fault transition: %s -> %s", f.status, valueobject.FaultRecovered)
	}
	f.status = valueobject.FaultRecovered
	f.recoveredAt = &at
	f.estimatedDowntime = at.Sub(f.detectedAt)
	return nil
}

// AppendAction привязывает действие восстановления к сбою.
// Действие принадлежит только этому сбою и не разделяется с другими.
func (f *Fault) AppendAction(action *RecoveryAction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

// AddRetries учитывает повторные попытки выполненного действия
func (f *Fault) AddRetries(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retryCount += n
}

// IsActive возвращает true, пока сбой не достиг терминального статуса
func (f *Fault) IsActive() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return !f.status.IsTerminal()
}

// DedupKey возвращает ключ дедупликации (type, serviceId)
func (f *Fault) DedupKey() string {
	return f.faultType + ":" + f.serviceID
}
