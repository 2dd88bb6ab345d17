package valueobject

import "errors"

// FaultStatus представляет состояние сбоя в жизненном цикле восстановления (Value Object)
type FaultStatus string

const (
	FaultDetected   FaultStatus = "detected"
	FaultAnalyzing  FaultStatus = "analyzing"
	FaultRecovering FaultStatus = "recovering"
	FaultRecovered  FaultStatus = "recovered"
	FaultFailed     FaultStatus = "failed"
	FaultCancelled  FaultStatus = "cancelled"
)

// допустимые переходы состояний: detected → analyzing → recovering → terminal
var faultTransitions = map[FaultStatus][]FaultStatus{
	FaultDetected:   {FaultAnalyzing, FaultFailed, FaultCancelled},
	FaultAnalyzing:  {FaultRecovering, FaultRecovered, FaultFailed, FaultCancelled},
	FaultRecovering: {FaultRecovered, FaultFailed, FaultCancelled},
}

// Validate проверяет валидность статуса
func (fs FaultStatus) Validate() error {
	switch fs {
	case FaultDetected, FaultAnalyzing, FaultRecovering, FaultRecovered, FaultFailed, FaultCancelled:
		return nil
	default:
		return errors.New("invalid fault status")
	}
}

// IsTerminal возвращает true для конечных состояний
func (fs FaultStatus) IsTerminal() bool {
	return fs == FaultRecovered || fs == FaultFailed || fs == FaultCancelled
}

// CanTransitionTo проверяет, разрешен ли переход в указанное состояние
func (fs FaultStatus) CanTransitionTo(next FaultStatus) bool {
	for _, allowed := range faultTransitions[fs] {
		if allowed == next {
			return true
		}
	}
	return false
}

// String возвращает строковое представление
func (fs FaultStatus) String() string {
	return string(fs)
}
