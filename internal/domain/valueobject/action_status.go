package valueobject

import "errors"

// ActionStatus представляет состояние отдельного действия восстановления (Value Object)
type ActionStatus string

const (
	ActionPending   ActionStatus = "pending"
	ActionExecuting ActionStatus = "executing"
	ActionCompleted ActionStatus = "completed"
	ActionFailed    ActionStatus = "failed"
)

// Validate проверяет валидность статуса действия
func (as ActionStatus) Validate() error {
	switch as {
	case ActionPending, ActionExecuting, ActionCompleted, ActionFailed:
		return nil
	default:
		return errors.New("invalid action status")
	}
}

// IsFinished возвращает true, когда действие завершило выполнение
func (as ActionStatus) IsFinished() bool {
	return as == ActionCompleted || as == ActionFailed
}

// String возвращает строковое представление
func (as ActionStatus) String() string {
	return string(as)
}
