package dto

import (
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/recovery"
)

// FaultDTO представляет сбой для передачи между слоями
type FaultDTO struct {
	ID                 string               `json:"id"`
	Type               string               `json:"type"`
	ServiceID          string               `json:"service_id"`
	Severity           string               `json:"severity"`
	Status             string               `json:"status"`
	Description        string               `json:"description"`
	DetectedAt         time.Time            `json:"detected_at"`
	RecoveredAt        *time.Time           `json:"recovered_at,omitempty"`
	AffectedComponents []string             `json:"affected_components,omitempty"`
	Metrics            map[string]float64   `json:"metrics"`
	Actions            []*RecoveryActionDTO `json:"actions"`
	RetryCount         int                  `json:"retry_count"`
	EstimatedDowntime  int64                `json:"estimated_downtime_ms"`
}

// RecoveryActionDTO представляет действие восстановления
type RecoveryActionDTO struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	Status         string                 `json:"status"`
	StartTime      *time.Time             `json:"start_time,omitempty"`
	EndTime        *time.Time             `json:"end_time,omitempty"`
	Success        bool                   `json:"success"`
	RetryCount     int                    `json:"retry_count"`
	MaxRetries     int                    `json:"max_retries"`
	Parameters     map[string]interface{} `json:"parameters,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	RollbackAction string                 `json:"rollback_action,omitempty"`
}

// RecoveryResultDTO представляет итог одного запуска восстановления
type RecoveryResultDTO struct {
	Success           bool      `json:"success"`
	FaultID           string    `json:"fault_id"`
	FaultType         string    `json:"fault_type"`
	ServiceID         string    `json:"service_id"`
	ActionsTaken      int       `json:"actions_taken"`
	SuccessfulActions int       `json:"successful_actions"`
	FailedActions     int       `json:"failed_actions"`
	DurationMs        int64     `json:"duration_ms"`
	Recommendations   []string  `json:"recommendations"`
	CompletedAt       time.Time `json:"completed_at"`
}

// StrategyDTO представляет стратегию восстановления для API
type StrategyDTO struct {
	FaultType   string              `json:"fault_type"`
	MinSeverity string              `json:"min_severity"`
	Actions     []StrategyActionDTO `json:"actions"`
}

// StrategyActionDTO представляет шаг стратегии восстановления
type StrategyActionDTO struct {
	Type               string                 `json:"type"`
	Priority           int                    `json:"priority"`
	MaxRetries         int                    `json:"max_retries"`
	DelayMs            int                    `json:"delay_ms"`
	ExponentialBackoff bool                   `json:"exponential_backoff"`
	Parameters         map[string]interface{} `json:"parameters,omitempty"`
	RollbackAction     string                 `json:"rollback_action,omitempty"`
}

// FromFault конвертирует Domain Entity в DTO
func FromFault(fault *entity.Fault) *FaultDTO {
	actions := fault.Actions()
	actionDTOs := make([]*RecoveryActionDTO, len(actions))
	for i, a := range actions {
		actionDTOs[i] = FromRecoveryAction(a)
	}

	return &FaultDTO{
		ID:                 fault.ID(),
		Type:               fault.Type(),
		ServiceID:          fault.ServiceID(),
		Severity:           fault.Severity().String(),
		Status:             fault.Status().String(),
		Description:        fault.Description(),
		DetectedAt:         fault.DetectedAt(),
		RecoveredAt:        fault.RecoveredAt(),
		AffectedComponents: fault.AffectedComponents(),
		Metrics:            fault.Metrics(),
		Actions:            actionDTOs,
		RetryCount:         fault.RetryCount(),
		EstimatedDowntime:  fault.EstimatedDowntime().Milliseconds(),
	}
}

// ToFaultDTOs конвертирует слайс Entity в слайс DTO
func ToFaultDTOs(faults []*entity.Fault) []*FaultDTO {
	dtos := make([]*FaultDTO, len(faults))
	for i, f := range faults {
		dtos[i] = FromFault(f)
	}
	return dtos
}

// FromRecoveryAction конвертирует действие восстановления в DTO
func FromRecoveryAction(action *entity.RecoveryAction) *RecoveryActionDTO {
	return &RecoveryActionDTO{
		ID:             action.ID(),
		Type:           action.Type(),
		Status:         action.Status().String(),
		StartTime:      action.StartTime(),
		EndTime:        action.EndTime(),
		Success:        action.Success(),
		RetryCount:     action.RetryCount(),
		MaxRetries:     action.MaxRetries(),
		Parameters:     action.Parameters(),
		ErrorMessage:   action.ErrorMessage(),
		RollbackAction: action.RollbackAction(),
	}
}

// FromRecoveryResult конвертирует итог восстановления в DTO
func FromRecoveryResult(r recovery.Result) *RecoveryResultDTO {
	return &RecoveryResultDTO{
		Success:           r.Success,
		FaultID:           r.FaultID,
		FaultType:         r.FaultType,
		ServiceID:         r.ServiceID,
		ActionsTaken:      r.ActionsTaken,
		SuccessfulActions: r.SuccessfulActions,
		FailedActions:     r.FailedActions,
		DurationMs:        r.Duration.Milliseconds(),
		Recommendations:   r.Recommendations,
		CompletedAt:       r.CompletedAt,
	}
}

// ToRecoveryResultDTOs конвертирует слайс итогов в слайс DTO
func ToRecoveryResultDTOs(results []recovery.Result) []*RecoveryResultDTO {
	dtos := make([]*RecoveryResultDTO, len(results))
	for i, r := range results {
		dtos[i] = FromRecoveryResult(r)
	}
	return dtos
}

// FromStrategy конвертирует стратегию в DTO
func FromStrategy(s recovery.Strategy) *StrategyDTO {
	actions := make([]StrategyActionDTO, len(s.Actions))
	for i, a := range s.Actions {
		actions[i] = StrategyActionDTO{
			Type:               a.Type,
			Priority:           a.Priority,
			MaxRetries:         a.MaxRetries,
			DelayMs:            a.DelayMs,
			ExponentialBackoff: a.ExponentialBackoff,
			Parameters:         a.Parameters,
			RollbackAction:     a.RollbackAction,
		}
	}
	return &StrategyDTO{
		FaultType:   s.FaultType,
		MinSeverity: s.MinSeverity.String(),
		Actions:     actions,
	}
}
