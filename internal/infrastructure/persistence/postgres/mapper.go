package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/lib/pq"
)

// FaultDBModel представляет сбой в БД
type FaultDBModel struct {
	ID                  string
	FaultType           string
	ServiceID           string
	Severity            string
	Status              string
	Description         string
	DetectedAt          time.Time
	RecoveredAt         *time.Time
	AffectedComponents  []string
	Metrics             []byte // JSON
	RetryCount          int
	EstimatedDowntimeMs int64
	CreatedAt           time.Time
}

// ActionDBModel представляет действие восстановления в БД
type ActionDBModel struct {
	ID             string
	FaultID        string
	ActionType     string
	Status         string
	StartTime      *time.Time
	EndTime        *time.Time
	Success        bool
	RetryCount     int
	MaxRetries     int
	Parameters     []byte // JSON
	ErrorMessage   string
	RollbackAction string
	Position       int
}

// ToFaultDBModel конвертирует Domain Entity в DB Model
func ToFaultDBModel(fault *entity.Fault) (*FaultDBModel, error) {
	var metricsBytes []byte
	var err error

	metrics := fault.Metrics()
	if len(metrics) > 0 {
		metricsBytes, err = json.Marshal(metrics)
		if err != nil {
			return nil, err
		}
	}

	return &FaultDBModel{
		ID:                  fault.ID(),
		FaultType:           fault.Type(),
		ServiceID:           fault.ServiceID(),
		Severity:            fault.Severity().String(),
		Status:              fault.Status().String(),
		Description:         fault.Description(),
		DetectedAt:          fault.DetectedAt(),
		RecoveredAt:         fault.RecoveredAt(),
		AffectedComponents:  fault.AffectedComponents(),
		Metrics:             metricsBytes,
		RetryCount:          fault.RetryCount(),
		EstimatedDowntimeMs: fault.EstimatedDowntime().Milliseconds(),
	}, nil
}

// ToActionDBModel конвертирует действие восстановления в DB Model
func ToActionDBModel(faultID string, position int, action *entity.RecoveryAction) (*ActionDBModel, error) {
	var paramsBytes []byte
	var err error

	params := action.Parameters()
	if len(params) > 0 {
		paramsBytes, err = json.Marshal(params)
		if err != nil {
			return nil, err
		}
	}

	return &ActionDBModel{
		ID:             action.ID(),
		FaultID:        faultID,
		ActionType:     action.Type(),
		Status:         action.Status().String(),
		StartTime:      action.StartTime(),
		EndTime:        action.EndTime(),
		Success:        action.Success(),
		RetryCount:     action.RetryCount(),
		MaxRetries:     action.MaxRetries(),
		Parameters:     paramsBytes,
		ErrorMessage:   action.ErrorMessage(),
		RollbackAction: action.RollbackAction(),
		Position:       position,
	}, nil
}

// ToFaultEntity конвертирует DB Model в Domain Entity
func ToFaultEntity(model *FaultDBModel, actionModels []*ActionDBModel) (*entity.Fault, error) {
	var metrics map[string]float64
	if len(model.Metrics) > 0 {
		if err := json.Unmarshal(model.Metrics, &metrics); err != nil {
			return nil, err
		}
	}

	actions := make([]*entity.RecoveryAction, 0, len(actionModels))
	for _, am := range actionModels {
		action, err := ToActionEntity(am)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}

	fault := entity.ReconstructFault(
		model.ID,
		model.FaultType,
		model.ServiceID,
		valueobject.Severity(model.Severity),
		valueobject.FaultStatus(model.Status),
		model.Description,
		model.DetectedAt,
		model.RecoveredAt,
		model.AffectedComponents,
		metrics,
		actions,
		model.RetryCount,
		time.Duration(model.EstimatedDowntimeMs)*time.Millisecond,
	)

	return fault, nil
}

// ToActionEntity конвертирует DB Model действия в Domain Entity
func ToActionEntity(model *ActionDBModel) (*entity.RecoveryAction, error) {
	var params map[string]interface{}
	if len(model.Parameters) > 0 {
		if err := json.Unmarshal(model.Parameters, &params); err != nil {
			return nil, err
		}
	}

	action := entity.ReconstructRecoveryAction(
		model.ID,
		model.ActionType,
		valueobject.ActionStatus(model.Status),
		model.StartTime,
		model.EndTime,
		model.Success,
		model.RetryCount,
		model.MaxRetries,
		params,
		model.ErrorMessage,
		model.RollbackAction,
	)

	return action, nil
}

// ScanFaultRow сканирует строку БД в FaultDBModel
func ScanFaultRow(row interface {
	Scan(dest ...interface{}) error
}) (*FaultDBModel, error) {
	var model FaultDBModel
	var recoveredAt sql.NullTime
	var metrics sql.NullString
	var components pq.StringArray

	err := row.Scan(
		&model.ID,
		&model.FaultType,
		&model.ServiceID,
		&model.Severity,
		&model.Status,
		&model.Description,
		&model.DetectedAt,
		&recoveredAt,
		&components,
		&metrics,
		&model.RetryCount,
		&model.EstimatedDowntimeMs,
	)

	if err != nil {
		return nil, err
	}

	if recoveredAt.Valid {
		t := recoveredAt.Time
		model.RecoveredAt = &t
	}
	if metrics.Valid {
		model.Metrics = []byte(metrics.String)
	}
	model.AffectedComponents = []string(components)

	return &model, nil
}

// ScanActionRow сканирует строку БД в ActionDBModel
func ScanActionRow(row interface {
	Scan(dest ...interface{}) error
}) (*ActionDBModel, error) {
	var model ActionDBModel
	var startTime, endTime sql.NullTime
	var params sql.NullString

	err := row.Scan(
		&model.ID,
		&model.FaultID,
		&model.ActionType,
		&model.Status,
		&startTime,
		&endTime,
		&model.Success,
		&model.RetryCount,
		&model.MaxRetries,
		&params,
		&model.ErrorMessage,
		&model.RollbackAction,
		&model.Position,
	)

	if err != nil {
		return nil, err
	}

	if startTime.Valid {
		t := startTime.Time
		model.StartTime = &t
	}
	if endTime.Valid {
		t := endTime.Time
		model.EndTime = &t
	}
	if params.Valid {
		model.Parameters = []byte(params.String)
	}

	return &model, nil
}
