package service

import (
	"fmt"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
)

// Anomaly представляет аномалию, полученную от внешнего источника метрик
type Anomaly struct {
	MetricID    string
	Value       float64
	Severity    string
	Description string
}

// FaultMapping описывает правило трансляции метрики в канонический сбой
type FaultMapping struct {
	FaultType          string
	ServiceID          string
	AffectedComponents []string
}

// ActiveFaultIndex предоставляет доступ к индексу активных сбоев для дедупликации.
// Реализация принадлежит оркестратору восстановления.
type ActiveFaultIndex interface {
	// Lookup возвращает активный (нетерминальный) сбой по паре (type, serviceId)
	Lookup(faultType, serviceID string) (*entity.Fault, bool)
}

// FaultTranslator транслирует аномалии и SLA-события в канонические записи
// о сбоях с дедупликацией по паре (type, serviceId) (Domain Service).
// Метрики без определенного правила игнорируются — это не ошибка.
type FaultTranslator struct {
	index    ActiveFaultIndex
	mappings map[string]FaultMapping
}

// NewFaultTranslator создает FaultTranslator со стандартным набором правил
func NewFaultTranslator(index ActiveFaultIndex) *FaultTranslator {
	return &FaultTranslator{
		index:    index,
		mappings: defaultMappings(),
	}
}

func defaultMappings() map[string]FaultMapping {
	return map[string]FaultMapping{
		"response_time": {
			FaultType:          "performance_degradation",
			ServiceID:          "api-server",
			AffectedComponents: []string{"api-server", "load-balancer"},
		},
		"error_rate": {
			FaultType:          "high_error_rate",
			ServiceID:          "api-server",
			AffectedComponents: []string{"api-server"},
		},
		"availability": {
			FaultType:          "service_unavailable",
			ServiceID:          "api-server",
			AffectedComponents: []string{"api-server", "health-checker"},
		},
		"cpu_usage": {
			FaultType:          "resource_exhaustion",
			ServiceID:          "host",
			AffectedComponents: []string{"host"},
		},
		"memory_usage": {
			FaultType:          "memory_pressure",
			ServiceID:          "host",
			AffectedComponents: []string{"host"},
		},
		"db_connection_errors": {
			FaultType:          "database_connection_failure",
			ServiceID:          "postgres-primary",
			AffectedComponents: []string{"postgres-primary", "connection-pool"},
		},
	}
}

// RegisterMapping добавляет или заменяет правило трансляции для метрики
func (t *FaultTranslator) RegisterMapping(metricID string, mapping FaultMapping) {
	t.mappings[metricID] = mapping
}

// TranslateAnomaly транслирует аномалию в сбой.
// Возвращает (fault, merged=true) при слиянии с существующим активным сбоем,
// (fault, merged=false) при создании нового и (nil, false) для неотслеживаемых метрик.
func (t *FaultTranslator) TranslateAnomaly(a Anomaly) (*entity.Fault, bool, error) {
	mapping, ok := t.mappings[a.MetricID]
	if !ok {
		return nil, false, nil
	}

	metrics := map[string]float64{a.MetricID: a.Value}

	// Дедупликация: существующий активный сбой поглощает повторное обнаружение
	if existing, found := t.index.Lookup(mapping.FaultType, mapping.ServiceID); found {
		existing.MergeDetection(metrics, time.Now())
		return existing, true, nil
	}

	severity := valueobject.ParseSeverity(a.Severity)
	description := a.Description
	if description == "" {
		description = fmt.Sprintf("anomaly on metric %s: value %.2f", a.MetricID, a.Value)
	}

	fault, err := entity.NewFault(
		mapping.FaultType,
		mapping.ServiceID,
		severity,
		description,
		metrics,
		mapping.AffectedComponents,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create fault from anomaly: %w", err)
	}

	return fault, false, nil
}

// TranslateSLABreach транслирует SLA-нарушение в сбой по тем же правилам.
// Предупреждения (warning) сбоем не считаются.
func (t *FaultTranslator) TranslateSLABreach(metricID string, value float64, severity valueobject.Severity, description string) (*entity.Fault, bool, error) {
	return t.TranslateAnomaly(Anomaly{
		MetricID:    metricID,
		Value:       value,
		Severity:    severity.String(),
		Description: description,
	})
}
