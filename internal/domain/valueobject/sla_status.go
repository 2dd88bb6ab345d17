package valueobject

import "errors"

// SLAStatus представляет результат классификации SLA-замера (Value Object)
type SLAStatus string

const (
	SLAMet      SLAStatus = "met"
	SLAWarning  SLAStatus = "warning"
	SLABreached SLAStatus = "breached"
)

// Validate проверяет валидность статуса
func (s SLAStatus) Validate() error {
	switch s {
	case SLAMet, SLAWarning, SLABreached:
		return nil
	default:
		return errors.New("invalid sla status")
	}
}

// String возвращает строковое представление
func (s SLAStatus) String() string {
	return string(s)
}

// MetricPolarity определяет направление "хорошего" значения метрики
type MetricPolarity string

const (
	// HigherIsBetter — доступность, compliance rate: чем выше, тем лучше
	HigherIsBetter MetricPolarity = "higher_is_better"
	// LowerIsBetter — время отклика, error rate: чем ниже, тем лучше
	LowerIsBetter MetricPolarity = "lower_is_better"
)

// Validate проверяет валидность полярности
func (p MetricPolarity) Validate() error {
	switch p {
	case HigherIsBetter, LowerIsBetter:
		return nil
	default:
		return errors.New("invalid metric polarity")
	}
}
