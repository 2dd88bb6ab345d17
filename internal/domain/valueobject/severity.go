package valueobject

import "errors"

// Severity представляет серьезность сбоя (Value Object)
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Validate проверяет валидность уровня серьезности
func (s Severity) Validate() error {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return nil
	default:
		return errors.New("invalid severity")
	}
}

// Level возвращает числовой ранг для сравнения (low=1 .. critical=4)
func (s Severity) Level() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AtLeast проверяет, что серьезность не ниже указанного порога
func (s Severity) AtLeast(min Severity) bool {
	return s.Level() >= min.Level()
}

// String возвращает строковое представление
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity приводит произвольную строку к Severity (по умолчанию low)
func ParseSeverity(raw string) Severity {
	switch raw {
	case string(SeverityCritical):
		return SeverityCritical
	case string(SeverityHigh):
		return SeverityHigh
	case string(SeverityMedium):
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// AllSeverities возвращает список всех уровней по возрастанию
func AllSeverities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}
