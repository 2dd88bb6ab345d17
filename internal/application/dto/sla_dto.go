package dto

import (
	"time"

	"github.com/dreschagin/selfheal-core/internal/sla"
)

// SLATargetDTO представляет целевой показатель SLA для API
type SLATargetDTO struct {
	MetricID         string  `json:"metric_id"`
	Description      string  `json:"description,omitempty"`
	Polarity         string  `json:"polarity"`
	Threshold        float64 `json:"threshold"`
	WarningThreshold float64 `json:"warning_threshold,omitempty"`
	Severity         string  `json:"severity,omitempty"`
	Unit             string  `json:"unit,omitempty"`
}

// SLAEventDTO представляет событие изменения соответствия SLA
type SLAEventDTO struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	MetricID  string    `json:"metric_id"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ComplianceDTO представляет уровень соответствия SLA по одной метрике
type ComplianceDTO struct {
	MetricID    string  `json:"metric_id"`
	WindowHours int     `json:"window_hours"`
	Rate        float64 `json:"rate"`
	SampleCount int     `json:"sample_count"`
	MetCount    int     `json:"met_count"`
}

// SampleDTO представляет классифицированный замер метрики
type SampleDTO struct {
	MetricID  string    `json:"metric_id"`
	Value     float64   `json:"value"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// FromSLATarget конвертирует целевой показатель в DTO
func FromSLATarget(t sla.Target) *SLATargetDTO {
	return &SLATargetDTO{
		MetricID:         t.MetricID,
		Description:      t.Description,
		Polarity:         string(t.Polarity),
		Threshold:        t.Threshold,
		WarningThreshold: t.WarningThreshold,
		Severity:         t.Severity.String(),
		Unit:             t.Unit,
	}
}

// FromSLAEvent конвертирует событие SLA в DTO
func FromSLAEvent(ev sla.Event) *SLAEventDTO {
	return &SLAEventDTO{
		ID:        ev.ID,
		Type:      string(ev.Type),
		MetricID:  ev.MetricID,
		Value:     ev.Value,
		Threshold: ev.Threshold,
		Severity:  ev.Severity.String(),
		Message:   ev.Message,
		Timestamp: ev.Timestamp,
	}
}

// FromSample конвертирует замер в DTO
func FromSample(s sla.Sample) *SampleDTO {
	return &SampleDTO{
		MetricID:  s.MetricID,
		Value:     s.Value,
		Status:    s.Status.String(),
		Timestamp: s.Timestamp,
	}
}

// FromComplianceSummaries конвертирует сводки соответствия в DTO
func FromComplianceSummaries(summaries []sla.ComplianceSummary) []*ComplianceDTO {
	out := make([]*ComplianceDTO, len(summaries))
	for i, s := range summaries {
		out[i] = &ComplianceDTO{
			MetricID:    s.MetricID,
			WindowHours: s.WindowHours,
			Rate:        s.Rate,
			SampleCount: s.SampleCount,
			MetCount:    s.MetCount,
		}
	}
	return out
}
