package dto

import "time"

// ReportDTO представляет сводный отчет за временной диапазон
type ReportDTO struct {
	ID                   string               `json:"id"`
	From                 time.Time            `json:"from"`
	To                   time.Time            `json:"to"`
	GeneratedAt          time.Time            `json:"generated_at"`
	TotalFaults          int                  `json:"total_faults"`
	RecoveredFaults      int                  `json:"recovered_faults"`
	FailedFaults         int                  `json:"failed_faults"`
	CancelledFaults      int                  `json:"cancelled_faults"`
	FaultsByType         map[string]int       `json:"faults_by_type"`
	FaultsBySeverity     map[string]int       `json:"faults_by_severity"`
	TotalRecoveries      int                  `json:"total_recoveries"`
	SuccessfulRecoveries int                  `json:"successful_recoveries"`
	AvgRecoveryMs        int64                `json:"avg_recovery_ms"`
	SLACompliance        float64              `json:"sla_compliance"`
	ComplianceByID       []*ComplianceDTO     `json:"compliance_by_metric"`
	SLAEvents            []*SLAEventDTO       `json:"sla_events"`
	Results              []*RecoveryResultDTO `json:"results"`
	StorageKey           string               `json:"storage_key,omitempty"`
	StorageURL           string               `json:"storage_url,omitempty"`
}

// ReportSummaryDTO представляет запись списка сохраненных отчетов
type ReportSummaryDTO struct {
	ID          string    `json:"id"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	GeneratedAt time.Time `json:"generated_at"`
	StorageKey  string    `json:"storage_key"`
	StorageURL  string    `json:"storage_url,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
}
