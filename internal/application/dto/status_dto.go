package dto

import "time"

// MonitoringStatusDTO представляет моментальный снимок состояния системы.
// Всегда вычисляется заново из живых источников — не кешируется.
type MonitoringStatusDTO struct {
	Timestamp            time.Time `json:"timestamp"`
	OverallStatus        string    `json:"overall_status"` // "healthy", "degraded", "critical"
	HealthScore          float64   `json:"health_score"`
	ActiveFaults         int       `json:"active_faults"`
	CriticalFaults       int       `json:"critical_faults"`
	InFlightRecoveries   int       `json:"in_flight_recoveries"`
	TotalRecoveries      int       `json:"total_recoveries"`
	SuccessfulRecoveries int       `json:"successful_recoveries"`
	SLACompliance        float64   `json:"sla_compliance"`
	BreachedTargets      int       `json:"breached_targets"`
	WarningTargets       int       `json:"warning_targets"`
	ConnectedClients     int       `json:"connected_clients"`
	UptimeSeconds        int64     `json:"uptime_seconds"`
}

// DashboardDataDTO представляет кешируемый snapshot для дашборда (TTL 60с)
type DashboardDataDTO struct {
	GeneratedAt    time.Time            `json:"generated_at"`
	Status         *MonitoringStatusDTO `json:"status"`
	Trend          string               `json:"trend"` // "improving", "stable", "declining"
	ActiveFaults   []*FaultDTO          `json:"active_faults"`
	RecentResults  []*RecoveryResultDTO `json:"recent_results"`
	RecentEvents   []*SystemEventDTO    `json:"recent_events"`
	ComplianceByID []*ComplianceDTO     `json:"compliance_by_metric"`
	FromCache      bool                 `json:"from_cache"`
}

// SystemEventDTO представляет запись ленты последних событий дашборда
type SystemEventDTO struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
