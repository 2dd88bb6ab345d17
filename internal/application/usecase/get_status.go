package usecase

import (
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/application/port"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/internal/recovery"
	"github.com/dreschagin/selfheal-core/internal/sla"
)

const complianceWindow = 24 * time.Hour

// Веса штрафов за активные сбои при расчете health score
var severityPenalty = map[valueobject.Severity]float64{
	valueobject.SeverityCritical: 30,
	valueobject.SeverityHigh:     20,
	valueobject.SeverityMedium:   10,
	valueobject.SeverityLow:      5,
}

// GetStatusUseCase вычисляет состояние системы из живых источников.
// Не кешируется: health-check должен отражать текущее состояние.
type GetStatusUseCase struct {
	orchestrator *recovery.Orchestrator
	evaluator    *sla.Evaluator
	notifier     port.NotificationService
	startedAt    time.Time
}

// NewGetStatusUseCase создает новый use case
func NewGetStatusUseCase(
	orchestrator *recovery.Orchestrator,
	evaluator *sla.Evaluator,
	notifier port.NotificationService,
) *GetStatusUseCase {
	return &GetStatusUseCase{
		orchestrator: orchestrator,
		evaluator:    evaluator,
		notifier:     notifier,
		startedAt:    time.Now(),
	}
}

// Execute собирает статус из журнала сбоев, лога SLA-событий и истории восстановлений
func (uc *GetStatusUseCase) Execute() *dto.MonitoringStatusDTO {
	active := uc.orchestrator.Ledger().Active()
	totalRecoveries, successfulRecoveries := uc.orchestrator.History().Stats()
	slaSnapshot := uc.evaluator.Snapshot(complianceWindow)

	criticalFaults := 0
	faultPenalty := 0.0
	for _, f := range active {
		if f.Severity() == valueobject.SeverityCritical {
			criticalFaults++
		}
		faultPenalty += severityPenalty[f.Severity()]
	}
	if faultPenalty > 100 {
		faultPenalty = 100
	}

	// Health score: равный вклад соответствия SLA и отсутствия сбоев
	healthScore := 0.5*slaSnapshot.ComplianceRate + 0.5*(100-faultPenalty)

	overall := "healthy"
	switch {
	case criticalFaults > 0 || healthScore < 50:
		overall = "critical"
	case len(active) > 0 || slaSnapshot.BreachedCount > 0 || healthScore < 80:
		overall = "degraded"
	}

	clients := 0
	if uc.notifier != nil {
		clients = uc.notifier.ClientCount()
	}

	return &dto.MonitoringStatusDTO{
		Timestamp:            time.Now(),
		OverallStatus:        overall,
		HealthScore:          healthScore,
		ActiveFaults:         len(active),
		CriticalFaults:       criticalFaults,
		InFlightRecoveries:   uc.orchestrator.InFlight(),
		TotalRecoveries:      totalRecoveries,
		SuccessfulRecoveries: successfulRecoveries,
		SLACompliance:        slaSnapshot.ComplianceRate,
		BreachedTargets:      slaSnapshot.BreachedCount,
		WarningTargets:       slaSnapshot.WarningCount,
		ConnectedClients:     clients,
		UptimeSeconds:        int64(time.Since(uc.startedAt).Seconds()),
	}
}
