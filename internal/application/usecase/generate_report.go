package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/application/port"
	"github.com/dreschagin/selfheal-core/internal/domain/repository"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/internal/recovery"
	"github.com/dreschagin/selfheal-core/internal/sla"
	"github.com/dreschagin/selfheal-core/pkg/logger"
	"github.com/google/uuid"
)

// GenerateReportUseCase строит сводный отчет за временной диапазон и
// архивирует его в объектное хранилище с записью метаданных.
type GenerateReportUseCase struct {
	orchestrator *recovery.Orchestrator
	evaluator    *sla.Evaluator
	faultRepo    repository.FaultRepository
	storage      port.ReportStorage
	metadata     port.ReportMetadataRepository
	cache        port.Cache
	logger       *logger.Logger
}

// NewGenerateReportUseCase создает новый use case
func NewGenerateReportUseCase(
	orchestrator *recovery.Orchestrator,
	evaluator *sla.Evaluator,
	faultRepo repository.FaultRepository,
	storage port.ReportStorage,
	metadata port.ReportMetadataRepository,
	cache port.Cache,
	logger *logger.Logger,
) *GenerateReportUseCase {
	return &GenerateReportUseCase{
		orchestrator: orchestrator,
		evaluator:    evaluator,
		faultRepo:    faultRepo,
		storage:      storage,
		metadata:     metadata,
		cache:        cache,
		logger:       logger,
	}
}

// Execute строит отчет. Отчет всегда воспроизводим из журнала сбоев,
// лога SLA-событий и истории восстановлений.
func (uc *GenerateReportUseCase) Execute(ctx context.Context, timeRange valueobject.TimeRange) (*dto.ReportDTO, error) {
	report := &dto.ReportDTO{
		ID:               uuid.New().String(),
		From:             timeRange.Start(),
		To:               timeRange.End(),
		GeneratedAt:      time.Now(),
		FaultsByType:     make(map[string]int),
		FaultsBySeverity: make(map[string]int),
	}

	uc.collectFaults(ctx, timeRange, report)
	uc.collectResults(timeRange, report)
	uc.collectSLA(timeRange, report)

	if err := uc.archive(ctx, report); err != nil {
		// Отчет остается полезным и без архива
		uc.logger.Error("Failed to archive report", err, "report_id", report.ID)
	}

	uc.logger.Info("Report generated",
		"report_id", report.ID,
		"total_faults", report.TotalFaults,
		"total_recoveries", report.TotalRecoveries,
	)
	return report, nil
}

func (uc *GenerateReportUseCase) collectFaults(ctx context.Context, timeRange valueobject.TimeRange, report *dto.ReportDTO) {
	faults := uc.orchestrator.Ledger().All()

	// Долговременный журнал дополняет сбои, вытесненные из памяти
	if uc.faultRepo != nil {
		persisted, err := uc.faultRepo.FindByTimeRange(ctx, timeRange)
		if err != nil {
			uc.logger.Warn("Failed to load persisted faults for report", "error", err.Error())
		} else {
			seen := make(map[string]bool, len(faults))
			for _, f := range faults {
				seen[f.ID()] = true
			}
			for _, f := range persisted {
				if !seen[f.ID()] {
					faults = append(faults, f)
				}
			}
		}
	}

	for _, f := range faults {
		if !timeRange.Contains(f.DetectedAt()) {
			continue
		}
		report.TotalFaults++
		report.FaultsByType[f.Type()]++
		report.FaultsBySeverity[f.Severity().String()]++
		switch f.Status() {
		case valueobject.FaultRecovered:
			report.RecoveredFaults++
		case valueobject.FaultFailed:
			report.FailedFaults++
		case valueobject.FaultCancelled:
			report.CancelledFaults++
		}
	}
}

func (uc *GenerateReportUseCase) collectResults(timeRange valueobject.TimeRange, report *dto.ReportDTO) {
	var totalDuration time.Duration
	for _, r := range uc.orchestrator.History().Recent(0) {
		if !timeRange.Contains(r.CompletedAt) {
			continue
		}
		report.TotalRecoveries++
		if r.Success {
			report.SuccessfulRecoveries++
		}
		totalDuration += r.Duration
		report.Results = append(report.Results, dto.FromRecoveryResult(r))
	}
	if report.TotalRecoveries > 0 {
		report.AvgRecoveryMs = totalDuration.Milliseconds() / int64(report.TotalRecoveries)
	}
}

func (uc *GenerateReportUseCase) collectSLA(timeRange valueobject.TimeRange, report *dto.ReportDTO) {
	window := time.Since(timeRange.Start())
	report.SLACompliance = uc.evaluator.ComplianceRate("", window)
	report.ComplianceByID = dto.FromComplianceSummaries(uc.evaluator.ComplianceSummaries(window))

	for _, ev := range uc.evaluator.RecentEvents(0) {
		if timeRange.Contains(ev.Timestamp) {
			report.SLAEvents = append(report.SLAEvents, dto.FromSLAEvent(ev))
		}
	}
}

// archive загружает отчет в объектное хранилище и сохраняет метаданные
func (uc *GenerateReportUseCase) archive(ctx context.Context, report *dto.ReportDTO) error {
	if uc.storage == nil {
		return nil
	}

	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	key := fmt.Sprintf("reports/%04d/%02d/%s.json",
		report.GeneratedAt.Year(), int(report.GeneratedAt.Month()), report.ID)

	url, err := uc.storage.PutObject(ctx, key, "application/json", body)
	if err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}
	report.StorageKey = key
	report.StorageURL = url

	if uc.metadata != nil {
		record := port.ReportMetadata{
			ReportID:    report.ID,
			S3Key:       key,
			URL:         url,
			From:        report.From,
			To:          report.To,
			GeneratedAt: report.GeneratedAt,
			SizeBytes:   int64(len(body)),
		}
		if err := uc.metadata.Put(ctx, record); err != nil {
			return fmt.Errorf("failed to save report metadata: %w", err)
		}
		if uc.cache != nil {
			if err := uc.cache.DeletePattern(ctx, reportListCacheKeyPrefix+"*"); err != nil {
				uc.logger.Warn("Failed to invalidate report list cache", "error", err.Error())
			}
		}
	}
	return nil
}
