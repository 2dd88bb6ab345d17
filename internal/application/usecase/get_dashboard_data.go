package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/application/port"
	"github.com/dreschagin/selfheal-core/internal/recovery"
	"github.com/dreschagin/selfheal-core/internal/sla"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// DashboardCacheKey — ключ snapshot'а дашборда в Redis (TTL задается адаптером кеша)
const DashboardCacheKey = "dashboard:data"

const (
	trendDeadband      = 5.0
	dashboardResultCap = 10
	dashboardEventCap  = 20
)

// GetDashboardDataUseCase собирает snapshot дашборда с кешированием и
// push-инвалидацией: любое событие сбоя, восстановления или SLA сбрасывает кеш.
type GetDashboardDataUseCase struct {
	status       *GetStatusUseCase
	orchestrator *recovery.Orchestrator
	evaluator    *sla.Evaluator
	feed         *EventFeed
	cache        port.Cache
	logger       *logger.Logger

	mu        sync.Mutex
	prevScore float64
	hasPrev   bool
}

// NewGetDashboardDataUseCase создает новый use case
func NewGetDashboardDataUseCase(
	status *GetStatusUseCase,
	orchestrator *recovery.Orchestrator,
	evaluator *sla.Evaluator,
	feed *EventFeed,
	cache port.Cache,
	logger *logger.Logger,
) *GetDashboardDataUseCase {
	return &GetDashboardDataUseCase{
		status:       status,
		orchestrator: orchestrator,
		evaluator:    evaluator,
		feed:         feed,
		cache:        cache,
		logger:       logger,
	}
}

// Execute возвращает snapshot дашборда из кеша или вычисляет заново
func (uc *GetDashboardDataUseCase) Execute(ctx context.Context) (*dto.DashboardDataDTO, error) {
	if uc.cache != nil {
		var cached *dto.DashboardDataDTO
		if err := uc.cache.Get(ctx, DashboardCacheKey, &cached); err == nil && cached != nil {
			uc.logger.Debug("Cache hit for dashboard data")
			cached.FromCache = true
			return cached, nil
		}
		uc.logger.Debug("Cache miss for dashboard data, recomputing")
	}

	data := uc.compute()

	// Сохраняем в кеш (асинхронно, не блокируем ответ)
	if uc.cache != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		go func() {
			if err := uc.cache.Set(context.Background(), DashboardCacheKey, data); err != nil {
				uc.logger.Warn("Failed to cache dashboard data", "error", err.Error())
			}
		}()
	}

	return data, nil
}

// Invalidate сбрасывает кеш дашборда (вызывается при событиях)
func (uc *GetDashboardDataUseCase) Invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, DashboardCacheKey); err != nil {
		uc.logger.Warn("Failed to invalidate dashboard cache", "error", err.Error())
	}
}

func (uc *GetDashboardDataUseCase) compute() *dto.DashboardDataDTO {
	status := uc.status.Execute()

	return &dto.DashboardDataDTO{
		GeneratedAt:    time.Now(),
		Status:         status,
		Trend:          uc.trend(status.HealthScore),
		ActiveFaults:   dto.ToFaultDTOs(uc.orchestrator.Ledger().Active()),
		RecentResults:  dto.ToRecoveryResultDTOs(uc.orchestrator.History().Recent(dashboardResultCap)),
		RecentEvents:   uc.feed.Recent(dashboardEventCap),
		ComplianceByID: dto.FromComplianceSummaries(uc.evaluator.ComplianceSummaries(complianceWindow)),
	}
}

// trend сравнивает текущий health score с предыдущим с мертвой зоной ±5
func (uc *GetDashboardDataUseCase) trend(score float64) string {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	defer func() {
		uc.prevScore = score
		uc.hasPrev = true
	}()

	if !uc.hasPrev {
		return "stable"
	}
	switch {
	case score > uc.prevScore+trendDeadband:
		return "improving"
	case score < uc.prevScore-trendDeadband:
		return "declining"
	default:
		return "stable"
	}
}
