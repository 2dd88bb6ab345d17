package usecase

import (
	"context"
	"fmt"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/application/port"
)

// reportListCacheKeyPrefix — общий префикс ключей кеша списков отчетов,
// инвалидируется по шаблону при генерации нового отчета.
const reportListCacheKeyPrefix = "reports:list:"

type cachedReportList struct {
	Reports    []*dto.ReportSummaryDTO `json:"reports"`
	NextCursor string                  `json:"next_cursor"`
}

// ListReportsUseCase возвращает список сохраненных отчетов
type ListReportsUseCase struct {
	metadata port.ReportMetadataRepository
	cache    port.Cache
}

// NewListReportsUseCase создает новый use case
func NewListReportsUseCase(metadata port.ReportMetadataRepository, cache port.Cache) *ListReportsUseCase {
	return &ListReportsUseCase{metadata: metadata, cache: cache}
}

// Execute выбирает страницу метаданных отчетов
func (uc *ListReportsUseCase) Execute(ctx context.Context, query port.ReportListQuery) ([]*dto.ReportSummaryDTO, string, error) {
	if uc.metadata == nil {
		return []*dto.ReportSummaryDTO{}, "", nil
	}

	cacheKey := fmt.Sprintf("%s%d:%s:%d:%d",
		reportListCacheKeyPrefix, query.Limit, query.Cursor,
		query.From.Unix(), query.To.Unix())

	if uc.cache != nil {
		var cached cachedReportList
		if err := uc.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached.Reports, cached.NextCursor, nil
		}
	}

	page, err := uc.metadata.List(ctx, query)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list reports: %w", err)
	}

	out := make([]*dto.ReportSummaryDTO, len(page.Items))
	for i, item := range page.Items {
		out[i] = &dto.ReportSummaryDTO{
			ID:          item.ReportID,
			From:        item.From,
			To:          item.To,
			GeneratedAt: item.GeneratedAt,
			StorageKey:  item.S3Key,
			StorageURL:  item.URL,
			SizeBytes:   item.SizeBytes,
		}
	}

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, cacheKey, cachedReportList{Reports: out, NextCursor: page.NextCursor})
	}
	return out, page.NextCursor, nil
}
