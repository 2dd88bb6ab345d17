package port

import (
	"context"
	"time"
)

// ReportMetadata представляет метаданные сохраненного отчета.
type ReportMetadata struct {
	ReportID    string
	S3Key       string
	URL         string
	From        time.Time
	To          time.Time
	GeneratedAt time.Time
	SizeBytes   int64
}

// ReportListQuery определяет параметры выборки списка отчетов.
type ReportListQuery struct {
	Limit  int
	Cursor string
	From   time.Time
	To     time.Time
}

// ReportListPage содержит результат выборки и курсор следующей страницы.
type ReportListPage struct {
	Items      []ReportMetadata
	NextCursor string
}

// ReportMetadataRepository определяет интерфейс хранения метаданных отчетов.
type ReportMetadataRepository interface {
	Put(ctx context.Context, record ReportMetadata) error
	List(ctx context.Context, query ReportListQuery) (ReportListPage, error)
}
