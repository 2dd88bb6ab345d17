package port

import (
	"context"
	"time"
)

// MetricDatum represents one observability data point for export.
type MetricDatum struct {
	Name       string
	Value      float64
	Unit       string
	Timestamp  time.Time
	Dimensions map[string]string
}

// MetricsPublisher defines the interface for publishing metrics to external observability platforms.
// This port allows the application layer to publish metrics without coupling to specific implementations.
type MetricsPublisher interface {
	// PublishBatch publishes multiple data points in a single operation.
	// Implementations should handle batching constraints (e.g., CloudWatch's 1000 metrics/request limit).
	PublishBatch(ctx context.Context, data []MetricDatum) error

	// PublishSingle publishes a single data point immediately.
	// Use this for high-priority metrics that need immediate delivery.
	PublishSingle(ctx context.Context, datum MetricDatum) error

	// Flush forces immediate publication of any buffered metrics.
	// Should be called during graceful shutdown to prevent data loss.
	Flush(ctx context.Context) error
}
