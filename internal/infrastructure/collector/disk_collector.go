package collector

import (
	"context"
	"strconv"
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/port"
	"github.com/shirou/gopsutil/v3/disk"
)

// DiskCollector собирает замеры дисков
type DiskCollector struct{}

// NewDiskCollector создает новый Disk collector
func NewDiskCollector() *DiskCollector {
	return &DiskCollector{}
}

// Collect собирает замеры диска
func (c *DiskCollector) Collect(ctx context.Context) ([]port.RawSample, error) {
	// Получаем информацию о корневом разделе
	usage, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return nil, err
	}

	sample := port.RawSample{
		MetricID:    "disk_usage",
		Value:       usage.UsedPercent,
		CollectedAt: time.Now(),
		Tags: map[string]string{
			"mount":    usage.Path,
			"total_gb": strconv.FormatUint(usage.Total/1024/1024/1024, 10),
			"free_gb":  strconv.FormatUint(usage.Free/1024/1024/1024, 10),
		},
	}

	return []port.RawSample{sample}, nil
}
