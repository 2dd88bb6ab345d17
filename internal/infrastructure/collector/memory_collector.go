package collector

import (
	"context"
	"strconv"
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/port"
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryCollector собирает замеры памяти
type MemoryCollector struct{}

// NewMemoryCollector создает новый Memory collector
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Collect собирает замеры памяти
func (c *MemoryCollector) Collect(ctx context.Context) ([]port.RawSample, error) {
	vmStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	sample := port.RawSample{
		MetricID:    "memory_usage",
		Value:       vmStat.UsedPercent,
		CollectedAt: time.Now(),
		Tags: map[string]string{
			"total_mb": strconv.FormatUint(vmStat.Total/1024/1024, 10),
			"used_mb":  strconv.FormatUint(vmStat.Used/1024/1024, 10),
		},
	}

	return []port.RawSample{sample}, nil
}
