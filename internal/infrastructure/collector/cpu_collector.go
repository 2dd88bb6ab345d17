package collector

import (
	"context"
	"strconv"
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/port"
	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUCollector собирает замеры CPU
type CPUCollector struct{}

// NewCPUCollector создает новый CPU collector
func NewCPUCollector() *CPUCollector {
	return &CPUCollector{}
}

// Collect собирает замеры CPU
func (c *CPUCollector) Collect(ctx context.Context) ([]port.RawSample, error) {
	// Получаем процент использования CPU за 1 секунду
	percentages, err := cpu.PercentWithContext(ctx, time.Second, false)
	if err != nil {
		return nil, err
	}

	// Получаем количество ядер
	counts, _ := cpu.Counts(true)

	var samples []port.RawSample

	if len(percentages) > 0 {
		samples = append(samples, port.RawSample{
			MetricID:    "cpu_usage",
			Value:       percentages[0],
			CollectedAt: time.Now(),
			Tags: map[string]string{
				"cores": strconv.Itoa(counts),
			},
		})
	}

	return samples, nil
}
