package collector

import (
	"context"
	"sync"

	"github.com/dreschagin/selfheal-core/internal/application/port"
)

// SystemMetricsCollector собирает все системные замеры
// Реализует интерфейс port.MetricsCollector
type SystemMetricsCollector struct {
	cpuCollector     *CPUCollector
	memoryCollector  *MemoryCollector
	diskCollector    *DiskCollector
	networkCollector *NetworkCollector
}

// NewSystemMetricsCollector создает новый системный collector
func NewSystemMetricsCollector() *SystemMetricsCollector {
	return &SystemMetricsCollector{
		cpuCollector:     NewCPUCollector(),
		memoryCollector:  NewMemoryCollector(),
		diskCollector:    NewDiskCollector(),
		networkCollector: NewNetworkCollector(),
	}
}

// CollectAll собирает все доступные замеры параллельно
func (c *SystemMetricsCollector) CollectAll(ctx context.Context) ([]port.RawSample, error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	allSamples := make([]port.RawSample, 0)

	// Функция для сбора замеров с обработкой ошибок
	collectFunc := func(collector func(context.Context) ([]port.RawSample, error)) {
		defer wg.Done()
		samples, err := collector(ctx)
		if err != nil {
			// Частичный отказ допустим, остальные collector'ы продолжают
			return
		}
		mu.Lock()
		allSamples = append(allSamples, samples...)
		mu.Unlock()
	}

	// Запускаем сбор всех замеров параллельно
	wg.Add(4)
	go collectFunc(c.cpuCollector.Collect)
	go collectFunc(c.memoryCollector.Collect)
	go collectFunc(c.diskCollector.Collect)
	go collectFunc(c.networkCollector.Collect)

	wg.Wait()

	return allSamples, nil
}

// CollectCPU собирает только замеры CPU
func (c *SystemMetricsCollector) CollectCPU(ctx context.Context) ([]port.RawSample, error) {
	return c.cpuCollector.Collect(ctx)
}

// CollectMemory собирает только замеры памяти
func (c *SystemMetricsCollector) CollectMemory(ctx context.Context) ([]port.RawSample, error) {
	return c.memoryCollector.Collect(ctx)
}

// CollectDisk собирает только замеры дисков
func (c *SystemMetricsCollector) CollectDisk(ctx context.Context) ([]port.RawSample, error) {
	return c.diskCollector.Collect(ctx)
}

// CollectNetwork собирает только замеры сети
func (c *SystemMetricsCollector) CollectNetwork(ctx context.Context) ([]port.RawSample, error) {
	return c.networkCollector.Collect(ctx)
}
