package collector

import (
	"context"
	"strconv"
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/port"
	"github.com/shirou/gopsutil/v3/net"
)

// NetworkCollector собирает замеры сети
type NetworkCollector struct {
	lastStats     map[string]net.IOCountersStat
	lastCheckTime time.Time
}

// NewNetworkCollector создает новый Network collector
func NewNetworkCollector() *NetworkCollector {
	return &NetworkCollector{
		lastStats:     make(map[string]net.IOCountersStat),
		lastCheckTime: time.Now(),
	}
}

// Collect собирает замеры сети. Первый вызов только запоминает счетчики,
// скорость появляется со второго замера.
func (c *NetworkCollector) Collect(ctx context.Context) ([]port.RawSample, error) {
	stats, err := net.IOCountersWithContext(ctx, false)
	if err != nil || len(stats) == 0 {
		return nil, err
	}

	currentTime := time.Now()
	currentStats := stats[0]

	var samples []port.RawSample

	if lastStat, exists := c.lastStats["all"]; exists {
		duration := currentTime.Sub(c.lastCheckTime).Seconds()
		if duration > 0 {
			// Скорость в KB/s
			bytesSentPerSec := float64(currentStats.BytesSent-lastStat.BytesSent) / duration / 1024
			bytesRecvPerSec := float64(currentStats.BytesRecv-lastStat.BytesRecv) / duration / 1024

			samples = append(samples,
				port.RawSample{
					MetricID:    "network_sent",
					Value:       bytesSentPerSec,
					CollectedAt: currentTime,
					Tags: map[string]string{
						"interface":    "all",
						"packets_sent": strconv.FormatUint(currentStats.PacketsSent, 10),
					},
				},
				port.RawSample{
					MetricID:    "network_recv",
					Value:       bytesRecvPerSec,
					CollectedAt: currentTime,
					Tags: map[string]string{
						"interface":    "all",
						"packets_recv": strconv.FormatUint(currentStats.PacketsRecv, 10),
					},
				},
			)
		}
	}

	// Сохраняем текущие данные для следующего вызова
	c.lastStats["all"] = currentStats
	c.lastCheckTime = currentTime

	return samples, nil
}
