package usecase

import (
	"fmt"
	"sync"
	"time"
)

// RuntimeOptions — распознаваемые опции, изменяемые во время работы сервиса
type RuntimeOptions struct {
	SLAEnabled                bool          `json:"sla_enabled"`
	SLACheckInterval          time.Duration `json:"sla_check_interval"`
	FaultRecoveryEnabled      bool          `json:"fault_recovery_enabled"`
	MaxConcurrentRecoveries   int           `json:"max_concurrent_recoveries"`
	RecoveryTimeout           time.Duration `json:"recovery_timeout"`
	AlertChannels             []string      `json:"alert_channels"`
	CriticalAlertChannels     []string      `json:"critical_alert_channels"`
	DataRetentionDays         int           `json:"data_retention_days"`
	MetricsCollectionInterval time.Duration `json:"metrics_collection_interval"`
}

// RuntimeConfig хранит изменяемую конфигурацию ядра с защитой мьютексом.
// Неизвестные ключи при частичном обновлении игнорируются.
type RuntimeConfig struct {
	mu   sync.RWMutex
	opts RuntimeOptions
}

// NewRuntimeConfig создает конфигурацию с начальными значениями
func NewRuntimeConfig(opts RuntimeOptions) *RuntimeConfig {
	return &RuntimeConfig{opts: opts}
}

// Snapshot возвращает копию текущих опций
func (rc *RuntimeConfig) Snapshot() RuntimeOptions {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	opts := rc.opts
	opts.AlertChannels = append([]string(nil), rc.opts.AlertChannels...)
	opts.CriticalAlertChannels = append([]string(nil), rc.opts.CriticalAlertChannels...)
	return opts
}

// ChannelsFor возвращает каналы оповещения для указанной серьезности
func (rc *RuntimeConfig) ChannelsFor(severity string) []string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	if severity == "critical" && len(rc.opts.CriticalAlertChannels) > 0 {
		return append([]string(nil), rc.opts.CriticalAlertChannels...)
	}
	return append([]string(nil), rc.opts.AlertChannels...)
}

// ApplyPartial применяет частичное обновление и возвращает измененные ключи.
// Неизвестные ключи пропускаются, некорректные значения — ошибка.
func (rc *RuntimeConfig) ApplyPartial(partial map[string]interface{}) (map[string]interface{}, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	applied := make(map[string]interface{})
	for key, raw := range partial {
		switch key {
		case "slaEnabled":
			v, ok := raw.(bool)
			if !ok {
				return nil, fmt.Errorf("option %s must be a boolean", key)
			}
			rc.opts.SLAEnabled = v
			applied[key] = v

		case "slaCheckInterval":
			secs, err := asSeconds(key, raw)
			if err != nil {
				return nil, err
			}
			rc.opts.SLACheckInterval = secs
			applied[key] = secs.Seconds()

		case "faultRecoveryEnabled":
			v, ok := raw.(bool)
			if !ok {
				return nil, fmt.Errorf("option %s must be a boolean", key)
			}
			rc.opts.FaultRecoveryEnabled = v
			applied[key] = v

		case "maxConcurrentRecoveries":
			n, err := asInt(key, raw)
			if err != nil {
				return nil, err
			}
			if n < 1 {
				return nil, fmt.Errorf("option %s must be at least 1", key)
			}
			rc.opts.MaxConcurrentRecoveries = n
			applied[key] = n

		case "recoveryTimeout":
			ms, err := asInt(key, raw)
			if err != nil {
				return nil, err
			}
			if ms < 0 {
				return nil, fmt.Errorf("option %s cannot be negative", key)
			}
			rc.opts.RecoveryTimeout = time.Duration(ms) * time.Millisecond
			applied[key] = ms

		case "alertChannels":
			channels, err := asStringSlice(key, raw)
			if err != nil {
				return nil, err
			}
			rc.opts.AlertChannels = channels
			applied[key] = channels

		case "criticalAlertChannels":
			channels, err := asStringSlice(key, raw)
			if err != nil {
				return nil, err
			}
			rc.opts.CriticalAlertChannels = channels
			applied[key] = channels

		case "dataRetentionDays":
			n, err := asInt(key, raw)
			if err != nil {
				return nil, err
			}
			if n < 1 {
				return nil, fmt.Errorf("option %s must be at least 1", key)
			}
			rc.opts.DataRetentionDays = n
			applied[key] = n

		case "metricsCollectionInterval":
			secs, err := asSeconds(key, raw)
			if err != nil {
				return nil, err
			}
			rc.opts.MetricsCollectionInterval = secs
			applied[key] = secs.Seconds()
		}
	}

	return applied, nil
}

func asInt(key string, raw interface{}) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("option %s must be a number", key)
	}
}

func asSeconds(key string, raw interface{}) (time.Duration, error) {
	n, err := asInt(key, raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("option %s must be at least 1 second", key)
	}
	return time.Duration(n) * time.Second, nil
}

func asStringSlice(key string, raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("option %s must be a list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("option %s must be a list of strings", key)
	}
}
