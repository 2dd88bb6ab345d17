package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dreschagin/selfheal-core/internal/application/usecase"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// ConfigAPIHandler обрабатывает API запросы runtime-конфигурации ядра
type ConfigAPIHandler struct {
	runtime        *usecase.RuntimeConfig
	updateConfigUC *usecase.UpdateConfigUseCase
	logger         *logger.Logger
}

// NewConfigAPIHandler создает новый handler
func NewConfigAPIHandler(
	runtime *usecase.RuntimeConfig,
	updateConfigUC *usecase.UpdateConfigUseCase,
	logger *logger.Logger,
) *ConfigAPIHandler {
	return &ConfigAPIHandler{
		runtime:        runtime,
		updateConfigUC: updateConfigUC,
		logger:         logger,
	}
}

// HandleConfig обслуживает чтение и частичное обновление конфигурации
func (h *ConfigAPIHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getConfig(w)
	case http.MethodPatch:
		h.updateConfig(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ConfigAPIHandler) getConfig(w http.ResponseWriter) {
	opts := h.runtime.Snapshot()

	// Интервалы наружу отдаются в секундах, таймауты в миллисекундах
	writeJSONResponse(w, map[string]any{
		"slaEnabled":                opts.SLAEnabled,
		"slaCheckInterval":          int(opts.SLACheckInterval.Seconds()),
		"faultRecoveryEnabled":      opts.FaultRecoveryEnabled,
		"maxConcurrentRecoveries":   opts.MaxConcurrentRecoveries,
		"recoveryTimeout":           opts.RecoveryTimeout.Milliseconds(),
		"alertChannels":             opts.AlertChannels,
		"criticalAlertChannels":     opts.CriticalAlertChannels,
		"dataRetentionDays":         opts.DataRetentionDays,
		"metricsCollectionInterval": int(opts.MetricsCollectionInterval.Seconds()),
	}, h.logger)
}

func (h *ConfigAPIHandler) updateConfig(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var partial map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	applied, err := h.updateConfigUC.Execute(r.Context(), partial)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSONResponse(w, map[string]any{"applied": applied}, h.logger)
}
