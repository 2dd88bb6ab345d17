package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/usecase"
	"github.com/dreschagin/selfheal-core/internal/domain/service"
	"github.com/dreschagin/selfheal-core/internal/recovery"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// FaultAPIHandler обрабатывает API запросы жизненного цикла сбоев
type FaultAPIHandler struct {
	faultQueryUC     *usecase.FaultQueryUseCase
	handleAnomalyUC  *usecase.HandleAnomalyUseCase
	triggerScanUC    *usecase.TriggerFaultDetectionUseCase
	logger           *logger.Logger
}

type anomalyRequest struct {
	MetricID    string  `json:"metric_id"`
	Value       float64 `json:"value"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
}

type cancelRequest struct {
	FaultID string `json:"fault_id"`
}

// NewFaultAPIHandler создает новый handler
func NewFaultAPIHandler(
	faultQueryUC *usecase.FaultQueryUseCase,
	handleAnomalyUC *usecase.HandleAnomalyUseCase,
	triggerScanUC *usecase.TriggerFaultDetectionUseCase,
	logger *logger.Logger,
) *FaultAPIHandler {
	return &FaultAPIHandler{
		faultQueryUC:    faultQueryUC,
		handleAnomalyUC: handleAnomalyUC,
		triggerScanUC:   triggerScanUC,
		logger:          logger,
	}
}

// ListFaults возвращает сбои. Параметр scope=active|all (по умолчанию active)
func (h *FaultAPIHandler) ListFaults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	scope := strings.TrimSpace(r.URL.Query().Get("scope"))
	switch scope {
	case "", "active":
		writeJSONResponse(w, h.faultQueryUC.ActiveFaults(), h.logger)
	case "all":
		writeJSONResponse(w, h.faultQueryUC.AllFaults(), h.logger)
	default:
		http.Error(w, "Invalid scope, expected active or all", http.StatusBadRequest)
	}
}

// RecoveryHistory возвращает последние итоги восстановления
func (h *FaultAPIHandler) RecoveryHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	writeJSONResponse(w, h.faultQueryUC.RecoveryHistory(limit), h.logger)
}

// CancelRecovery запрашивает отмену восстановления по fault_id
func (h *FaultAPIHandler) CancelRecovery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer r.Body.Close()
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.FaultID) == "" {
		http.Error(w, "Missing required field: fault_id", http.StatusBadRequest)
		return
	}

	if err := h.faultQueryUC.CancelRecovery(req.FaultID); err != nil {
		if errors.Is(err, recovery.ErrUnknownFault) {
			http.Error(w, "Fault not found or already terminal", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to cancel recovery", err, "fault_id", req.FaultID)
		http.Error(w, "Failed to cancel recovery", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, map[string]any{"cancelled": true, "fault_id": req.FaultID}, h.logger)
}

// IngestAnomaly принимает аномалию от внешнего источника метрик
func (h *FaultAPIHandler) IngestAnomaly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer r.Body.Close()
	var req anomalyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.MetricID) == "" {
		http.Error(w, "Missing required field: metric_id", http.StatusBadRequest)
		return
	}

	fault, started, err := h.handleAnomalyUC.Execute(r.Context(), service.Anomaly{
		MetricID:    req.MetricID,
		Value:       req.Value,
		Severity:    req.Severity,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error("Failed to handle anomaly", err, "metric_id", req.MetricID)
		http.Error(w, "Failed to handle anomaly", http.StatusInternalServerError)
		return
	}
	if fault == nil {
		// Метрика не отображается на тип сбоя, аномалия проигнорирована
		writeJSONResponse(w, map[string]any{"tracked": false}, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"tracked":          true,
		"recovery_started": started,
		"fault":            fault,
	}); err != nil {
		h.logger.Error("Failed to encode anomaly response", err)
	}
}

// TriggerScan запускает ручной проход обнаружения сбоев
func (h *FaultAPIHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := contextWithTimeout(r, 30*time.Second)
	defer cancel()

	summary, err := h.triggerScanUC.Execute(ctx)
	if err != nil {
		h.logger.Error("Manual fault scan failed", err)
		http.Error(w, "Fault scan failed", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, summary, h.logger)
}
