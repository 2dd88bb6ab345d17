package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/application/usecase"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// SLAAPIHandler обрабатывает API запросы целевых показателей и соответствия SLA
type SLAAPIHandler struct {
	addTargetUC    *usecase.AddSLATargetUseCase
	complianceUC   *usecase.GetSLAComplianceUseCase
	recordSampleUC *usecase.RecordSampleUseCase
	logger         *logger.Logger
}

type sampleRequest struct {
	MetricID  string     `json:"metric_id"`
	Value     float64    `json:"value"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// NewSLAAPIHandler создает новый handler
func NewSLAAPIHandler(
	addTargetUC *usecase.AddSLATargetUseCase,
	complianceUC *usecase.GetSLAComplianceUseCase,
	recordSampleUC *usecase.RecordSampleUseCase,
	logger *logger.Logger,
) *SLAAPIHandler {
	return &SLAAPIHandler{
		addTargetUC:    addTargetUC,
		complianceUC:   complianceUC,
		recordSampleUC: recordSampleUC,
		logger:         logger,
	}
}

// HandleTargets обслуживает список и регистрацию целевых показателей
func (h *SLAAPIHandler) HandleTargets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSONResponse(w, h.addTargetUC.List(), h.logger)
	case http.MethodPost:
		h.addTarget(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SLAAPIHandler) addTarget(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var target dto.SLATargetDTO
	if err := json.NewDecoder(r.Body).Decode(&target); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(target.MetricID) == "" {
		http.Error(w, "Missing required field: metric_id", http.StatusBadRequest)
		return
	}

	if err := h.addTargetUC.Execute(&target); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]any{"metric_id": target.MetricID}); err != nil {
		h.logger.Error("Failed to encode target response", err)
	}
}

// GetCompliance возвращает уровень соответствия за окно (hours, по умолчанию 24)
func (h *SLAAPIHandler) GetCompliance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hours := 0
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid hours", http.StatusBadRequest)
			return
		}
		hours = parsed
	}

	overall, byMetric := h.complianceUC.Execute(hours)
	writeJSONResponse(w, map[string]any{
		"overall_rate": overall,
		"by_metric":    byMetric,
	}, h.logger)
}

// GetEvents возвращает последние SLA-события
func (h *SLAAPIHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
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

	writeJSONResponse(w, h.complianceUC.RecentEvents(limit), h.logger)
}

// IngestSample принимает сырой замер метрики от внешнего источника
func (h *SLAAPIHandler) IngestSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer r.Body.Close()
	var req sampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.MetricID) == "" {
		http.Error(w, "Missing required field: metric_id", http.StatusBadRequest)
		return
	}

	timestamp := time.Now()
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}

	sample, tracked := h.recordSampleUC.Execute(req.MetricID, req.Value, timestamp)
	if !tracked {
		writeJSONResponse(w, map[string]any{"tracked": false}, h.logger)
		return
	}

	writeJSONResponse(w, map[string]any{
		"tracked": true,
		"sample":  sample,
	}, h.logger)
}
