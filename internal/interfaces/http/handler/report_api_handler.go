package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/port"
	"github.com/dreschagin/selfheal-core/internal/application/usecase"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// ReportAPIHandler обрабатывает API запросы отчетов
type ReportAPIHandler struct {
	generateReportUC *usecase.GenerateReportUseCase
	listReportsUC    *usecase.ListReportsUseCase
	maxDuration      time.Duration
	logger           *logger.Logger
}

type generateReportRequest struct {
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	Duration string     `json:"duration,omitempty"`
}

// NewReportAPIHandler создает новый handler
func NewReportAPIHandler(
	generateReportUC *usecase.GenerateReportUseCase,
	listReportsUC *usecase.ListReportsUseCase,
	maxDuration time.Duration,
	logger *logger.Logger,
) *ReportAPIHandler {
	if maxDuration <= 0 {
		maxDuration = 30 * 24 * time.Hour
	}

	return &ReportAPIHandler{
		generateReportUC: generateReportUC,
		listReportsUC:    listReportsUC,
		maxDuration:      maxDuration,
		logger:           logger,
	}
}

// GenerateReport строит отчет за диапазон from/to либо за duration до текущего момента
func (h *ReportAPIHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	timeRange, ok := h.parseTimeRange(w, r)
	if !ok {
		return
	}

	report, err := h.generateReportUC.Execute(r.Context(), timeRange)
	if err != nil {
		h.logger.Error("Failed to generate report", err)
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.logger.Error("Failed to encode report response", err)
	}
}

func (h *ReportAPIHandler) parseTimeRange(w http.ResponseWriter, r *http.Request) (valueobject.TimeRange, bool) {
	defer r.Body.Close()
	var req generateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return valueobject.TimeRange{}, false
	}

	if req.From != nil && req.To != nil {
		if req.To.Sub(*req.From) > h.maxDuration {
			http.Error(w, "Time range exceeds allowed maximum", http.StatusBadRequest)
			return valueobject.TimeRange{}, false
		}
		timeRange, err := valueobject.NewTimeRange(*req.From, *req.To)
		if err != nil {
			http.Error(w, "Invalid time range", http.StatusBadRequest)
			return valueobject.TimeRange{}, false
		}
		return timeRange, true
	}

	duration := 24 * time.Hour
	if req.Duration != "" {
		parsed, err := time.ParseDuration(req.Duration)
		if err != nil {
			http.Error(w, "Invalid duration format", http.StatusBadRequest)
			return valueobject.TimeRange{}, false
		}
		duration = parsed
	}
	if duration <= 0 || duration > h.maxDuration {
		http.Error(w, "Duration out of allowed range", http.StatusBadRequest)
		return valueobject.TimeRange{}, false
	}

	timeRange, err := valueobject.NewTimeRangeFromDuration(duration)
	if err != nil {
		http.Error(w, "Invalid time range", http.StatusBadRequest)
		return valueobject.TimeRange{}, false
	}
	return timeRange, true
}

// ListReports возвращает страницу сохраненных отчетов, новые первыми
func (h *ReportAPIHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := port.ReportListQuery{
		Cursor: r.URL.Query().Get("cursor"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		query.Limit = parsed
	}

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Invalid from timestamp, expected RFC3339", http.StatusBadRequest)
			return
		}
		query.From = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Invalid to timestamp, expected RFC3339", http.StatusBadRequest)
			return
		}
		query.To = parsed
	}

	reports, nextCursor, err := h.listReportsUC.Execute(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to list reports", err)
		http.Error(w, "Failed to list reports", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, map[string]any{
		"reports":     reports,
		"next_cursor": nextCursor,
	}, h.logger)
}
