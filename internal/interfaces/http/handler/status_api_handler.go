package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dreschagin/selfheal-core/internal/application/usecase"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// StatusAPIHandler обрабатывает запросы статуса мониторинга и дашборда
type StatusAPIHandler struct {
	getStatusUC    *usecase.GetStatusUseCase
	getDashboardUC *usecase.GetDashboardDataUseCase
	logger         *logger.Logger
}

// NewStatusAPIHandler создает новый handler
func NewStatusAPIHandler(
	getStatusUC *usecase.GetStatusUseCase,
	getDashboardUC *usecase.GetDashboardDataUseCase,
	logger *logger.Logger,
) *StatusAPIHandler {
	return &StatusAPIHandler{
		getStatusUC:    getStatusUC,
		getDashboardUC: getDashboardUC,
		logger:         logger,
	}
}

// GetStatus возвращает текущий агрегированный статус
func (h *StatusAPIHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := h.getStatusUC.Execute()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		h.logger.Error("Failed to encode status response", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// GetDashboard возвращает snapshot дашборда (с кешированием)
func (h *StatusAPIHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := h.getDashboardUC.Execute(r.Context())
	if err != nil {
		h.logger.Error("Failed to build dashboard snapshot", err)
		http.Error(w, "Failed to build dashboard data", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode dashboard response", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
