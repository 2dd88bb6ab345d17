package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/application/usecase"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// StrategyAPIHandler обрабатывает API запросы стратегий восстановления
type StrategyAPIHandler struct {
	addStrategyUC *usecase.AddStrategyUseCase
	logger        *logger.Logger
}

// NewStrategyAPIHandler создает новый handler
func NewStrategyAPIHandler(addStrategyUC *usecase.AddStrategyUseCase, logger *logger.Logger) *StrategyAPIHandler {
	return &StrategyAPIHandler{
		addStrategyUC: addStrategyUC,
		logger:        logger,
	}
}

// HandleStrategies обслуживает список и регистрацию стратегий
func (h *StrategyAPIHandler) HandleStrategies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSONResponse(w, h.addStrategyUC.List(), h.logger)
	case http.MethodPost:
		h.addStrategy(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *StrategyAPIHandler) addStrategy(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var strategy dto.StrategyDTO
	if err := json.NewDecoder(r.Body).Decode(&strategy); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(strategy.FaultType) == "" {
		http.Error(w, "Missing required field: fault_type", http.StatusBadRequest)
		return
	}
	if len(strategy.Actions) == 0 {
		http.Error(w, "Strategy requires at least one action", http.StatusBadRequest)
		return
	}

	if err := h.addStrategyUC.Execute(&strategy); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]any{"fault_type": strategy.FaultType}); err != nil {
		h.logger.Error("Failed to encode strategy response", err)
	}
}
