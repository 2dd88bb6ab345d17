package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// writeJSONResponse сериализует payload со статусом 200
func writeJSONResponse(w http.ResponseWriter, payload any, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("Failed to encode response", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// contextWithTimeout ограничивает контекст запроса верхней границей
func contextWithTimeout(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeout)
}
