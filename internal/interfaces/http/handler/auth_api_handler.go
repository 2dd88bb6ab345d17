package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dreschagin/selfheal-core/internal/interfaces/http/middleware"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// Сессия оператора дашборда: cookie живет рабочую смену, дальше
// требуется повторный login
const operatorSessionSeconds = 12 * 60 * 60

// AuthAPIHandler обменивает API-токен на сессионную cookie оператора.
// Cookie нужна клиентам ленты дашборда: браузерный WebSocket не умеет
// выставлять Authorization-заголовок.
type AuthAPIHandler struct {
	authConfig middleware.AuthConfig
	logger     *logger.Logger
}

type loginRequest struct {
	Token string `json:"token"`
}

// NewAuthAPIHandler создает handler сессий оператора
func NewAuthAPIHandler(authConfig middleware.AuthConfig, log *logger.Logger) *AuthAPIHandler {
	return &AuthAPIHandler{
		authConfig: authConfig,
		logger:     log,
	}
}

// Login проверяет токен и выставляет сессионную cookie
func (h *AuthAPIHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.authConfig.Enabled {
		middleware.WriteJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"auth_enabled": false,
		})
		return
	}

	defer r.Body.Close()
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" || token != h.authConfig.BearerToken {
		h.logger.Warn("Operator login rejected", "remote_addr", r.RemoteAddr)
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	middleware.WriteAuthCookie(w, token, r.TLS != nil, operatorSessionSeconds)
	h.logger.Info("Operator session opened", "remote_addr", r.RemoteAddr)

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"auth_enabled": true,
	})
}

// Logout сбрасывает сессионную cookie
func (h *AuthAPIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	middleware.ClearAuthCookie(w, r.TLS != nil)
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Status сообщает, действительна ли текущая сессия. Используется
// дашбордом при старте, чтобы решить, показывать ли форму входа.
func (h *AuthAPIHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"auth_enabled":   h.authConfig.Enabled,
		"authenticated":  middleware.ValidateRequestAuth(r, h.authConfig) == nil,
		"cookie_present": hasSessionCookie(r),
	})
}

func hasSessionCookie(r *http.Request) bool {
	c, err := r.Cookie(middleware.AuthCookieName)
	return err == nil && strings.TrimSpace(c.Value) != ""
}
