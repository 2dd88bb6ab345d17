package handler

import (
	"net/http"
	"net/url"
	"strings"

	wsInfra "github.com/dreschagin/selfheal-core/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/selfheal-core/internal/interfaces/http/middleware"
	"github.com/dreschagin/selfheal-core/pkg/logger"
	"github.com/gorilla/websocket"
)

// WebSocketHandler поднимает соединения ленты дашборда: после upgrade
// клиент получает от hub'а кадры status/event/alert в реальном времени.
// Авторизация проверяется до upgrade — неавторизованный запрос получает
// обычный HTTP 401, а не оборванный handshake.
type WebSocketHandler struct {
	hub            *wsInfra.Hub
	logger         *logger.Logger
	allowedOrigins map[string]struct{}
	authConfig     middleware.AuthConfig
	upgrader       websocket.Upgrader
}

// NewWebSocketHandler создает handler ленты дашборда
func NewWebSocketHandler(
	hub *wsInfra.Hub,
	allowedOrigins []string,
	authConfig middleware.AuthConfig,
	log *logger.Logger,
) *WebSocketHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins[trimmed] = struct{}{}
		}
	}

	h := &WebSocketHandler{
		hub:            hub,
		logger:         log,
		allowedOrigins: origins,
		authConfig:     authConfig,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.originAllowed,
	}
	return h
}

// originAllowed сверяет Origin запроса со списком разрешенных.
// Пустой список запрещает все: лента отдается только настроенным
// источникам или при явном "*".
func (h *WebSocketHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" || len(h.allowedOrigins) == 0 {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	if _, ok := h.allowedOrigins[parsed.Scheme+"://"+parsed.Host]; ok {
		return true
	}
	_, wildcard := h.allowedOrigins["*"]
	return wildcard
}

// HandleConnection выполняет upgrade и подключает клиента к hub'у
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if err := middleware.ValidateRequestAuth(r, h.authConfig); err != nil {
		h.logger.Warn("Feed connection rejected",
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Feed upgrade failed", err, "remote_addr", r.RemoteAddr)
		return
	}

	client := wsInfra.NewClient(h.hub, conn, h.logger)
	h.hub.Register(client)
	go client.Start()
}
