package http

import (
	"net/http"

	"github.com/dreschagin/selfheal-core/internal/interfaces/http/handler"
	"github.com/dreschagin/selfheal-core/internal/interfaces/http/middleware"
	"github.com/dreschagin/selfheal-core/pkg/config"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// Router настраивает маршруты приложения
type Router struct {
	mux                *http.ServeMux
	statusAPIHandler   *handler.StatusAPIHandler
	faultAPIHandler    *handler.FaultAPIHandler
	slaAPIHandler      *handler.SLAAPIHandler
	strategyAPIHandler *handler.StrategyAPIHandler
	reportAPIHandler   *handler.ReportAPIHandler
	configAPIHandler   *handler.ConfigAPIHandler
	authAPIHandler     *handler.AuthAPIHandler
	websocketHandler   *handler.WebSocketHandler
	server             config.ServerConfig
	security           config.SecurityConfig
	logger             *logger.Logger
}

// NewRouter создает новый router
func NewRouter(
	statusAPIHandler *handler.StatusAPIHandler,
	faultAPIHandler *handler.FaultAPIHandler,
	slaAPIHandler *handler.SLAAPIHandler,
	strategyAPIHandler *handler.StrategyAPIHandler,
	reportAPIHandler *handler.ReportAPIHandler,
	configAPIHandler *handler.ConfigAPIHandler,
	authAPIHandler *handler.AuthAPIHandler,
	websocketHandler *handler.WebSocketHandler,
	server config.ServerConfig,
	security config.SecurityConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		statusAPIHandler:   statusAPIHandler,
		faultAPIHandler:    faultAPIHandler,
		slaAPIHandler:      slaAPIHandler,
		strategyAPIHandler: strategyAPIHandler,
		reportAPIHandler:   reportAPIHandler,
		configAPIHandler:   configAPIHandler,
		authAPIHandler:     authAPIHandler,
		websocketHandler:   websocketHandler,
		server:             server,
		security:           security,
		logger:             logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Health endpoints are intentionally unauthenticated for probes.
	rt.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rt.mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}, rt.logger)

	// WebSocket (auth валидируется внутри handler'а до upgrade)
	rt.mux.HandleFunc("/ws", rt.websocketHandler.HandleConnection)

	// Auth endpoints остаются открытыми для получения cookie
	rt.mux.HandleFunc("/api/v1/auth/login", rt.authAPIHandler.Login)
	rt.mux.HandleFunc("/api/v1/auth/logout", rt.authAPIHandler.Logout)
	rt.mux.HandleFunc("/api/v1/auth/status", rt.authAPIHandler.Status)

	// API endpoints
	protected := map[string]http.HandlerFunc{
		"/api/v1/status":           rt.statusAPIHandler.GetStatus,
		"/api/v1/dashboard":        rt.statusAPIHandler.GetDashboard,
		"/api/v1/faults":           rt.faultAPIHandler.ListFaults,
		"/api/v1/faults/scan":      rt.faultAPIHandler.TriggerScan,
		"/api/v1/faults/cancel":    rt.faultAPIHandler.CancelRecovery,
		"/api/v1/anomalies":        rt.faultAPIHandler.IngestAnomaly,
		"/api/v1/recovery/history": rt.faultAPIHandler.RecoveryHistory,
		"/api/v1/strategies":       rt.strategyAPIHandler.HandleStrategies,
		"/api/v1/sla/targets":      rt.slaAPIHandler.HandleTargets,
		"/api/v1/sla/compliance":   rt.slaAPIHandler.GetCompliance,
		"/api/v1/sla/events":       rt.slaAPIHandler.GetEvents,
		"/api/v1/sla/samples":      rt.slaAPIHandler.IngestSample,
		"/api/v1/reports":          rt.reportAPIHandler.ListReports,
		"/api/v1/reports/generate": rt.reportAPIHandler.GenerateReport,
		"/api/v1/config":           rt.configAPIHandler.HandleConfig,
	}
	for pattern, handlerFunc := range protected {
		rt.mux.Handle(pattern, authMiddleware(handlerFunc))
	}

	// Применяем middleware
	rateLimiter := middleware.NewIPRateLimiter(rt.server.RateLimitRPS, rt.server.RateLimitBurst)

	var h http.Handler = rt.mux
	h = middleware.Compression(h)
	h = middleware.RateLimit(rateLimiter)(h)
	h = middleware.Logger(rt.logger)(h)
	h = middleware.Recovery(rt.logger)(h)

	return h
}
