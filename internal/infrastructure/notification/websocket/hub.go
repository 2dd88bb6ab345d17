package websocket

import (
	"sync"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// Hub управляет WebSocket клиентами и рассылает сообщения
// Реализует интерфейс port.NotificationService
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Канал для broadcast статуса системы
	broadcastStatus chan *dto.MonitoringStatusDTO

	// Канал для broadcast системных событий
	broadcastEvent chan *dto.SystemEventDTO

	// Канал для broadcast alerts
	broadcastAlert chan *dto.AlertDTO

	// Канал для регистрации клиентов
	register chan *Client

	// Канал для удаления клиентов
	unregister chan *Client

	// Mutex для защиты clients map
	mu sync.RWMutex

	// Logger
	logger *logger.Logger
}

// NewHub создает новый WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:         make(map[*Client]bool),
		broadcastStatus: make(chan *dto.MonitoringStatusDTO, 256),
		broadcastEvent:  make(chan *dto.SystemEventDTO, 256),
		broadcastAlert:  make(chan *dto.AlertDTO, 256),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		logger:          logger,
	}
}

// Run запускает hub (должен быть запущен в отдельной goroutine)
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("Client registered", "total_clients", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("Client unregistered", "total_clients", len(h.clients))

		case status := <-h.broadcastStatus:
			h.fanOut(Message{Type: "status", Data: status})

		case event := <-h.broadcastEvent:
			h.fanOut(Message{Type: "event", Data: event})

		case alert := <-h.broadcastAlert:
			h.fanOut(Message{Type: "alert", Data: alert})
			h.logger.Debug("Alert broadcasted to clients", "severity", alert.Severity)
		}
	}
}

// fanOut доставляет сообщение всем клиентам, отключая отстающих
func (h *Hub) fanOut(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- message:
			// Сообщение отправлено
		default:
			// Канал клиента заполнен, закрываем соединение
			close(client.send)
			delete(h.clients, client)
			h.logger.Warn("Client channel full, disconnected")
		}
	}
}

// Register регистрирует нового клиента
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastStatus отправляет статус системы всем клиентам (реализация port.NotificationService)
func (h *Hub) BroadcastStatus(status *dto.MonitoringStatusDTO) {
	select {
	case h.broadcastStatus <- status:
		// Статус отправлен в канал
	default:
		h.logger.Warn("Broadcast channel full, dropping status")
	}
}

// BroadcastEvent отправляет системное событие всем клиентам (реализация port.NotificationService)
func (h *Hub) BroadcastEvent(event *dto.SystemEventDTO) {
	select {
	case h.broadcastEvent <- event:
		// Событие отправлено в канал
	default:
		h.logger.Warn("Broadcast event channel full, dropping event")
	}
}

// BroadcastAlert отправляет alert всем клиентам (реализация port.NotificationService)
func (h *Hub) BroadcastAlert(alert *dto.AlertDTO) {
	select {
	case h.broadcastAlert <- alert:
		// Alert отправлен в канал
	default:
		h.logger.Warn("Broadcast alert channel full, dropping alert")
	}
}

// ClientCount возвращает количество подключенных клиентов (реализация port.NotificationService)
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Message представляет сообщение для отправки клиенту
type Message struct {
	Type string      `json:"type"` // "status", "event" или "alert"
	Data interface{} `json:"data"`
}
