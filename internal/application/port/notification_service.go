package port

import "github.com/dreschagin/selfheal-core/internal/application/dto"

// NotificationService определяет интерфейс для отправки уведомлений (Port)
// Реализация будет в Infrastructure слое (WebSocket Hub)
type NotificationService interface {
	// BroadcastStatus отправляет статус системы всем подключенным клиентам
	BroadcastStatus(status *dto.MonitoringStatusDTO)

	// BroadcastEvent отправляет системное событие всем подключенным клиентам
	BroadcastEvent(event *dto.SystemEventDTO)

	// BroadcastAlert отправляет alert всем подключенным клиентам
	BroadcastAlert(alert *dto.AlertDTO)

	// ClientCount возвращает количество подключенных клиентов
	ClientCount() int
}
