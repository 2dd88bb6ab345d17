package usecase

import (
	"context"
	"fmt"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/application/port"
	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/recovery"
	"github.com/dreschagin/selfheal-core/internal/sla"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

// Соответствие типов событий ядра суффиксам NATS-субъектов
var eventSubjects = map[string]string{
	"fault_detected":                 "fault.detected",
	recovery.EventFaultUpdated:       "fault.updated",
	recovery.EventActionUpdated:      "action.updated",
	recovery.EventRecoverySuccessful: "recovery.successful",
	recovery.EventRecoveryFailed:     "recovery.failed",
	recovery.EventRecoverySkipped:    "recovery.skipped",
	recovery.EventRecoveryQueueFull:  "recovery.queue_full",
	recovery.EventAdminAlert:         "alert.admin",
}

// Dispatcher связывает события ядра с внешними системами: NATS, WebSocket,
// лента событий дашборда и push-инвалидация кеша.
type Dispatcher struct {
	publisher     port.EventPublisher
	notifier      port.NotificationService
	feed          *EventFeed
	dashboard     *GetDashboardDataUseCase
	runtime       *RuntimeConfig
	subjectPrefix string
	logger        *logger.Logger
}

// NewDispatcher создает новый диспетчер событий
func NewDispatcher(
	publisher port.EventPublisher,
	notifier port.NotificationService,
	feed *EventFeed,
	dashboard *GetDashboardDataUseCase,
	runtime *RuntimeConfig,
	subjectPrefix string,
	logger *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		publisher:     publisher,
		notifier:      notifier,
		feed:          feed,
		dashboard:     dashboard,
		runtime:       runtime,
		subjectPrefix: subjectPrefix,
		logger:        logger,
	}
}

func (d *Dispatcher) publish(ctx context.Context, suffix string, payload interface{}) {
	if d.publisher == nil {
		return
	}
	subject := d.subjectPrefix + "." + suffix
	if err := d.publisher.PublishEvent(ctx, subject, payload); err != nil {
		d.logger.Warn("Failed to publish event", "subject", subject, "error", err.Error())
	}
}

// FaultDetected рассылает событие нового сбоя и поднимает alert
func (d *Dispatcher) FaultDetected(ctx context.Context, fault *entity.Fault) {
	faultDTO := dto.FromFault(fault)
	d.publish(ctx, "fault.detected", faultDTO)

	message := fmt.Sprintf("fault detected: %s on %s", fault.Type(), fault.ServiceID())
	d.feed.Record("fault_detected", message, map[string]interface{}{
		"fault_id":   fault.ID(),
		"fault_type": fault.Type(),
		"service_id": fault.ServiceID(),
		"severity":   fault.Severity().String(),
	})
	d.dashboard.Invalidate(ctx)

	alert := dto.NewAlertDTO(
		fault.Severity().String(),
		message,
		d.runtime.ChannelsFor(fault.Severity().String()),
		map[string]interface{}{"fault_id": fault.ID()},
	)
	d.publish(ctx, "alert", alert)
	if d.notifier != nil {
		d.notifier.BroadcastAlert(alert)
	}
}

// RecoveryEvent рассылает событие жизненного цикла восстановления
func (d *Dispatcher) RecoveryEvent(ctx context.Context, ev recovery.Event) {
	suffix, ok := eventSubjects[ev.Type]
	if !ok {
		return
	}
	d.publish(ctx, suffix, ev)

	switch ev.Type {
	case recovery.EventRecoverySuccessful, recovery.EventRecoveryFailed,
		recovery.EventRecoverySkipped, recovery.EventRecoveryQueueFull:
		d.feed.Record(ev.Type, fmt.Sprintf("%s for fault %s", ev.Type, ev.FaultID), ev.Payload)
		d.dashboard.Invalidate(ctx)

	case recovery.EventAdminAlert:
		d.feed.Record(ev.Type, fmt.Sprintf("admin alert for fault %s", ev.FaultID), ev.Payload)
		alert := dto.NewAlertDTO(
			"critical",
			fmt.Sprintf("%v", ev.Payload["message"]),
			d.runtime.ChannelsFor("critical"),
			ev.Payload,
		)
		d.publish(ctx, "alert", alert)
		if d.notifier != nil {
			d.notifier.BroadcastAlert(alert)
		}
	}

	if d.notifier != nil {
		d.notifier.BroadcastEvent(&dto.SystemEventDTO{
			Type:      ev.Type,
			Message:   fmt.Sprintf("%s: fault %s", ev.Type, ev.FaultID),
			Data:      ev.Payload,
			Timestamp: ev.Timestamp,
		})
	}
}

// SLAEvent рассылает событие изменения соответствия SLA
func (d *Dispatcher) SLAEvent(ctx context.Context, ev sla.Event) {
	eventDTO := dto.FromSLAEvent(ev)
	d.publish(ctx, "sla.event", eventDTO)
	d.feed.Record("sla_event", ev.Message, map[string]interface{}{
		"event_type": string(ev.Type),
		"metric_id":  ev.MetricID,
		"value":      ev.Value,
	})
	d.dashboard.Invalidate(ctx)

	if ev.Type == sla.EventBreach {
		alert := dto.NewAlertDTO(
			ev.Severity.String(),
			ev.Message,
			d.runtime.ChannelsFor(ev.Severity.String()),
			map[string]interface{}{"metric_id": ev.MetricID, "value": ev.Value},
		)
		d.publish(ctx, "alert", alert)
		if d.notifier != nil {
			d.notifier.BroadcastAlert(alert)
		}
	}
}

// ConfigUpdated рассылает уведомление об изменении конфигурации
func (d *Dispatcher) ConfigUpdated(ctx context.Context, applied map[string]interface{}) {
	d.publish(ctx, "config.updated", applied)
	d.feed.Record("config_updated", "runtime configuration updated", applied)
}

// StatusUpdate рассылает периодический снимок состояния
func (d *Dispatcher) StatusUpdate(ctx context.Context, status *dto.MonitoringStatusDTO) {
	d.publish(ctx, "status.update", status)
	if d.notifier != nil {
		d.notifier.BroadcastStatus(status)
	}
}

// ServiceStarted рассылает событие запуска сервиса
func (d *Dispatcher) ServiceStarted(ctx context.Context) {
	d.publish(ctx, "service.started", map[string]interface{}{"status": "started"})
}

// ServiceStopped рассылает событие остановки сервиса
func (d *Dispatcher) ServiceStopped(ctx context.Context) {
	d.publish(ctx, "service.stopped", map[string]interface{}{"status": "stopped"})
}
