package dto

import "time"

// AlertDTO представляет уведомление для каналов оповещения.
// Ядро решает только, поднимать ли оповещение и по каким каналам;
// доставка — ответственность внешних систем.
type AlertDTO struct {
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message"`
	Channels  []string               `json:"channels"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewAlertDTO создает новое уведомление
func NewAlertDTO(severity, message string, channels []string, data map[string]interface{}) *AlertDTO {
	return &AlertDTO{
		Severity:  severity,
		Message:   message,
		Channels:  channels,
		Data:      data,
		Timestamp: time.Now(),
	}
}
