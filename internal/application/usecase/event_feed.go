package usecase

import (
	"sync"
	"time"

	"github.com/dreschagin/selfheal-core/internal/application/dto"
	"github.com/dreschagin/selfheal-core/internal/ring"
)

const eventFeedCapacity = 50

// EventFeed — лента последних системных событий для дашборда.
// Независима от журнала итогов восстановления.
type EventFeed struct {
	mu     sync.RWMutex
	events *ring.Buffer[*dto.SystemEventDTO]
}

// NewEventFeed создает ленту событий
func NewEventFeed() *EventFeed {
	return &EventFeed{events: ring.New[*dto.SystemEventDTO](eventFeedCapacity)}
}

// Record добавляет событие в ленту
func (f *EventFeed) Record(eventType, message string, data map[string]interface{}) {
	f.mu.Lock()
	f.events.Append(&dto.SystemEventDTO{
		Type:      eventType,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
	f.mu.Unlock()
}

// Recent возвращает события лентой, новые первыми
func (f *EventFeed) Recent(limit int) []*dto.SystemEventDTO {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.events.Newest(limit)
}
