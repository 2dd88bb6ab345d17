package recovery

import (
	"sync"

	"github.com/dreschagin/selfheal-core/internal/ring"
)

const historyCapacity = 1000

// History is the bounded recovery-result log. Exactly one result is
// appended per accepted ExecuteRecovery invocation.
type History struct {
	mu      sync.RWMutex
	results *ring.Buffer[Result]
}

func NewHistory() *History {
	return &History{results: ring.New[Result](historyCapacity)}
}

func (h *History) Append(r Result) {
	h.mu.Lock()
	h.results.Append(r)
	h.mu.Unlock()
}

// Recent returns up to limit results, newest first. limit <= 0 returns all.
func (h *History) Recent(limit int) []Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.results.Newest(limit)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.results.Len()
}

// Stats returns total and successful result counts.
func (h *History) Stats() (total, successful int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total = h.results.Len()
	h.results.Do(func(r Result) {
		if r.Success {
			successful++
		}
	})
	return total, successful
}
