package recovery

import (
	"sync"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/ring"
)

const terminalLedgerCapacity = 4096

// Ledger holds the active-fault index keyed by (type, serviceId) plus a
// bounded in-memory log of terminal faults. It implements the dedup
// invariant: at most one non-terminal fault per dedup key.
type Ledger struct {
	mu       sync.RWMutex
	active   map[string]*entity.Fault
	byID     map[string]*entity.Fault
	terminal *ring.Buffer[*entity.Fault]
}

func NewLedger() *Ledger {
	return &Ledger{
		active:   make(map[string]*entity.Fault),
		byID:     make(map[string]*entity.Fault),
		terminal: ring.New[*entity.Fault](terminalLedgerCapacity),
	}
}

// Lookup returns the active fault for a (type, serviceId) pair.
// Satisfies the fault translator's index dependency.
func (l *Ledger) Lookup(faultType, serviceID string) (*entity.Fault, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.active[faultType+":"+serviceID]
	return f, ok
}

// Insert adds a fault to the active index. Returns false when an active
// fault with the same dedup key already exists.
func (l *Ledger) Insert(f *entity.Fault) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := f.DedupKey()
	if _, exists := l.active[key]; exists {
		return false
	}
	l.active[key] = f
	l.byID[f.ID()] = f
	return true
}

// Retire moves a fault that reached a terminal status out of the active
// index into the terminal log.
func (l *Ledger) Retire(f *entity.Fault) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.active, f.DedupKey())
	delete(l.byID, f.ID())
	l.terminal.Append(f)
}

// Drop removes a fault from the active index without recording it in the
// terminal log. Used when a pre-registered fault is rejected at the
// concurrency gate.
func (l *Ledger) Drop(f *entity.Fault) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, f.DedupKey())
	delete(l.byID, f.ID())
}

// GetByID returns an active fault by identifier.
func (l *Ledger) GetByID(id string) (*entity.Fault, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.byID[id]
	return f, ok
}

// Active returns a snapshot of all active faults.
func (l *Ledger) Active() []*entity.Fault {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*entity.Fault, 0, len(l.active))
	for _, f := range l.active {
		out = append(out, f)
	}
	return out
}

// All returns active faults followed by retained terminal faults,
// newest terminal first.
func (l *Ledger) All() []*entity.Fault {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*entity.Fault, 0, len(l.active)+l.terminal.Len())
	for _, f := range l.active {
		out = append(out, f)
	}
	out = append(out, l.terminal.Newest(0)...)
	return out
}

// ActiveCount returns the number of active faults.
func (l *Ledger) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.active)
}
