package recovery

import "sync"

// gate bounds the number of concurrently in-flight recoveries. The limit
// can be raised or lowered at runtime; lowering never interrupts permits
// already held.
type gate struct {
	mu       sync.Mutex
	limit    int
	inFlight int
}

func newGate(limit int) *gate {
	if limit < 1 {
		limit = 1
	}
	return &gate{limit: limit}
}

func (g *gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight >= g.limit {
		return false
	}
	g.inFlight++
	return true
}

func (g *gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight > 0 {
		g.inFlight--
	}
}

func (g *gate) SetLimit(limit int) {
	if limit < 1 {
		return
	}
	g.mu.Lock()
	g.limit = limit
	g.mu.Unlock()
}

func (g *gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

func (g *gate) Limit() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limit
}
