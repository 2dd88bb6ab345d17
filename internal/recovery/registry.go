package recovery

import (
	"errors"
	"sort"
	"sync"
)

// StrategyRegistry stores recovery strategies keyed by fault type.
// Reads return deep copies, so an in-flight recovery is never affected by
// a concurrent AddStrategy for the same fault type.
type StrategyRegistry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{strategies: make(map[string]Strategy)}
}

// Add registers or replaces the strategy for its fault type. Takes effect
// for future lookups only.
func (r *StrategyRegistry) Add(s Strategy) error {
	if s.FaultType == "" {
		return errors.New("strategy fault type cannot be empty")
	}
	if len(s.Actions) == 0 {
		return errors.New("strategy must define at least one action")
	}
	if s.MinSeverity == "" {
		return errors.New("strategy min severity cannot be empty")
	}
	if err := s.MinSeverity.Validate(); err != nil {
		return err
	}
	for _, a := range s.Actions {
		if a.Type == "" {
			return errors.New("strategy action type cannot be empty")
		}
		if a.MaxRetries < 1 {
			return errors.New("strategy action max retries must be at least 1")
		}
		if a.DelayMs < 0 {
			return errors.New("strategy action delay cannot be negative")
		}
	}

	r.mu.Lock()
	r.strategies[s.FaultType] = copyStrategy(s)
	r.mu.Unlock()
	return nil
}

// Get returns an isolated copy of the strategy for the fault type, with
// actions sorted ascending by priority.
func (r *StrategyRegistry) Get(faultType string) (Strategy, bool) {
	r.mu.RLock()
	s, ok := r.strategies[faultType]
	r.mu.RUnlock()
	if !ok {
		return Strategy{}, false
	}

	out := copyStrategy(s)
	sort.SliceStable(out.Actions, func(i, j int) bool {
		return out.Actions[i].Priority < out.Actions[j].Priority
	})
	return out, true
}

// List returns copies of all registered strategies.
func (r *StrategyRegistry) List() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		out = append(out, copyStrategy(s))
	}
	return out
}

func copyStrategy(s Strategy) Strategy {
	out := Strategy{
		FaultType:   s.FaultType,
		MinSeverity: s.MinSeverity,
		Actions:     make([]StrategyAction, len(s.Actions)),
	}
	for i, a := range s.Actions {
		params := make(map[string]interface{}, len(a.Parameters))
		for k, v := range a.Parameters {
			params[k] = v
		}
		a.Parameters = params
		out.Actions[i] = a
	}
	return out
}
