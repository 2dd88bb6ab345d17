package recovery

import (
	"testing"

	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
)

func TestStrategyRegistry_Validation(t *testing.T) {
	r := NewStrategyRegistry()

	tests := []struct {
		name     string
		strategy Strategy
	}{
		{"empty fault type", Strategy{MinSeverity: valueobject.SeverityLow, Actions: []StrategyAction{{Type: "a", MaxRetries: 1}}}},
		{"no actions", Strategy{FaultType: "x", MinSeverity: valueobject.SeverityLow}},
		{"invalid min severity", Strategy{FaultType: "x", MinSeverity: "extreme", Actions: []StrategyAction{{Type: "a", MaxRetries: 1}}}},
		{"zero max retries", Strategy{FaultType: "x", MinSeverity: valueobject.SeverityLow, Actions: []StrategyAction{{Type: "a"}}}},
		{"negative delay", Strategy{FaultType: "x", MinSeverity: valueobject.SeverityLow, Actions: []StrategyAction{{Type: "a", MaxRetries: 1, DelayMs: -5}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Add(tt.strategy); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStrategyRegistry_GetSortsByPriority(t *testing.T) {
	r := NewStrategyRegistry()
	if err := r.Add(dbStrategy()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, ok := r.Get("database_connection_failure")
	if !ok {
		t.Fatal("expected strategy to be found")
	}
	want := []string{"connection_reset", "restart_service", "alert_admin"}
	for i, a := range s.Actions {
		if a.Type != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], a.Type)
		}
	}
}

func TestStrategyRegistry_CopyOnRead(t *testing.T) {
	r := NewStrategyRegistry()
	if err := r.Add(dbStrategy()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	captured, _ := r.Get("database_connection_failure")

	// A later registration must not alter the captured copy.
	replacement := dbStrategy()
	replacement.Actions = []StrategyAction{{Type: "noop", Priority: 1, MaxRetries: 1}}
	if err := r.Add(replacement); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(captured.Actions) != 3 {
		t.Errorf("captured strategy mutated by registry update: %d actions", len(captured.Actions))
	}

	// Mutating the captured copy must not leak into the registry.
	captured.Actions[0].MaxRetries = 99
	fresh, _ := r.Get("database_connection_failure")
	if fresh.Actions[0].MaxRetries == 99 {
		t.Error("registry state mutated through a returned copy")
	}
}

func TestStrategyRegistry_GetUnknownType(t *testing.T) {
	r := NewStrategyRegistry()
	if _, ok := r.Get("missing"); ok {
		t.Error("expected lookup miss")
	}
}
