package recovery

import (
	"testing"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
)

func mustFault(t *testing.T, faultType, serviceID string) *entity.Fault {
	t.Helper()
	f, err := entity.NewFault(faultType, serviceID, valueobject.SeverityHigh, "test", nil, nil)
	if err != nil {
		t.Fatalf("failed to create fault: %v", err)
	}
	return f
}

func TestLedger_DedupKeyUniqueness(t *testing.T) {
	l := NewLedger()

	first := mustFault(t, "high_error_rate", "api-server")
	if !l.Insert(first) {
		t.Fatal("expected first insert to succeed")
	}

	duplicate := mustFault(t, "high_error_rate", "api-server")
	if l.Insert(duplicate) {
		t.Error("expected duplicate dedup key to be rejected")
	}

	other := mustFault(t, "high_error_rate", "worker")
	if !l.Insert(other) {
		t.Error("expected different service id to be accepted")
	}

	if got := l.ActiveCount(); got != 2 {
		t.Errorf("expected 2 active faults, got %d", got)
	}
}

func TestLedger_LookupByTypeAndService(t *testing.T) {
	l := NewLedger()
	f := mustFault(t, "memory_pressure", "host")
	l.Insert(f)

	found, ok := l.Lookup("memory_pressure", "host")
	if !ok || found.ID() != f.ID() {
		t.Error("expected lookup to return the active fault")
	}
	if _, ok := l.Lookup("memory_pressure", "other-host"); ok {
		t.Error("expected lookup miss for unknown service")
	}
}

func TestLedger_RetireMovesToTerminalLog(t *testing.T) {
	l := NewLedger()
	f := mustFault(t, "memory_pressure", "host")
	l.Insert(f)
	l.Retire(f)

	if _, ok := l.Lookup("memory_pressure", "host"); ok {
		t.Error("retired fault must leave the active index")
	}
	if _, ok := l.GetByID(f.ID()); ok {
		t.Error("retired fault must leave the id index")
	}

	all := l.All()
	if len(all) != 1 || all[0].ID() != f.ID() {
		t.Errorf("expected retired fault in the full ledger, got %d entries", len(all))
	}
	if len(l.Active()) != 0 {
		t.Error("expected no active faults")
	}

	// The dedup key is free again after retirement.
	next := mustFault(t, "memory_pressure", "host")
	if !l.Insert(next) {
		t.Error("expected insert after retirement to succeed")
	}
}
