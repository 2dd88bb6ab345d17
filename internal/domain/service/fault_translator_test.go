package service

import (
	"testing"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
)

type stubFaultIndex struct {
	faults map[string]*entity.Fault
}

func newStubFaultIndex() *stubFaultIndex {
	return &stubFaultIndex{faults: make(map[string]*entity.Fault)}
}

func (s *stubFaultIndex) Lookup(faultType, serviceID string) (*entity.Fault, bool) {
	f, ok := s.faults[faultType+":"+serviceID]
	return f, ok
}

func (s *stubFaultIndex) add(f *entity.Fault) {
	s.faults[f.DedupKey()] = f
}

func TestTranslateAnomaly_CreatesFault(t *testing.T) {
	translator := NewFaultTranslator(newStubFaultIndex())

	fault, merged, err := translator.TranslateAnomaly(Anomaly{
		MetricID:    "response_time",
		Value:       1250,
		Severity:    "high",
		Description: "latency spike on checkout",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fault == nil {
		t.Fatal("expected a fault, got nil")
	}
	if merged {
		t.Error("expected a new fault, got merged")
	}
	if fault.Type() != "performance_degradation" {
		t.Errorf("expected fault type performance_degradation, got %s", fault.Type())
	}
	if fault.Severity() != valueobject.SeverityHigh {
		t.Errorf("expected severity high, got %s", fault.Severity())
	}
	if fault.Status() != valueobject.FaultDetected {
		t.Errorf("expected status detected, got %s", fault.Status())
	}
	if got := fault.Metrics()["response_time"]; got != 1250 {
		t.Errorf("expected metric value 1250, got %v", got)
	}
}

func TestTranslateAnomaly_UnmappedMetricIgnored(t *testing.T) {
	translator := NewFaultTranslator(newStubFaultIndex())

	fault, merged, err := translator.TranslateAnomaly(Anomaly{
		MetricID: "queue_depth",
		Value:    42,
		Severity: "critical",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fault != nil || merged {
		t.Errorf("expected nil fault for unmapped metric, got %v (merged=%v)", fault, merged)
	}
}

func TestTranslateAnomaly_DeduplicatesIntoActiveFault(t *testing.T) {
	index := newStubFaultIndex()
	translator := NewFaultTranslator(index)

	first, _, err := translator.TranslateAnomaly(Anomaly{
		MetricID: "error_rate",
		Value:    7.5,
		Severity: "medium",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	index.add(first)

	second, merged, err := translator.TranslateAnomaly(Anomaly{
		MetricID: "error_rate",
		Value:    12.0,
		Severity: "high",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !merged {
		t.Fatal("expected duplicate detection to merge into existing fault")
	}
	if second.ID() != first.ID() {
		t.Errorf("expected same fault instance, got %s and %s", first.ID(), second.ID())
	}
	if got := first.Metrics()["error_rate"]; got != 12.0 {
		t.Errorf("expected merged metric value 12.0, got %v", got)
	}
}

func TestTranslateAnomaly_UnknownSeverityDefaultsToLow(t *testing.T) {
	translator := NewFaultTranslator(newStubFaultIndex())

	fault, _, err := translator.TranslateAnomaly(Anomaly{
		MetricID: "cpu_usage",
		Value:    97,
		Severity: "urgent",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fault.Severity() != valueobject.SeverityLow {
		t.Errorf("expected default severity low, got %s", fault.Severity())
	}
}

func TestRegisterMapping_OverridesDefault(t *testing.T) {
	translator := NewFaultTranslator(newStubFaultIndex())
	translator.RegisterMapping("cache_hit_rate", FaultMapping{
		FaultType:          "cache_degradation",
		ServiceID:          "redis-cluster",
		AffectedComponents: []string{"redis-cluster"},
	})

	fault, _, err := translator.TranslateAnomaly(Anomaly{
		MetricID: "cache_hit_rate",
		Value:    31,
		Severity: "medium",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fault.Type() != "cache_degradation" || fault.ServiceID() != "redis-cluster" {
		t.Errorf("expected custom mapping, got type=%s service=%s", fault.Type(), fault.ServiceID())
	}
}
