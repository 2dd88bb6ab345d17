package sla

import (
	"testing"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

func newTestEvaluator(events *[]Event) *Evaluator {
	log := logger.New("error")
	return NewEvaluator(log, func(ev Event) {
		if events != nil {
			*events = append(*events, ev)
		}
	})
}

func responseTimeTarget() Target {
	return Target{
		MetricID:  "response_time",
		Polarity:  valueobject.LowerIsBetter,
		Threshold: 500,
		Severity:  valueobject.SeverityHigh,
		Unit:      "ms",
	}
}

func availabilityTarget() Target {
	return Target{
		MetricID:  "availability",
		Polarity:  valueobject.HigherIsBetter,
		Threshold: 99.0,
		Severity:  valueobject.SeverityCritical,
		Unit:      "%",
	}
}

func TestAddTarget_Validation(t *testing.T) {
	e := newTestEvaluator(nil)

	if err := e.AddTarget(Target{Polarity: valueobject.LowerIsBetter, Threshold: 10}); err == nil {
		t.Error("expected error for empty metric id")
	}
	if err := e.AddTarget(Target{MetricID: "x", Polarity: "sideways", Threshold: 10}); err == nil {
		t.Error("expected error for invalid polarity")
	}
	if err := e.AddTarget(Target{MetricID: "x", Polarity: valueobject.LowerIsBetter}); err == nil {
		t.Error("expected error for zero threshold")
	}
	if err := e.AddTarget(responseTimeTarget()); err != nil {
		t.Errorf("unexpected error for valid target: %v", err)
	}
}

func TestAddTarget_DerivesWarningBandForHigherIsBetter(t *testing.T) {
	e := newTestEvaluator(nil)
	if err := e.AddTarget(availabilityTarget()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	targets := e.Targets()
	if len(targets) != 1 {
		t.Fatalf("expected 1 target, got %d", len(targets))
	}
	want := 99.0 * 0.95
	if targets[0].WarningThreshold != want {
		t.Errorf("expected derived warning threshold %.4f, got %.4f", want, targets[0].WarningThreshold)
	}
}

func TestRecordSample_HigherIsBetterClassification(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  valueobject.SLAStatus
	}{
		{"at target is met", 99.0, valueobject.SLAMet},
		{"above target is met", 99.9, valueobject.SLAMet},
		{"inside warning band", 95.0, valueobject.SLAWarning},
		{"below warning band is breached", 90.0, valueobject.SLABreached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEvaluator(nil)
			if err := e.AddTarget(availabilityTarget()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			sample, ok := e.RecordSample("availability", tt.value, time.Now())
			if !ok {
				t.Fatal("expected sample to be classified")
			}
			if sample.Status != tt.want {
				t.Errorf("value %.1f: expected %s, got %s", tt.value, tt.want, sample.Status)
			}
		})
	}
}

func TestRecordSample_LowerIsBetterBreachEmitsEvent(t *testing.T) {
	var events []Event
	e := newTestEvaluator(&events)
	if err := e.AddTarget(responseTimeTarget()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sample, ok := e.RecordSample("response_time", 650, time.Now())
	if !ok {
		t.Fatal("expected sample to be classified")
	}
	if sample.Status != valueobject.SLABreached {
		t.Fatalf("expected breached, got %s", sample.Status)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 emitted event, got %d", len(events))
	}
	if events[0].Type != EventBreach {
		t.Errorf("expected sla_breach, got %s", events[0].Type)
	}
	if events[0].Severity != valueobject.SeverityHigh {
		t.Errorf("expected event severity high, got %s", events[0].Severity)
	}
}

func TestRecordSample_UntrackedMetricIgnored(t *testing.T) {
	var events []Event
	e := newTestEvaluator(&events)

	_, ok := e.RecordSample("unknown_metric", 1, time.Now())
	if ok {
		t.Error("expected sample without target to be ignored")
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestRecordSample_NoRepeatEventForSameStatus(t *testing.T) {
	var events []Event
	e := newTestEvaluator(&events)
	if err := e.AddTarget(responseTimeTarget()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e.RecordSample("response_time", 800, time.Now())
	e.RecordSample("response_time", 900, time.Now())
	e.RecordSample("response_time", 700, time.Now())

	if len(events) != 1 {
		t.Errorf("expected a single breach event for a sustained breach, got %d", len(events))
	}
}

func TestRecordSample_RecoveredAfterRecentBreach(t *testing.T) {
	var events []Event
	e := newTestEvaluator(&events)
	if err := e.AddTarget(responseTimeTarget()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e.RecordSample("response_time", 800, base)
	e.RecordSample("response_time", 200, base.Add(10*time.Minute))

	if len(events) != 2 {
		t.Fatalf("expected breach then recovered, got %d events", len(events))
	}
	if events[1].Type != EventRecovered {
		t.Errorf("expected sla_recovered, got %s", events[1].Type)
	}
}

func TestRecordSample_NoRecoveredWhenBreachTooOld(t *testing.T) {
	var events []Event
	e := newTestEvaluator(&events)
	if err := e.AddTarget(responseTimeTarget()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e.RecordSample("response_time", 800, base)
	e.RecordSample("response_time", 200, base.Add(2*time.Hour))

	if len(events) != 1 {
		t.Errorf("expected only the breach event, got %d", len(events))
	}
}

func TestComplianceRate_EmptyWindowAssumesCompliant(t *testing.T) {
	e := newTestEvaluator(nil)
	if err := e.AddTarget(responseTimeTarget()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rate := e.ComplianceRate("response_time", 24*time.Hour); rate != 100 {
		t.Errorf("expected 100 for empty window, got %.2f", rate)
	}
	if rate := e.ComplianceRate("", 24*time.Hour); rate != 100 {
		t.Errorf("expected 100 for empty global window, got %.2f", rate)
	}
}

func TestComplianceRate_RatioOfMetSamples(t *testing.T) {
	e := newTestEvaluator(nil)
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	if err := e.AddTarget(responseTimeTarget()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	at := e.now().Add(-time.Minute)
	e.RecordSample("response_time", 100, at) // met
	e.RecordSample("response_time", 200, at) // met
	e.RecordSample("response_time", 300, at) // met
	e.RecordSample("response_time", 900, at) // breached

	if rate := e.ComplianceRate("response_time", time.Hour); rate != 75 {
		t.Errorf("expected 75, got %.2f", rate)
	}
}

func TestComplianceRate_IgnoresSamplesOutsideWindow(t *testing.T) {
	e := newTestEvaluator(nil)
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	if err := e.AddTarget(responseTimeTarget()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e.RecordSample("response_time", 900, e.now().Add(-3*time.Hour)) // outside window
	e.RecordSample("response_time", 100, e.now().Add(-time.Minute))

	if rate := e.ComplianceRate("response_time", time.Hour); rate != 100 {
		t.Errorf("expected 100 inside window, got %.2f", rate)
	}
}

func TestPurgeOlderThan_DropsExpiredSamples(t *testing.T) {
	e := newTestEvaluator(nil)
	if err := e.AddTarget(responseTimeTarget()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e.RecordSample("response_time", 100, base.Add(-48*time.Hour))
	e.RecordSample("response_time", 100, base.Add(-36*time.Hour))
	e.RecordSample("response_time", 100, base.Add(-time.Hour))

	removed := e.PurgeOlderThan(base.Add(-24 * time.Hour))
	if removed != 2 {
		t.Errorf("expected 2 removed samples, got %d", removed)
	}

	snapshot := e.Snapshot(365 * 24 * time.Hour)
	if snapshot.SampleCount != 1 {
		t.Errorf("expected 1 remaining sample, got %d", snapshot.SampleCount)
	}
}

func TestSnapshot_CountsBreachedAndWarning(t *testing.T) {
	e := newTestEvaluator(nil)
	if err := e.AddTarget(responseTimeTarget()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.AddTarget(availabilityTarget()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Now()
	e.RecordSample("response_time", 900, now) // breached
	e.RecordSample("availability", 95, now)   // warning

	snapshot := e.Snapshot(24 * time.Hour)
	if snapshot.TargetCount != 2 {
		t.Errorf("expected 2 targets, got %d", snapshot.TargetCount)
	}
	if snapshot.BreachedCount != 1 || snapshot.WarningCount != 1 {
		t.Errorf("expected 1 breached and 1 warning, got %d and %d", snapshot.BreachedCount, snapshot.WarningCount)
	}
}
