package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/service"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/internal/recovery"
	"github.com/dreschagin/selfheal-core/internal/sla"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) PublishEvent(_ context.Context, subject string, _ interface{}) error {
	p.mu.Lock()
	p.subjects = append(p.subjects, subject)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published(subject string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

type anomalyFixture struct {
	uc        *HandleAnomalyUseCase
	orch      *recovery.Orchestrator
	runtime   *RuntimeConfig
	publisher *recordingPublisher
}

func newAnomalyFixture(t *testing.T) *anomalyFixture {
	t.Helper()
	log := logger.New("error")

	orch := recovery.NewOrchestrator(log, noopExecutor{}, alwaysHealthy{}, nil, nil, 2)
	if err := orch.AddStrategy(recovery.Strategy{
		FaultType:   "performance_degradation",
		MinSeverity: valueobject.SeverityLow,
		Actions: []recovery.StrategyAction{
			{Type: "clear_cache", Priority: 1, MaxRetries: 1, DelayMs: 10},
		},
	}); err != nil {
		t.Fatalf("failed to add strategy: %v", err)
	}

	evaluator := sla.NewEvaluator(log, nil)
	status := NewGetStatusUseCase(orch, evaluator, nil)
	feed := NewEventFeed()
	dashboard := NewGetDashboardDataUseCase(status, orch, evaluator, feed, nil, log)
	runtime := NewRuntimeConfig(defaultOptions())
	publisher := &recordingPublisher{}
	dispatcher := NewDispatcher(publisher, nil, feed, dashboard, runtime, "selfheal", log)
	translator := service.NewFaultTranslator(orch.Ledger())

	return &anomalyFixture{
		uc:        NewHandleAnomalyUseCase(translator, orch, nil, dispatcher, runtime, log),
		orch:      orch,
		runtime:   runtime,
		publisher: publisher,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestHandleAnomaly_UntrackedMetricIgnored(t *testing.T) {
	f := newAnomalyFixture(t)

	faultDTO, accepted, err := f.uc.Execute(context.Background(), service.Anomaly{
		MetricID: "not_a_known_metric",
		Value:    1,
		Severity: "critical",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if faultDTO != nil || accepted {
		t.Error("expected untracked anomaly to be ignored")
	}
}

func TestHandleAnomaly_NewFaultTriggersRecovery(t *testing.T) {
	f := newAnomalyFixture(t)

	faultDTO, accepted, err := f.uc.Execute(context.Background(), service.Anomaly{
		MetricID:    "response_time",
		Value:       2000,
		Severity:    "high",
		Description: "latency spike",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if faultDTO == nil {
		t.Fatal("expected a fault")
	}
	if !accepted {
		t.Error("expected recovery to be started")
	}
	if !f.publisher.published("selfheal.fault.detected") {
		t.Error("expected fault.detected to be published")
	}

	waitFor(t, func() bool { return f.orch.History().Len() == 1 })

	results := f.orch.History().Recent(1)
	if !results[0].Success {
		t.Error("expected successful recovery")
	}
	if f.orch.Ledger().ActiveCount() != 0 {
		t.Error("expected no active faults after recovery")
	}
}

func TestHandleAnomaly_DuplicateMergesWithoutNewRecovery(t *testing.T) {
	f := newAnomalyFixture(t)

	// Keep the first fault active so the duplicate has something to merge into.
	if _, err := f.runtime.ApplyPartial(map[string]interface{}{"faultRecoveryEnabled": false}); err != nil {
		t.Fatalf("failed to disable recovery: %v", err)
	}

	first, accepted, err := f.uc.Execute(context.Background(), service.Anomaly{
		MetricID: "response_time",
		Value:    2000,
		Severity: "high",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if accepted {
		t.Error("expected no recovery while disabled")
	}

	second, accepted, err := f.uc.Execute(context.Background(), service.Anomaly{
		MetricID: "response_time",
		Value:    3000,
		Severity: "high",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if accepted {
		t.Error("merged anomaly must not start a second recovery")
	}
	if second.ID != first.ID {
		t.Errorf("expected merge into fault %s, got %s", first.ID, second.ID)
	}
	if f.orch.Ledger().ActiveCount() != 1 {
		t.Errorf("dedup invariant violated: %d active faults", f.orch.Ledger().ActiveCount())
	}
	if second.Metrics["response_time"] != 3000 {
		t.Errorf("expected merged metric value 3000, got %v", second.Metrics["response_time"])
	}
}
