package recovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

type scriptedExecutor struct {
	mu          sync.Mutex
	failures    map[string]int // failures before success; -1 means always fail
	calls       map[string]int
	rollbacks   []string
	rollbackErr error
	panicOn     string
	started     chan string
	release     chan struct{}
}

func newScriptedExecutor() *scriptedExecutor {
	return &scriptedExecutor{
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (e *scriptedExecutor) Execute(ctx context.Context, fault *entity.Fault, action *entity.RecoveryAction) error {
	if e.panicOn == action.Type() {
		panic("executor blew up")
	}
	if e.started != nil {
		e.started <- action.Type()
	}
	if e.release != nil {
		<-e.release
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls[action.Type()]++
	n := e.failures[action.Type()]
	if n == -1 || e.calls[action.Type()] <= n {
		return errors.New("simulated execution failure")
	}
	return nil
}

func (e *scriptedExecutor) Rollback(ctx context.Context, fault *entity.Fault, rollbackType string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rollbacks = append(e.rollbacks, rollbackType)
	return e.rollbackErr
}

func (e *scriptedExecutor) callCount(actionType string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[actionType]
}

func (e *scriptedExecutor) rollbackCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rollbacks)
}

type staticProbe struct{ healthy bool }

func (p staticProbe) Healthy(ctx context.Context, fault *entity.Fault) bool {
	return p.healthy
}

type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type eventSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *eventSink) add(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *eventSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func (s *eventSink) count(eventType string) int {
	n := 0
	for _, t := range s.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

func newTestOrchestrator(executor ActionExecutor, probe HealthProbe, sleeper Sleeper, sink *eventSink, maxConcurrent int) *Orchestrator {
	log := logger.New("error")
	notify := func(Event) {}
	if sink != nil {
		notify = sink.add
	}
	return NewOrchestrator(log, executor, probe, sleeper, notify, maxConcurrent)
}

func newTestFault(t *testing.T, faultType string, severity valueobject.Severity) *entity.Fault {
	t.Helper()
	fault, err := entity.NewFault(faultType, "svc-1", severity, "test fault", map[string]float64{"m": 1}, nil)
	if err != nil {
		t.Fatalf("failed to create fault: %v", err)
	}
	return fault
}

func dbStrategy() Strategy {
	return Strategy{
		FaultType:   "database_connection_failure",
		MinSeverity: valueobject.SeverityMedium,
		Actions: []StrategyAction{
			{Type: "restart_service", Priority: 2, MaxRetries: 1, DelayMs: 100},
			{Type: "connection_reset", Priority: 1, MaxRetries: 3, DelayMs: 100},
			{Type: "alert_admin", Priority: 3, MaxRetries: 1, DelayMs: 100},
		},
	}
}

func TestExecuteRecovery_FirstActionSucceeds(t *testing.T) {
	executor := newScriptedExecutor()
	sink := &eventSink{}
	o := newTestOrchestrator(executor, staticProbe{healthy: true}, &recordingSleeper{}, sink, 2)
	if err := o.AddStrategy(dbStrategy()); err != nil {
		t.Fatalf("failed to add strategy: %v", err)
	}

	fault := newTestFault(t, "database_connection_failure", valueobject.SeverityHigh)
	result, err := o.ExecuteRecovery(context.Background(), fault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Error("expected successful recovery")
	}
	if result.ActionsTaken != 1 || result.SuccessfulActions != 1 || result.FailedActions != 0 {
		t.Errorf("expected 1/1/0 actions, got %d/%d/%d", result.ActionsTaken, result.SuccessfulActions, result.FailedActions)
	}
	if executor.callCount("connection_reset") != 1 {
		t.Errorf("expected connection_reset executed once, got %d", executor.callCount("connection_reset"))
	}
	if executor.callCount("restart_service") != 0 || executor.callCount("alert_admin") != 0 {
		t.Error("expected remaining actions to be skipped after health restored")
	}
	if fault.Status() != valueobject.FaultRecovered {
		t.Errorf("expected fault recovered, got %s", fault.Status())
	}
	if fault.RecoveredAt() == nil {
		t.Error("expected recoveredAt to be set")
	}
	if sink.count(EventRecoverySuccessful) != 1 {
		t.Errorf("expected one recovery_successful event, got %d", sink.count(EventRecoverySuccessful))
	}
}

func TestExecuteRecovery_NoStrategyFails(t *testing.T) {
	sink := &eventSink{}
	o := newTestOrchestrator(newScriptedExecutor(), staticProbe{}, &recordingSleeper{}, sink, 2)

	fault := newTestFault(t, "unknown_fault_type", valueobject.SeverityHigh)
	result, err := o.ExecuteRecovery(context.Background(), fault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Success {
		t.Error("expected failed recovery")
	}
	if len(result.Recommendations) == 0 || result.Recommendations[0] != "no applicable strategy" {
		t.Errorf("expected no-strategy recommendation, got %v", result.Recommendations)
	}
	if fault.Status() != valueobject.FaultFailed {
		t.Errorf("expected fault failed, got %s", fault.Status())
	}
	if o.History().Len() != 1 {
		t.Errorf("expected 1 history entry, got %d", o.History().Len())
	}
	if sink.count(EventRecoveryFailed) != 1 {
		t.Errorf("expected one recovery_failed event, got %d", sink.count(EventRecoveryFailed))
	}
}

func TestExecuteRecovery_SeverityBelowThresholdSkips(t *testing.T) {
	executor := newScriptedExecutor()
	sink := &eventSink{}
	o := newTestOrchestrator(executor, staticProbe{}, &recordingSleeper{}, sink, 2)

	strategy := dbStrategy()
	strategy.MinSeverity = valueobject.SeverityHigh
	if err := o.AddStrategy(strategy); err != nil {
		t.Fatalf("failed to add strategy: %v", err)
	}

	fault := newTestFault(t, "database_connection_failure", valueobject.SeverityMedium)
	result, err := o.ExecuteRecovery(context.Background(), fault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Error("expected skip to count as success")
	}
	if result.ActionsTaken != 0 {
		t.Errorf("expected zero actions, got %d", result.ActionsTaken)
	}
	if result.Duration != 0 {
		t.Errorf("expected zero duration, got %s", result.Duration)
	}
	if len(result.Recommendations) == 0 || result.Recommendations[0] != "below auto-recovery threshold" {
		t.Errorf("expected threshold recommendation, got %v", result.Recommendations)
	}
	if fault.Status() != valueobject.FaultRecovered {
		t.Errorf("expected fault recovered, got %s", fault.Status())
	}
	if sink.count(EventRecoverySkipped) != 1 {
		t.Errorf("expected one recovery_skipped event, got %d", sink.count(EventRecoverySkipped))
	}
	if executor.callCount("connection_reset") != 0 {
		t.Error("expected no executor calls for a skipped recovery")
	}
}

func TestExecuteRecovery_ExponentialBackoffDelays(t *testing.T) {
	executor := newScriptedExecutor()
	executor.failures["connection_reset"] = 2 // fails twice, succeeds third

	sleeper := &recordingSleeper{}
	o := newTestOrchestrator(executor, staticProbe{healthy: true}, sleeper, nil, 2)
	if err := o.AddStrategy(Strategy{
		FaultType:   "database_connection_failure",
		MinSeverity: valueobject.SeverityLow,
		Actions: []StrategyAction{
			{Type: "connection_reset", Priority: 1, MaxRetries: 3, DelayMs: 1000, ExponentialBackoff: true},
		},
	}); err != nil {
		t.Fatalf("failed to add strategy: %v", err)
	}

	fault := newTestFault(t, "database_connection_failure", valueobject.SeverityHigh)
	result, err := o.ExecuteRecovery(context.Background(), fault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Success {
		t.Error("expected recovery to succeed on third attempt")
	}
	if executor.callCount("connection_reset") != 3 {
		t.Errorf("expected 3 attempts, got %d", executor.callCount("connection_reset"))
	}

	delays := sleeper.recorded()
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d delays, got %v", len(want), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d: expected %s, got %s", i, want[i], delays[i])
		}
	}
	if fault.RetryCount() != 2 {
		t.Errorf("expected fault retry count 2, got %d", fault.RetryCount())
	}
}

func TestExecuteRecovery_FixedBackoffDelays(t *testing.T) {
	executor := newScriptedExecutor()
	executor.failures["connection_reset"] = 2

	sleeper := &recordingSleeper{}
	o := newTestOrchestrator(executor, staticProbe{healthy: true}, sleeper, nil, 2)
	if err := o.AddStrategy(Strategy{
		FaultType:   "database_connection_failure",
		MinSeverity: valueobject.SeverityLow,
		Actions: []StrategyAction{
			{Type: "connection_reset", Priority: 1, MaxRetries: 3, DelayMs: 500},
		},
	}); err != nil {
		t.Fatalf("failed to add strategy: %v", err)
	}

	fault := newTestFault(t, "database_connection_failure", valueobject.SeverityHigh)
	if _, err := o.ExecuteRecovery(context.Background(), fault); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, d := range sleeper.recorded() {
		if d != 500*time.Millisecond {
			t.Errorf("delay %d: expected 500ms, got %s", i, d)
		}
	}
}

func TestExecuteRecovery_RetryExhaustionRunsRollback(t *testing.T) {
	executor := newScriptedExecutor()
	executor.failures["connection_reset"] = -1
	executor.rollbackErr = errors.New("rollback also broken")

	o := newTestOrchestrator(executor, staticProbe{}, &recordingSleeper{}, nil, 2)
	if err := o.AddStrategy(Strategy{
		FaultType:   "database_connection_failure",
		MinSeverity: valueobject.SeverityLow,
		Actions: []StrategyAction{
			{Type: "connection_reset", Priority: 1, MaxRetries: 2, DelayMs: 100, RollbackAction: "close_pool"},
		},
	}); err != nil {
		t.Fatalf("failed to add strategy: %v", err)
	}

	fault := newTestFault(t, "database_connection_failure", valueobject.SeverityHigh)
	result, err := o.ExecuteRecovery(context.Background(), fault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Success {
		t.Error("expected failed recovery")
	}
	if executor.callCount("connection_reset") != 2 {
		t.Errorf("expected exactly maxRetries attempts, got %d", executor.callCount("connection_reset"))
	}
	if executor.rollbackCount() != 2 {
		t.Errorf("expected rollback after each failed attempt, got %d", executor.rollbackCount())
	}
	if len(result.Recommendations) == 0 || result.Recommendations[0] != "manual intervention required" {
		t.Errorf("expected manual intervention recommendation, got %v", result.Recommendations)
	}
	if fault.Status() != valueobject.FaultFailed {
		t.Errorf("expected fault failed, got %s", fault.Status())
	}
}

func TestExecuteRecovery_ConcurrencyBound(t *testing.T) {
	executor := newScriptedExecutor()
	executor.started = make(chan string, 3)
	executor.release = make(chan struct{})

	sink := &eventSink{}
	o := newTestOrchestrator(executor, staticProbe{healthy: true}, &recordingSleeper{}, sink, 2)
	if err := o.AddStrategy(Strategy{
		FaultType:   "service_unavailable",
		MinSeverity: valueobject.SeverityLow,
		Actions: []StrategyAction{
			{Type: "restart_service", Priority: 1, MaxRetries: 1, DelayMs: 10},
		},
	}); err != nil {
		t.Fatalf("failed to add strategy: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		fault := newTestFault(t, "service_unavailable", valueobject.SeverityHigh)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := o.ExecuteRecovery(context.Background(), fault); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	// Wait until both recoveries hold a permit inside the executor.
	<-executor.started
	<-executor.started

	third := newTestFault(t, "service_unavailable", valueobject.SeverityHigh)
	_, err := o.ExecuteRecovery(context.Background(), third)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if third.Status() != valueobject.FaultDetected {
		t.Errorf("rejected fault must stay detected, got %s", third.Status())
	}
	if _, found := o.Ledger().GetByID(third.ID()); found {
		t.Error("rejected fault must not enter the active set")
	}
	if sink.count(EventRecoveryQueueFull) != 1 {
		t.Errorf("expected one recovery_queue_full event, got %d", sink.count(EventRecoveryQueueFull))
	}

	close(executor.release)
	wg.Wait()

	if o.History().Len() != 2 {
		t.Errorf("expected 2 history entries for accepted faults, got %d", o.History().Len())
	}
}

func TestExecuteRecovery_PanicIsolation(t *testing.T) {
	executor := newScriptedExecutor()
	executor.panicOn = "restart_service"

	sink := &eventSink{}
	o := newTestOrchestrator(executor, staticProbe{}, &recordingSleeper{}, sink, 2)
	if err := o.AddStrategy(Strategy{
		FaultType:   "service_unavailable",
		MinSeverity: valueobject.SeverityLow,
		Actions: []StrategyAction{
			{Type: "restart_service", Priority: 1, MaxRetries: 1, DelayMs: 10},
		},
	}); err != nil {
		t.Fatalf("failed to add strategy: %v", err)
	}

	fault := newTestFault(t, "service_unavailable", valueobject.SeverityHigh)
	result, err := o.ExecuteRecovery(context.Background(), fault)
	if err != nil {
		t.Fatalf("panic must not escape the orchestrator, got error %v", err)
	}

	if result.Success {
		t.Error("expected failed result after panic")
	}
	if fault.Status() != valueobject.FaultFailed {
		t.Errorf("expected fault forced to failed, got %s", fault.Status())
	}
	if o.History().Len() != 1 {
		t.Errorf("expected exactly one history entry, got %d", o.History().Len())
	}
	if sink.count(EventRecoveryFailed) != 1 {
		t.Errorf("expected one recovery_failed event, got %d", sink.count(EventRecoveryFailed))
	}
}

func TestExecuteRecovery_CancellationLeavesCancelledStatus(t *testing.T) {
	executor := newScriptedExecutor()
	executor.failures["restart_service"] = -1

	o := newTestOrchestrator(executor, staticProbe{}, nil, nil, 2)
	// Cancel the fault while it waits out its first backoff delay.
	fault := newTestFault(t, "service_unavailable", valueobject.SeverityHigh)
	o.sleeper = sleeperFunc(func(ctx context.Context, d time.Duration) error {
		_ = o.Cancel(fault.ID())
		<-ctx.Done()
		return ctx.Err()
	})
	if err := o.AddStrategy(Strategy{
		FaultType:   "service_unavailable",
		MinSeverity: valueobject.SeverityLow,
		Actions: []StrategyAction{
			{Type: "restart_service", Priority: 1, MaxRetries: 3, DelayMs: 10},
		},
	}); err != nil {
		t.Fatalf("failed to add strategy: %v", err)
	}

	result, err := o.ExecuteRecovery(context.Background(), fault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Success {
		t.Error("cancelled recovery must not be successful")
	}
	if fault.Status() != valueobject.FaultCancelled {
		t.Errorf("expected fault cancelled, got %s", fault.Status())
	}
	if len(result.Recommendations) == 0 || result.Recommendations[0] != "recovery cancelled before completion" {
		t.Errorf("expected cancellation recommendation, got %v", result.Recommendations)
	}
	if executor.callCount("restart_service") != 1 {
		t.Errorf("expected a single attempt before cancellation, got %d", executor.callCount("restart_service"))
	}
	if o.History().Len() != 1 {
		t.Errorf("expected exactly one history entry, got %d", o.History().Len())
	}
}

func TestCancel_UnknownFault(t *testing.T) {
	o := newTestOrchestrator(newScriptedExecutor(), staticProbe{}, &recordingSleeper{}, nil, 1)
	if err := o.Cancel("no-such-fault"); !errors.Is(err, ErrUnknownFault) {
		t.Errorf("expected ErrUnknownFault, got %v", err)
	}
}

func TestExecuteRecovery_EventOrderingPerFault(t *testing.T) {
	executor := newScriptedExecutor()
	sink := &eventSink{}
	o := newTestOrchestrator(executor, staticProbe{healthy: true}, &recordingSleeper{}, sink, 1)
	if err := o.AddStrategy(dbStrategy()); err != nil {
		t.Fatalf("failed to add strategy: %v", err)
	}

	fault := newTestFault(t, "database_connection_failure", valueobject.SeverityHigh)
	if _, err := o.ExecuteRecovery(context.Background(), fault); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	types := sink.types()
	if len(types) == 0 {
		t.Fatal("expected emitted events")
	}
	if types[0] != EventFaultUpdated {
		t.Errorf("expected first event fault_updated, got %s", types[0])
	}
	if types[len(types)-1] != EventRecoverySuccessful {
		t.Errorf("expected last event recovery_successful, got %s", types[len(types)-1])
	}
	// action_updated events must appear between the recovering transition
	// and the terminal event.
	if sink.count(EventActionUpdated) < 2 {
		t.Errorf("expected executing and completed action events, got %d", sink.count(EventActionUpdated))
	}
}

func TestExecuteRecovery_AdminAlertForFailedCriticalFault(t *testing.T) {
	executor := newScriptedExecutor()
	executor.failures["restart_service"] = -1

	sink := &eventSink{}
	o := newTestOrchestrator(executor, staticProbe{}, &recordingSleeper{}, sink, 1)
	if err := o.AddStrategy(Strategy{
		FaultType:   "service_unavailable",
		MinSeverity: valueobject.SeverityLow,
		Actions: []StrategyAction{
			{Type: "restart_service", Priority: 1, MaxRetries: 1, DelayMs: 10},
		},
	}); err != nil {
		t.Fatalf("failed to add strategy: %v", err)
	}

	fault := newTestFault(t, "service_unavailable", valueobject.SeverityCritical)
	if _, err := o.ExecuteRecovery(context.Background(), fault); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sink.count(EventAdminAlert) != 1 {
		t.Errorf("expected one admin_alert for failed critical fault, got %d", sink.count(EventAdminAlert))
	}
}

func TestExecuteRecovery_ConditionSkipsAction(t *testing.T) {
	executor := newScriptedExecutor()
	o := newTestOrchestrator(executor, staticProbe{}, &recordingSleeper{}, nil, 1)
	if err := o.AddStrategy(Strategy{
		FaultType:   "service_unavailable",
		MinSeverity: valueobject.SeverityLow,
		Actions: []StrategyAction{
			{
				Type: "scale_up", Priority: 1, MaxRetries: 1, DelayMs: 10,
				Condition: func(f *entity.Fault) bool { return f.Severity() == valueobject.SeverityCritical },
			},
			{Type: "restart_service", Priority: 2, MaxRetries: 1, DelayMs: 10},
		},
	}); err != nil {
		t.Fatalf("failed to add strategy: %v", err)
	}

	fault := newTestFault(t, "service_unavailable", valueobject.SeverityHigh)
	result, err := o.ExecuteRecovery(context.Background(), fault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if executor.callCount("scale_up") != 0 {
		t.Error("expected conditional action to be skipped")
	}
	if executor.callCount("restart_service") != 1 {
		t.Errorf("expected unconditional action executed, got %d", executor.callCount("restart_service"))
	}
	if result.ActionsTaken != 1 {
		t.Errorf("skipped action must not count as taken, got %d", result.ActionsTaken)
	}
}

func TestExecuteRecovery_DisabledRejects(t *testing.T) {
	o := newTestOrchestrator(newScriptedExecutor(), staticProbe{}, &recordingSleeper{}, nil, 1)
	o.SetEnabled(false)

	fault := newTestFault(t, "service_unavailable", valueobject.SeverityHigh)
	if _, err := o.ExecuteRecovery(context.Background(), fault); err == nil {
		t.Error("expected error while recovery is disabled")
	}
	if o.History().Len() != 0 {
		t.Errorf("expected no history entries, got %d", o.History().Len())
	}
}

type sleeperFunc func(ctx context.Context, d time.Duration) error

func (f sleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}
