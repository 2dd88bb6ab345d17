package recovery

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

const (
	recommendNoStrategy         = "no applicable strategy"
	recommendBelowThreshold     = "below auto-recovery threshold"
	recommendManualIntervention = "manual intervention required"
	recommendCancelled          = "recovery cancelled before completion"
)

// Orchestrator owns the fault lifecycle state machine: strategy lookup,
// severity gating, concurrency-gated execution, per-action retry with
// backoff, rollback, and the recovery history. Each accepted fault runs
// as one goroutine-confined flow; the ledger and history are the only
// cross-recovery shared state.
type Orchestrator struct {
	log      *logger.Logger
	executor ActionExecutor
	probe    HealthProbe
	sleeper  Sleeper
	notify   func(Event)
	now      func() time.Time

	registry *StrategyRegistry
	ledger   *Ledger
	history  *History
	gate     *gate
	enabled  atomic.Bool

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc
}

func NewOrchestrator(
	log *logger.Logger,
	executor ActionExecutor,
	probe HealthProbe,
	sleeper Sleeper,
	notify func(Event),
	maxConcurrent int,
) *Orchestrator {
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	if notify == nil {
		notify = func(Event) {}
	}

	o := &Orchestrator{
		log:      log,
		executor: executor,
		probe:    probe,
		sleeper:  sleeper,
		notify:   notify,
		now:      time.Now,
		registry: NewStrategyRegistry(),
		ledger:   NewLedger(),
		history:  NewHistory(),
		gate:     newGate(maxConcurrent),
		cancels:  make(map[string]context.CancelFunc),
	}
	o.enabled.Store(true)
	return o
}

// Ledger exposes the fault index for the translator and status queries.
func (o *Orchestrator) Ledger() *Ledger {
	return o.ledger
}

// History exposes the recovery-result log.
func (o *Orchestrator) History() *History {
	return o.history
}

// AddStrategy registers a strategy for future recoveries.
func (o *Orchestrator) AddStrategy(s Strategy) error {
	if err := o.registry.Add(s); err != nil {
		return fmt.Errorf("failed to register strategy: %w", err)
	}
	o.log.Info("Recovery strategy registered", "fault_type", s.FaultType, "actions", len(s.Actions), "min_severity", s.MinSeverity.String())
	return nil
}

// Strategies returns the registered strategies.
func (o *Orchestrator) Strategies() []Strategy {
	return o.registry.List()
}

// SetEnabled toggles acceptance of new recoveries.
func (o *Orchestrator) SetEnabled(enabled bool) {
	o.enabled.Store(enabled)
}

// Enabled reports whether new recoveries are accepted.
func (o *Orchestrator) Enabled() bool {
	return o.enabled.Load()
}

// SetMaxConcurrent adjusts the concurrency cap at runtime.
func (o *Orchestrator) SetMaxConcurrent(limit int) {
	o.gate.SetLimit(limit)
}

// MaxConcurrent returns the current concurrency cap.
func (o *Orchestrator) MaxConcurrent() int {
	return o.gate.Limit()
}

// InFlight returns the number of recoveries currently executing.
func (o *Orchestrator) InFlight() int {
	return o.gate.InFlight()
}

// Cancel requests cooperative cancellation of an in-flight recovery.
// The orchestration flow observes it at the next action or attempt boundary.
func (o *Orchestrator) Cancel(faultID string) error {
	o.cancelMu.Lock()
	cancel, ok := o.cancels[faultID]
	o.cancelMu.Unlock()
	if !ok {
		return ErrUnknownFault
	}
	cancel()
	o.log.Info("Recovery cancellation requested", "fault_id", faultID)
	return nil
}

// ExecuteRecovery drives a fault through the recovery state machine.
// Exactly one Result is appended to history per accepted invocation; a
// capacity rejection returns ErrQueueFull without accepting the fault,
// and the caller is expected to re-submit.
func (o *Orchestrator) ExecuteRecovery(ctx context.Context, fault *entity.Fault) (Result, error) {
	if !o.enabled.Load() {
		return Result{}, fmt.Errorf("fault recovery is disabled")
	}

	if !o.gate.TryAcquire() {
		o.emit(EventRecoveryQueueFull, fault.ID(), map[string]interface{}{
			"fault_type": fault.Type(),
			"service_id": fault.ServiceID(),
			"in_flight":  o.gate.InFlight(),
			"limit":      o.gate.Limit(),
		})
		o.log.Warn("Recovery rejected: concurrency limit reached", "fault_id", fault.ID(), "limit", o.gate.Limit())
		return Result{}, ErrQueueFull
	}
	defer o.gate.Release()

	o.ledger.Insert(fault)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.cancelMu.Lock()
	o.cancels[fault.ID()] = cancel
	o.cancelMu.Unlock()
	defer func() {
		o.cancelMu.Lock()
		delete(o.cancels, fault.ID())
		o.cancelMu.Unlock()
	}()

	result := o.run(runCtx, fault)

	o.history.Append(result)
	o.ledger.Retire(fault)

	o.log.Info("Recovery completed",
		"fault_id", fault.ID(),
		"fault_type", fault.Type(),
		"status", fault.Status().String(),
		"actions_taken", result.ActionsTaken,
		"duration", result.Duration.String(),
	)
	return result, nil
}

// run executes the state machine for one fault. Any panic is contained
// here: the fault is forced to failed and a terminal result is returned.
func (o *Orchestrator) run(ctx context.Context, fault *entity.Fault) (result Result) {
	start := o.now()
	result = Result{
		FaultID:   fault.ID(),
		FaultType: fault.Type(),
		ServiceID: fault.ServiceID(),
	}

	defer func() {
		if r := recover(); r != nil {
			o.log.Error("Recovery orchestration panicked", fmt.Errorf("panic: %v", r), "fault_id", fault.ID())
			fault.ForceFail()
			result.Success = false
			result.Recommendations = append(result.Recommendations, recommendManualIntervention)
			result.Duration = o.now().Sub(start)
			result.CompletedAt = o.now()
			o.emit(EventRecoveryFailed, fault.ID(), o.resultPayload(result))
		}
	}()

	if err := fault.TransitionTo(valueobject.FaultAnalyzing); err != nil {
		fault.ForceFail()
		result.Recommendations = []string{recommendManualIntervention}
		result.Duration = o.now().Sub(start)
		result.CompletedAt = o.now()
		o.emit(EventRecoveryFailed, fault.ID(), o.resultPayload(result))
		return result
	}
	o.emitFaultUpdated(fault)

	strategy, ok := o.registry.Get(fault.Type())
	if !ok {
		fault.ForceFail()
		o.emitFaultUpdated(fault)
		result.Recommendations = []string{recommendNoStrategy}
		result.Duration = o.now().Sub(start)
		result.CompletedAt = o.now()
		o.emit(EventRecoveryFailed, fault.ID(), o.resultPayload(result))
		o.log.Warn("No recovery strategy for fault type", "fault_type", fault.Type(), "fault_id", fault.ID())
		return result
	}

	// Deliberate skip: severity below the strategy threshold is a no-op
	// success with zero actions.
	if !fault.Severity().AtLeast(strategy.MinSeverity) {
		_ = fault.TransitionTo(valueobject.FaultRecovered)
		o.emitFaultUpdated(fault)
		result.Success = true
		result.Recommendations = []string{recommendBelowThreshold}
		result.Duration = 0
		result.CompletedAt = o.now()
		o.emit(EventRecoverySkipped, fault.ID(), o.resultPayload(result))
		return result
	}

	_ = fault.TransitionTo(valueobject.FaultRecovering)
	o.emitFaultUpdated(fault)

	for _, sa := range strategy.Actions {
		if ctxDone(ctx) {
			return o.finishCancelled(fault, result, start)
		}
		if sa.Condition != nil && !sa.Condition(fault) {
			o.log.Debug("Recovery action skipped: condition not met", "fault_id", fault.ID(), "action_type", sa.Type)
			continue
		}

		action, err := entity.NewRecoveryAction(sa.Type, sa.MaxRetries, sa.Parameters, sa.RollbackAction)
		if err != nil {
			o.log.Error("Failed to create recovery action", err, "fault_id", fault.ID(), "action_type", sa.Type)
			continue
		}
		fault.AppendAction(action)
		result.ActionsTaken++

		succeeded, cancelled := o.runAction(ctx, fault, action, sa)
		fault.AddRetries(action.RetryCount())
		if cancelled {
			return o.finishCancelled(fault, result, start)
		}
		if !succeeded {
			result.FailedActions++
			continue
		}

		result.SuccessfulActions++
		if o.probe != nil && o.probe.Healthy(ctx, fault) {
			o.log.Info("Health restored, skipping remaining actions", "fault_id", fault.ID(), "after_action", sa.Type)
			break
		}
	}

	result.Duration = o.now().Sub(start)
	result.CompletedAt = o.now()

	if result.SuccessfulActions > 0 {
		if err := fault.MarkRecovered(o.now()); err != nil {
			o.log.Error("Failed to mark fault recovered", err, "fault_id", fault.ID())
		}
		result.Success = true
		o.emitFaultUpdated(fault)
		o.emit(EventRecoverySuccessful, fault.ID(), o.resultPayload(result))
		return result
	}

	_ = fault.TransitionTo(valueobject.FaultFailed)
	result.Success = false
	result.Recommendations = []string{recommendManualIntervention}
	o.emitFaultUpdated(fault)
	o.emit(EventRecoveryFailed, fault.ID(), o.resultPayload(result))

	if fault.Severity() == valueobject.SeverityCritical {
		o.emit(EventAdminAlert, fault.ID(), map[string]interface{}{
			"fault_type": fault.Type(),
			"service_id": fault.ServiceID(),
			"severity":   fault.Severity().String(),
			"message":    fmt.Sprintf("critical fault %s on %s was not recovered automatically", fault.Type(), fault.ServiceID()),
		})
	}
	return result
}

// runAction drives one action through its retry loop. Cancellation is
// checked at every attempt boundary; rollback failures are logged only.
func (o *Orchestrator) runAction(ctx context.Context, fault *entity.Fault, action *entity.RecoveryAction, sa StrategyAction) (succeeded, cancelled bool) {
	for attempt := 1; attempt <= sa.MaxRetries; attempt++ {
		if ctxDone(ctx) {
			return false, true
		}

		action.Begin(o.now())
		o.emitActionUpdated(fault, action)

		err := o.executor.Execute(ctx, fault, action)
		if err == nil {
			action.Complete(o.now())
			o.emitActionUpdated(fault, action)
			return true, false
		}

		action.RecordFailure(o.now(), err.Error())
		o.emitActionUpdated(fault, action)
		o.log.Warn("Recovery action attempt failed",
			"fault_id", fault.ID(),
			"action_type", action.Type(),
			"attempt", attempt,
			"max_retries", sa.MaxRetries,
			"error", err.Error(),
		)

		if action.HasRollback() {
			if rbErr := o.executor.Rollback(ctx, fault, action.RollbackAction()); rbErr != nil {
				o.log.Error("Rollback action failed", rbErr, "fault_id", fault.ID(), "rollback_type", action.RollbackAction())
			}
		}

		if attempt < sa.MaxRetries {
			if err := o.sleeper.Sleep(ctx, backoffDelay(sa, attempt)); err != nil {
				return false, true
			}
		}
	}
	return false, false
}

func (o *Orchestrator) finishCancelled(fault *entity.Fault, result Result, start time.Time) Result {
	_ = fault.TransitionTo(valueobject.FaultCancelled)
	result.Success = false
	result.Recommendations = []string{recommendCancelled}
	result.Duration = o.now().Sub(start)
	result.CompletedAt = o.now()
	o.emitFaultUpdated(fault)
	o.log.Info("Recovery cancelled", "fault_id", fault.ID(), "actions_taken", result.ActionsTaken)
	return result
}

// backoffDelay computes the wait before the next attempt: delayMs doubled
// per failed attempt in exponential mode, constant otherwise.
func backoffDelay(sa StrategyAction, attempt int) time.Duration {
	delay := time.Duration(sa.DelayMs) * time.Millisecond
	if sa.ExponentialBackoff && attempt > 1 {
		delay *= time.Duration(1 << (attempt - 1))
	}
	return delay
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (o *Orchestrator) emit(eventType, faultID string, payload map[string]interface{}) {
	o.notify(Event{
		Type:      eventType,
		FaultID:   faultID,
		Payload:   payload,
		Timestamp: o.now(),
	})
}

func (o *Orchestrator) emitFaultUpdated(fault *entity.Fault) {
	o.emit(EventFaultUpdated, fault.ID(), map[string]interface{}{
		"fault_type": fault.Type(),
		"service_id": fault.ServiceID(),
		"status":     fault.Status().String(),
		"severity":   fault.Severity().String(),
	})
}

func (o *Orchestrator) emitActionUpdated(fault *entity.Fault, action *entity.RecoveryAction) {
	o.emit(EventActionUpdated, fault.ID(), map[string]interface{}{
		"action_id":   action.ID(),
		"action_type": action.Type(),
		"status":      action.Status().String(),
		"retry_count": action.RetryCount(),
	})
}

func (o *Orchestrator) resultPayload(r Result) map[string]interface{} {
	return map[string]interface{}{
		"success":            r.Success,
		"fault_type":         r.FaultType,
		"service_id":         r.ServiceID,
		"actions_taken":      r.ActionsTaken,
		"successful_actions": r.SuccessfulActions,
		"failed_actions":     r.FailedActions,
		"duration_ms":        r.Duration.Milliseconds(),
		"recommendations":    r.Recommendations,
	}
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
