package recovery

import (
	"context"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
)

// StrategyAction describes one candidate remediation step inside a strategy.
// Condition, when set, must hold for the action to be selected.
type StrategyAction struct {
	Type               string
	Priority           int
	MaxRetries         int
	DelayMs            int
	ExponentialBackoff bool
	Parameters         map[string]interface{}
	RollbackAction     string
	Condition          func(*entity.Fault) bool
}

// Strategy is the ordered remediation plan for one fault type, gated by a
// minimum severity. Strategies are immutable once fetched for an execution.
type Strategy struct {
	FaultType   string
	MinSeverity valueobject.Severity
	Actions     []StrategyAction
}

// Result is the terminal outcome of one ExecuteRecovery invocation.
type Result struct {
	Success           bool
	FaultID           string
	FaultType         string
	ServiceID         string
	ActionsTaken      int
	SuccessfulActions int
	FailedActions     int
	Duration          time.Duration
	Recommendations   []string
	CompletedAt       time.Time
}

// Lifecycle event types emitted by the orchestrator.
const (
	EventFaultUpdated       = "fault_updated"
	EventActionUpdated      = "action_updated"
	EventRecoverySuccessful = "recovery_successful"
	EventRecoveryFailed     = "recovery_failed"
	EventRecoverySkipped    = "recovery_skipped"
	EventRecoveryQueueFull  = "recovery_queue_full"
	EventAdminAlert         = "admin_alert"
)

// Event is a lifecycle notification. Events for one fault are emitted in
// happens-before order relative to that fault's own lifecycle.
type Event struct {
	Type      string
	FaultID   string
	Payload   map[string]interface{}
	Timestamp time.Time
}

// ActionExecutor performs the real remediation work for an action type.
// Implementations live in the infrastructure layer; tests inject
// deterministic fakes.
type ActionExecutor interface {
	Execute(ctx context.Context, fault *entity.Fault, action *entity.RecoveryAction) error
	Rollback(ctx context.Context, fault *entity.Fault, rollbackType string) error
}

// HealthProbe re-checks the triggering condition after a successful action.
// Returning true means remaining lower-priority actions can be skipped.
type HealthProbe interface {
	Healthy(ctx context.Context, fault *entity.Fault) bool
}

// Sleeper waits between retry attempts. The real implementation honours
// context cancellation; tests record requested delays instead of waiting.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}
