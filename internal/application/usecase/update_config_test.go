package usecase

import (
	"context"
	"testing"

	"github.com/dreschagin/selfheal-core/internal/recovery"
	"github.com/dreschagin/selfheal-core/internal/sla"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

func newConfigFixture(t *testing.T) (*UpdateConfigUseCase, *recovery.Orchestrator, *recordingPublisher) {
	t.Helper()
	log := logger.New("error")

	orch := recovery.NewOrchestrator(log, noopExecutor{}, alwaysHealthy{}, nil, nil, 3)
	evaluator := sla.NewEvaluator(log, nil)
	status := NewGetStatusUseCase(orch, evaluator, nil)
	feed := NewEventFeed()
	dashboard := NewGetDashboardDataUseCase(status, orch, evaluator, feed, nil, log)
	runtime := NewRuntimeConfig(defaultOptions())
	publisher := &recordingPublisher{}
	dispatcher := NewDispatcher(publisher, nil, feed, dashboard, runtime, "selfheal", log)

	return NewUpdateConfigUseCase(runtime, orch, dispatcher, log), orch, publisher
}

func TestUpdateConfig_AdjustsOrchestrator(t *testing.T) {
	uc, orch, publisher := newConfigFixture(t)

	applied, err := uc.Execute(context.Background(), map[string]interface{}{
		"maxConcurrentRecoveries": 8,
		"faultRecoveryEnabled":    false,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(applied) != 2 {
		t.Fatalf("expected 2 applied options, got %d", len(applied))
	}

	if orch.MaxConcurrent() != 8 {
		t.Errorf("expected concurrency cap 8, got %d", orch.MaxConcurrent())
	}
	if orch.Enabled() {
		t.Error("expected recovery to be disabled")
	}
	if !publisher.published("selfheal.config.updated") {
		t.Error("expected config.updated to be published")
	}
}

func TestUpdateConfig_InvalidValueRejected(t *testing.T) {
	uc, orch, _ := newConfigFixture(t)

	if _, err := uc.Execute(context.Background(), map[string]interface{}{
		"maxConcurrentRecoveries": 0,
	}); err == nil {
		t.Error("expected validation error")
	}
	if orch.MaxConcurrent() != 3 {
		t.Errorf("failed update must not change the orchestrator, got cap %d", orch.MaxConcurrent())
	}
}

func TestUpdateConfig_EmptyUpdateIsNoOp(t *testing.T) {
	uc, _, publisher := newConfigFixture(t)

	applied, err := uc.Execute(context.Background(), map[string]interface{}{
		"somethingElse": true,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected no applied options, got %v", applied)
	}
	if publisher.published("selfheal.config.updated") {
		t.Error("no-op update must not publish config.updated")
	}
}
