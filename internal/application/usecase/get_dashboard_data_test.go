package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/internal/recovery"
	"github.com/dreschagin/selfheal-core/internal/sla"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

type memoryCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{store: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.store[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.store[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.store, key)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) DeletePattern(context.Context, string) error { return nil }
func (c *memoryCache) Close() error                                { return nil }

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}

type noopExecutor struct{}

func (noopExecutor) Execute(context.Context, *entity.Fault, *entity.RecoveryAction) error {
	return nil
}
func (noopExecutor) Rollback(context.Context, *entity.Fault, string) error { return nil }

type alwaysHealthy struct{}

func (alwaysHealthy) Healthy(context.Context, *entity.Fault) bool { return true }

func newDashboardFixture(cache *memoryCache) (*GetDashboardDataUseCase, *recovery.Orchestrator, *sla.Evaluator) {
	log := logger.New("error")
	orch := recovery.NewOrchestrator(log, noopExecutor{}, alwaysHealthy{}, nil, nil, 2)
	evaluator := sla.NewEvaluator(log, nil)
	status := NewGetStatusUseCase(orch, evaluator, nil)
	feed := NewEventFeed()

	// A typed nil in the port interface would not compare equal to nil.
	if cache == nil {
		return NewGetDashboardDataUseCase(status, orch, evaluator, feed, nil, log), orch, evaluator
	}
	return NewGetDashboardDataUseCase(status, orch, evaluator, feed, cache, log), orch, evaluator
}

func TestGetDashboardData_ComputesWithoutCache(t *testing.T) {
	uc, _, _ := newDashboardFixture(nil)

	data, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if data.Status == nil {
		t.Fatal("expected status in dashboard data")
	}
	if data.Trend != "stable" {
		t.Errorf("expected initial trend stable, got %s", data.Trend)
	}
	if data.FromCache {
		t.Error("expected fresh computation")
	}
}

func TestGetDashboardData_CacheHitSkipsRecompute(t *testing.T) {
	cache := newMemoryCache()
	uc, _, _ := newDashboardFixture(cache)

	if _, err := uc.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// Wait for the async cache write.
	deadline := time.Now().Add(2 * time.Second)
	for !cache.has(DashboardCacheKey) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !cache.has(DashboardCacheKey) {
		t.Fatal("expected dashboard snapshot to be cached")
	}

	data, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !data.FromCache {
		t.Error("expected cached snapshot on second call")
	}
}

func TestGetDashboardData_InvalidateEvictsSnapshot(t *testing.T) {
	cache := newMemoryCache()
	uc, _, _ := newDashboardFixture(cache)

	if err := cache.Set(context.Background(), DashboardCacheKey, map[string]string{"stale": "snapshot"}); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	uc.Invalidate(context.Background())
	if cache.has(DashboardCacheKey) {
		t.Error("expected cache key to be evicted")
	}
}

func TestGetDashboardData_TrendDeclinesOutsideDeadband(t *testing.T) {
	uc, orch, _ := newDashboardFixture(nil)

	if _, err := uc.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// A critical fault drops the health score well past the ±5 deadband.
	fault, err := entity.NewFault("service_unavailable", "svc-1", valueobject.SeverityCritical, "down", nil, nil)
	if err != nil {
		t.Fatalf("failed to create fault: %v", err)
	}
	orch.Ledger().Insert(fault)

	data, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if data.Trend != "declining" {
		t.Errorf("expected declining trend, got %s", data.Trend)
	}

	// Unchanged state stays inside the deadband.
	data, err = uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if data.Trend != "stable" {
		t.Errorf("expected stable trend, got %s", data.Trend)
	}
}
