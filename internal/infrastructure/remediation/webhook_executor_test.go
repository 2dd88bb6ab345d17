package remediation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

func testFault(t *testing.T) *entity.Fault {
	t.Helper()
	fault, err := entity.NewFault(
		"performance_degradation",
		"api-server",
		valueobject.SeverityHigh,
		"latency spike",
		map[string]float64{"response_time": 2000},
		nil,
	)
	if err != nil {
		t.Fatalf("failed to create fault: %v", err)
	}
	return fault
}

func testAction(t *testing.T) *entity.RecoveryAction {
	t.Helper()
	action, err := entity.NewRecoveryAction("clear_cache", 1, map[string]interface{}{"scope": "all"}, "")
	if err != nil {
		t.Fatalf("failed to create action: %v", err)
	}
	return action
}

func TestWebhookExecutor_Execute(t *testing.T) {
	var received actionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected Authorization header: %s", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	executor, err := NewWebhookExecutor(server.URL, "secret", time.Second, logger.New("error"))
	if err != nil {
		t.Fatalf("NewWebhookExecutor() error = %v", err)
	}

	fault := testFault(t)
	if err := executor.Execute(context.Background(), fault, testAction(t)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if received.Action != "clear_cache" {
		t.Errorf("expected action clear_cache, got %s", received.Action)
	}
	if received.FaultID != fault.ID() {
		t.Errorf("expected fault id %s, got %s", fault.ID(), received.FaultID)
	}
	if received.Rollback {
		t.Error("execute request must not be marked as rollback")
	}
	if received.Parameters["scope"] != "all" {
		t.Errorf("expected parameters to be forwarded, got %v", received.Parameters)
	}
}

func TestWebhookExecutor_Rollback(t *testing.T) {
	var received actionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	executor, err := NewWebhookExecutor(server.URL, "", time.Second, logger.New("error"))
	if err != nil {
		t.Fatalf("NewWebhookExecutor() error = %v", err)
	}

	if err := executor.Rollback(context.Background(), testFault(t), "restore_cache"); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	if received.Action != "restore_cache" {
		t.Errorf("expected rollback action restore_cache, got %s", received.Action)
	}
	if !received.Rollback {
		t.Error("rollback request must be marked as rollback")
	}
}

func TestWebhookExecutor_AgentErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "action not supported", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	executor, err := NewWebhookExecutor(server.URL, "", time.Second, logger.New("error"))
	if err != nil {
		t.Fatalf("NewWebhookExecutor() error = %v", err)
	}

	if err := executor.Execute(context.Background(), testFault(t), testAction(t)); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestWebhookExecutor_RequiresEndpoint(t *testing.T) {
	if _, err := NewWebhookExecutor("", "", time.Second, logger.New("error")); err == nil {
		t.Error("expected error for empty endpoint")
	}
}
