package remediation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/entity"
	"github.com/dreschagin/selfheal-core/pkg/logger"
)

const defaultRequestTimeout = 30 * time.Second

// WebhookExecutor выполняет действия восстановления через HTTP webhook
// внешнего remediation-агента. Реализует recovery.ActionExecutor.
type WebhookExecutor struct {
	endpoint  string
	authToken string
	client    *http.Client
	logger    *logger.Logger
}

// actionRequest описывает формат запроса к агенту
type actionRequest struct {
	Action     string                 `json:"action"`
	FaultID    string                 `json:"fault_id"`
	FaultType  string                 `json:"fault_type"`
	ServiceID  string                 `json:"service_id"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Rollback   bool                   `json:"rollback,omitempty"`
}

// NewWebhookExecutor создает новый webhook executor
func NewWebhookExecutor(endpoint, authToken string, timeout time.Duration, log *logger.Logger) (*WebhookExecutor, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("webhook endpoint is required")
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &WebhookExecutor{
		endpoint:  endpoint,
		authToken: authToken,
		client:    &http.Client{Timeout: timeout},
		logger:    log,
	}, nil
}

// Execute отправляет действие восстановления агенту
func (e *WebhookExecutor) Execute(ctx context.Context, fault *entity.Fault, action *entity.RecoveryAction) error {
	req := actionRequest{
		Action:     action.Type(),
		FaultID:    fault.ID(),
		FaultType:  fault.Type(),
		ServiceID:  fault.ServiceID(),
		Parameters: action.Parameters(),
	}

	if err := e.post(ctx, req); err != nil {
		return fmt.Errorf("failed to execute action %s: %w", action.Type(), err)
	}

	e.logger.Debug("Remediation action dispatched",
		"action", action.Type(),
		"fault_id", fault.ID(),
	)
	return nil
}

// Rollback отправляет компенсирующее действие агенту
func (e *WebhookExecutor) Rollback(ctx context.Context, fault *entity.Fault, rollbackType string) error {
	req := actionRequest{
		Action:    rollbackType,
		FaultID:   fault.ID(),
		FaultType: fault.Type(),
		ServiceID: fault.ServiceID(),
		Rollback:  true,
	}

	if err := e.post(ctx, req); err != nil {
		return fmt.Errorf("failed to execute rollback %s: %w", rollbackType, err)
	}

	return nil
}

func (e *WebhookExecutor) post(ctx context.Context, payload actionRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.authToken)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("agent returned status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}
