// Package notify delivers run summaries to an operator webhook. Delivery is
// fire-and-forget from the caller's perspective: retries and the circuit
// breaker live inside, and failures are logged, never propagated.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Nop is the notifier used when no webhook is configured
type Nop struct{}

// Notify logs the summary and discards it
func (Nop) Notify(ctx context.Context, subject, body string) {
	slog.Debug("Notification suppressed (no webhook configured)", "subject", subject)
}

// WebhookNotifier posts run summaries to a webhook URL
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	retry      RetryStrategy
	breaker    *CircuitBreaker
}

// NewWebhookNotifier creates a webhook notifier with default retry policy
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry:   DefaultRetryStrategy(),
		breaker: NewCircuitBreaker(),
	}
}

// Notify delivers one notification with retries behind the circuit breaker
func (n *WebhookNotifier) Notify(ctx context.Context, subject, body string) {
	if !n.breaker.CanAttempt() {
		slog.Warn("Circuit breaker open, dropping notification",
			"subject", subject,
			"circuit_state", n.breaker.StateName(),
		)
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"text": subject + "\n" + body,
		"metadata": map[string]interface{}{
			"service":   "starling",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		slog.Error("Failed to marshal notification payload", "error", err)
		return
	}

	for attempt := 1; attempt <= n.retry.MaxAttempts; attempt++ {
		statusCode, err := n.deliver(ctx, payload)
		if err == nil && statusCode >= 200 && statusCode < 300 {
			n.breaker.RecordSuccess()
			slog.Debug("Notification delivered", "subject", subject, "attempt", attempt)
			return
		}

		if !n.retry.ShouldRetry(attempt, statusCode, err) {
			break
		}

		delay := n.retry.Delay(attempt)
		slog.Warn("Notification delivery failed, retrying",
			"subject", subject,
			"attempt", attempt,
			"status_code", statusCode,
			"next_retry_ms", delay.Milliseconds(),
			"error", errString(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			n.breaker.RecordFailure()
			return
		}
	}

	n.breaker.RecordFailure()
	slog.Error("Notification delivery failed", "subject", subject, "attempts", n.retry.MaxAttempts)
}

// deliver performs a single webhook POST
func (n *WebhookNotifier) deliver(ctx context.Context, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused
	_, _ = io.CopyN(io.Discard, resp.Body, 1024)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return resp.StatusCode, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
