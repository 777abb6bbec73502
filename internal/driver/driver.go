// Package driver talks to the local browser-automation driver over its HTTP
// API. The scheduler core only sees the Execute call; everything behind the
// driver endpoint (profile windows, selectors, comment generation) is the
// driver's business.
package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dandantas/starling/internal/model"
)

const maxResponseBytes = 1024 * 1024

// Config holds the driver endpoint and the JSONPath expressions used to
// read its responses. Paths are configurable because driver builds differ
// in their response envelopes.
type Config struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	SuccessPath string
	CommentPath string
	ContentPath string
}

// Client is an HTTP client for the automation driver
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a driver client with connection pooling
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// engagementRequest is the wire shape sent to the driver
type engagementRequest struct {
	ExternalAccountID string `json:"external_account_id"`
	Action            string `json:"action"`
	CorrelationID     string `json:"correlation_id"`
	DelayMinSec       int    `json:"delay_min_sec,omitempty"`
	DelayMaxSec       int    `json:"delay_max_sec,omitempty"`
}

// Execute asks the driver to perform one engagement action and interprets
// its JSON reply through the configured JSONPath expressions
func (c *Client) Execute(ctx context.Context, profile model.Profile, action model.ActionType, correlationID string) (*model.SlotResult, error) {
	reqBody := engagementRequest{
		ExternalAccountID: profile.ExternalAccountID,
		Action:            string(action),
		CorrelationID:     correlationID,
	}
	if profile.DelayRange != nil {
		reqBody.DelayMinSec = profile.DelayRange.MinSec
		reqBody.DelayMaxSec = profile.DelayRange.MaxSec
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal driver request: %w", err)
	}

	url := c.cfg.BaseURL + "/api/v1/engagements"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create driver request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	slog.Debug("Calling automation driver",
		"url", url,
		"action", action,
		"external_account_id", profile.ExternalAccountID,
		"correlation_id", correlationID,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("driver request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read driver response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("driver returned status %d: %s", resp.StatusCode, truncateForError(body))
	}

	result, err := c.parseResult(body, action)
	if err != nil {
		return nil, err
	}

	slog.Debug("Driver call completed",
		"correlation_id", correlationID,
		"success", result.Success,
	)

	return result, nil
}

func truncateForError(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
