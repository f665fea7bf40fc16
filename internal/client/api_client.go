package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"Mansoor88-6/interaction-insights/internal/models"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const trackPath = "/api/track"

// APIClient ships event batches to the ingestion server
type APIClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger

	beacons sync.WaitGroup
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string, timeout time.Duration, logger *zap.Logger) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// SendBatch posts events as a JSON array and returns the server's ledger.
// There is no retry; a failed batch is the caller's to drop.
func (c *APIClient) SendBatch(ctx context.Context, events []models.InteractionEvent) (*models.IngestResponse, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("cannot send empty batch")
	}

	jsonData, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+trackPath, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Failed to send batch",
			zap.Error(err),
			zap.Int("event_count", len(events)),
			zap.Duration("duration", duration),
		)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var result models.IngestResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		c.logger.Info("Batch sent",
			zap.Int("event_count", len(events)),
			zap.Int("processed", result.Processed),
			zap.Int("failed", result.Failed),
			zap.Duration("duration", duration),
		)
		return &result, nil
	}

	return nil, c.statusError(resp.StatusCode, body)
}

func (c *APIClient) statusError(status int, body []byte) error {
	errMsg := fmt.Sprintf("backend returned status %d: %s", status, string(body))

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Error("Authentication failed",
			zap.Int("status_code", status),
			zap.String("response", string(body)),
		)
		return &AuthError{Message: errMsg, StatusCode: status}
	case http.StatusTooManyRequests:
		c.logger.Warn("Rate limited", zap.Int("status_code", status))
		return &RateLimitError{Message: errMsg, StatusCode: status}
	case http.StatusBadRequest:
		c.logger.Error("Invalid request",
			zap.Int("status_code", status),
			zap.String("response", string(body)),
		)
		return &BadRequestError{Message: errMsg, StatusCode: status}
	default:
		c.logger.Error("Backend error",
			zap.Int("status_code", status),
			zap.String("response", string(body)),
		)
		return &BackendError{Message: errMsg, StatusCode: status}
	}
}

// Beacon dispatches events without waiting for the outcome. It reports
// whether a send was started, never whether it arrived.
func (c *APIClient) Beacon(events []models.InteractionEvent) bool {
	if len(events) == 0 {
		return false
	}

	c.beacons.Add(1)
	go func() {
		defer c.beacons.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if _, err := c.SendBatch(ctx, events); err != nil {
			c.logger.Debug("Beacon not delivered", zap.Error(err))
		}
	}()
	return true
}

// Close waits up to timeout for dispatched beacons
func (c *APIClient) Close(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		c.beacons.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		c.logger.Warn("Beacons still in flight at shutdown")
	}
}

// HealthCheck checks if the backend is reachable
func (c *APIClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// Error types
type AuthError struct {
	Message    string
	StatusCode int
}

func (e *AuthError) Error() string {
	return e.Message
}

type RateLimitError struct {
	Message    string
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return e.Message
}

type BadRequestError struct {
	Message    string
	StatusCode int
}

func (e *BadRequestError) Error() string {
	return e.Message
}

type BackendError struct {
	Message    string
	StatusCode int
}

func (e *BackendError) Error() string {
	return e.Message
}
