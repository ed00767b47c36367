package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultURL is the base URL of the tracking service used when none is
// configured
const DefaultURL = "http://localhost:8000"

// HTTP is a Recorder posting records as JSON to a tracking service at
// {BaseURL}/api/models and {BaseURL}/api/logs
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP returns a new HTTP Recorder. Requests time out after timeout;
// a timeout of 0 disables the timeout.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// RegisterModel posts a model registration
func (h *HTTP) RegisterModel(ctx context.Context, m ModelRecord) error {
	if err := h.post(ctx, "/api/models", m); err != nil {
		return fmt.Errorf("registerModel: %w", err)
	}
	return nil
}

// Log posts a batch of log records
func (h *HTTP) Log(ctx context.Context, logs []LogRecord) error {
	if err := h.post(ctx, "/api/logs", logs); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (h *HTTP) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		h.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%v: status %v: %s", path, resp.StatusCode,
			bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
