// Package tracker implements Recorders, which report the progress of
// training runs to an external tracking service
package tracker

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Status is the status of a registered model
type Status string

const (
	Running  Status = "running"
	Finished Status = "finished"
)

// Recorder reports training runs. Recording is best-effort: callers
// log errors returned by a Recorder and carry on.
type Recorder interface {
	// RegisterModel registers a model with the tracking service, or
	// updates the registration of a model with the same ID
	RegisterModel(ctx context.Context, m ModelRecord) error

	// Log reports a batch of log records
	Log(ctx context.Context, logs []LogRecord) error
}

// ModelRecord registers a model trained in a run
type ModelRecord struct {
	ID      string `json:"id"`
	RunID   string `json:"run_id"`
	ModelID string `json:"model_id"`

	// Hyperparameters holds the JSON encoding of the model's persisted
	// hyperparameters
	Hyperparameters string `json:"hyperparameters"`

	// Policy holds the JSON encoding of the model's policy, or "{}"
	// if it has not been trained
	Policy string `json:"policy"`

	Status    Status    `json:"status"`
	CreatedOn time.Time `json:"created_on"`
}

// LogRecord reports one evaluation episode of a model. State, Action,
// and Score hold compressed trajectories, see Compress.
type LogRecord struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	RunModelID string    `json:"run_model_id"`
	Phase      string    `json:"phase"`
	Epoch      string    `json:"epoch"`
	Iteration  int       `json:"iteration"`
	Severity   string    `json:"severity"`
	Log        string    `json:"log"`
	State      string    `json:"state"`
	Action     string    `json:"action"`
	Score      string    `json:"score"`
	Reward     float64   `json:"reward"`
	CreatedOn  time.Time `json:"created_on"`
}

// Compress encodes v as JSON, compresses it with zlib, and returns the
// result base64 encoded
func Compress(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("compress: %w", err)
	}

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("compress: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress reverses Compress, decoding the result into v
func Decompress(s string, v any) error {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}

	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	return json.Unmarshal(raw, v)
}
