package tracker

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samuelfneumann/autolearn/agent/policy"
)

// ModelID returns the model identifier reported for an environment: the
// lowercased final underscore-separated part of its name
func ModelID(envName string) string {
	parts := strings.Split(envName, "_")
	return strings.ToLower(parts[len(parts)-1])
}

// NewModelRecord returns the registration of a new, running model. The
// hyperparameters are JSON encoded.
func NewModelRecord(runID, envName string,
	hyperparameters any) (ModelRecord, error) {
	params, err := json.Marshal(hyperparameters)
	if err != nil {
		return ModelRecord{}, fmt.Errorf("newModelRecord: %w", err)
	}

	return ModelRecord{
		ID:              uuid.NewString(),
		RunID:           runID,
		ModelID:         ModelID(envName),
		Hyperparameters: string(params),
		Policy:          "{}",
		Status:          Running,
		CreatedOn:       time.Now().UTC(),
	}, nil
}

// Finish returns a copy of the registration marked finished, holding
// the final policy
func (m ModelRecord) Finish(p *policy.Record) (ModelRecord, error) {
	m.Status = Finished
	if p != nil {
		data, err := json.Marshal(p)
		if err != nil {
			return ModelRecord{}, fmt.Errorf("finish: %w", err)
		}
		m.Policy = string(data)
	}
	return m, nil
}

// Episode is the evaluation of a single episode
type Episode struct {
	States  [][]float64
	Actions [][]float64
	Score   float64
}

// NewLogRecords returns one log record per evaluated episode of an
// epoch of the model registered as m. Reward is the aggregate score of
// the epoch.
func NewLogRecords(m ModelRecord, epoch int, episodes []Episode,
	reward float64) ([]LogRecord, error) {
	now := time.Now().UTC()

	logs := make([]LogRecord, len(episodes))
	for i, ep := range episodes {
		state, err := Compress(ep.States)
		if err != nil {
			return nil, fmt.Errorf("newLogRecords: %w", err)
		}
		action, err := Compress(ep.Actions)
		if err != nil {
			return nil, fmt.Errorf("newLogRecords: %w", err)
		}
		score, err := Compress(ep.Score)
		if err != nil {
			return nil, fmt.Errorf("newLogRecords: %w", err)
		}

		logs[i] = LogRecord{
			ID:         uuid.NewString(),
			RunID:      m.RunID,
			RunModelID: m.ID,
			Phase:      "test",
			Epoch:      fmt.Sprint(epoch),
			Iteration:  i,
			Severity:   "info",
			Log:        "Epoch finished.",
			State:      state,
			Action:     action,
			Score:      score,
			Reward:     reward,
			CreatedOn:  now,
		}
	}
	return logs, nil
}
