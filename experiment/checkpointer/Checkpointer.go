// Package checkpointer persists the state of training runs: the
// variant, its persisted hyperparameters, and policy snapshots. Live
// agents and environments are never persisted.
package checkpointer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/agent/policy"
)

// Record is the persisted state of a run at some epoch
type Record struct {
	ID      string `json:"id"`
	RunID   string `json:"run_id"`
	Variant string `json:"variant"`
	Epoch   int    `json:"epoch"`

	// Params holds the JSON encoding of the persisted hyperparameter
	// tree
	Params json.RawMessage `json:"params"`

	Policy policy.Record `json:"policy"`

	// Agent optionally describes the agent the policy was taken from
	Agent *agent.TypedConfig `json:"agent,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewRecord returns a new Record of a policy snapshot
func NewRecord(runID, variant string, epoch int, params any,
	s *agent.Snapshot) (Record, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return Record{}, fmt.Errorf("newRecord: %w", err)
	}
	p, err := s.Record()
	if err != nil {
		return Record{}, fmt.Errorf("newRecord: %w", err)
	}

	return Record{
		ID:        uuid.NewString(),
		RunID:     runID,
		Variant:   variant,
		Epoch:     epoch,
		Params:    data,
		Policy:    p,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Snapshot restores the policy snapshot of the Record
func (r Record) Snapshot() (*agent.Snapshot, error) {
	return agent.SnapshotFromRecord(r.Policy)
}

// Store persists Records
type Store interface {
	// Init prepares the Store for use
	Init(ctx context.Context) error

	// Save saves a Record, replacing any Record with the same ID
	Save(ctx context.Context, r Record) error

	// Load returns the Record with the given ID and whether it exists
	Load(ctx context.Context, id string) (Record, bool, error)

	// List returns the Records of a run ordered by epoch
	List(ctx context.Context, runID string) ([]Record, error)

	Close() error
}

// Kind is a kind of Store
type Kind string

const (
	MemoryKind Kind = "memory"
	SQLiteKind Kind = "sqlite"
)

// NewStore returns a new, uninitialized Store of the given kind. Path
// is the database file of an SQLite Store.
func NewStore(kind Kind, path string) (Store, error) {
	switch kind {
	case MemoryKind, "":
		return NewMemory(), nil
	case SQLiteKind:
		return NewSQLite(path), nil
	}
	return nil, fmt.Errorf("newStore: no such store %q", kind)
}
