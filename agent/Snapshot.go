package agent

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/agent/policy"
)

// Snapshot is a copy of a policy taken at some point during training.
// It shares no state with the policy it was taken from, so further
// training never changes a Snapshot.
type Snapshot struct {
	policy Policy
	seed   uint64
}

// NewSnapshot takes a Snapshot of p. The Snapshot draws random numbers
// from a source seeded with seed.
func NewSnapshot(p Policy, seed uint64) *Snapshot {
	return &Snapshot{p.Clone(seed), seed}
}

// SelectAction selects an action with the snapshotted policy
func (s *Snapshot) SelectAction(obs mat.Vector) (*mat.VecDense, error) {
	return s.policy.SelectAction(obs)
}

// Collapse returns a Snapshot of the deterministic form of the policy.
// The receiver is unchanged.
func (s *Snapshot) Collapse() *Snapshot {
	return &Snapshot{s.policy.Deterministic(), s.seed}
}

// Deterministic returns whether the snapshotted policy is deterministic
func (s *Snapshot) Deterministic() bool {
	return s.policy.IsDeterministic()
}

// Clone returns a copy of the Snapshot drawing random numbers from a
// new source seeded with seed
func (s *Snapshot) Clone(seed uint64) *Snapshot {
	return &Snapshot{s.policy.Clone(seed), seed}
}

// Seed returns the seed of the Snapshot's random source
func (s *Snapshot) Seed() uint64 { return s.seed }

// Record returns the serializable form of the snapshotted policy
func (s *Snapshot) Record() (policy.Record, error) {
	return s.policy.Record()
}

// SnapshotFromRecord restores a Snapshot from a policy record
func SnapshotFromRecord(r policy.Record) (*Snapshot, error) {
	p, err := policy.FromRecord(r)
	if err != nil {
		return nil, fmt.Errorf("snapshotFromRecord: %w", err)
	}
	return &Snapshot{p, r.Seed}, nil
}
