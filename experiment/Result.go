package experiment

import (
	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/generator"
	h "github.com/samuelfneumann/autolearn/hyperparam"
)

// Result is the outcome of a run. A Result which was never Attempted is
// empty: the run was rejected before anything happened. An Attempted
// Result which is not Successful failed part way.
type Result struct {
	Attempted  bool
	Successful bool
	Cancelled  bool

	Variant generator.Variant
	RunID   string

	// Snapshot is the snapshot of the final policy, evaluated last
	Snapshot *agent.Snapshot

	History *History

	// Params is the persisted hyperparameter tree of the run
	Params *h.Set

	Err error
}

// Empty returns whether the run was never attempted
func (r Result) Empty() bool {
	return !r.Attempted
}

func (r Result) outcome() string {
	switch {
	case !r.Attempted:
		return "empty"
	case !r.Successful:
		return "failed"
	case r.Cancelled:
		return "cancelled"
	}
	return "finished"
}
