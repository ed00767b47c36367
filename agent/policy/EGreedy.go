package policy

import (
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/utils/matutils"
)

// EGreedy implements an ε-greedy policy over a linear action-value
// function. ε decays linearly from its initial value to a minimum
// value over a fixed number of action selections.
type EGreedy struct {
	q *approximator.Q

	epsilon    float64
	epsilonMin float64
	decaySteps int
	steps      int

	deterministic bool
	seed          uint64
	source        rand.Source
}

// NewEGreedy returns a new EGreedy policy selecting actions based on
// the action values of q
func NewEGreedy(q *approximator.Q, epsilon, epsilonMin float64,
	decaySteps int, seed uint64) (*EGreedy, error) {
	if q == nil {
		return nil, fmt.Errorf("newEGreedy: action-value function cannot " +
			"be nil")
	}
	if epsilon < 0 || epsilon > 1 || epsilonMin < 0 || epsilonMin > epsilon {
		return nil, fmt.Errorf("newEGreedy: need 0 ≤ ε_min (%v) ≤ ε (%v) ≤ 1",
			epsilonMin, epsilon)
	}
	if decaySteps < 1 {
		return nil, fmt.Errorf("newEGreedy: decay steps must be positive, "+
			"got %v", decaySteps)
	}

	return &EGreedy{
		q:          q,
		epsilon:    epsilon,
		epsilonMin: epsilonMin,
		decaySteps: decaySteps,
		seed:       seed,
		source:     rand.NewSource(seed),
	}, nil
}

// Q returns the action-value function of the policy. The learner and
// the policy share these weights.
func (p *EGreedy) Q() *approximator.Q { return p.q }

// Epsilon returns the current probability of selecting a random action
func (p *EGreedy) Epsilon() float64 {
	if p.deterministic {
		return 0
	}
	frac := math.Min(1, float64(p.steps)/float64(p.decaySteps))
	return p.epsilon - frac*(p.epsilon-p.epsilonMin)
}

// SelectAction selects an action from the ε-greedy policy
func (p *EGreedy) SelectAction(obs mat.Vector) (*mat.VecDense, error) {
	values, err := p.q.Values(obs)
	if err != nil {
		return nil, fmt.Errorf("selectAction: %w", err)
	}
	greedy := matutils.MaxVec(mat.NewVecDense(len(values), values))

	if p.deterministic {
		return mat.NewVecDense(1, []float64{float64(greedy)}), nil
	}

	// Calculate the ε probability of choosing any action at random
	e := p.Epsilon()
	p.steps++
	probs := make([]float64, len(values))
	for i := range probs {
		probs[i] = e / float64(len(values))
	}
	probs[greedy] += 1.0 - e

	dist := distuv.NewCategorical(probs, p.source)
	return mat.NewVecDense(1, []float64{dist.Rand()}), nil
}

// Clone returns a deep copy of the policy
func (p *EGreedy) Clone(seed uint64) Policy {
	clone := *p
	clone.q = p.q.Clone()
	clone.seed = seed
	clone.source = rand.NewSource(seed)
	return &clone
}

// Deterministic returns a greedy copy of the policy
func (p *EGreedy) Deterministic() Policy {
	clone := p.Clone(p.seed).(*EGreedy)
	clone.deterministic = true
	return clone
}

// IsDeterministic returns whether the policy always acts greedily
func (p *EGreedy) IsDeterministic() bool { return p.deterministic }

type eGreedyState struct {
	Q          approximator.QRecord `json:"q"`
	Epsilon    float64              `json:"epsilon"`
	EpsilonMin float64              `json:"epsilon_min"`
	DecaySteps int                  `json:"epsilon_decay_steps"`
	Steps      int                  `json:"steps"`
}

// Record returns the serializable form of the policy
func (p *EGreedy) Record() (Record, error) {
	return newRecord(EGreedyType, p.deterministic, p.seed, eGreedyState{
		p.q.Record(), p.epsilon, p.epsilonMin, p.decaySteps, p.steps,
	})
}

func eGreedyFromRecord(r Record) (*EGreedy, error) {
	var state eGreedyState
	if err := json.Unmarshal(r.State, &state); err != nil {
		return nil, err
	}

	q, err := approximator.QFromRecord(state.Q)
	if err != nil {
		return nil, err
	}

	p, err := NewEGreedy(q, state.Epsilon, state.EpsilonMin, state.DecaySteps,
		r.Seed)
	if err != nil {
		return nil, err
	}
	p.steps = state.Steps
	p.deterministic = r.Deterministic
	return p, nil
}
