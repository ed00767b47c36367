// Package policygradient implements the GPOMDP policy gradient
// algorithm with linear function approximation
package policygradient

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/agent/policy"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/solver"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

// InitialStd is the standard deviation of a newly created policy in
// every state
const InitialStd = 0.25

// GPOMDP implements the GPOMDP policy gradient estimator with the
// optimal per-component, per-timestep baseline
// (https://arxiv.org/abs/1106.0665). The policy is a linear Gaussian
// whose log standard deviation is also a linear function of the state.
type GPOMDP struct {
	policy   *policy.Gaussian
	solver   *solver.Solver
	discount float64
	maximize bool
}

// New creates a new GPOMDP agent for an environment with continuous
// actions
func New(desc environment.Descriptor, c Config, seed uint64) (*GPOMDP,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if desc.Action.Discrete() {
		return nil, fmt.Errorf("new: GPOMDP requires continuous actions")
	}

	features, actionDims := desc.Observation.Dim(), desc.Action.Dim()
	mean, err := approximator.NewLinear(approximator.Generic, features,
		actionDims, nil)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	logStd, err := approximator.NewLinear(approximator.Generic, features,
		actionDims, nil)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	// Bias units hold the initial log standard deviation
	w := logStd.Params()
	for i := 0; i < actionDims; i++ {
		w[i*(features+1)+features] = math.Log(InitialStd)
	}

	p, err := policy.NewStateStdGaussian(mean, logStd, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	return &GPOMDP{
		policy:   p,
		solver:   c.Solver.Clone(),
		discount: desc.Discount,
		maximize: c.Maximize,
	}, nil
}

// Policy returns the policy of the agent
func (g *GPOMDP) Policy() agent.Policy { return g.policy }

// Fit takes a single step along the GPOMDP estimate of the policy
// gradient computed from the episodes in the dataset. An episode cut
// off by the end of the dataset is treated as complete.
func (g *GPOMDP) Fit(dataset []ts.Transition) error {
	episodes := split(dataset)
	if len(episodes) == 0 {
		return nil
	}

	grad, err := g.gradient(episodes)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	// Solvers descend
	if g.maximize {
		for i := range grad {
			grad[i] = -grad[i]
		}
	}

	params := g.policy.Params()
	if err := g.solver.Step(params, grad); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	if err := g.policy.SetParams(params); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	return nil
}

// gradient estimates the gradient of the expected discounted return
func (g *GPOMDP) gradient(episodes [][]ts.Transition) ([]float64, error) {
	n := g.policy.NumParams()

	horizon := 0
	for _, ep := range episodes {
		if len(ep) > horizon {
			horizon = len(ep)
		}
	}

	// For each episode and timestep t, the cumulative score function
	// Σ_{k≤t} ∇ log π(a_k|s_k) and the discounted reward γᵗ r_t
	scores := make([][][]float64, len(episodes))
	rewards := make([][]float64, len(episodes))

	// Numerator and denominator of the baseline for each timestep and
	// component
	num := make([][]float64, horizon)
	den := make([][]float64, horizon)
	for t := range num {
		num[t] = make([]float64, n)
		den[t] = make([]float64, n)
	}

	for i, ep := range episodes {
		cumulative := make([]float64, n)
		scores[i] = make([][]float64, len(ep))
		rewards[i] = make([]float64, len(ep))

		for t, step := range ep {
			if err := g.policy.GradLogProb(cumulative, step.State, step.Action,
				1); err != nil {
				return nil, err
			}
			scores[i][t] = append([]float64(nil), cumulative...)
			rewards[i][t] = math.Pow(g.discount, float64(t)) * step.Reward

			for k, s := range cumulative {
				num[t][k] += s * s * rewards[i][t]
				den[t][k] += s * s
			}
		}
	}

	grad := make([]float64, n)
	for i := range episodes {
		for t := range scores[i] {
			for k, s := range scores[i][t] {
				baseline := 0.0
				if den[t][k] > 0 {
					baseline = num[t][k] / den[t][k]
				}
				grad[k] += s * (rewards[i][t] - baseline)
			}
		}
	}
	for k := range grad {
		grad[k] /= float64(len(episodes))
	}
	return grad, nil
}

// split splits a dataset into episodes at transitions marked Last
func split(dataset []ts.Transition) [][]ts.Transition {
	var episodes [][]ts.Transition
	start := 0
	for i, t := range dataset {
		if t.Last {
			episodes = append(episodes, dataset[start:i+1])
			start = i + 1
		}
	}
	if start < len(dataset) {
		episodes = append(episodes, dataset[start:])
	}
	return episodes
}
