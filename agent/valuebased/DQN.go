// Package valuebased implements value-based control with linear
// function approximation
package valuebased

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/agent/policy"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/expreplay"
	"github.com/samuelfneumann/autolearn/solver"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

// DQN implements the DQN algorithm with a linear action-value function.
// Transitions are stored in a FIFO experience replay buffer; each call
// to Fit performs one gradient step on a sampled batch once the buffer
// holds the initial replay size, and the target weights are updated
// every TargetUpdateFrequency gradient steps.
type DQN struct {
	behaviour *policy.EGreedy
	q         *approximator.Q // Shared with the behaviour policy
	target    *approximator.Q

	solver *solver.Solver
	loss   approximator.Loss
	replay expreplay.ExperienceReplayer
	warmUp int

	discount              float64
	clipReward            bool
	targetUpdateFrequency int
	gradientSteps         int
}

// New creates a new DQN agent for an environment with discrete actions
func New(desc environment.Descriptor, c Config, seed uint64) (*DQN, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if !desc.Action.Discrete() || desc.Action.Dim() != 1 {
		return nil, fmt.Errorf("new: DQN requires 1-dimensional discrete " +
			"actions")
	}

	q, err := approximator.NewQ(c.Layout, desc.Observation.Dim(),
		desc.Action.N, nil)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	behaviour, err := policy.NewEGreedy(q, c.Epsilon, c.EpsilonMin,
		c.EpsilonDecaySteps, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	// The buffer cannot be sampled until it holds at least one batch
	minCapacity := c.InitialReplaySize
	if minCapacity < c.BatchSize {
		minCapacity = c.BatchSize
	}
	replay, err := expreplay.Config{
		SampleMethod:      expreplay.Uniform,
		SampleSize:        c.BatchSize,
		MaxReplayCapacity: c.MaxReplaySize,
		MinReplayCapacity: minCapacity,
	}.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	return &DQN{
		behaviour:             behaviour,
		q:                     q,
		target:                q.Clone(),
		solver:                c.Solver.Clone(),
		loss:                  c.Loss,
		replay:                replay,
		warmUp:                c.InitialReplaySize,
		discount:              desc.Discount,
		clipReward:            c.ClipReward,
		targetUpdateFrequency: c.TargetUpdateFrequency,
	}, nil
}

// Policy returns the ε-greedy behaviour policy
func (d *DQN) Policy() agent.Policy { return d.behaviour }

// WarmUp returns the number of transitions the replay buffer must hold
// before the agent learns
func (d *DQN) WarmUp() int { return d.warmUp }

// Fill adds transitions to the replay buffer
func (d *DQN) Fill(dataset []ts.Transition) error {
	for _, t := range dataset {
		if err := d.replay.Add(t); err != nil {
			return fmt.Errorf("fill: %w", err)
		}
	}
	return nil
}

// Fit adds the dataset to the replay buffer and, if the buffer is
// initialized, performs a single gradient step on a sampled batch
func (d *DQN) Fit(dataset []ts.Transition) error {
	if err := d.Fill(dataset); err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	batch, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	grad, err := d.gradient(batch)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	if err := d.solver.Step(d.q.Params(), grad); err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	d.gradientSteps++
	if d.gradientSteps%d.targetUpdateFrequency == 0 {
		if err := approximator.CopyWeights(d.target.Linear,
			d.q.Linear); err != nil {
			return fmt.Errorf("fit: %w", err)
		}
	}
	return nil
}

// gradient computes the gradient of the mean loss between the
// action-values of the batch and their Q-learning targets
func (d *DQN) gradient(batch []ts.Transition) ([]float64, error) {
	grad := make([]float64, d.q.NumParams())
	for _, t := range batch {
		reward := t.Reward
		if d.clipReward {
			reward = math.Max(-1, math.Min(1, reward))
		}

		target := reward
		if !t.Absorbing {
			next, err := d.target.Values(t.NextState)
			if err != nil {
				return nil, err
			}
			target += d.discount * floats.Max(next)
		}

		a := int(t.Action.AtVec(0))
		prediction, err := d.q.Value(t.State, a)
		if err != nil {
			return nil, err
		}

		scale := d.loss.Derivative(prediction-target) / float64(len(batch))
		if err := d.q.AddGradient(grad, t.State, a, scale); err != nil {
			return nil, err
		}
	}
	return grad, nil
}
