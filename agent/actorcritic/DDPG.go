package actorcritic

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/agent/policy"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/expreplay"
	"github.com/samuelfneumann/autolearn/solver"
	ts "github.com/samuelfneumann/autolearn/timestep"
	"github.com/samuelfneumann/autolearn/utils/matutils"
)

// DDPG implements Deep Deterministic Policy Gradient with a linear
// actor and critic. The actor is the mean of a Gaussian behaviour
// policy with fixed standard deviation. The critic is linear in the
// features [s, a, a⊙a], so that it has a maximum over actions for
// each state.
//
// Transitions are stored in a FIFO experience replay buffer. Each call
// to Fit takes one critic step on a sampled batch once the buffer holds
// the initial replay size, one actor step every PolicyDelay critic
// steps, and moves both target networks towards the live ones by Tau.
type DDPG struct {
	behaviour *policy.Gaussian
	mean      *approximator.Linear // Shared with the behaviour policy
	critic    *approximator.Linear

	targetMean   *approximator.Linear
	targetCritic *approximator.Linear

	actorSolver  *solver.Solver
	criticSolver *solver.Solver
	criticLoss   approximator.Loss
	replay       expreplay.ExperienceReplayer
	warmUp       int

	stateDims   int
	actionDims  int
	discount    float64
	tau         float64
	policyDelay int
	fits        int
}

// NewDDPG creates a new DDPG agent for an environment with continuous
// actions
func NewDDPG(desc environment.Descriptor, c DDPGConfig,
	seed uint64) (*DDPG, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newDDPG: %w", err)
	}
	if desc.Action.Discrete() {
		return nil, fmt.Errorf("newDDPG: DDPG requires continuous actions")
	}

	stateDims, actionDims := desc.Observation.Dim(), desc.Action.Dim()
	mean, err := approximator.NewLinear(approximator.Generic, stateDims,
		actionDims, nil)
	if err != nil {
		return nil, fmt.Errorf("newDDPG: %w", err)
	}
	behaviour, err := policy.NewGaussian(mean, c.Sigma, seed)
	if err != nil {
		return nil, fmt.Errorf("newDDPG: %w", err)
	}
	critic, err := approximator.NewLinear(approximator.Generic,
		stateDims+2*actionDims, 1, nil)
	if err != nil {
		return nil, fmt.Errorf("newDDPG: %w", err)
	}

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
		return nil, fmt.Errorf("newDDPG: %w", err)
	}

	return &DDPG{
		behaviour:    behaviour,
		mean:         mean,
		critic:       critic,
		targetMean:   mean.Clone(),
		targetCritic: critic.Clone(),
		actorSolver:  c.ActorSolver.Clone(),
		criticSolver: c.CriticSolver.Clone(),
		criticLoss:   c.CriticLoss,
		replay:       replay,
		warmUp:       c.InitialReplaySize,
		stateDims:    stateDims,
		actionDims:   actionDims,
		discount:     desc.Discount,
		tau:          c.Tau,
		policyDelay:  c.PolicyDelay,
	}, nil
}

// Policy returns the Gaussian behaviour policy, whose deterministic
// form is the actor
func (d *DDPG) Policy() agent.Policy { return d.behaviour }

// WarmUp returns the number of transitions the replay buffer must hold
// before the agent learns
func (d *DDPG) WarmUp() int { return d.warmUp }

// Fill adds transitions to the replay buffer
func (d *DDPG) Fill(dataset []ts.Transition) error {
	for _, t := range dataset {
		if err := d.replay.Add(t); err != nil {
			return fmt.Errorf("fill: %w", err)
		}
	}
	return nil
}

// Fit adds the dataset to the replay buffer and, if the buffer is
// initialized, updates the agent on a sampled batch
func (d *DDPG) Fit(dataset []ts.Transition) error {
	if err := d.Fill(dataset); err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	batch, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	grad, err := d.criticGradient(batch)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	if err := d.criticSolver.Step(d.critic.Params(), grad); err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	if d.fits%d.policyDelay == 0 {
		grad, err := d.actorGradient(batch)
		if err != nil {
			return fmt.Errorf("fit: %w", err)
		}
		if err := d.actorSolver.Step(d.mean.Params(), grad); err != nil {
			return fmt.Errorf("fit: %w", err)
		}
	}
	d.fits++

	softUpdate(d.targetCritic, d.critic, d.tau)
	softUpdate(d.targetMean, d.mean, d.tau)
	return nil
}

// features returns the critic features [s, a, a⊙a]
func (d *DDPG) features(state, action mat.Vector) *mat.VecDense {
	squared := mat.NewVecDense(action.Len(), nil)
	squared.MulElemVec(action, action)
	return matutils.Concat(state, action, squared)
}

// value returns the action-value estimate of critic for (state, action)
func (d *DDPG) value(critic *approximator.Linear, state,
	action mat.Vector) (float64, error) {
	return critic.PredictAt(d.features(state, action), 0)
}

// criticGradient computes the gradient of the mean loss between the
// action-values of the batch and their targets under the target actor
// and critic
func (d *DDPG) criticGradient(batch []ts.Transition) ([]float64, error) {
	grad := make([]float64, d.critic.NumParams())
	for _, t := range batch {
		target := t.Reward
		if !t.Absorbing {
			next, err := d.targetMean.Predict(t.NextState)
			if err != nil {
				return nil, err
			}
			q, err := d.value(d.targetCritic, t.NextState, next)
			if err != nil {
				return nil, err
			}
			target += d.discount * q
		}

		phi := d.features(t.State, t.Action)
		prediction, err := d.critic.PredictAt(phi, 0)
		if err != nil {
			return nil, err
		}

		scale := d.criticLoss.Derivative(prediction-target) /
			float64(len(batch))
		if err := d.critic.AddGradient(grad, phi, 0, scale); err != nil {
			return nil, err
		}
	}
	return grad, nil
}

// actorGradient computes the gradient of -q(s, μ(s)) averaged over the
// states of the batch with respect to the actor weights
func (d *DDPG) actorGradient(batch []ts.Transition) ([]float64, error) {
	// Critic weights of a and a⊙a
	w := d.critic.Params()
	linear := w[d.stateDims : d.stateDims+d.actionDims]
	quadratic := w[d.stateDims+d.actionDims : d.stateDims+2*d.actionDims]

	grad := make([]float64, d.mean.NumParams())
	for _, t := range batch {
		mu, err := d.mean.Predict(t.State)
		if err != nil {
			return nil, err
		}
		for j := 0; j < d.actionDims; j++ {
			// ∂q/∂a_j = w_j + 2 w'_j a_j
			dq := linear[j] + 2*quadratic[j]*mu.AtVec(j)
			if err := d.mean.AddGradient(grad, t.State, j,
				-dq/float64(len(batch))); err != nil {
				return nil, err
			}
		}
	}
	return grad, nil
}

// softUpdate sets target ← τ live + (1 - τ) target
func softUpdate(target, live *approximator.Linear, tau float64) {
	t, l := target.Params(), live.Params()
	for i := range t {
		t[i] = tau*l[i] + (1-tau)*t[i]
	}
}
