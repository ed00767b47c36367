// Package actorcritic implements the on-policy PPO and off-policy DDPG
// actor-critic algorithms with linear function approximation
package actorcritic

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/agent/policy"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/buffer/gae"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/solver"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

// PPO implements Proximal Policy Optimization with a clipped surrogate
// objective. Advantages are estimated with GAE(λ) using a linear
// critic, and each dataset is used for several passes of minibatch
// updates of the actor and critic.
type PPO struct {
	actor       policy.Differentiable
	actorSolver *solver.Solver

	// Exactly one of v and q is non-nil
	v            *approximator.Linear
	q            *approximator.Q
	criticLoss   approximator.Loss
	criticSolver *solver.Solver

	discount     float64
	lambda       float64
	epochsPolicy int
	batchSize    int
	epsPPO       float64
	entCoeff     float64

	rng *rand.Rand
}

// New creates a new PPO agent
func New(desc environment.Descriptor, c Config, seed uint64) (*PPO, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	features := desc.Observation.Dim()
	actor, err := newActor(desc, c, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	p := &PPO{
		actor:        actor,
		actorSolver:  c.ActorSolver.Clone(),
		criticLoss:   c.CriticLoss,
		criticSolver: c.CriticSolver.Clone(),
		discount:     desc.Discount,
		lambda:       c.Lambda,
		epochsPolicy: c.EpochsPolicy,
		batchSize:    c.BatchSize,
		epsPPO:       c.EpsPPO,
		entCoeff:     c.EntCoeff,
		rng:          rand.New(rand.NewSource(seed)),
	}

	// Create the critic
	if c.CriticLayout == approximator.Generic {
		p.v, err = approximator.NewLinear(approximator.Generic, features, 1,
			nil)
	} else {
		if c.Policy != policy.SoftmaxType {
			return nil, fmt.Errorf("new: %v critic requires discrete actions",
				c.CriticLayout)
		}
		p.q, err = approximator.NewQ(c.CriticLayout, features, desc.Action.N,
			nil)
	}
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	return p, nil
}

// newActor creates the policy of a PPO agent
func newActor(desc environment.Descriptor, c Config,
	seed uint64) (policy.Differentiable, error) {
	features := desc.Observation.Dim()

	switch c.Policy {
	case policy.SoftmaxType:
		if !desc.Action.Discrete() || desc.Action.Dim() != 1 {
			return nil, fmt.Errorf("softmax actor requires 1-dimensional " +
				"discrete actions")
		}
		logits, err := approximator.NewLinear(approximator.Joint, features,
			desc.Action.N, nil)
		if err != nil {
			return nil, err
		}
		return policy.NewSoftmax(logits, c.Beta, seed)

	case policy.GaussianType:
		if desc.Action.Discrete() {
			return nil, fmt.Errorf("gaussian actor requires continuous " +
				"actions")
		}
		mean, err := approximator.NewLinear(approximator.Generic, features,
			desc.Action.Dim(), nil)
		if err != nil {
			return nil, err
		}
		return policy.NewGaussian(mean, c.Std, seed)
	}
	return nil, fmt.Errorf("unsupported actor %q", c.Policy)
}

// Policy returns the actor
func (p *PPO) Policy() agent.Policy { return p.actor }

// stateValue returns the critic's estimate of the value of obs
func (p *PPO) stateValue(obs mat.Vector) (float64, error) {
	if p.v != nil {
		return p.v.PredictAt(obs, 0)
	}

	// v(s) = Σ π(a|s) q(s, a)
	probs, err := p.actor.(*policy.Softmax).Probabilities(obs)
	if err != nil {
		return 0, err
	}
	values, err := p.q.Values(obs)
	if err != nil {
		return 0, err
	}
	v := 0.0
	for a := range probs {
		v += probs[a] * values[a]
	}
	return v, nil
}

// criticPrediction returns the critic output regressed towards the
// return of transition t
func (p *PPO) criticPrediction(t ts.Transition) (float64, error) {
	if p.v != nil {
		return p.v.PredictAt(t.State, 0)
	}
	return p.q.Value(t.State, int(t.Action.AtVec(0)))
}

func (p *PPO) criticParams() []float64 {
	if p.v != nil {
		return p.v.Params()
	}
	return p.q.Params()
}

func (p *PPO) addCriticGradient(grad []float64, t ts.Transition,
	scale float64) error {
	if p.v != nil {
		return p.v.AddGradient(grad, t.State, 0, scale)
	}
	return p.q.AddGradient(grad, t.State, int(t.Action.AtVec(0)), scale)
}

// Fit performs EpochsPolicy passes of minibatch updates over a dataset
// collected with the current policy
func (p *PPO) Fit(dataset []ts.Transition) error {
	if len(dataset) == 0 {
		return nil
	}

	// Compute the advantages, returns, and log-likelihoods of the
	// policy which collected the data
	values := make([]float64, len(dataset))
	nextValues := make([]float64, len(dataset))
	oldLogProbs := make([]float64, len(dataset))
	for i, t := range dataset {
		var err error
		if values[i], err = p.stateValue(t.State); err != nil {
			return fmt.Errorf("fit: %w", err)
		}
		if nextValues[i], err = p.stateValue(t.NextState); err != nil {
			return fmt.Errorf("fit: %w", err)
		}
		if oldLogProbs[i], err = p.actor.LogProb(t.State, t.Action); err != nil {
			return fmt.Errorf("fit: %w", err)
		}
	}

	advantages, returns, err := gae.Compute(dataset, values, nextValues,
		p.discount, p.lambda)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	gae.Standardize(advantages)

	for epoch := 0; epoch < p.epochsPolicy; epoch++ {
		order := p.rng.Perm(len(dataset))
		for start := 0; start < len(order); start += p.batchSize {
			end := start + p.batchSize
			if end > len(order) {
				end = len(order)
			}
			batch := order[start:end]

			if err := p.updateActor(dataset, batch, advantages,
				oldLogProbs); err != nil {
				return fmt.Errorf("fit: %w", err)
			}
			if err := p.updateCritic(dataset, batch, returns); err != nil {
				return fmt.Errorf("fit: %w", err)
			}
		}
	}
	return nil
}

// updateActor takes a step to maximize the clipped surrogate objective
// plus the entropy bonus on a minibatch
func (p *PPO) updateActor(dataset []ts.Transition, batch []int,
	advantages, oldLogProbs []float64) error {
	n := float64(len(batch))
	grad := make([]float64, p.actor.NumParams())

	for _, i := range batch {
		t := dataset[i]
		logProb, err := p.actor.LogProb(t.State, t.Action)
		if err != nil {
			return err
		}
		ratio := math.Exp(logProb - oldLogProbs[i])
		adv := advantages[i]

		// The clipped objective has zero gradient outside the trust
		// region in the direction of improvement
		if (adv >= 0 && ratio < 1+p.epsPPO) || (adv < 0 && ratio > 1-p.epsPPO) {
			if err := p.actor.GradLogProb(grad, t.State, t.Action,
				-adv*ratio/n); err != nil {
				return err
			}
		}

		if p.entCoeff > 0 {
			if err := p.actor.GradEntropy(grad, t.State,
				-p.entCoeff/n); err != nil {
				return err
			}
		}
	}

	params := p.actor.Params()
	if err := p.actorSolver.Step(params, grad); err != nil {
		return err
	}
	return p.actor.SetParams(params)
}

// updateCritic takes a step to minimize the critic loss with respect
// to the λ-returns on a minibatch
func (p *PPO) updateCritic(dataset []ts.Transition, batch []int,
	returns []float64) error {
	n := float64(len(batch))
	params := p.criticParams()
	grad := make([]float64, len(params))

	for _, i := range batch {
		prediction, err := p.criticPrediction(dataset[i])
		if err != nil {
			return err
		}
		scale := p.criticLoss.Derivative(prediction-returns[i]) / n
		if err := p.addCriticGradient(grad, dataset[i], scale); err != nil {
			return err
		}
	}
	return p.criticSolver.Step(params, grad)
}
