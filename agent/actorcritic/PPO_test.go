package actorcritic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/agent/policy"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/solver"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

func descriptor(discrete bool) environment.Descriptor {
	action := environment.Space{
		Cardinality: environment.Continuous,
		Shape:       []int{1},
		Low:         []float64{-2},
		High:        []float64{2},
	}
	if discrete {
		action = environment.Space{
			Cardinality: environment.Discrete,
			Shape:       []int{1},
			Low:         []float64{0},
			High:        []float64{1},
			N:           2,
		}
	}
	return environment.Descriptor{
		Name: "Bandit",
		Observation: environment.Space{
			Cardinality: environment.Continuous,
			Shape:       []int{1},
			Low:         []float64{1},
			High:        []float64{1},
		},
		Action:   action,
		Discount: 0.99,
		Horizon:  1,
	}
}

func config(t *testing.T, actor policy.Type,
	layout approximator.Layout) Config {
	t.Helper()
	actorSolver, err := solver.New(solver.Adam, 0.05)
	require.NoError(t, err)
	criticSolver, err := solver.New(solver.Adam, 0.05)
	require.NoError(t, err)

	return Config{
		Policy:       actor,
		Beta:         1,
		Std:          1,
		ActorSolver:  actorSolver,
		CriticLayout: layout,
		CriticLoss:   approximator.MSE,
		CriticSolver: criticSolver,
		EpochsPolicy: 4,
		BatchSize:    16,
		EpsPPO:       0.2,
		Lambda:       0.95,
		EntCoeff:     0.001,
	}
}

// collect runs n single-step episodes of a bandit with the agent's
// policy
func collect(t *testing.T, p agent.Agent, n int,
	reward func(a *mat.VecDense) float64) []ts.Transition {
	t.Helper()
	obs := mat.NewVecDense(1, []float64{1})
	data := make([]ts.Transition, n)
	for i := range data {
		a, err := p.Policy().SelectAction(obs)
		require.NoError(t, err)
		data[i] = ts.Transition{
			State:     obs,
			Action:    a,
			Reward:    reward(a),
			NextState: obs,
			Absorbing: true,
			Last:      true,
		}
	}
	return data
}

func TestPPOSoftmaxPrefersRewardedAction(t *testing.T) {
	for _, layout := range []approximator.Layout{approximator.Generic,
		approximator.ActionIndexed, approximator.Joint} {
		p, err := New(descriptor(true), config(t, policy.SoftmaxType, layout), 3)
		require.NoError(t, err)

		for i := 0; i < 30; i++ {
			data := collect(t, p, 64, func(a *mat.VecDense) float64 {
				return a.AtVec(0)
			})
			require.NoError(t, p.Fit(data))
		}

		probs, err := p.actor.(*policy.Softmax).Probabilities(
			mat.NewVecDense(1, []float64{1}))
		require.NoError(t, err)
		assert.Greater(t, probs[1], 0.8, "%v", layout)
	}
}

func TestPPOGaussianMovesMean(t *testing.T) {
	p, err := New(descriptor(false),
		config(t, policy.GaussianType, approximator.Generic), 5)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		data := collect(t, p, 64, func(a *mat.VecDense) float64 {
			d := a.AtVec(0) - 1
			return -d * d
		})
		require.NoError(t, p.Fit(data))
	}

	mean, err := p.actor.(*policy.Gaussian).Mean(
		mat.NewVecDense(1, []float64{1}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mean.AtVec(0), 0.5)
}

func TestPPOConfiguration(t *testing.T) {
	_, err := New(descriptor(false),
		config(t, policy.GaussianType, approximator.Joint), 1)
	assert.Error(t, err, "action-value critic needs discrete actions")

	_, err = New(descriptor(true),
		config(t, policy.GaussianType, approximator.Generic), 1)
	assert.Error(t, err)

	_, err = New(descriptor(false),
		config(t, policy.SoftmaxType, approximator.Generic), 1)
	assert.Error(t, err)

	c := config(t, policy.SoftmaxType, approximator.Generic)
	c.EpsPPO = 0
	assert.Error(t, c.Validate())

	assert.NoError(t, newSoftmaxPPO(t).Fit(nil))
}

func newSoftmaxPPO(t *testing.T) *PPO {
	t.Helper()
	ppo, err := New(descriptor(true),
		config(t, policy.SoftmaxType, approximator.Generic), 1)
	require.NoError(t, err)
	return ppo
}
