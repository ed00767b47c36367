package valuebased

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/solver"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

func descriptor() environment.Descriptor {
	return environment.Descriptor{
		Name: "Test",
		Observation: environment.Space{
			Cardinality: environment.Continuous,
			Shape:       []int{2},
			Low:         []float64{-1, -1},
			High:        []float64{1, 1},
		},
		Action: environment.Space{
			Cardinality: environment.Discrete,
			Shape:       []int{1},
			Low:         []float64{0},
			High:        []float64{1},
			N:           2,
		},
		Discount: 0.9,
		Horizon:  10,
	}
}

func config(t *testing.T) Config {
	t.Helper()
	s, err := solver.New(solver.Vanilla, 0.1)
	require.NoError(t, err)
	return Config{
		Epsilon:               1,
		EpsilonMin:            0.01,
		EpsilonDecaySteps:     100,
		Layout:                approximator.Joint,
		Loss:                  approximator.Huber,
		Solver:                s,
		BatchSize:             4,
		TargetUpdateFrequency: 2,
		InitialReplaySize:     8,
		MaxReplaySize:         100,
	}
}

// transitions returns n absorbing transitions in which action 1 is
// rewarded and action 0 is punished
func transitions(n int) []ts.Transition {
	data := make([]ts.Transition, n)
	for i := range data {
		a := float64(i % 2)
		data[i] = ts.Transition{
			State:     mat.NewVecDense(2, []float64{0.5, -0.5}),
			Action:    mat.NewVecDense(1, []float64{a}),
			Reward:    2*a - 1,
			NextState: mat.NewVecDense(2, []float64{0, 0}),
			Absorbing: true,
			Last:      true,
		}
	}
	return data
}

func TestDQNWaitsForWarmUp(t *testing.T) {
	d, err := New(descriptor(), config(t), 1)
	require.NoError(t, err)
	assert.Equal(t, 8, d.WarmUp())

	require.NoError(t, d.Fit(transitions(6)))
	assert.Equal(t, 0, d.gradientSteps)
	for _, w := range d.q.Params() {
		assert.Zero(t, w)
	}

	require.NoError(t, d.Fit(transitions(2)))
	assert.Equal(t, 1, d.gradientSteps)
}

func TestDQNLearnsRewardedAction(t *testing.T) {
	d, err := New(descriptor(), config(t), 1)
	require.NoError(t, err)
	require.NoError(t, d.Fill(transitions(8)))

	for i := 0; i < 300; i++ {
		require.NoError(t, d.Fit(nil))
	}

	greedy := d.Policy().Deterministic()
	a, err := greedy.SelectAction(mat.NewVecDense(2, []float64{0.5, -0.5}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.AtVec(0))
}

func TestDQNTargetUpdates(t *testing.T) {
	d, err := New(descriptor(), config(t), 1)
	require.NoError(t, err)
	require.NoError(t, d.Fill(transitions(8)))

	require.NoError(t, d.Fit(nil))
	assert.NotEqual(t, d.q.Params(), d.target.Params())

	require.NoError(t, d.Fit(nil))
	assert.Equal(t, d.q.Params(), d.target.Params())
}

func TestDQNRejectsContinuousActions(t *testing.T) {
	desc := descriptor()
	desc.Action.Cardinality = environment.Continuous
	_, err := New(desc, config(t), 1)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	c := config(t)
	c.MaxReplaySize = 4
	assert.Error(t, c.Validate())

	c = config(t)
	c.Loss = "l1"
	assert.Error(t, c.Validate())
}

func TestTypedConfig(t *testing.T) {
	c := config(t)
	data, err := json.Marshal(agent.NewTypedConfig(c))
	require.NoError(t, err)

	var typed agent.TypedConfig
	require.NoError(t, json.Unmarshal(data, &typed))
	assert.Equal(t, agent.EGreedyDQNLinear, typed.Type)

	a, err := agent.Create(typed.Config, descriptor(), 1)
	require.NoError(t, err)
	assert.IsType(t, &DQN{}, a)
}
