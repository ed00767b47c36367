package policygradient

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/solver"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

func descriptor() environment.Descriptor {
	return environment.Descriptor{
		Name: "Bandit",
		Observation: environment.Space{
			Cardinality: environment.Continuous,
			Shape:       []int{1},
			Low:         []float64{1},
			High:        []float64{1},
		},
		Action: environment.Space{
			Cardinality: environment.Continuous,
			Shape:       []int{1},
			Low:         []float64{-2},
			High:        []float64{2},
		},
		Discount: 0.99,
		Horizon:  3,
	}
}

// episodes runs n three-step episodes rewarding actions close to 1
func episodes(t *testing.T, g *GPOMDP, n int) []ts.Transition {
	t.Helper()
	obs := mat.NewVecDense(1, []float64{1})
	var data []ts.Transition
	for i := 0; i < n; i++ {
		for step := 0; step < 3; step++ {
			a, err := g.Policy().SelectAction(obs)
			require.NoError(t, err)
			d := a.AtVec(0) - 1
			data = append(data, ts.Transition{
				State:     obs,
				Action:    a,
				Reward:    -d * d,
				NextState: obs,
				Last:      step == 2,
			})
		}
	}
	return data
}

func TestGPOMDPInitialStd(t *testing.T) {
	s, err := solver.New(solver.Adaptive, 0.01)
	require.NoError(t, err)
	g, err := New(descriptor(), Config{Solver: s, Maximize: true}, 1)
	require.NoError(t, err)

	logStd, err := g.policy.LogStd(mat.NewVecDense(1, []float64{1}))
	require.NoError(t, err)
	assert.InDelta(t, InitialStd, math.Exp(logStd[0]), 1e-12)
}

func TestGPOMDPImprovesReturn(t *testing.T) {
	s, err := solver.New(solver.Adaptive, 0.01)
	require.NoError(t, err)
	g, err := New(descriptor(), Config{Solver: s, Maximize: true}, 1)
	require.NoError(t, err)

	obs := mat.NewVecDense(1, []float64{1})
	for i := 0; i < 200; i++ {
		require.NoError(t, g.Fit(episodes(t, g, 10)))
	}

	mean, err := g.policy.Mean(obs)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mean.AtVec(0), 0.3)
}

func TestGPOMDPMinimizeDescends(t *testing.T) {
	s, err := solver.New(solver.Adaptive, 0.01)
	require.NoError(t, err)
	g, err := New(descriptor(), Config{Solver: s, Maximize: false}, 1)
	require.NoError(t, err)

	obs := mat.NewVecDense(1, []float64{1})
	for i := 0; i < 50; i++ {
		require.NoError(t, g.Fit(episodes(t, g, 10)))
	}

	mean, err := g.policy.Mean(obs)
	require.NoError(t, err)
	assert.Less(t, mean.AtVec(0), 0.0)
}

func TestSplit(t *testing.T) {
	data := []ts.Transition{{}, {Last: true}, {}, {}, {Last: true}, {}}
	eps := split(data)
	require.Len(t, eps, 3)
	assert.Len(t, eps[0], 2)
	assert.Len(t, eps[1], 3)
	assert.Len(t, eps[2], 1)
}

func TestGPOMDPRejectsDiscreteActions(t *testing.T) {
	desc := descriptor()
	desc.Action.Cardinality = environment.Discrete
	desc.Action.N = 2
	s, err := solver.New(solver.Adam, 0.01)
	require.NoError(t, err)
	_, err = New(desc, Config{Solver: s}, 1)
	assert.Error(t, err)
}
