package solver

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimize runs the solver on f(x) = Σ (x_i - target_i)² from x = 0
func minimize(t *testing.T, s *Solver, target []float64, steps int) []float64 {
	t.Helper()
	x := make([]float64, len(target))
	grad := make([]float64, len(target))
	for i := 0; i < steps; i++ {
		for j := range x {
			grad[j] = 2 * (x[j] - target[j])
		}
		require.NoError(t, s.Step(x, grad))
	}
	return x
}

func TestSolversMinimizeQuadratic(t *testing.T) {
	target := []float64{1.5, -0.5}

	cases := map[Type]float64{
		Adam:    0.01,
		Vanilla: 0.1,
		RMSProp: 0.01,
	}
	for typ, step := range cases {
		s, err := New(typ, step)
		require.NoError(t, err, typ)

		x := minimize(t, s, target, 2000)
		for i := range x {
			assert.InDelta(t, target[i], x[i], 0.05, "%v", typ)
		}
	}
}

func TestAdaptiveStepLength(t *testing.T) {
	s, err := New(Adaptive, 0.01)
	require.NoError(t, err)

	x := []float64{0, 0}
	require.NoError(t, s.Step(x, []float64{3, 4}))

	length := math.Sqrt(x[0]*x[0] + x[1]*x[1])
	assert.InDelta(t, math.Sqrt(0.01), length, 1e-12)
	assert.Less(t, x[0], 0.0, "steps descend the gradient")

	// A zero gradient leaves parameters untouched
	require.NoError(t, s.Step(x, []float64{0, 0}))
	assert.InDelta(t, math.Sqrt(0.01), math.Hypot(x[0], x[1]), 1e-12)
}

func TestStepLengthMismatch(t *testing.T) {
	s, err := New(Adam, 0.01)
	require.NoError(t, err)
	assert.Error(t, s.Step([]float64{0}, []float64{1, 2}))
}

func TestInvalidSolvers(t *testing.T) {
	_, err := New(Adam, 0)
	assert.Error(t, err)

	_, err = New("Nadam", 0.1)
	assert.Error(t, err)
}

func TestCloneSharesNoState(t *testing.T) {
	s, err := New(Adam, 0.1)
	require.NoError(t, err)

	a := []float64{0}
	require.NoError(t, s.Step(a, []float64{1}))

	clone := s.Clone()
	b, c := []float64{0}, []float64{0}
	require.NoError(t, clone.Step(b, []float64{1}))
	require.NoError(t, s.Clone().Step(c, []float64{1}))
	assert.Equal(t, b, c)
}

func TestSolverJSON(t *testing.T) {
	s, err := NewAdam(0.01, 1e-8, 0.9, 0.999, -1)
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Solver
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Adam, decoded.Type)
	assert.Equal(t, s.Config, decoded.Config)
	require.NotNil(t, decoded.Stepper)

	assert.Error(t, json.Unmarshal([]byte(`{"Type":"Nadam","Config":{}}`),
		&decoded))
}
