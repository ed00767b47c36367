package gae

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	ts "github.com/samuelfneumann/autolearn/timestep"
)

func TestComputeSplitsTrajectories(t *testing.T) {
	data := []ts.Transition{
		{Reward: 1},
		{Reward: 1, Last: true, Absorbing: true},
		{Reward: 2},
	}
	values := []float64{0, 0, 0}
	nextValues := []float64{5, 5, 10}

	adv, ret, err := Compute(data, values, nextValues, 0.5, 1.0)
	require.NoError(t, err)

	// Absorbing: no bootstrap from the next state
	assert.InDelta(t, 1.0, adv[1], 1e-12)

	// δ0 = 1 + 0.5*5 = 3.5, A0 = δ0 + 0.5*A1
	assert.InDelta(t, 4.0, adv[0], 1e-12)

	// Cut off by the end of the dataset: bootstrap from v(s')
	assert.InDelta(t, 7.0, adv[2], 1e-12)
	assert.Equal(t, adv, ret, "returns are advantages plus zero values")
}

func TestComputeLengthMismatch(t *testing.T) {
	_, _, err := Compute(make([]ts.Transition, 2), []float64{0}, nil, 0.9,
		0.9)
	assert.Error(t, err)
}

func TestStandardize(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	Standardize(x)
	mean, std := stat.MeanStdDev(x, nil)
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 1, std, 1e-6)

	same := []float64{3, 3}
	Standardize(same)
	assert.Equal(t, []float64{0, 0}, same)
}

func TestDiscountCumSum(t *testing.T) {
	got := DiscountCumSum([]float64{1, 1, 1}, 0.5)
	assert.True(t, floats.EqualApprox(got, []float64{1.75, 1.5, 1}, 1e-12))
}
