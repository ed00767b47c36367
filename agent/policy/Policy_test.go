package policy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/utils/matutils/initializers/weights"
)

func linear(t *testing.T, inputs, outputs int, seed uint64) *approximator.Linear {
	t.Helper()
	l, err := approximator.NewLinear(approximator.Joint, inputs, outputs,
		weights.NewGaussianUV(0.5, seed))
	require.NoError(t, err)
	return l
}

// checkGradient compares an analytic gradient against central finite
// differences of f
func checkGradient(t *testing.T, p Differentiable, f func() float64,
	grad func([]float64) error) {
	t.Helper()

	analytic := make([]float64, p.NumParams())
	require.NoError(t, grad(analytic))

	params := p.Params()
	const h = 1e-6
	for i := range params {
		orig := params[i]

		params[i] = orig + h
		require.NoError(t, p.SetParams(params))
		up := f()

		params[i] = orig - h
		require.NoError(t, p.SetParams(params))
		down := f()

		params[i] = orig
		require.NoError(t, p.SetParams(params))

		assert.InDelta(t, (up-down)/(2*h), analytic[i], 1e-4, "param %v", i)
	}
}

func TestSoftmaxGradients(t *testing.T) {
	p, err := NewSoftmax(linear(t, 3, 4, 1), 0.7, 1)
	require.NoError(t, err)

	obs := mat.NewVecDense(3, []float64{0.3, -1.2, 0.8})
	action := mat.NewVecDense(1, []float64{2})

	checkGradient(t, p, func() float64 {
		lp, err := p.LogProb(obs, action)
		require.NoError(t, err)
		return lp
	}, func(g []float64) error { return p.GradLogProb(g, obs, action, 1) })

	checkGradient(t, p, func() float64 {
		h, err := p.Entropy(obs)
		require.NoError(t, err)
		return h
	}, func(g []float64) error { return p.GradEntropy(g, obs, 1) })
}

func TestGaussianGradients(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{0.5, -0.25})
	action := mat.NewVecDense(2, []float64{1, -2})

	independent, err := NewGaussian(linear(t, 2, 2, 2), 1.5, 1)
	require.NoError(t, err)
	stateStd, err := NewStateStdGaussian(linear(t, 2, 2, 3),
		linear(t, 2, 2, 4), 1)
	require.NoError(t, err)

	for _, p := range []*Gaussian{independent, stateStd} {
		checkGradient(t, p, func() float64 {
			lp, err := p.LogProb(obs, action)
			require.NoError(t, err)
			return lp
		}, func(g []float64) error { return p.GradLogProb(g, obs, action, 1) })

		checkGradient(t, p, func() float64 {
			h, err := p.Entropy(obs)
			require.NoError(t, err)
			return h
		}, func(g []float64) error { return p.GradEntropy(g, obs, 1) })
	}
}

func TestGaussianDeterministicReturnsMean(t *testing.T) {
	p, err := NewGaussian(linear(t, 2, 1, 5), 5, 1)
	require.NoError(t, err)

	obs := mat.NewVecDense(2, []float64{1, 1})
	mean, err := p.Mean(obs)
	require.NoError(t, err)

	det := p.Deterministic()
	assert.True(t, det.IsDeterministic())
	assert.False(t, p.IsDeterministic())
	for i := 0; i < 5; i++ {
		a, err := det.SelectAction(obs)
		require.NoError(t, err)
		assert.Equal(t, mean.RawVector().Data, a.RawVector().Data)
	}
}

func TestEGreedyDecay(t *testing.T) {
	q, err := approximator.NewQ(approximator.Joint, 2, 3, nil)
	require.NoError(t, err)
	p, err := NewEGreedy(q, 1, 0.1, 10, 1)
	require.NoError(t, err)

	obs := mat.NewVecDense(2, nil)
	assert.Equal(t, 1.0, p.Epsilon())
	for i := 0; i < 5; i++ {
		_, err := p.SelectAction(obs)
		require.NoError(t, err)
	}
	assert.InDelta(t, 0.55, p.Epsilon(), 1e-12)
	for i := 0; i < 20; i++ {
		a, err := p.SelectAction(obs)
		require.NoError(t, err)
		assert.True(t, a.AtVec(0) >= 0 && a.AtVec(0) < 3)
	}
	assert.InDelta(t, 0.1, p.Epsilon(), 1e-12)
	assert.Equal(t, 0.0, p.Deterministic().(*EGreedy).Epsilon())

	_, err = NewEGreedy(q, 0.1, 0.5, 10, 1)
	assert.Error(t, err)
}

func TestCloneIsDecoupled(t *testing.T) {
	p, err := NewSoftmax(linear(t, 2, 2, 9), 1, 1)
	require.NoError(t, err)
	clone := p.Clone(2).(*Softmax)

	params := p.Params()
	params[0] += 10
	require.NoError(t, p.SetParams(params))
	assert.NotEqual(t, p.Params()[0], clone.Params()[0])
}

func TestRecordRoundTrip(t *testing.T) {
	q, err := approximator.NewQ(approximator.Generic, 2, 3,
		weights.NewGaussianUV(1, 3))
	require.NoError(t, err)
	eg, err := NewEGreedy(q, 1, 0.01, 100, 4)
	require.NoError(t, err)

	sm, err := NewSoftmax(linear(t, 2, 3, 6), 0.5, 5)
	require.NoError(t, err)

	gs, err := NewStateStdGaussian(linear(t, 2, 1, 7), linear(t, 2, 1, 8), 6)
	require.NoError(t, err)

	obs := mat.NewVecDense(2, []float64{0.2, -0.7})
	for _, p := range []Policy{eg, sm.Deterministic(), gs} {
		r, err := p.Record()
		require.NoError(t, err)

		data, err := json.Marshal(r)
		require.NoError(t, err)
		var decoded Record
		require.NoError(t, json.Unmarshal(data, &decoded))

		restored, err := FromRecord(decoded)
		require.NoError(t, err)
		assert.Equal(t, p.IsDeterministic(), restored.IsDeterministic())

		// Same seed and weights select the same actions
		want, got := p.Clone(11), restored.Clone(11)
		for i := 0; i < 10; i++ {
			a, err := want.SelectAction(obs)
			require.NoError(t, err)
			b, err := got.SelectAction(obs)
			require.NoError(t, err)
			assert.Equal(t, a.RawVector().Data, b.RawVector().Data)
		}
	}

	_, err = FromRecord(Record{Type: "Beta"})
	assert.Error(t, err)
}
