package approximator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/utils/matutils/initializers/weights"
)

func TestLinearPredict(t *testing.T) {
	l, err := NewLinear(Joint, 2, 2, nil)
	require.NoError(t, err)
	require.NoError(t, l.SetParams([]float64{
		1, 2, 0.5,
		-1, 0, 1,
	}))

	x := mat.NewVecDense(2, []float64{1, 1})
	out, err := l.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{3.5, 0}, out.RawVector().Data)

	v, err := l.PredictAt(x, 0)
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)

	_, err = l.Predict(mat.NewVecDense(3, nil))
	assert.Error(t, err)
}

func TestLinearIndexedMatchesJoint(t *testing.T) {
	joint, err := NewLinear(Joint, 3, 4, weights.NewGaussianUV(1, 7))
	require.NoError(t, err)
	indexed, err := NewLinear(ActionIndexed, 3, 4, nil)
	require.NoError(t, err)
	require.NoError(t, indexed.SetParams(joint.Params()))

	x := mat.NewVecDense(3, []float64{0.1, -0.4, 2})
	a, err := joint.Predict(x)
	require.NoError(t, err)
	b, err := indexed.Predict(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, a.RawVector().Data, b.RawVector().Data, 1e-12)
}

func TestLinearGradientStep(t *testing.T) {
	l, err := NewLinear(Generic, 2, 1, nil)
	require.NoError(t, err)

	x := mat.NewVecDense(2, []float64{2, -1})
	grad := make([]float64, l.NumParams())
	require.NoError(t, l.AddGradient(grad, x, 0, 0.5))
	assert.Equal(t, []float64{1, -0.5, 0.5}, grad)

	assert.Error(t, l.AddGradient(grad, x, 1, 1))
	assert.Error(t, l.AddGradient(make([]float64, 2), x, 0, 1))
}

func TestLinearCloneIsDeep(t *testing.T) {
	l, err := NewLinear(Joint, 1, 1, weights.Constant(1))
	require.NoError(t, err)

	clone := l.Clone()
	clone.Params()[0] = 5
	assert.Equal(t, 1.0, l.Params()[0])
}

func TestLinearRecord(t *testing.T) {
	l, err := NewLinear(ActionIndexed, 2, 3, weights.NewGaussianUV(1, 3))
	require.NoError(t, err)

	data, err := json.Marshal(l.Record())
	require.NoError(t, err)

	var r Record
	require.NoError(t, json.Unmarshal(data, &r))
	restored, err := FromRecord(r)
	require.NoError(t, err)
	assert.Equal(t, l.Params(), restored.Params())
	assert.Equal(t, ActionIndexed, restored.Layout())

	_, err = FromRecord(Record{Layout: "conv", Inputs: 1, Outputs: 1})
	assert.Error(t, err)
}

func TestQLayouts(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{0.5, -1})

	for _, layout := range []Layout{ActionIndexed, Joint, Generic} {
		q, err := NewQ(layout, 2, 3, weights.NewGaussianUV(0.1, 11))
		require.NoError(t, err, layout)

		values, err := q.Values(obs)
		require.NoError(t, err)
		require.Len(t, values, 3)

		for a := 0; a < 3; a++ {
			v, err := q.Value(obs, a)
			require.NoError(t, err)
			assert.InDelta(t, values[a], v, 1e-12, "%v", layout)
		}

		grad := make([]float64, q.NumParams())
		require.NoError(t, q.AddGradient(grad, obs, 2, 1))
		assert.Error(t, q.AddGradient(grad, obs, 3, 1))
	}

	q, err := NewQ(Generic, 2, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Outputs())
	assert.Equal(t, 3, q.Inputs())
}

func TestLoss(t *testing.T) {
	assert.Equal(t, 2.0, MSE.Derivative(2))
	assert.Equal(t, 1.0, Huber.Derivative(2))
	assert.Equal(t, -0.5, Huber.Derivative(-0.5))
	assert.Equal(t, 1.5, Huber.Value(2))
	assert.Error(t, Loss("l1").Valid())
}
