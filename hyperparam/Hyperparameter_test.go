package hyperparam

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestNewValidatesMutableValues(t *testing.T) {
	_, err := NewReal("lr", 1e-4, 1e-5, 1e-3)
	require.NoError(t, err)

	_, err = NewReal("lr", 1e-2, 1e-5, 1e-3)
	assert.Error(t, err)

	_, err = NewInteger("batch_size", 200, 16, 128)
	assert.Error(t, err)

	_, err = NewCategorical("class", "Nadam", "Adam", "SGD")
	assert.Error(t, err)

	_, err = New("epochs", Integer, 10, Domain{}, true)
	assert.Error(t, err, "mutable hyperparameters need a domain")

	_, err = New("x", Integer, 1.5, Range(0, 2), true)
	assert.Error(t, err, "integer kind must hold integral values")
}

func TestImmutableValuesSkipDomainCheck(t *testing.T) {
	h, err := New("beta", Real, 5.0, Range(1e-4, 0.9), false)
	require.NoError(t, err)
	assert.Equal(t, 5.0, h.Value())
}

func TestUnsetIsDistinctFromZero(t *testing.T) {
	h := NewUnset("n_steps", Integer)
	assert.True(t, h.IsUnset())

	zero, err := NewFixed("n_steps", Integer, 0)
	require.NoError(t, err)
	assert.False(t, zero.IsUnset())
	assert.False(t, h.Equal(zero))

	_, ok := h.Int()
	assert.False(t, ok)

	_, err = New("n_steps", Integer, Unset, Range(1, 10), true)
	assert.Error(t, err, "unset never lies in a domain")
}

func TestIntegerConversion(t *testing.T) {
	h, err := NewInteger("batch_size", 32, 16, 128)
	require.NoError(t, err)

	h, err = h.With(64.0)
	require.NoError(t, err)
	v, ok := h.Int()
	require.True(t, ok)
	assert.Equal(t, 64, v)
}

func TestMutateStaysInDomain(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	continuous := Must(NewReal("lr", 1e-4, 1e-5, 1e-3))
	integer := Must(NewInteger("batch_size", 32, 16, 128))
	cat := Must(NewCategorical("clip_reward", false, true, false))
	fixed := Must(NewFixed("maximize", Categorical, true))

	for i := 0; i < 200; i++ {
		for _, h := range []Hyperparameter{continuous, integer, cat} {
			m := h.Mutate(rng)
			assert.True(t, m.Domain().Contains(m.Value()), "%v", m)
			assert.Equal(t, h.Kind(), m.Kind())
		}
		assert.Equal(t, true, fixed.Mutate(rng).Value())
	}

	_, ok := integer.Mutate(rng).Value().(int)
	assert.True(t, ok)
}

func TestHyperparameterJSON(t *testing.T) {
	cases := []Hyperparameter{
		Must(NewReal("lr", 3e-4, 1e-5, 1e-3)),
		Must(NewInteger("batch_size", 32, 16, 128)),
		Must(NewCategorical("class", "Adam", "Adam", "SGD", "RMSProp")),
		Must(NewCategorical("clip_reward", false, true, false)),
		NewUnset("n_steps", Integer),
		Must(NewFixed("input_shape", Categorical, []int{4})),
	}

	for _, h := range cases {
		data, err := json.Marshal(h)
		require.NoError(t, err)

		var decoded Hyperparameter
		require.NoError(t, json.Unmarshal(data, &decoded), string(data))
		assert.True(t, h.Equal(decoded), "%v != %v", h, decoded)
	}
}

func TestUnsetMarshalsAsNull(t *testing.T) {
	data, err := json.Marshal(NewUnset("n_actions", Integer))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value":null`)
}
