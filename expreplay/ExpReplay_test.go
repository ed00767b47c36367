package expreplay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/autolearn/timestep"
)

func transition(r float64) ts.Transition {
	v := mat.NewVecDense(1, []float64{r})
	return ts.Transition{State: v, Action: v, Reward: r, NextState: v}
}

func TestRingRequiresMinCapacity(t *testing.T) {
	buffer, err := Config{SampleSize: 2, MinReplayCapacity: 3,
		MaxReplayCapacity: 5}.Create(1)
	require.NoError(t, err)

	_, err = buffer.Sample()
	assert.True(t, IsEmptyBuffer(err))

	require.NoError(t, buffer.Add(transition(0)))
	require.NoError(t, buffer.Add(transition(1)))
	_, err = buffer.Sample()
	assert.True(t, IsInsufficientSamples(err))
	assert.False(t, buffer.Initialized())

	require.NoError(t, buffer.Add(transition(2)))
	batch, err := buffer.Sample()
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}

func TestRingOverwritesOldest(t *testing.T) {
	buffer, err := Config{SampleMethod: Fifo, SampleSize: 3,
		MinReplayCapacity: 1, MaxReplayCapacity: 3}.Create(1)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, buffer.Add(transition(float64(i))))
	}
	assert.Equal(t, 3, buffer.Capacity())

	batch, err := buffer.Sample()
	require.NoError(t, err)
	rewards := []float64{batch[0].Reward, batch[1].Reward, batch[2].Reward}
	assert.Equal(t, []float64{2, 3, 4}, rewards)
}

func TestRingRejectsIncompleteTransitions(t *testing.T) {
	buffer, err := Config{SampleSize: 1, MinReplayCapacity: 1,
		MaxReplayCapacity: 1}.Create(1)
	require.NoError(t, err)
	assert.Error(t, buffer.Add(ts.Transition{}))
}

func TestInvalidConfigs(t *testing.T) {
	configs := []Config{
		{SampleSize: 0, MinReplayCapacity: 1, MaxReplayCapacity: 1},
		{SampleSize: 1, MinReplayCapacity: 0, MaxReplayCapacity: 1},
		{SampleSize: 1, MinReplayCapacity: 5, MaxReplayCapacity: 2},
		{SampleSize: 4, MinReplayCapacity: 1, MaxReplayCapacity: 2},
		{SampleMethod: "Prioritized", SampleSize: 1, MinReplayCapacity: 1,
			MaxReplayCapacity: 2},
	}
	for _, c := range configs {
		_, err := c.Create(0)
		assert.Error(t, err, "%+v", c)
	}
}
