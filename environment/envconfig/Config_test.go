package envconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	env "github.com/samuelfneumann/autolearn/environment"
)

func TestCreateAll(t *testing.T) {
	tests := []struct {
		name     EnvName
		obs      int
		discrete int
	}{
		{Cartpole, 4, 2},
		{Pendulum, 2, 5},
		{MountainCar, 2, 3},
		{Acrobot, 4, 3},
	}

	for _, test := range tests {
		for _, continuous := range []bool{false, true} {
			c := NewConfig(test.name, DefaultTask(test.name), continuous, 50,
				0.9)
			e, err := c.Create(3)
			require.NoError(t, err, "%v", test.name)

			desc := env.Describe(e)
			require.NoError(t, desc.Validate())
			assert.Equal(t, []int{test.obs}, desc.Observation.Shape)
			assert.Equal(t, 50, desc.Horizon)
			assert.Equal(t, 0.9, desc.Discount)
			assert.Equal(t, !continuous, desc.Action.Discrete())
			if !continuous {
				assert.Equal(t, test.discrete, desc.Action.N)
			}

			_, ok := e.(env.Cloner)
			assert.True(t, ok, "%v must be clonable", desc.Name)

			runEpisode(t, e, desc)
		}
	}
}

// runEpisode steps e with random actions until the episode ends
func runEpisode(t *testing.T, e env.Environment, desc env.Descriptor) {
	t.Helper()
	rng := rand.New(rand.NewSource(1))

	step, err := e.Reset()
	require.NoError(t, err)
	require.True(t, step.First())

	for i := 1; ; i++ {
		require.LessOrEqual(t, i, desc.Horizon, "%v exceeded its horizon",
			desc.Name)
		next, last, err := e.Step(env.SampleAction(desc.Action, rng))
		require.NoError(t, err)
		assert.Equal(t, i, next.Number)
		if last {
			return
		}
	}
}

func TestCreateRejectsUnknown(t *testing.T) {
	_, err := NewConfig(Cartpole, SwingUp, false, 10, 1).Create(0)
	assert.Error(t, err)

	_, err = NewConfig(MountainCar, Balance, false, 10, 1).Create(0)
	assert.Error(t, err)

	_, err = NewConfig("Hopper", "", false, 10, 1).Create(0)
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	e, err := CreateMountainCar(false, Goal, 100, 1, 1)
	require.NoError(t, err)
	clone, err := e.(env.Cloner).Clone(2)
	require.NoError(t, err)

	first, err := e.Reset()
	require.NoError(t, err)
	cloned, err := clone.Reset()
	require.NoError(t, err)
	assert.NotEqual(t, first.Observation.AtVec(0), cloned.Observation.AtVec(0))

	// Stepping the clone leaves the original untouched
	_, _, err = clone.Step(env.SampleAction(env.Describe(clone).Action,
		rand.New(rand.NewSource(0))))
	require.NoError(t, err)
	next, _, err := e.Step(env.SampleAction(env.Describe(e).Action,
		rand.New(rand.NewSource(0))))
	require.NoError(t, err)
	assert.Equal(t, 1, next.Number)
}

func TestDefaultTask(t *testing.T) {
	assert.Equal(t, Balance, DefaultTask(Cartpole))
	assert.Equal(t, SwingUp, DefaultTask(Pendulum))
	assert.Equal(t, SwingUp, DefaultTask(Acrobot))
	assert.Equal(t, Goal, DefaultTask(MountainCar))
}
