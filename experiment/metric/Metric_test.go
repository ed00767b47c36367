package metric

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/agent/policy"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/environment/envconfig"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func cartpole(t *testing.T, cutoff int) environment.Environment {
	t.Helper()
	c := envconfig.NewConfig(envconfig.Cartpole, envconfig.Balance, false,
		cutoff, 0.9)
	env, err := c.Create(3)
	require.NoError(t, err)
	return env
}

func randomSnapshot(t *testing.T) *agent.Snapshot {
	t.Helper()
	q, err := approximator.NewQ(approximator.Joint, 4, 2, nil)
	require.NoError(t, err)
	p, err := policy.NewEGreedy(q, 1, 1, 1, 5)
	require.NoError(t, err)
	return agent.NewSnapshot(p, 5)
}

func TestDiscountedRewardSerial(t *testing.T) {
	m, err := NewDiscountedReward(4, 1, 9)
	require.NoError(t, err)

	eval, err := m.Evaluate(context.Background(), randomSnapshot(t),
		cartpole(t, 50))
	require.NoError(t, err)

	require.Equal(t, 4, eval.Episodes())
	require.Len(t, eval.Scores, 4)
	for i := range eval.Returns {
		// Cartpole rewards 1 per step, so discounting can only shrink
		// the return
		assert.Greater(t, eval.Scores[i], 0.0)
		assert.LessOrEqual(t, eval.Returns[i], eval.Scores[i])
		assert.LessOrEqual(t, eval.Scores[i], 50.0)
		assert.Len(t, eval.States[i], len(eval.Actions[i])+1)
	}
}

func TestDiscountedRewardParallelIsReproducible(t *testing.T) {
	m, err := NewDiscountedReward(8, 4, 21)
	require.NoError(t, err)

	env := cartpole(t, 100)
	first, err := m.Evaluate(context.Background(), randomSnapshot(t), env)
	require.NoError(t, err)
	second, err := m.Evaluate(context.Background(), randomSnapshot(t), env)
	require.NoError(t, err)

	assert.Equal(t, first.Returns, second.Returns)
	assert.InDelta(t, first.Score, second.Score, 1e-12)
}

func TestDiscountedRewardCancelled(t *testing.T) {
	m, err := NewDiscountedReward(8, 2, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.Evaluate(ctx, randomSnapshot(t), cartpole(t, 100))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDiscountedRewardValidates(t *testing.T) {
	_, err := NewDiscountedReward(0, 1, 0)
	assert.Error(t, err)

	m, err := NewDiscountedReward(1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Workers)
}
