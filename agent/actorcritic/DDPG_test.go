package actorcritic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/solver"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

func ddpgConfig(t *testing.T) DDPGConfig {
	t.Helper()
	actorSolver, err := solver.New(solver.Adam, 0.05)
	require.NoError(t, err)
	criticSolver, err := solver.New(solver.Adam, 0.05)
	require.NoError(t, err)

	return DDPGConfig{
		Sigma:             0.5,
		ActorSolver:       actorSolver,
		CriticLoss:        approximator.MSE,
		CriticSolver:      criticSolver,
		BatchSize:         32,
		InitialReplaySize: 64,
		MaxReplaySize:     1000,
		Tau:               0.05,
		PolicyDelay:       1,
	}
}

// peaked rewards actions by their closeness to 1
func peaked(a *mat.VecDense) float64 {
	d := a.AtVec(0) - 1
	return -d * d
}

func TestDDPGWaitsForWarmUp(t *testing.T) {
	d, err := NewDDPG(descriptor(false), ddpgConfig(t), 1)
	require.NoError(t, err)
	assert.Equal(t, 64, d.WarmUp())

	var _ agent.Filler = d

	require.NoError(t, d.Fit(collect(t, d, 63, peaked)))
	assert.Equal(t, 0, d.fits)
	for _, w := range d.critic.Params() {
		assert.Zero(t, w)
	}

	require.NoError(t, d.Fit(collect(t, d, 1, peaked)))
	assert.Equal(t, 1, d.fits)
}

func TestDDPGMovesActorTowardsBestAction(t *testing.T) {
	d, err := NewDDPG(descriptor(false), ddpgConfig(t), 3)
	require.NoError(t, err)

	require.NoError(t, d.Fill(collect(t, d, 64, peaked)))
	for i := 0; i < 400; i++ {
		require.NoError(t, d.Fit(collect(t, d, 4, peaked)))
	}

	action, err := d.Policy().Deterministic().SelectAction(
		mat.NewVecDense(1, []float64{1}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, action.AtVec(0), 0.3)
}

func TestDDPGSoftTargetUpdates(t *testing.T) {
	c := ddpgConfig(t)
	c.Tau = 0.25
	d, err := NewDDPG(descriptor(false), c, 5)
	require.NoError(t, err)

	require.NoError(t, d.Fit(collect(t, d, 64, peaked)))

	// Targets started at zero, so a single update scales the live weights
	for i, w := range d.critic.Params() {
		assert.InDelta(t, 0.25*w, d.targetCritic.Params()[i], 1e-12)
	}
	for i, w := range d.mean.Params() {
		assert.InDelta(t, 0.25*w, d.targetMean.Params()[i], 1e-12)
	}
}

func TestDDPGPolicyDelay(t *testing.T) {
	c := ddpgConfig(t)
	c.PolicyDelay = 2
	d, err := NewDDPG(descriptor(false), c, 7)
	require.NoError(t, err)
	require.NoError(t, d.Fill(collect(t, d, 64, peaked)))

	params := func() []float64 {
		return append([]float64(nil), d.mean.Params()...)
	}

	require.NoError(t, d.Fit(nil))
	first := params()
	assert.NotEqual(t, make([]float64, len(first)), first)

	require.NoError(t, d.Fit(nil))
	assert.Equal(t, first, params(), "actor updated between delays")

	require.NoError(t, d.Fit(nil))
	assert.NotEqual(t, first, params())
}

func TestDDPGBootstrapsNonAbsorbingTransitions(t *testing.T) {
	c := ddpgConfig(t)
	c.BatchSize = 1
	c.InitialReplaySize = 1
	d, err := NewDDPG(descriptor(false), c, 9)
	require.NoError(t, err)

	// A target critic valuing every pair at 1 adds γ to the target
	d.targetCritic.Params()[d.critic.NumParams()-1] = 1
	obs := mat.NewVecDense(1, []float64{1})
	tr := ts.Transition{
		State:     obs,
		Action:    mat.NewVecDense(1, []float64{0}),
		Reward:    1,
		NextState: obs,
	}

	grad, err := d.criticGradient([]ts.Transition{tr})
	require.NoError(t, err)

	// MSE derivative of 0 - (1 + 0.99) at the bias weight
	bias := grad[len(grad)-1]
	assert.InDelta(t, approximator.MSE.Derivative(-1.99), bias, 1e-12)

	tr.Absorbing = true
	grad, err = d.criticGradient([]ts.Transition{tr})
	require.NoError(t, err)
	assert.InDelta(t, approximator.MSE.Derivative(-1), grad[len(grad)-1],
		1e-12)
}

func TestDDPGConfiguration(t *testing.T) {
	_, err := NewDDPG(descriptor(true), ddpgConfig(t), 1)
	assert.Error(t, err, "DDPG needs continuous actions")

	for _, mutate := range []func(*DDPGConfig){
		func(c *DDPGConfig) { c.Sigma = 0 },
		func(c *DDPGConfig) { c.Tau = 0 },
		func(c *DDPGConfig) { c.Tau = 1.5 },
		func(c *DDPGConfig) { c.PolicyDelay = 0 },
		func(c *DDPGConfig) { c.MaxReplaySize = 10 },
		func(c *DDPGConfig) { c.ActorSolver = nil },
	} {
		c := ddpgConfig(t)
		mutate(&c)
		assert.Error(t, c.Validate())
	}
}

func TestDDPGConfigJSON(t *testing.T) {
	c := ddpgConfig(t)
	data, err := json.Marshal(agent.NewTypedConfig(c))
	require.NoError(t, err)

	var typed agent.TypedConfig
	require.NoError(t, json.Unmarshal(data, &typed))
	assert.Equal(t, agent.GaussianDDPGLinear, typed.Type)

	a, err := agent.Create(typed.Config, descriptor(false), 1)
	require.NoError(t, err)
	assert.IsType(t, &DDPG{}, a)
}
