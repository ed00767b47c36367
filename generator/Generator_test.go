package generator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/agent/actorcritic"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	h "github.com/samuelfneumann/autolearn/hyperparam"
)

func discreteDescriptor(actions int) environment.Descriptor {
	return environment.Descriptor{
		Name: "Cartpole-v1",
		Observation: environment.Space{
			Cardinality: environment.Continuous,
			Shape:       []int{4},
			Low:         []float64{-2.4, -10, -0.2, -10},
			High:        []float64{2.4, 10, 0.2, 10},
		},
		Action: environment.Space{
			Cardinality: environment.Discrete,
			Shape:       []int{1},
			Low:         []float64{0},
			High:        []float64{float64(actions - 1)},
			N:           actions,
		},
		Discount: 0.99,
		Horizon:  500,
	}
}

func continuousDescriptor() environment.Descriptor {
	return environment.Descriptor{
		Name: "Pendulum-v0",
		Observation: environment.Space{
			Cardinality: environment.Continuous,
			Shape:       []int{2},
			Low:         []float64{-3.15, -8},
			High:        []float64{3.15, 8},
		},
		Action: environment.Space{
			Cardinality: environment.Continuous,
			Shape:       []int{1},
			Low:         []float64{-2},
			High:        []float64{2},
		},
		Discount: 0.99,
		Horizon:  200,
	}
}

func descriptorFor(v Variant) environment.Descriptor {
	if v == ValueBased || v == ActorCriticDiscrete {
		return discreteDescriptor(2)
	}
	return continuousDescriptor()
}

func TestSchemaControlPairs(t *testing.T) {
	for _, v := range Variants() {
		t.Run(v.String(), func(t *testing.T) {
			schema, err := Schema(v)
			require.NoError(t, err)

			assert.NotEqual(t, schema.IsSet(StepsKey), schema.IsSet(EpisodesKey),
				"exactly one of %v and %v must be set", StepsKey, EpisodesKey)
			assert.True(t, schema.IsSet(EpisodesKey))
			assert.True(t, schema.IsSet(EpisodesPerFitKey))
			assert.False(t, schema.IsSet(StepsPerFitKey))

			both, err := schema.Override(map[string]any{
				StepsKey:       1000,
				StepsPerFitKey: 1,
			})
			require.NoError(t, err)

			_, err = Assemble(v, both, "", descriptorFor(v))
			require.Error(t, err)
			assert.True(t, IsConfiguration(err))
		})
	}
}

func TestSchemaDefaultsInDomain(t *testing.T) {
	for _, v := range Variants() {
		schema, err := Schema(v)
		require.NoError(t, err)

		for _, key := range schema.Keys() {
			leaf := schema[key]
			if !leaf.Mutable() {
				continue
			}
			assert.True(t, leaf.Domain().Contains(leaf.Value()),
				"%v: %v", v, leaf)
		}
	}
}

func TestAssembleStepControls(t *testing.T) {
	schema, err := Schema(ValueBased)
	require.NoError(t, err)

	steps, err := schema.Override(map[string]any{
		StepsKey:          1000,
		StepsPerFitKey:    1,
		EpisodesKey:       nil,
		EpisodesPerFitKey: nil,
	})
	require.NoError(t, err)

	a, err := Assemble(ValueBased, steps, "", discreteDescriptor(2))
	require.NoError(t, err)
	assert.True(t, a.Controls.BySteps())
	assert.Equal(t, 1000, a.Controls.StepsPerEpoch(500))

	incomplete, err := steps.Override(map[string]any{StepsPerFitKey: nil})
	require.NoError(t, err)
	_, err = Assemble(ValueBased, incomplete, "", discreteDescriptor(2))
	assert.True(t, IsConfiguration(err))

	neither, err := steps.Override(map[string]any{StepsKey: nil,
		StepsPerFitKey: nil})
	require.NoError(t, err)
	_, err = Assemble(ValueBased, neither, "", discreteDescriptor(2))
	assert.True(t, IsConfiguration(err))
}

func TestGenericRegressorLeavesActionsUnset(t *testing.T) {
	desc := discreteDescriptor(4)

	for _, v := range []Variant{ValueBased, ActorCriticDiscrete} {
		a, err := Assemble(v, nil, approximator.Generic, desc)
		require.NoError(t, err)

		var found bool
		a.Factory.Walk(func(path []string, leaf h.Hyperparameter) {
			if path[len(path)-1] != NActionsKey {
				return
			}
			found = true
			assert.True(t, leaf.IsUnset(), "%v: %v", v, leaf)
		})
		assert.True(t, found, "%v has no %v argument", v, NActionsKey)
	}
}

func TestSuppliedActionCountIsRecomputed(t *testing.T) {
	flat := h.NewFlat(h.Must(h.NewFixed(NActionsKey, h.Integer, 4)))

	a, err := Assemble(ActorCriticDiscrete, flat, approximator.Generic,
		discreteDescriptor(4))
	require.NoError(t, err)

	leaf, ok := a.Factory.Leaf("critic_params", NActionsKey)
	require.True(t, ok)
	assert.True(t, leaf.IsUnset())
}

func TestRegressorLayouts(t *testing.T) {
	desc := discreteDescriptor(3)

	tests := []struct {
		layout   approximator.Layout
		nActions any
		output   []int
	}{
		{approximator.ActionIndexed, 3, []int{1}},
		{approximator.Joint, 3, []int{3}},
		{approximator.Generic, h.Unset, []int{1}},
	}

	for _, test := range tests {
		a, err := Assemble(ValueBased, nil, test.layout, desc)
		require.NoError(t, err)

		args, err := a.Args().Sub("approximator_params")
		require.NoError(t, err)
		assert.Equal(t, test.nActions, args[NActionsKey])
		assert.Equal(t, test.output, args[OutputShapeKey])
		assert.Equal(t, []int{4}, args[InputShapeKey])

		layout, err := args.layout()
		require.NoError(t, err)
		assert.Equal(t, test.layout, layout)
	}

	_, err := Assemble(ActorCriticContinuous, nil, approximator.Joint,
		continuousDescriptor())
	assert.True(t, IsConfiguration(err))
}

func TestReloadKeepsSingleActionJointLayout(t *testing.T) {
	desc := discreteDescriptor(1)

	a, err := Assemble(ValueBased, nil, approximator.Joint, desc)
	require.NoError(t, err)
	args, err := a.Args().Sub("approximator_params")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, args[OutputShapeKey])
	assert.Equal(t, string(approximator.Joint), args[RegressorKey])

	persisted, err := a.Persisted()
	require.NoError(t, err)
	data, err := json.Marshal(persisted)
	require.NoError(t, err)
	decoded := h.NewSet()
	require.NoError(t, json.Unmarshal(data, decoded))

	b, err := Reload(ValueBased, decoded, desc)
	require.NoError(t, err)
	assert.Equal(t, approximator.Joint, b.Regressor)

	// Trees persisted without a layout fall back to inference
	delete(args, RegressorKey)
	layout, err := args.layout()
	require.NoError(t, err)
	assert.Equal(t, approximator.ActionIndexed, layout)
}

func TestLayoutMustMatchRegressorShape(t *testing.T) {
	a, err := Assemble(ValueBased, nil, approximator.Joint,
		discreteDescriptor(3))
	require.NoError(t, err)
	args, err := a.Args().Sub("approximator_params")
	require.NoError(t, err)

	args[RegressorKey] = string(approximator.ActionIndexed)
	_, err = args.layout()
	assert.Error(t, err)

	args[RegressorKey] = "tabular"
	_, err = args.layout()
	assert.Error(t, err)

	_, _, err = Build(a, discreteDescriptor(3), 0)
	require.NoError(t, err)
}

func TestPersistedActorCriticKeys(t *testing.T) {
	a, err := Assemble(ActorCriticDiscrete, nil, "", discreteDescriptor(2))
	require.NoError(t, err)

	_, _, err = Build(a, discreteDescriptor(2), 1)
	require.NoError(t, err)

	persisted, err := a.Persisted()
	require.NoError(t, err)

	flat, err := persisted.Flatten()
	require.NoError(t, err)
	for _, key := range []string{"actor_lr", "critic_lr", "actor_class",
		"critic_class"} {
		assert.Contains(t, flat, key)
	}
	persisted.Walk(func(path []string, leaf h.Hyperparameter) {
		key := path[len(path)-1]
		assert.NotEqual(t, "lr", key, "%v", path)
		assert.NotEqual(t, "class", key, "%v", path)
		assert.Equal(t, key, leaf.Name())
	})
	for _, key := range controlKeys {
		_, ok := persisted.Lookup(key)
		assert.True(t, ok, key)
	}

	// The factory view keeps its generic names
	_, ok := a.Factory.Leaf("actor_optimizer", "class")
	assert.True(t, ok)
	_, ok = a.Factory.Leaf("critic_params", "optimizer", "params", "lr")
	assert.True(t, ok)
}

func TestOffPolicyArguments(t *testing.T) {
	schema, err := Schema(ActorCriticOffPolicy)
	require.NoError(t, err)
	schema, err = schema.Override(map[string]any{
		"tau":          0.01,
		"policy_delay": 2,
		"critic_lr":    5e-4,
	})
	require.NoError(t, err)

	desc := continuousDescriptor()
	a, err := Assemble(ActorCriticOffPolicy, schema, "", desc)
	require.NoError(t, err)
	assert.Equal(t, approximator.Generic, a.Regressor)

	_, c, err := Build(a, desc, 3)
	require.NoError(t, err)
	ddpg, ok := c.(actorcritic.DDPGConfig)
	require.True(t, ok, "%T", c)
	assert.Equal(t, 0.01, ddpg.Tau)
	assert.Equal(t, 2, ddpg.PolicyDelay)
	assert.Equal(t, 0.2, ddpg.Sigma)
	assert.Equal(t, 100, ddpg.BatchSize)
	assert.Equal(t, approximator.MSE, ddpg.CriticLoss)

	persisted, err := a.Persisted()
	require.NoError(t, err)
	lr, ok := persisted.Leaf("critic_params", "optimizer", "params",
		"critic_lr")
	require.True(t, ok)
	assert.Equal(t, 5e-4, lr.Value())
}

func TestFactoryViewInvertsPersistedView(t *testing.T) {
	for _, v := range Variants() {
		a, err := Assemble(v, nil, "", descriptorFor(v))
		require.NoError(t, err)

		persisted, err := a.Persisted()
		require.NoError(t, err)

		factory, err := FactoryView(persisted, a.Renames)
		require.NoError(t, err)
		assert.True(t, a.Factory.Equal(factory), "%v: %v != %v", v,
			a.Factory, factory)
	}
}

func TestPersistedViewRejectsCollisions(t *testing.T) {
	factory := h.NewSet().
		PutLeaf(h.Must(h.NewFixed("lr", h.Real, 0.1))).
		PutLeaf(h.Must(h.NewFixed("actor_lr", h.Real, 0.2)))

	_, err := PersistedView(factory, Renames{{Path: []string{"lr"},
		Key: "actor_lr"}})
	assert.Error(t, err)

	_, err = PersistedView(factory, Renames{{Path: []string{"missing"},
		Key: "actor_lr"}})
	assert.Error(t, err)
}

func TestAssembleIgnoresUnknownAndRejectsKinds(t *testing.T) {
	flat := h.NewFlat(
		h.Must(h.NewFixed("momentum", h.Real, 0.9)),
		h.Must(h.NewReal("lr", 5e-4, 1e-5, 1e-3)),
	)
	a, err := Assemble(ValueBased, flat, "", discreteDescriptor(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"momentum"}, a.Ignored)

	lr, ok := a.Factory.Leaf("approximator_params", "optimizer", "params",
		"lr")
	require.True(t, ok)
	assert.Equal(t, 5e-4, lr.Value())

	bad := h.NewFlat(h.Must(h.NewFixed("batch_size", h.Real, 32.5)))
	_, err = Assemble(ValueBased, bad, "", discreteDescriptor(2))
	assert.True(t, IsConfiguration(err))
}

func TestCapabilityMismatch(t *testing.T) {
	tests := []struct {
		variant Variant
		desc    environment.Descriptor
	}{
		{ValueBased, continuousDescriptor()},
		{ActorCriticDiscrete, continuousDescriptor()},
		{ActorCriticContinuous, discreteDescriptor(2)},
		{PolicyGradient, discreteDescriptor(2)},
		{ActorCriticOffPolicy, discreteDescriptor(2)},
		{ValueBased, environment.Descriptor{}},
	}

	for _, test := range tests {
		_, err := Assemble(test.variant, nil, "", test.desc)
		require.Error(t, err, test.variant)
		assert.True(t, IsConfiguration(err), "%v: %v", test.variant, err)
		assert.False(t, IsConstruction(err))
	}

	_, err := Assemble(Variant("evolutionary"), nil, "", discreteDescriptor(2))
	assert.True(t, IsConfiguration(err))
}

func TestBuildAllVariants(t *testing.T) {
	for _, v := range Variants() {
		t.Run(v.String(), func(t *testing.T) {
			desc := descriptorFor(v)
			a, err := Assemble(v, nil, "", desc)
			require.NoError(t, err)

			ag, c, err := Build(a, desc, 7)
			require.NoError(t, err)
			require.NotNil(t, ag)
			assert.True(t, c.ValidAgent(ag))

			obs := mat.NewVecDense(desc.Observation.Dim(), nil)
			action, err := ag.Policy().SelectAction(obs)
			require.NoError(t, err)
			assert.Equal(t, desc.Action.Dim(), action.Len())
		})
	}
}

func TestBuildMismatchedRegressorIsConstructionError(t *testing.T) {
	a, err := Assemble(ValueBased, nil, approximator.Joint,
		discreteDescriptor(2))
	require.NoError(t, err)

	_, _, err = Build(a, discreteDescriptor(3), 0)
	require.Error(t, err)
	assert.True(t, IsConstruction(err))
}

func TestReloadRoundTrip(t *testing.T) {
	for _, v := range Variants() {
		t.Run(v.String(), func(t *testing.T) {
			desc := descriptorFor(v)

			schema, err := Schema(v)
			require.NoError(t, err)
			schema, err = schema.Override(map[string]any{EpochsKey: 3})
			require.NoError(t, err)

			a, err := Assemble(v, schema, approximator.Generic, desc)
			require.NoError(t, err)
			built, _, err := Build(a, desc, 11)
			require.NoError(t, err)

			persisted, err := a.Persisted()
			require.NoError(t, err)

			data, err := json.Marshal(persisted)
			require.NoError(t, err)
			decoded := h.NewSet()
			require.NoError(t, json.Unmarshal(data, decoded))

			b, err := Reload(v, decoded, desc)
			require.NoError(t, err)
			assert.Equal(t, a.Controls, b.Controls)
			assert.Equal(t, a.Regressor, b.Regressor)
			assert.Empty(t, b.Ignored)

			rebuilt, _, err := Build(b, desc, 11)
			require.NoError(t, err)

			state := mat.NewVecDense(desc.Observation.Dim(), nil)
			for i := 0; i < state.Len(); i++ {
				state.SetVec(i, 0.1*float64(i+1))
			}
			for i := 0; i < 10; i++ {
				want, err := built.Policy().SelectAction(state)
				require.NoError(t, err)
				got, err := rebuilt.Policy().SelectAction(state)
				require.NoError(t, err)
				assert.True(t, mat.Equal(want, got), "step %v", i)
			}
		})
	}
}
