package generator

import (
	"fmt"

	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	h "github.com/samuelfneumann/autolearn/hyperparam"
)

// Assembly is the result of binding flat hyperparameters to a Variant
// and an environment
type Assembly struct {
	Variant   Variant
	Regressor approximator.Layout

	// Factory holds the agent constructor arguments under their generic
	// names
	Factory *h.Set

	// Controls and the hyperparameters they were read from. These are
	// never passed to the agent constructor.
	Controls      Controls
	ControlParams h.Flat

	// Renames maps the generic names of Factory to persisted names
	Renames Renames

	// Ignored lists the supplied hyperparameters which the Variant
	// does not use, in sorted order
	Ignored []string
}

// Args returns the resolved agent constructor arguments
func (a *Assembly) Args() FactoryArgs {
	return FactoryArgs(a.Factory.Values())
}

// Persisted returns the hyperparameters of the Assembly as they are
// persisted and reported: the constructor arguments under their
// persisted names plus the training controls at the top level. The
// returned Set is a new tree which shares nothing with the Assembly.
func (a *Assembly) Persisted() (*h.Set, error) {
	persisted, err := PersistedView(a.Factory, a.Renames)
	if err != nil {
		return nil, err
	}
	for _, key := range a.ControlParams.Keys() {
		persisted.Put(key, a.ControlParams[key])
	}
	return persisted, nil
}

// Rename moves the leaf at Path, within its parent Set, to Key
type Rename struct {
	Path []string
	Key  string
}

// Renames is a table of Renames applied in order
type Renames []Rename

var actorCriticRenames = Renames{
	{Path: []string{"actor_optimizer", "class"}, Key: "actor_class"},
	{Path: []string{"actor_optimizer", "params", "lr"}, Key: "actor_lr"},
	{Path: []string{"critic_params", "optimizer", "class"}, Key: "critic_class"},
	{Path: []string{"critic_params", "optimizer", "params", "lr"}, Key: "critic_lr"},
}

var policyGradientRenames = Renames{
	{Path: []string{"optimizer", "class"}, Key: "optimizer"},
}

// PersistedView returns a copy of the constructor arguments factory
// with each leaf named in renames moved to its persisted name. The
// argument is not modified. An error is returned if a renamed leaf does
// not exist or its persisted name is already taken.
func PersistedView(factory *h.Set, renames Renames) (*h.Set, error) {
	persisted := factory.Clone()

	for _, r := range renames {
		if len(r.Path) == 0 {
			return nil, fmt.Errorf("persistedView: empty rename path")
		}
		parentPath, key := r.Path[:len(r.Path)-1], r.Path[len(r.Path)-1]

		parent, ok := persisted.Sub(parentPath...)
		if !ok {
			return nil, fmt.Errorf("persistedView: no subtree at %v",
				parentPath)
		}
		leaf, ok := parent.Leaf(key)
		if !ok {
			return nil, fmt.Errorf("persistedView: no hyperparameter at %v",
				r.Path)
		}
		if _, taken := parent.Lookup(r.Key); taken {
			return nil, fmt.Errorf("persistedView: %v already exists beside %v",
				r.Key, r.Path)
		}

		parent.Delete(key)
		parent.PutLeaf(leaf.Renamed(r.Key))
	}
	return persisted, nil
}

// FactoryView returns the constructor arguments of a persisted tree by
// inverting renames
func FactoryView(persisted *h.Set, renames Renames) (*h.Set, error) {
	inverse := make(Renames, len(renames))
	for i, r := range renames {
		parent := r.Path[:len(r.Path)-1]
		path := append(append([]string(nil), parent...), r.Key)
		inverse[len(renames)-1-i] = Rename{Path: path,
			Key: r.Path[len(r.Path)-1]}
	}

	factory, err := PersistedView(persisted, inverse)
	if err != nil {
		return nil, fmt.Errorf("factoryView: %w", err)
	}
	for _, key := range controlKeys {
		factory.Delete(key)
	}
	return factory, nil
}

// Assemble binds flat hyperparameters to a Variant for an environment
// described by desc. Hyperparameters missing from flat take their
// default values. Hyperparameters derived from the environment and the
// regressor layout are recomputed; any supplied values for them are
// replaced. An empty layout selects the Variant's default regressor.
func Assemble(v Variant, flat h.Flat, layout approximator.Layout,
	desc environment.Descriptor) (*Assembly, error) {
	const op = "assemble"

	def, err := Lookup(v)
	if err != nil {
		return nil, err
	}
	if err := def.Capabilities.Supports(desc); err != nil {
		return nil, err
	}

	if layout == "" {
		layout = def.DefaultRegressor
	}
	reg, err := regressor(layout, desc)
	if err != nil {
		return nil, err
	}

	merged, ignored, err := merge(def.Schema(), flat)
	if err != nil {
		return nil, err
	}

	controls, err := controlsFrom(merged)
	if err != nil {
		return nil, err
	}
	controlParams := make(h.Flat, len(controlKeys))
	for _, key := range controlKeys {
		if leaf, ok := merged[key]; ok {
			controlParams[key] = leaf
		}
	}

	factory := def.Factory(merged, reg)
	if factory == nil {
		return nil, configurationErrorf(op, "%v: no constructor arguments", v)
	}

	return &Assembly{
		Variant:       v,
		Regressor:     layout,
		Factory:       factory,
		Controls:      controls,
		ControlParams: controlParams,
		Renames:       def.Renames,
		Ignored:       ignored,
	}, nil
}

// merge overlays supplied hyperparameters on the default schema
func merge(schema, flat h.Flat) (h.Flat, []string, error) {
	merged := schema.Clone()

	var ignored []string
	for _, key := range flat.Keys() {
		leaf := flat[key]
		switch key {
		case InputShapeKey, NActionsKey, OutputShapeKey, RegressorKey:
			continue
		}

		def, ok := schema[key]
		if !ok {
			ignored = append(ignored, key)
			continue
		}
		if def.Kind() != leaf.Kind() {
			return nil, nil, configurationErrorf("merge", "%v must be %v, "+
				"got %v", key, def.Kind(), leaf.Kind())
		}
		if leaf.Name() != key {
			leaf = leaf.Renamed(key)
		}
		merged[key] = leaf
	}
	return merged, ignored, nil
}

// regressorFields are the constructor arguments determining the shape
// of a regressor
type regressorFields struct {
	InputShape  h.Hyperparameter
	NActions    h.Hyperparameter
	OutputShape h.Hyperparameter
	Layout      h.Hyperparameter
}

// regressor computes the shape of a regressor with the given layout for
// an environment. Generic regressors never have an action count.
func regressor(layout approximator.Layout,
	desc environment.Descriptor) (regressorFields, error) {
	const op = "regressor"
	if err := layout.Valid(); err != nil {
		return regressorFields{}, configurationError(op, err)
	}

	fixed := func(key string, kind h.Kind, v any) h.Hyperparameter {
		return h.Must(h.NewFixed(key, kind, v))
	}
	shape := func(s []int) []int { return append([]int(nil), s...) }

	fields := regressorFields{
		InputShape: fixed(InputShapeKey, h.Categorical,
			shape(desc.Observation.Shape)),
		Layout: fixed(RegressorKey, h.Categorical, string(layout)),
	}

	switch layout {
	case approximator.Generic:
		fields.NActions = h.NewUnset(NActionsKey, h.Integer)
		fields.OutputShape = fixed(OutputShapeKey, h.Categorical,
			shape(desc.Action.Shape))
		return fields, nil

	case approximator.ActionIndexed, approximator.Joint:
		if !desc.Action.Discrete() || desc.Action.N < 1 {
			return regressorFields{}, configurationErrorf(op, "%v regressor "+
				"requires a finite number of actions", layout)
		}
		fields.NActions = fixed(NActionsKey, h.Integer, desc.Action.N)
		out := 1
		if layout == approximator.Joint {
			out = desc.Action.N
		}
		fields.OutputShape = fixed(OutputShapeKey, h.Categorical, []int{out})
	}
	return fields, nil
}

func (r regressorFields) set() *h.Set {
	return h.NewSet().
		PutLeaf(r.InputShape).
		PutLeaf(r.NActions).
		PutLeaf(r.OutputShape).
		PutLeaf(r.Layout)
}

// optimizer returns the constructor arguments of an optimizer
func optimizer(class, step h.Hyperparameter) *h.Set {
	return h.NewSet().
		PutLeaf(class).
		Put("params", h.NewSet().PutLeaf(step))
}

func putLeaves(s *h.Set, flat h.Flat, keys ...string) *h.Set {
	for _, key := range keys {
		if leaf, ok := flat[key]; ok {
			s.PutLeaf(leaf)
		}
	}
	return s
}

func valueBasedFactory(flat h.Flat, reg regressorFields) *h.Set {
	approximatorParams := reg.set().
		PutLeaf(flat["loss"]).
		Put("optimizer", optimizer(flat["class"], flat["lr"]))

	root := h.NewSet().
		Put("policy", putLeaves(h.NewSet(), flat, "epsilon", "epsilon_min",
			"epsilon_decay_steps")).
		Put("approximator_params", approximatorParams)

	return putLeaves(root, flat, "batch_size", "target_update_frequency",
		"initial_replay_size", "max_replay_size", "clip_reward")
}

func actorCriticFactory(flat h.Flat, reg regressorFields) *h.Set {
	actorOptimizer := optimizer(flat["actor_class"].Renamed("class"),
		flat["actor_lr"].Renamed("lr"))
	criticOptimizer := optimizer(flat["critic_class"].Renamed("class"),
		flat["critic_lr"].Renamed("lr"))

	criticParams := reg.set().
		PutLeaf(flat["loss"]).
		Put("optimizer", criticOptimizer)

	root := h.NewSet().
		Put("policy", putLeaves(h.NewSet(), flat, "beta", "std")).
		Put("actor_optimizer", actorOptimizer).
		Put("critic_params", criticParams)

	return putLeaves(root, flat, "n_epochs_policy", "batch_size", "eps_ppo",
		"lam", "ent_coeff")
}

func offPolicyFactory(flat h.Flat, reg regressorFields) *h.Set {
	actorOptimizer := optimizer(flat["actor_class"].Renamed("class"),
		flat["actor_lr"].Renamed("lr"))
	criticOptimizer := optimizer(flat["critic_class"].Renamed("class"),
		flat["critic_lr"].Renamed("lr"))

	criticParams := reg.set().
		PutLeaf(flat["loss"]).
		Put("optimizer", criticOptimizer)

	root := h.NewSet().
		Put("policy", putLeaves(h.NewSet(), flat, "sigma")).
		Put("actor_optimizer", actorOptimizer).
		Put("critic_params", criticParams)

	return putLeaves(root, flat, "batch_size", "initial_replay_size",
		"max_replay_size", "tau", "policy_delay")
}

func policyGradientFactory(flat h.Flat, reg regressorFields) *h.Set {
	return h.NewSet().
		Put("policy", reg.set()).
		Put("optimizer", optimizer(flat["optimizer"].Renamed("class"),
			flat["eps"])).
		PutLeaf(flat["maximize"])
}
