// Package generator binds sets of hyperparameters to the construction
// of learning agents. For each algorithm Variant it provides a default
// hyperparameter schema, assembles flat hyperparameters into the
// nested arguments the Variant's agent constructor expects, and builds
// the agent.
package generator

import (
	"fmt"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/hyperparam"
)

// Variant is a family of learning algorithms
type Variant string

const (
	ValueBased            Variant = "value-based"
	ActorCriticDiscrete   Variant = "actor-critic-discrete"
	ActorCriticContinuous Variant = "actor-critic-continuous"
	PolicyGradient        Variant = "policy-gradient"
	ActorCriticOffPolicy  Variant = "actor-critic-off-policy"
)

// Variants returns all available Variants
func Variants() []Variant {
	return []Variant{ValueBased, ActorCriticDiscrete, ActorCriticContinuous,
		PolicyGradient, ActorCriticOffPolicy}
}

// Capabilities describes the kinds of spaces a Variant can learn in
type Capabilities struct {
	DiscreteActions        bool
	ContinuousActions      bool
	DiscreteObservations   bool
	ContinuousObservations bool
}

// Supports returns a configuration error if a Variant with these
// Capabilities cannot learn in an environment described by desc
func (c Capabilities) Supports(desc environment.Descriptor) error {
	if err := desc.Validate(); err != nil {
		return configurationError("supports", err)
	}

	if desc.Action.Discrete() && !c.DiscreteActions {
		return configurationErrorf("supports", "discrete actions unsupported")
	}
	if !desc.Action.Discrete() && !c.ContinuousActions {
		return configurationErrorf("supports", "continuous actions "+
			"unsupported")
	}
	if desc.Observation.Discrete() && !c.DiscreteObservations {
		return configurationErrorf("supports", "discrete observations "+
			"unsupported")
	}
	if !desc.Observation.Discrete() && !c.ContinuousObservations {
		return configurationErrorf("supports", "continuous observations "+
			"unsupported")
	}
	return nil
}

// Definition holds everything needed to bind hyperparameters to the
// agents of a Variant
type Definition struct {
	Capabilities     Capabilities
	DefaultRegressor approximator.Layout

	// Schema returns the default hyperparameters of the Variant
	Schema func() hyperparam.Flat

	// Factory arranges resolved hyperparameters into the nested shape
	// the Variant's agent constructor expects, using the generic names
	// of the constructor arguments
	Factory func(flat hyperparam.Flat, regressor regressorFields) *hyperparam.Set

	// Renames maps generic constructor argument names to the names
	// under which they are persisted
	Renames Renames

	// Configure converts constructor arguments into an agent Config
	Configure func(args FactoryArgs, desc environment.Descriptor) (agent.Config, error)
}

var allObservations = Capabilities{
	DiscreteObservations:   true,
	ContinuousObservations: true,
}

func withActions(c Capabilities, discrete, continuous bool) Capabilities {
	c.DiscreteActions, c.ContinuousActions = discrete, continuous
	return c
}

// definitions is the dispatch table of Variants
var definitions = map[Variant]Definition{
	ValueBased: {
		Capabilities:     withActions(allObservations, true, false),
		DefaultRegressor: approximator.Joint,
		Schema:           valueBasedSchema,
		Factory:          valueBasedFactory,
		Renames:          nil,
		Configure:        configureValueBased,
	},
	ActorCriticDiscrete: {
		Capabilities:     withActions(allObservations, true, false),
		DefaultRegressor: approximator.Generic,
		Schema:           actorCriticDiscreteSchema,
		Factory:          actorCriticFactory,
		Renames:          actorCriticRenames,
		Configure:        configureActorCritic(false),
	},
	ActorCriticContinuous: {
		Capabilities:     withActions(allObservations, false, true),
		DefaultRegressor: approximator.Generic,
		Schema:           actorCriticContinuousSchema,
		Factory:          actorCriticFactory,
		Renames:          actorCriticRenames,
		Configure:        configureActorCritic(true),
	},
	PolicyGradient: {
		Capabilities:     withActions(allObservations, false, true),
		DefaultRegressor: approximator.Generic,
		Schema:           policyGradientSchema,
		Factory:          policyGradientFactory,
		Renames:          policyGradientRenames,
		Configure:        configurePolicyGradient,
	},
	ActorCriticOffPolicy: {
		Capabilities:     withActions(allObservations, false, true),
		DefaultRegressor: approximator.Generic,
		Schema:           offPolicySchema,
		Factory:          offPolicyFactory,
		Renames:          actorCriticRenames,
		Configure:        configureOffPolicy,
	},
}

// Lookup returns the Definition of a Variant
func Lookup(v Variant) (Definition, error) {
	def, ok := definitions[v]
	if !ok {
		return Definition{}, configurationErrorf("lookup", "unknown "+
			"variant %q", string(v))
	}
	return def, nil
}

// Schema returns the default hyperparameters of a Variant
func Schema(v Variant) (hyperparam.Flat, error) {
	def, err := Lookup(v)
	if err != nil {
		return nil, err
	}
	return def.Schema(), nil
}

// Valid returns an error if v is not a known Variant
func (v Variant) Valid() error {
	_, err := Lookup(v)
	return err
}

func (v Variant) String() string { return string(v) }

// ParseVariant returns the Variant named s
func ParseVariant(s string) (Variant, error) {
	v := Variant(s)
	if err := v.Valid(); err != nil {
		return "", fmt.Errorf("parseVariant: %w", err)
	}
	return v, nil
}
