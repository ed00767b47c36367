package generator

import (
	"fmt"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/agent/actorcritic"
	"github.com/samuelfneumann/autolearn/agent/policy"
	"github.com/samuelfneumann/autolearn/agent/policygradient"
	"github.com/samuelfneumann/autolearn/agent/valuebased"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	h "github.com/samuelfneumann/autolearn/hyperparam"
	"github.com/samuelfneumann/autolearn/solver"
)

// Build constructs the agent of an Assembly for an environment
// described by desc. The returned Config describes the agent and can
// be serialized with agent.TypedConfig. Build never panics; failures
// are returned as construction errors.
func Build(a *Assembly, desc environment.Descriptor,
	seed uint64) (ag agent.Agent, c agent.Config, err error) {
	const op = "build"

	defer func() {
		if r := recover(); r != nil {
			ag, c = nil, nil
			err = constructionError(op, fmt.Errorf("%v: panic: %v",
				a.Variant, r))
		}
	}()

	def, err := Lookup(a.Variant)
	if err != nil {
		return nil, nil, err
	}

	c, err = def.Configure(a.Args(), desc)
	if err != nil {
		return nil, nil, constructionError(op, fmt.Errorf("%v: %w",
			a.Variant, err))
	}

	ag, err = agent.Create(c, desc, seed)
	if err != nil {
		return nil, nil, constructionError(op, err)
	}
	return ag, c, nil
}

// Reload assembles the hyperparameters of a persisted tree, as returned
// by Assembly.Persisted, for the same Variant and environment. The
// regressor layout is recovered from the tree's derived arguments.
func Reload(v Variant, persisted *h.Set,
	desc environment.Descriptor) (*Assembly, error) {
	const op = "reload"

	def, err := Lookup(v)
	if err != nil {
		return nil, err
	}

	factory, err := FactoryView(persisted, def.Renames)
	if err != nil {
		return nil, configurationError(op, err)
	}
	layout, err := regressorArgs(FactoryArgs(factory.Values()))
	if err != nil {
		return nil, configurationError(op, err)
	}

	flat, err := persisted.Flatten()
	if err != nil {
		return nil, configurationError(op, err)
	}
	return Assemble(v, flat, layout, desc)
}

// regressorArgs finds the regressor arguments of a constructor argument
// tree and returns the layout they encode
func regressorArgs(args FactoryArgs) (approximator.Layout, error) {
	for _, path := range [][]string{
		{"approximator_params"}, {"critic_params"}, {"policy"},
	} {
		sub, err := args.Sub(path...)
		if err == nil {
			if _, ok := sub[OutputShapeKey]; ok {
				return sub.layout()
			}
		}
	}
	return "", fmt.Errorf("no regressor arguments")
}

// checkRegressor ensures that regressor arguments describe the spaces
// of desc and returns the layout they encode
func checkRegressor(args FactoryArgs,
	desc environment.Descriptor) (approximator.Layout, error) {
	in, err := args.Shape(InputShapeKey)
	if err != nil {
		return "", err
	}
	if !sameShape(in, desc.Observation.Shape) {
		return "", fmt.Errorf("%v %v does not match observation shape %v",
			InputShapeKey, in, desc.Observation.Shape)
	}

	layout, err := args.layout()
	if err != nil {
		return "", err
	}
	if layout == approximator.Generic {
		return layout, nil
	}

	n, err := args.Int(NActionsKey)
	if err != nil {
		return "", err
	}
	if !desc.Action.Discrete() || n != desc.Action.N {
		return "", fmt.Errorf("%v %v does not match the action space",
			NActionsKey, n)
	}
	return layout, nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// newSolver creates the solver described by optimizer arguments
// {class, params{<stepKey>}}
func newSolver(args FactoryArgs, stepKey string) (*solver.Solver, error) {
	class, err := args.String("class")
	if err != nil {
		return nil, err
	}
	params, err := args.Sub("params")
	if err != nil {
		return nil, err
	}
	step, err := params.Float(stepKey)
	if err != nil {
		return nil, err
	}
	return solver.New(solver.Type(class), step)
}

func configureValueBased(args FactoryArgs,
	desc environment.Descriptor) (agent.Config, error) {
	pol, err := args.Sub("policy")
	if err != nil {
		return nil, err
	}
	approx, err := args.Sub("approximator_params")
	if err != nil {
		return nil, err
	}
	opt, err := approx.Sub("optimizer")
	if err != nil {
		return nil, err
	}

	c := valuebased.Config{}
	if c.Layout, err = checkRegressor(approx, desc); err != nil {
		return nil, err
	}
	if c.Solver, err = newSolver(opt, "lr"); err != nil {
		return nil, err
	}
	loss, err := approx.String("loss")
	if err != nil {
		return nil, err
	}
	c.Loss = approximator.Loss(loss)

	if c.Epsilon, err = pol.Float("epsilon"); err != nil {
		return nil, err
	}
	if c.EpsilonMin, err = pol.Float("epsilon_min"); err != nil {
		return nil, err
	}
	if c.EpsilonDecaySteps, err = pol.Int("epsilon_decay_steps"); err != nil {
		return nil, err
	}
	if c.BatchSize, err = args.Int("batch_size"); err != nil {
		return nil, err
	}
	if c.TargetUpdateFrequency, err = args.Int("target_update_frequency"); err != nil {
		return nil, err
	}
	if c.InitialReplaySize, err = args.Int("initial_replay_size"); err != nil {
		return nil, err
	}
	if c.MaxReplaySize, err = args.Int("max_replay_size"); err != nil {
		return nil, err
	}
	if c.ClipReward, err = args.Bool("clip_reward"); err != nil {
		return nil, err
	}
	return c, nil
}

func configureActorCritic(continuous bool) func(FactoryArgs,
	environment.Descriptor) (agent.Config, error) {
	return func(args FactoryArgs,
		desc environment.Descriptor) (agent.Config, error) {
		pol, err := args.Sub("policy")
		if err != nil {
			return nil, err
		}
		actorOpt, err := args.Sub("actor_optimizer")
		if err != nil {
			return nil, err
		}
		critic, err := args.Sub("critic_params")
		if err != nil {
			return nil, err
		}
		criticOpt, err := critic.Sub("optimizer")
		if err != nil {
			return nil, err
		}

		c := actorcritic.Config{}
		if continuous {
			c.Policy = policy.GaussianType
			if c.Std, err = pol.Float("std"); err != nil {
				return nil, err
			}
		} else {
			c.Policy = policy.SoftmaxType
			if c.Beta, err = pol.Float("beta"); err != nil {
				return nil, err
			}
		}

		if c.ActorSolver, err = newSolver(actorOpt, "lr"); err != nil {
			return nil, err
		}
		if c.CriticSolver, err = newSolver(criticOpt, "lr"); err != nil {
			return nil, err
		}
		if c.CriticLayout, err = checkRegressor(critic, desc); err != nil {
			return nil, err
		}
		loss, err := critic.String("loss")
		if err != nil {
			return nil, err
		}
		c.CriticLoss = approximator.Loss(loss)

		if c.EpochsPolicy, err = args.Int("n_epochs_policy"); err != nil {
			return nil, err
		}
		if c.BatchSize, err = args.Int("batch_size"); err != nil {
			return nil, err
		}
		if c.EpsPPO, err = args.Float("eps_ppo"); err != nil {
			return nil, err
		}
		if c.Lambda, err = args.Float("lam"); err != nil {
			return nil, err
		}
		if c.EntCoeff, err = args.Float("ent_coeff"); err != nil {
			return nil, err
		}
		return c, nil
	}
}

func configureOffPolicy(args FactoryArgs,
	desc environment.Descriptor) (agent.Config, error) {
	pol, err := args.Sub("policy")
	if err != nil {
		return nil, err
	}
	actorOpt, err := args.Sub("actor_optimizer")
	if err != nil {
		return nil, err
	}
	critic, err := args.Sub("critic_params")
	if err != nil {
		return nil, err
	}
	criticOpt, err := critic.Sub("optimizer")
	if err != nil {
		return nil, err
	}

	layout, err := checkRegressor(critic, desc)
	if err != nil {
		return nil, err
	}
	if layout != approximator.Generic {
		return nil, fmt.Errorf("deterministic actor requires a %v critic, "+
			"got %v", approximator.Generic, layout)
	}

	c := actorcritic.DDPGConfig{}
	if c.Sigma, err = pol.Float("sigma"); err != nil {
		return nil, err
	}
	if c.ActorSolver, err = newSolver(actorOpt, "lr"); err != nil {
		return nil, err
	}
	if c.CriticSolver, err = newSolver(criticOpt, "lr"); err != nil {
		return nil, err
	}
	loss, err := critic.String("loss")
	if err != nil {
		return nil, err
	}
	c.CriticLoss = approximator.Loss(loss)

	if c.BatchSize, err = args.Int("batch_size"); err != nil {
		return nil, err
	}
	if c.InitialReplaySize, err = args.Int("initial_replay_size"); err != nil {
		return nil, err
	}
	if c.MaxReplaySize, err = args.Int("max_replay_size"); err != nil {
		return nil, err
	}
	if c.Tau, err = args.Float("tau"); err != nil {
		return nil, err
	}
	if c.PolicyDelay, err = args.Int("policy_delay"); err != nil {
		return nil, err
	}
	return c, nil
}

func configurePolicyGradient(args FactoryArgs,
	desc environment.Descriptor) (agent.Config, error) {
	pol, err := args.Sub("policy")
	if err != nil {
		return nil, err
	}
	layout, err := checkRegressor(pol, desc)
	if err != nil {
		return nil, err
	}
	if layout != approximator.Generic {
		return nil, fmt.Errorf("gaussian policy requires a %v regressor, "+
			"got %v", approximator.Generic, layout)
	}

	opt, err := args.Sub("optimizer")
	if err != nil {
		return nil, err
	}

	c := policygradient.Config{}
	if c.Solver, err = newSolver(opt, "eps"); err != nil {
		return nil, err
	}
	if c.Maximize, err = args.Bool("maximize"); err != nil {
		return nil, err
	}
	return c, nil
}
