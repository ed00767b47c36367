package generator

import (
	h "github.com/samuelfneumann/autolearn/hyperparam"
)

// Names of the hyperparameters which control training and are never
// passed to an agent constructor
const (
	EpochsKey         = "n_epochs"
	StepsKey          = "n_steps"
	StepsPerFitKey    = "n_steps_per_fit"
	EpisodesKey       = "n_episodes"
	EpisodesPerFitKey = "n_episodes_per_fit"
)

// Names of the hyperparameters derived from the environment and the
// regressor layout
const (
	InputShapeKey  = "input_shape"
	NActionsKey    = "n_actions"
	OutputShapeKey = "output_shape"
	RegressorKey   = "regressor_type"
)

// optimizers are the solvers selectable through class hyperparameters
var optimizers = []any{"Adam", "SGD", "RMSProp"}

// controls returns the default training controls. Training is
// controlled by the episode count pair, the step count pair is unset.
func controls(maxEpisodesPerFit int) []h.Hyperparameter {
	return []h.Hyperparameter{
		h.Must(h.NewInteger(EpochsKey, 10, 1, 50)),
		h.NewUnset(StepsKey, h.Integer),
		h.NewUnset(StepsPerFitKey, h.Integer),
		h.Must(h.NewInteger(EpisodesKey, 500, 10, 1000)),
		h.Must(h.NewInteger(EpisodesPerFitKey, 50, 1, maxEpisodesPerFit)),
	}
}

func valueBasedSchema() h.Flat {
	return h.NewFlat(append(controls(100),
		h.Must(h.NewCategorical("class", "Adam", optimizers...)),
		h.Must(h.NewReal("lr", 1e-4, 1e-5, 1e-3)),
		h.Must(h.NewCategorical("loss", "huber", "huber", "mse")),
		h.Must(h.NewInteger("batch_size", 32, 16, 128)),
		h.Must(h.NewInteger("target_update_frequency", 250, 100, 1000)),
		h.Must(h.NewInteger("initial_replay_size", 50000, 10000, 100000)),
		h.Must(h.NewInteger("max_replay_size", 1000000, 10000, 1000000)),
		h.Must(h.NewCategorical("clip_reward", false, true, false)),
		h.Must(h.NewFixed("epsilon", h.Real, 1.0)),
		h.Must(h.NewReal("epsilon_min", 0.01, 0, 0.2)),
		h.Must(h.NewInteger("epsilon_decay_steps", 1000000, 1000, 2000000)),
	)...)
}

func actorCriticSchema() []h.Hyperparameter {
	return append(controls(1000),
		h.Must(h.NewCategorical("actor_class", "Adam", optimizers...)),
		h.Must(h.NewReal("actor_lr", 3e-4, 1e-5, 1e-3)),
		h.Must(h.NewCategorical("critic_class", "Adam", optimizers...)),
		h.Must(h.NewReal("critic_lr", 3e-4, 1e-5, 1e-3)),
		h.Must(h.NewCategorical("loss", "mse", "mse", "huber")),
		h.Must(h.NewInteger("n_epochs_policy", 10, 1, 100)),
		h.Must(h.NewInteger("batch_size", 64, 8, 64)),
		h.Must(h.NewReal("eps_ppo", 0.2, 0.08, 0.35)),
		h.Must(h.NewReal("lam", 0.95, 0.85, 0.99)),
		h.Must(h.NewReal("ent_coeff", 0, 0, 0.02)),
	)
}

func actorCriticDiscreteSchema() h.Flat {
	beta := h.Must(h.New("beta", h.Real, 0.001, h.Range(1e-4, 0.9), false))
	return h.NewFlat(append(actorCriticSchema(), beta)...)
}

func actorCriticContinuousSchema() h.Flat {
	std := h.Must(h.NewReal("std", 5, 0.1, 20))
	return h.NewFlat(append(actorCriticSchema(), std)...)
}

func offPolicySchema() h.Flat {
	return h.NewFlat(append(controls(100),
		h.Must(h.NewCategorical("actor_class", "Adam", optimizers...)),
		h.Must(h.NewReal("actor_lr", 1e-3, 1e-5, 1e-3)),
		h.Must(h.NewCategorical("critic_class", "Adam", optimizers...)),
		h.Must(h.NewReal("critic_lr", 1e-3, 1e-5, 1e-3)),
		h.Must(h.NewCategorical("loss", "mse", "mse", "huber")),
		h.Must(h.NewInteger("batch_size", 100, 8, 128)),
		h.Must(h.NewInteger("initial_replay_size", 5000, 1000, 50000)),
		h.Must(h.NewInteger("max_replay_size", 1000000, 10000, 1000000)),
		h.Must(h.NewReal("tau", 0.005, 1e-3, 0.1)),
		h.Must(h.NewInteger("policy_delay", 1, 1, 10)),
		h.Must(h.NewReal("sigma", 0.2, 0.01, 2)),
	)...)
}

func policyGradientSchema() h.Flat {
	return h.NewFlat(append(controls(100),
		h.Must(h.NewCategorical("optimizer", "Adaptive", "Adaptive", "Adam",
			"SGD", "RMSProp")),
		h.Must(h.NewReal("eps", 0.01, 1e-4, 0.1)),
		h.Must(h.NewFixed("maximize", h.Categorical, true)),
	)...)
}
