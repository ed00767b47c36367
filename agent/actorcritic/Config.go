package actorcritic

import (
	"fmt"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/agent/policy"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/solver"
)

func init() {
	// Register the Config type so that it can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(agent.SoftmaxPPOLinear, Config{})
	agent.Register(agent.GaussianPPOLinear, Config{})
	agent.Register(agent.GaussianDDPGLinear, DDPGConfig{})
}

// Config implements a configuration for a PPO agent
type Config struct {
	// Policy is the type of actor, either policy.SoftmaxType for
	// discrete actions or policy.GaussianType for continuous actions
	Policy policy.Type
	Beta   float64 // Inverse temperature of a Softmax actor
	Std    float64 // Initial standard deviation of a Gaussian actor

	ActorSolver *solver.Solver

	// Critic regressor. A generic critic estimates state values; the
	// other layouts estimate action values, from which state values
	// are computed under the actor's action distribution.
	CriticLayout approximator.Layout
	CriticLoss   approximator.Loss
	CriticSolver *solver.Solver

	EpochsPolicy int     // Passes over each dataset
	BatchSize    int     // Minibatch size of each update
	EpsPPO       float64 // Clipping range of the probability ratio
	Lambda       float64 // GAE(λ) trace decay
	EntCoeff     float64 // Weight of the entropy bonus
}

// Create creates the PPO agent described by the Config
func (c Config) Create(desc environment.Descriptor,
	seed uint64) (agent.Agent, error) {
	return New(desc, c, seed)
}

// ValidAgent returns whether the argument agent is a valid agent for
// construction with the Config
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*PPO)
	return ok
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	switch c.Policy {
	case policy.SoftmaxType:
		if c.Beta <= 0 {
			return fmt.Errorf("beta must be positive, got %v", c.Beta)
		}
	case policy.GaussianType:
		if c.Std <= 0 {
			return fmt.Errorf("std must be positive, got %v", c.Std)
		}
	default:
		return fmt.Errorf("unsupported actor %q", c.Policy)
	}

	if c.ActorSolver == nil || c.CriticSolver == nil {
		return fmt.Errorf("actor and critic solvers cannot be nil")
	}
	if err := c.CriticLayout.Valid(); err != nil {
		return err
	}
	if err := c.CriticLoss.Valid(); err != nil {
		return err
	}
	if c.EpochsPolicy < 1 {
		return fmt.Errorf("n_epochs_policy must be positive")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.EpsPPO <= 0 || c.EpsPPO >= 1 {
		return fmt.Errorf("eps_ppo %v ∉ (0, 1)", c.EpsPPO)
	}
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("lam %v ∉ [0, 1]", c.Lambda)
	}
	if c.EntCoeff < 0 {
		return fmt.Errorf("ent_coeff cannot be negative")
	}
	return nil
}

// Type returns the type of the agent constructed by the Config
func (c Config) Type() agent.Type {
	if c.Policy == policy.GaussianType {
		return agent.GaussianPPOLinear
	}
	return agent.SoftmaxPPOLinear
}

// DDPGConfig implements a configuration for a DDPG agent
type DDPGConfig struct {
	Sigma float64 // Standard deviation of the exploration noise

	ActorSolver  *solver.Solver
	CriticLoss   approximator.Loss
	CriticSolver *solver.Solver

	BatchSize int

	// Experience replay parameters
	InitialReplaySize int
	MaxReplaySize     int

	Tau         float64 // Rate of the soft target updates
	PolicyDelay int     // Critic updates per actor update
}

// Create creates the DDPG agent described by the DDPGConfig
func (c DDPGConfig) Create(desc environment.Descriptor,
	seed uint64) (agent.Agent, error) {
	return NewDDPG(desc, c, seed)
}

// ValidAgent returns whether the argument agent is a valid agent for
// construction with the DDPGConfig
func (c DDPGConfig) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*DDPG)
	return ok
}

// Validate ensures that the DDPGConfig is valid
func (c DDPGConfig) Validate() error {
	if c.Sigma <= 0 {
		return fmt.Errorf("sigma must be positive, got %v", c.Sigma)
	}
	if c.ActorSolver == nil || c.CriticSolver == nil {
		return fmt.Errorf("actor and critic solvers cannot be nil")
	}
	if err := c.CriticLoss.Valid(); err != nil {
		return err
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.InitialReplaySize < 0 {
		return fmt.Errorf("initial_replay_size cannot be negative")
	}
	if c.MaxReplaySize < c.InitialReplaySize || c.MaxReplaySize < c.BatchSize {
		return fmt.Errorf("max_replay_size (%v) must be at least "+
			"initial_replay_size (%v) and batch_size (%v)", c.MaxReplaySize,
			c.InitialReplaySize, c.BatchSize)
	}
	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("tau %v ∉ (0, 1]", c.Tau)
	}
	if c.PolicyDelay < 1 {
		return fmt.Errorf("policy_delay must be positive")
	}
	return nil
}

// Type returns the type of the agent constructed by the DDPGConfig
func (c DDPGConfig) Type() agent.Type {
	return agent.GaussianDDPGLinear
}
