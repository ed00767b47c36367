package valuebased

import (
	"fmt"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/approximator"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/solver"
)

func init() {
	// Register the Config type so that it can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(agent.EGreedyDQNLinear, Config{})
}

// Config implements a configuration for a DQN agent
type Config struct {
	// Behaviour policy ε schedule
	Epsilon           float64
	EpsilonMin        float64
	EpsilonDecaySteps int

	// Action-value function
	Layout approximator.Layout
	Loss   approximator.Loss
	Solver *solver.Solver

	BatchSize int

	// Number of calls to Fit between target weight updates
	TargetUpdateFrequency int

	// Experience replay parameters
	InitialReplaySize int
	MaxReplaySize     int

	// Whether rewards are clipped to [-1, 1] before learning
	ClipReward bool
}

// Create creates the DQN agent described by the Config
func (c Config) Create(desc environment.Descriptor,
	seed uint64) (agent.Agent, error) {
	return New(desc, c, seed)
}

// ValidAgent returns whether the argument agent is a valid agent for
// construction with the Config
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*DQN)
	return ok
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("epsilon %v ∉ [0, 1]", c.Epsilon)
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > c.Epsilon {
		return fmt.Errorf("epsilon_min %v ∉ [0, %v]", c.EpsilonMin, c.Epsilon)
	}
	if c.EpsilonDecaySteps < 1 {
		return fmt.Errorf("epsilon_decay_steps must be positive")
	}
	if err := c.Layout.Valid(); err != nil {
		return err
	}
	if err := c.Loss.Valid(); err != nil {
		return err
	}
	if c.Solver == nil {
		return fmt.Errorf("solver cannot be nil")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.TargetUpdateFrequency < 1 {
		return fmt.Errorf("target_update_frequency must be positive")
	}
	if c.InitialReplaySize < 0 {
		return fmt.Errorf("initial_replay_size cannot be negative")
	}
	if c.MaxReplaySize < c.InitialReplaySize || c.MaxReplaySize < c.BatchSize {
		return fmt.Errorf("max_replay_size (%v) must be at least "+
			"initial_replay_size (%v) and batch_size (%v)", c.MaxReplaySize,
			c.InitialReplaySize, c.BatchSize)
	}
	return nil
}

// Type returns the type of the agent constructed by the Config
func (c Config) Type() agent.Type {
	return agent.EGreedyDQNLinear
}
