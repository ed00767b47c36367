package policygradient

import (
	"fmt"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/solver"
)

func init() {
	// Register the Config type so that it can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(agent.GaussianGPOMDPLinear, Config{})
}

// Config implements a configuration for a GPOMDP agent
type Config struct {
	// Solver adapts the policy weights. For the Adaptive solver, the
	// step size is the bound on the length of each step.
	Solver *solver.Solver

	// Maximize determines whether the solver ascends the estimated
	// gradient of the return, or descends it
	Maximize bool
}

// Create creates the GPOMDP agent described by the Config
func (c Config) Create(desc environment.Descriptor,
	seed uint64) (agent.Agent, error) {
	return New(desc, c, seed)
}

// ValidAgent returns whether the argument agent is a valid agent for
// construction with the Config
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*GPOMDP)
	return ok
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.Solver == nil {
		return fmt.Errorf("solver cannot be nil")
	}
	return nil
}

// Type returns the type of the agent constructed by the Config
func (c Config) Type() agent.Type {
	return agent.GaussianGPOMDPLinear
}
