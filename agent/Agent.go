// Package agent defines the interface of learning agents and of
// immutable policy snapshots taken from them
package agent

import (
	"github.com/samuelfneumann/autolearn/agent/policy"
	"github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

// Policy determines how an agent selects actions
type Policy = policy.Policy

// Agent is a bound instance of a learning algorithm. An Agent learns
// from datasets of transitions collected with its own policy.
//
// Agents are never reconfigured in place: changing the hyperparameters
// of an Agent means constructing a new one.
type Agent interface {
	// Fit updates the Agent with a dataset of transitions in the order
	// they were experienced
	Fit(dataset []ts.Transition) error

	// Policy returns the live policy of the Agent, which changes as
	// the Agent learns
	Policy() Policy
}

// Filler is an Agent with a replay buffer which must hold some number
// of transitions before the Agent learns
type Filler interface {
	Agent

	// Fill adds transitions to the replay buffer without learning
	Fill(dataset []ts.Transition) error

	// WarmUp returns the number of transitions the buffer must hold
	// before the Agent learns
	WarmUp() int
}

// Config represents a configuration for creating an agent
type Config interface {
	// Create creates the agent that the config describes for an
	// environment with descriptor desc
	Create(desc environment.Descriptor, seed uint64) (Agent, error)

	// ValidAgent returns whether the argument agent could have been
	// created by the Config
	ValidAgent(Agent) bool

	// Validate returns an error describing whether or not the
	// configuration is valid
	Validate() error

	// Type returns the type of agent the Config creates
	Type() Type
}
