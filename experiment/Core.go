package experiment

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/generator"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

// fillBatch is the number of warm-up transitions passed to an agent at
// once
const fillBatch = 1024

// core runs an agent online in an environment, fitting the agent on
// the transitions it collects
type core struct {
	env   environment.Environment
	agent agent.Agent
}

// warmUp takes n steps with actions drawn uniformly from space and adds
// the resulting transitions to the agent's replay buffer without
// learning
func (c *core) warmUp(f agent.Filler, n int, space environment.Space,
	rng *rand.Rand) error {
	dataset := make([]ts.Transition, 0, fillBatch)

	step, err := c.env.Reset()
	if err != nil {
		return fmt.Errorf("warmUp: %w", err)
	}
	episodeSteps := 0
	for i := 0; i < n; i++ {
		action := environment.SampleAction(space, rng)
		next, err := c.step(&step, &episodeSteps, action, &dataset)
		if err != nil {
			return fmt.Errorf("warmUp: %w", err)
		}
		step = next

		if len(dataset) == fillBatch || i == n-1 {
			if err := f.Fill(dataset); err != nil {
				return fmt.Errorf("warmUp: %w", err)
			}
			dataset = make([]ts.Transition, 0, fillBatch)
		}
	}
	return nil
}

// learn runs the agent for the steps or episodes of one epoch, fitting
// it every StepsPerFit steps or EpisodesPerFit episodes. Transitions
// collected after the last fit of the epoch are discarded.
func (c *core) learn(controls generator.Controls) error {
	var (
		dataset      []ts.Transition
		steps        int
		episodes     int
		fitEpisodes  int
		episodeSteps int
	)

	step, err := c.env.Reset()
	if err != nil {
		return fmt.Errorf("learn: %w", err)
	}

	for {
		if controls.BySteps() && steps >= controls.Steps {
			return nil
		}
		if !controls.BySteps() && episodes >= controls.Episodes {
			return nil
		}

		action, err := c.agent.Policy().SelectAction(step.Observation)
		if err != nil {
			return fmt.Errorf("learn: %w", err)
		}
		next, err := c.step(&step, &episodeSteps, action, &dataset)
		if err != nil {
			return fmt.Errorf("learn: %w", err)
		}
		steps++
		if dataset[len(dataset)-1].Last {
			episodes++
			fitEpisodes++
		}
		step = next

		fit := fitEpisodes >= controls.EpisodesPerFit
		if controls.BySteps() {
			fit = len(dataset) >= controls.StepsPerFit
		}
		if fit {
			if err := c.agent.Fit(dataset); err != nil {
				return fmt.Errorf("learn: %w", err)
			}
			dataset = nil
			fitEpisodes = 0
		}
	}
}

// step takes action in the environment from *current, appends the
// transition to *dataset, and returns the step to act from next. Episodes
// are cut off at the environment's horizon; the environment is reset
// when an episode ends.
func (c *core) step(current *ts.TimeStep, episodeSteps *int,
	action *mat.VecDense, dataset *[]ts.Transition) (ts.TimeStep, error) {
	next, last, err := c.env.Step(action)
	if err != nil {
		return ts.TimeStep{}, err
	}
	*episodeSteps++

	t := ts.NewTransition(*current, action, next)
	if *episodeSteps >= c.env.Horizon() {
		t.Last = true
		last = true
	}
	*dataset = append(*dataset, t)

	if !last {
		return next, nil
	}
	*episodeSteps = 0
	return c.env.Reset()
}
