// Package metric implements evaluation metrics, which score policy
// snapshots by running them in an environment
package metric

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/autolearn/agent"
	"github.com/samuelfneumann/autolearn/environment"
)

// Evaluation is the result of evaluating a policy snapshot over a
// number of episodes
type Evaluation struct {
	// Score is the aggregate score of the snapshot
	Score float64

	// Returns holds the discounted return of each episode
	Returns []float64

	// Scores holds the undiscounted return of each episode
	Scores []float64

	// Actions and States hold the trajectory of each episode. States
	// includes the starting state, so each episode has one more state
	// than actions.
	Actions [][][]float64
	States  [][][]float64
}

// Episodes returns the number of evaluated episodes
func (e Evaluation) Episodes() int {
	return len(e.Returns)
}

// Metric scores policy snapshots
type Metric interface {
	Evaluate(ctx context.Context, s *agent.Snapshot,
		env environment.Environment) (Evaluation, error)
}

// DiscountedReward scores a snapshot by its mean discounted return
// over a fixed number of episodes. When Workers is above 1 and the
// environment implements environment.Cloner, episodes run in parallel,
// each on its own copy of the environment and snapshot.
type DiscountedReward struct {
	Episodes int
	Workers  int
	Seed     uint64
}

// NewDiscountedReward returns a new DiscountedReward metric
func NewDiscountedReward(episodes, workers int,
	seed uint64) (DiscountedReward, error) {
	if episodes < 1 {
		return DiscountedReward{}, fmt.Errorf("newDiscountedReward: "+
			"episodes must be positive, got %v", episodes)
	}
	if workers < 1 {
		workers = 1
	}
	return DiscountedReward{episodes, workers, seed}, nil
}

// Evaluate runs the snapshot for d.Episodes episodes
func (d DiscountedReward) Evaluate(ctx context.Context, s *agent.Snapshot,
	env environment.Environment) (Evaluation, error) {
	if s == nil || env == nil {
		return Evaluation{}, errors.New("evaluate: snapshot and " +
			"environment are required")
	}
	if d.Episodes < 1 {
		return Evaluation{}, fmt.Errorf("evaluate: episodes must be "+
			"positive, got %v", d.Episodes)
	}

	episodes := make([]episode, d.Episodes)

	cloner, parallel := env.(environment.Cloner)
	if !parallel || d.Workers <= 1 {
		for i := range episodes {
			if err := ctx.Err(); err != nil {
				return Evaluation{}, fmt.Errorf("evaluate: %w", err)
			}
			ep, err := run(s.Clone(d.Seed+uint64(i)), env)
			if err != nil {
				return Evaluation{}, fmt.Errorf("evaluate: episode %v: %w",
					i, err)
			}
			episodes[i] = ep
		}
		return aggregate(episodes), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Workers)
	for i := range episodes {
		i := i
		seed := d.Seed + uint64(i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := cloner.Clone(seed)
			if err != nil {
				return fmt.Errorf("episode %v: %w", i, err)
			}
			ep, err := run(s.Clone(seed), e)
			if err != nil {
				return fmt.Errorf("episode %v: %w", i, err)
			}
			episodes[i] = ep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Evaluation{}, fmt.Errorf("evaluate: %w", err)
	}
	return aggregate(episodes), nil
}

// episode is the outcome of running one episode
type episode struct {
	ret     float64
	score   float64
	actions [][]float64
	states  [][]float64
}

// run runs a single episode of the snapshot in env, for at most the
// environment's horizon
func run(s *agent.Snapshot, env environment.Environment) (episode, error) {
	step, err := env.Reset()
	if err != nil {
		return episode{}, err
	}

	ep := episode{states: [][]float64{mat.Col(nil, 0, step.Observation)}}
	discount := 1.0
	for t := 0; t < env.Horizon() && !step.Last(); t++ {
		action, err := s.SelectAction(step.Observation)
		if err != nil {
			return episode{}, err
		}

		next, last, err := env.Step(action)
		if err != nil {
			return episode{}, err
		}

		ep.ret += discount * next.Reward
		ep.score += next.Reward
		discount *= next.Discount
		ep.actions = append(ep.actions, mat.Col(nil, 0, action))
		ep.states = append(ep.states, mat.Col(nil, 0, next.Observation))

		step = next
		if last {
			break
		}
	}

	if math.IsNaN(ep.ret) || math.IsInf(ep.ret, 0) {
		return episode{}, fmt.Errorf("non-finite return %v", ep.ret)
	}
	return ep, nil
}

func aggregate(episodes []episode) Evaluation {
	e := Evaluation{
		Returns: make([]float64, len(episodes)),
		Scores:  make([]float64, len(episodes)),
		Actions: make([][][]float64, len(episodes)),
		States:  make([][][]float64, len(episodes)),
	}
	for i, ep := range episodes {
		e.Returns[i] = ep.ret
		e.Scores[i] = ep.score
		e.Actions[i] = ep.actions
		e.States[i] = ep.states
	}
	e.Score = stat.Mean(e.Returns, nil)
	return e
}
