// Package gae implements generalized advantage estimation, GAE(λ),
// following https://arxiv.org/abs/1506.02438
package gae

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	ts "github.com/samuelfneumann/autolearn/timestep"
)

// Compute computes GAE(λ) advantage estimates and λ-returns for a
// dataset of consecutively collected transitions. values[i] must be
// v(s_i) and nextValues[i] must be v(s'_i) for the i-th transition.
//
// Transitions are split into trajectories at transitions marked Last.
// The value of an absorbing next state is never bootstrapped from, and
// a trajectory that was cut off by the end of the dataset is
// bootstrapped from the value of its final next state.
func Compute(data []ts.Transition, values, nextValues []float64, gamma,
	lambda float64) (advantages, returns []float64, err error) {
	if len(values) != len(data) || len(nextValues) != len(data) {
		return nil, nil, fmt.Errorf("compute: %v transitions but %v values "+
			"and %v next values", len(data), len(values), len(nextValues))
	}

	advantages = make([]float64, len(data))
	returns = make([]float64, len(data))

	next := 0.0
	for i := len(data) - 1; i >= 0; i-- {
		if data[i].Last {
			next = 0.0
		}

		bootstrap := nextValues[i]
		if data[i].Absorbing {
			bootstrap = 0.0
		}

		delta := data[i].Reward + gamma*bootstrap - values[i]
		advantages[i] = delta + gamma*lambda*next
		returns[i] = advantages[i] + values[i]
		next = advantages[i]
	}

	return advantages, returns, nil
}

// Standardize shifts and scales x in place to have mean 0 and standard
// deviation 1. Slices with fewer than two elements or no variance are
// only centred.
func Standardize(x []float64) {
	if len(x) == 0 {
		return
	}
	if len(x) == 1 {
		x[0] = 0
		return
	}

	mean, std := stat.MeanStdDev(x, nil)
	floats.AddConst(-mean, x)
	if std > 0 && !math.IsNaN(std) {
		floats.Scale(1/(std+1e-8), x)
	}
}

// DiscountCumSum computes and returns the discounted cumulative sum
// of all elements of a slice. Given x = [x0 x1 ... xN] and discount ℽ,
// element i of the result is Σ_{k≥i} ℽ^(k-i) x_k.
func DiscountCumSum(x []float64, discount float64) []float64 {
	cumSums := make([]float64, len(x))
	running := 0.0
	for i := len(x) - 1; i >= 0; i-- {
		running = x[i] + discount*running
		cumSums[i] = running
	}
	return cumSums
}
