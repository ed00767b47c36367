package approximator

import (
	"fmt"
	"math"
)

// Loss is a regression loss on the error δ = prediction - target
type Loss string

const (
	MSE   Loss = "mse"
	Huber Loss = "huber"
)

// Valid returns an error if l is not a known Loss
func (l Loss) Valid() error {
	switch l {
	case MSE, Huber:
		return nil
	}
	return fmt.Errorf("unknown loss %q", string(l))
}

// Value returns the loss of error δ
func (l Loss) Value(δ float64) float64 {
	if l == Huber && math.Abs(δ) > 1 {
		return math.Abs(δ) - 0.5
	}
	return 0.5 * δ * δ
}

// Derivative returns the derivative of the loss with respect to the
// prediction at error δ
func (l Loss) Derivative(δ float64) float64 {
	if l == Huber {
		return math.Max(-1, math.Min(1, δ))
	}
	return δ
}
