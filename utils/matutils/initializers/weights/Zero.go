package weights

import "gonum.org/v1/gonum/mat"

// Zero initializes all weights to 0
type Zero struct{}

// NewZero returns a new Zero initializer
func NewZero() Zero {
	return Zero{}
}

// Initialize zeroes the weights
func (Zero) Initialize(weights *mat.Dense) {
	if weights == nil {
		return
	}
	weights.Zero()
}
