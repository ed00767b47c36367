// Package weights defines interfaces for weight initializations
package weights

import "gonum.org/v1/gonum/mat"

// Initializer initializes weights
type Initializer interface {
	Initialize(weights *mat.Dense) // initializes weights
}

// Constant initializes every weight to the same value
type Constant float64

// Initialize fills the weights with c
func (c Constant) Initialize(weights *mat.Dense) {
	if weights == nil {
		return
	}
	data := weights.RawMatrix().Data
	for i := range data {
		data[i] = float64(c)
	}
}
