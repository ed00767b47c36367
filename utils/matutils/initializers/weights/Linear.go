package weights

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// LinearUV initializes a single linear layer of weights, drawn from
// a univariate distribution
type LinearUV struct {
	distuv.Rander
}

// NewLinearUV  creates and returns a new LinearUV
func NewLinearUV(rand distuv.Rander) LinearUV {
	if rand == nil {
		panic("rand cannot be nil")
	}
	return LinearUV{rand}
}

// NewGaussianUV returns a LinearUV drawing weights from N(0, std²)
func NewGaussianUV(std float64, seed uint64) LinearUV {
	return NewLinearUV(distuv.Normal{
		Mu:    0,
		Sigma: std,
		Src:   rand.NewSource(seed),
	})
}

// Initialize initializes a matrix of weights using values drawn from
// a univariate distribution
func (l LinearUV) Initialize(weights *mat.Dense) {
	if weights == nil {
		return
	}

	backingData := weights.RawMatrix().Data
	for i := 0; i < len(backingData); i++ {
		backingData[i] = l.Rand()
	}
}
