package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting states uniformly from a hyperrectangle
type UniformStarter struct {
	bounds []r1.Interval
	rand   *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter which samples feature i
// of each starting state uniformly from bounds[i]
func NewUniformStarter(bounds []r1.Interval, seed uint64) *UniformStarter {
	source := rand.NewSource(seed)
	rand := distmv.NewUniform(bounds, source)

	return &UniformStarter{bounds, rand}
}

// Start returns a starting state vector
func (u *UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(len(u.bounds), u.rand.Rand(nil))
}

// Bounds returns the intervals that starting states are sampled from
func (u *UniformStarter) Bounds() []r1.Interval {
	bounds := make([]r1.Interval, len(u.bounds))
	copy(bounds, u.bounds)
	return bounds
}

// Reseed returns a copy of the UniformStarter sampling from the same
// bounds with a new seed
func (u *UniformStarter) Reseed(seed uint64) *UniformStarter {
	return NewUniformStarter(u.Bounds(), seed)
}
