package environment

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Space describes the kind, shape, and bounds of the observations or
// actions of an environment
type Space struct {
	Cardinality Cardinality `json:"cardinality"`
	Shape       []int       `json:"shape"`
	Low         []float64   `json:"low"`
	High        []float64   `json:"high"`

	// N is the number of distinct values of a 1-dimensional discrete
	// space and 0 otherwise
	N int `json:"n"`
}

// Discrete returns whether the space is discrete
func (s Space) Discrete() bool {
	return s.Cardinality == Discrete
}

// Dim returns the number of scalar components of an element of the
// space
func (s Space) Dim() int {
	if len(s.Shape) == 0 {
		return 0
	}
	dim := 1
	for _, d := range s.Shape {
		dim *= d
	}
	return dim
}

// Descriptor summarizes everything about an environment needed to
// configure an agent for it
type Descriptor struct {
	Name        string  `json:"name"`
	Observation Space   `json:"observation"`
	Action      Space   `json:"action"`
	Discount    float64 `json:"discount"`
	Horizon     int     `json:"horizon"`
}

// Describe returns the Descriptor of an environment. If the environment
// does not implement Namer, its Go type is used as its name.
func Describe(env Environment) Descriptor {
	name := fmt.Sprintf("%T", env)
	if n, ok := env.(Namer); ok {
		name = n.Name()
	}

	return Descriptor{
		Name:        name,
		Observation: spaceOf(env.ObservationSpec()),
		Action:      spaceOf(env.ActionSpec()),
		Discount:    env.DiscountSpec().LowerBound.AtVec(0),
		Horizon:     env.Horizon(),
	}
}

// Validate returns an error if the Descriptor cannot describe a usable
// environment
func (d Descriptor) Validate() error {
	if d.Observation.Dim() < 1 {
		return errors.New("validate: observation space must be non-empty")
	}
	if d.Action.Dim() < 1 {
		return errors.New("validate: action space must be non-empty")
	}
	if d.Action.Discrete() && d.Action.N < 1 {
		return errors.New("validate: discrete action space must have " +
			"at least one action")
	}
	if d.Discount < 0 || d.Discount > 1 {
		return fmt.Errorf("validate: discount %v ∉ [0, 1]", d.Discount)
	}
	if d.Horizon < 1 {
		return fmt.Errorf("validate: horizon must be positive, got %v",
			d.Horizon)
	}
	return nil
}

// Compatible returns whether d and other describe environments with the
// same kinds and shapes of observations and actions
func (d Descriptor) Compatible(other Descriptor) bool {
	return sameSpace(d.Observation, other.Observation) &&
		sameSpace(d.Action, other.Action)
}

func sameSpace(a, b Space) bool {
	if a.Cardinality != b.Cardinality || a.N != b.N ||
		len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

// spaceOf converts an environment Spec into a Space
func spaceOf(s Spec) Space {
	dims := s.Shape.Len()
	space := Space{
		Cardinality: s.Cardinality,
		Shape:       []int{dims},
		Low:         make([]float64, dims),
		High:        make([]float64, dims),
	}
	for i := 0; i < dims; i++ {
		space.Low[i] = s.LowerBound.AtVec(i)
		space.High[i] = s.UpperBound.AtVec(i)
	}

	if s.Cardinality == Discrete && dims == 1 {
		space.N = int(space.High[0]-space.Low[0]) + 1
	}
	return space
}

// SampleAction samples an action uniformly at random from an action
// space. Unbounded continuous dimensions are sampled from [-1, 1].
func SampleAction(space Space, rng *rand.Rand) *mat.VecDense {
	dims := space.Dim()
	action := mat.NewVecDense(dims, nil)

	for i := 0; i < dims; i++ {
		low, high := space.Low[i], space.High[i]

		if space.Discrete() {
			n := int(high-low) + 1
			action.SetVec(i, low+float64(rng.Intn(n)))
			continue
		}

		if math.IsInf(low, 0) || math.IsInf(high, 0) ||
			high-low > math.MaxFloat64/2 {
			low, high = -1, 1
		}
		action.SetVec(i, low+rng.Float64()*(high-low))
	}
	return action
}
