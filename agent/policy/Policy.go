// Package policy implements policies using linear function
// approximation
package policy

import (
	"encoding/json"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Type is the type of distribution a policy is
type Type string

const (
	EGreedyType  Type = "EGreedy"
	SoftmaxType  Type = "Softmax"
	GaussianType Type = "Gaussian"
)

// Policy selects actions in states.
//
// A Policy may be stochastic. Deterministic returns a copy of the
// Policy which always selects the most probable action (the greedy
// action or the mean action), leaving the receiver untouched.
type Policy interface {
	SelectAction(obs mat.Vector) (*mat.VecDense, error)

	// Clone returns a deep copy of the Policy which shares no state with
	// the receiver. The copy draws random numbers from a new source
	// seeded with seed.
	Clone(seed uint64) Policy

	Deterministic() Policy
	IsDeterministic() bool

	// Record returns the serializable form of the Policy
	Record() (Record, error)
}

// Differentiable is a Policy whose log-likelihood and entropy can be
// differentiated with respect to its parameters. Gradient methods add
// scale times the gradient to grad, which must have length NumParams.
type Differentiable interface {
	Policy

	NumParams() int
	Params() []float64
	SetParams([]float64) error

	LogProb(obs, action mat.Vector) (float64, error)
	GradLogProb(grad []float64, obs, action mat.Vector, scale float64) error
	Entropy(obs mat.Vector) (float64, error)
	GradEntropy(grad []float64, obs mat.Vector, scale float64) error
}

// Record is the serializable form of a Policy
type Record struct {
	Type          Type            `json:"type"`
	Deterministic bool            `json:"deterministic"`
	Seed          uint64          `json:"seed"`
	State         json.RawMessage `json:"state"`
}

var errUnknownType = errors.New("unknown policy type")

// FromRecord restores a Policy from its serializable form
func FromRecord(r Record) (Policy, error) {
	var (
		p   Policy
		err error
	)

	switch r.Type {
	case EGreedyType:
		p, err = eGreedyFromRecord(r)
	case SoftmaxType:
		p, err = softmaxFromRecord(r)
	case GaussianType:
		p, err = gaussianFromRecord(r)
	default:
		err = fmt.Errorf("%w %q", errUnknownType, r.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("fromRecord: %w", err)
	}
	return p, nil
}

// newRecord marshals the state of a policy into a Record
func newRecord(t Type, deterministic bool, seed uint64,
	state any) (Record, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return Record{}, fmt.Errorf("record: %w", err)
	}
	return Record{t, deterministic, seed, data}, nil
}

// checkLength returns an error if a parameter or gradient slice has
// the wrong length
func checkLength(op string, got, want int) error {
	if got != want {
		return fmt.Errorf("%v: got %v parameters, expected %v", op, got, want)
	}
	return nil
}

var (
	_ Differentiable = (*Softmax)(nil)
	_ Differentiable = (*Gaussian)(nil)
	_ Policy         = (*EGreedy)(nil)
)
