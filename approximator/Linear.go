// Package approximator implements linear function approximators whose
// output heads are laid out according to a regressor flavor
package approximator

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/utils/matutils/initializers/weights"
)

// Layout determines how the outputs of a regressor are arranged
type Layout string

const (
	// ActionIndexed regressors keep one single-output head per action
	ActionIndexed Layout = "action-indexed"

	// Joint regressors compute one output per action jointly
	Joint Layout = "joint-action"

	// Generic regressors map their raw input to an output of arbitrary
	// shape, with no notion of an action count
	Generic Layout = "generic"
)

// Valid returns an error if l is not a known Layout
func (l Layout) Valid() error {
	switch l {
	case ActionIndexed, Joint, Generic:
		return nil
	}
	return fmt.Errorf("unknown regressor layout %q", string(l))
}

// Linear is a linear regressor with a bias unit. Weights are stored in
// a single (outputs × inputs+1) matrix whose backing slice is exposed by
// Params, so that solvers can update all weights in one step.
type Linear struct {
	layout  Layout
	inputs  int
	outputs int
	weights *mat.Dense
}

// NewLinear returns a new Linear regressor mapping inputs features to
// outputs values, initialized by init. A nil init initializes all
// weights to 0.
func NewLinear(layout Layout, inputs, outputs int,
	init weights.Initializer) (*Linear, error) {
	if err := layout.Valid(); err != nil {
		return nil, fmt.Errorf("newLinear: %w", err)
	}
	if inputs < 1 || outputs < 1 {
		return nil, fmt.Errorf("newLinear: inputs (%v) and outputs (%v) "+
			"must be positive", inputs, outputs)
	}

	w := mat.NewDense(outputs, inputs+1, nil)
	if init != nil {
		init.Initialize(w)
	}

	return &Linear{layout, inputs, outputs, w}, nil
}

// Layout returns the layout of the regressor's outputs
func (l *Linear) Layout() Layout { return l.layout }

// Inputs returns the number of input features, excluding the bias
func (l *Linear) Inputs() int { return l.inputs }

// Outputs returns the number of outputs
func (l *Linear) Outputs() int { return l.outputs }

// features appends the bias unit to the input
func (l *Linear) features(x mat.Vector) (*mat.VecDense, error) {
	if x.Len() != l.inputs {
		return nil, fmt.Errorf("input has %v features, expected %v", x.Len(),
			l.inputs)
	}
	phi := mat.NewVecDense(l.inputs+1, nil)
	for i := 0; i < l.inputs; i++ {
		phi.SetVec(i, x.AtVec(i))
	}
	phi.SetVec(l.inputs, 1.0)
	return phi, nil
}

// Predict returns all outputs of the regressor for input x
func (l *Linear) Predict(x mat.Vector) (*mat.VecDense, error) {
	phi, err := l.features(x)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	out := mat.NewVecDense(l.outputs, nil)
	if l.layout == ActionIndexed {
		// Each action has its own single-output head
		for a := 0; a < l.outputs; a++ {
			out.SetVec(a, mat.Dot(l.weights.RowView(a), phi))
		}
		return out, nil
	}

	out.MulVec(l.weights, phi)
	return out, nil
}

// PredictAt returns output i of the regressor for input x
func (l *Linear) PredictAt(x mat.Vector, i int) (float64, error) {
	if i < 0 || i >= l.outputs {
		return 0, fmt.Errorf("predictAt: output %v ∉ [0, %v)", i, l.outputs)
	}
	phi, err := l.features(x)
	if err != nil {
		return 0, fmt.Errorf("predictAt: %w", err)
	}
	return mat.Dot(l.weights.RowView(i), phi), nil
}

// AddGradient adds scale × ∂(output i)/∂w for input x to grad, which
// must have the same length as Params
func (l *Linear) AddGradient(grad []float64, x mat.Vector, i int,
	scale float64) error {
	if len(grad) != l.NumParams() {
		return fmt.Errorf("addGradient: gradient has length %v, expected %v",
			len(grad), l.NumParams())
	}
	if i < 0 || i >= l.outputs {
		return fmt.Errorf("addGradient: output %v ∉ [0, %v)", i, l.outputs)
	}
	phi, err := l.features(x)
	if err != nil {
		return fmt.Errorf("addGradient: %w", err)
	}

	row := grad[i*(l.inputs+1) : (i+1)*(l.inputs+1)]
	for j := range row {
		row[j] += scale * phi.AtVec(j)
	}
	return nil
}

// NumParams returns the number of weights of the regressor
func (l *Linear) NumParams() int {
	return l.outputs * (l.inputs + 1)
}

// Params returns the backing slice of the regressor's weights. Changes
// to the returned slice change the regressor.
func (l *Linear) Params() []float64 {
	return l.weights.RawMatrix().Data
}

// SetParams copies p into the regressor's weights
func (l *Linear) SetParams(p []float64) error {
	if len(p) != l.NumParams() {
		return fmt.Errorf("setParams: got %v weights, expected %v", len(p),
			l.NumParams())
	}
	copy(l.Params(), p)
	return nil
}

// Weights returns a copy of the weight matrix
func (l *Linear) Weights() *mat.Dense {
	return mat.DenseCopyOf(l.weights)
}

// Clone returns a deep copy of the regressor
func (l *Linear) Clone() *Linear {
	return &Linear{l.layout, l.inputs, l.outputs, mat.DenseCopyOf(l.weights)}
}

// Record is the serializable form of a Linear regressor
type Record struct {
	Layout  Layout    `json:"layout"`
	Inputs  int       `json:"inputs"`
	Outputs int       `json:"outputs"`
	Weights []float64 `json:"weights"`
}

// Record returns the serializable form of the regressor
func (l *Linear) Record() Record {
	return Record{l.layout, l.inputs, l.outputs,
		append([]float64(nil), l.Params()...)}
}

// FromRecord restores a regressor from its serializable form
func FromRecord(r Record) (*Linear, error) {
	l, err := NewLinear(r.Layout, r.Inputs, r.Outputs, nil)
	if err != nil {
		return nil, fmt.Errorf("fromRecord: %w", err)
	}
	if err := l.SetParams(r.Weights); err != nil {
		return nil, fmt.Errorf("fromRecord: %w", err)
	}
	return l, nil
}

var errNilRegressor = errors.New("regressor cannot be nil")

// CopyWeights copies the weights of src into dst. Both regressors must
// have the same shape.
func CopyWeights(dst, src *Linear) error {
	if dst == nil || src == nil {
		return fmt.Errorf("copyWeights: %w", errNilRegressor)
	}
	if dst.inputs != src.inputs || dst.outputs != src.outputs {
		return fmt.Errorf("copyWeights: shape mismatch (%v, %v) != (%v, %v)",
			dst.outputs, dst.inputs, src.outputs, src.inputs)
	}
	dst.weights.Copy(src.weights)
	return nil
}
