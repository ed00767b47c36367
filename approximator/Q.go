package approximator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/autolearn/utils/matutils"
	"github.com/samuelfneumann/autolearn/utils/matutils/initializers/weights"
)

// Q is an action-value function over a finite set of actions. The
// layout of the underlying regressor determines how action values are
// computed:
//
//	action-indexed: one single-output head per action
//	joint-action:   one regressor with an output per action
//	generic:        a single-output regressor on state ⊕ action
type Q struct {
	*Linear
	actions int
}

// NewQ returns a new action-value function for observations of
// dimension features and the given number of actions
func NewQ(layout Layout, features, actions int,
	init weights.Initializer) (*Q, error) {
	if actions < 1 {
		return nil, fmt.Errorf("newQ: actions must be positive, got %v",
			actions)
	}

	inputs, outputs := features, actions
	if layout == Generic {
		inputs, outputs = features+1, 1
	}

	l, err := NewLinear(layout, inputs, outputs, init)
	if err != nil {
		return nil, fmt.Errorf("newQ: %w", err)
	}
	return &Q{l, actions}, nil
}

// Actions returns the number of actions
func (q *Q) Actions() int { return q.actions }

func (q *Q) input(obs mat.Vector, a int) mat.Vector {
	return matutils.Concat(obs, mat.NewVecDense(1, []float64{float64(a)}))
}

// Values returns the action values of all actions in obs
func (q *Q) Values(obs mat.Vector) ([]float64, error) {
	if q.layout != Generic {
		v, err := q.Predict(obs)
		if err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
		return v.RawVector().Data, nil
	}

	values := make([]float64, q.actions)
	for a := range values {
		v, err := q.PredictAt(q.input(obs, a), 0)
		if err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
		values[a] = v
	}
	return values, nil
}

// Value returns the value of action a in obs
func (q *Q) Value(obs mat.Vector, a int) (float64, error) {
	if a < 0 || a >= q.actions {
		return 0, fmt.Errorf("value: action %v ∉ [0, %v)", a, q.actions)
	}
	if q.layout == Generic {
		return q.PredictAt(q.input(obs, a), 0)
	}
	return q.PredictAt(obs, a)
}

// AddGradient adds scale × ∂q(obs, a)/∂w to grad
func (q *Q) AddGradient(grad []float64, obs mat.Vector, a int,
	scale float64) error {
	if a < 0 || a >= q.actions {
		return fmt.Errorf("addGradient: action %v ∉ [0, %v)", a, q.actions)
	}
	if q.layout == Generic {
		return q.Linear.AddGradient(grad, q.input(obs, a), 0, scale)
	}
	return q.Linear.AddGradient(grad, obs, a, scale)
}

// Clone returns a deep copy of the action-value function
func (q *Q) Clone() *Q {
	return &Q{q.Linear.Clone(), q.actions}
}

// QRecord is the serializable form of a Q
type QRecord struct {
	Regressor Record `json:"regressor"`
	Actions   int    `json:"actions"`
}

// Record returns the serializable form of the action-value function
func (q *Q) Record() QRecord {
	return QRecord{q.Linear.Record(), q.actions}
}

// QFromRecord restores an action-value function from its serializable
// form
func QFromRecord(r QRecord) (*Q, error) {
	l, err := FromRecord(r.Regressor)
	if err != nil {
		return nil, fmt.Errorf("qFromRecord: %w", err)
	}
	if r.Actions < 1 {
		return nil, fmt.Errorf("qFromRecord: actions must be positive, got %v",
			r.Actions)
	}
	if l.layout != Generic && l.outputs != r.Actions {
		return nil, fmt.Errorf("qFromRecord: %v outputs for %v actions",
			l.outputs, r.Actions)
	}
	return &Q{l, r.Actions}, nil
}
