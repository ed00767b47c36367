package generator

import (
	"fmt"

	"github.com/samuelfneumann/autolearn/approximator"
	h "github.com/samuelfneumann/autolearn/hyperparam"
)

// FactoryArgs is the fully resolved tree of agent constructor
// arguments: every Hyperparameter reduced to its current value, nested
// Sets reduced to FactoryArgs
type FactoryArgs map[string]any

// Sub returns the nested arguments at the given path of keys
func (f FactoryArgs) Sub(path ...string) (FactoryArgs, error) {
	sub := f
	for i, key := range path {
		v, ok := sub[key]
		if !ok {
			return nil, fmt.Errorf("no arguments at %v", path[:i+1])
		}
		switch next := v.(type) {
		case FactoryArgs:
			sub = next
		case map[string]any:
			sub = FactoryArgs(next)
		default:
			return nil, fmt.Errorf("%v is not nested", path[:i+1])
		}
	}
	return sub, nil
}

// Value returns the raw argument at key
func (f FactoryArgs) Value(key string) (any, error) {
	v, ok := f[key]
	if !ok {
		return nil, fmt.Errorf("missing argument %v", key)
	}
	return v, nil
}

// IsUnset returns whether the argument at key is missing or Unset
func (f FactoryArgs) IsUnset(key string) bool {
	v, ok := f[key]
	return !ok || h.IsUnset(v)
}

// Float returns the argument at key as a float64
func (f FactoryArgs) Float(key string) (float64, error) {
	v, err := f.Value(key)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("argument %v must be real, got %T", key, v)
}

// Int returns the argument at key as an int
func (f FactoryArgs) Int(key string) (int, error) {
	v, err := f.Value(key)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case int:
		return v, nil
	case float64:
		if v == float64(int(v)) {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("argument %v must be an integer, got %v", key, v)
}

// String returns the argument at key as a string
func (f FactoryArgs) String(key string) (string, error) {
	v, err := f.Value(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %v must be a string, got %T", key, v)
	}
	return s, nil
}

// Bool returns the argument at key as a bool
func (f FactoryArgs) Bool(key string) (bool, error) {
	v, err := f.Value(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("argument %v must be a bool, got %T", key, v)
	}
	return b, nil
}

// Shape returns the argument at key as a shape. Shapes decoded from
// JSON hold float64 elements, which are converted.
func (f FactoryArgs) Shape(key string) ([]int, error) {
	v, err := f.Value(key)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case []int:
		return append([]int(nil), v...), nil
	case []any:
		shape := make([]int, len(v))
		for i, d := range v {
			switch d := d.(type) {
			case int:
				shape[i] = d
			case float64:
				shape[i] = int(d)
			default:
				return nil, fmt.Errorf("argument %v must be a shape, got "+
					"element %T", key, d)
			}
		}
		return shape, nil
	}
	return nil, fmt.Errorf("argument %v must be a shape, got %T", key, v)
}

// layout returns the regressor head layout of regressor arguments. The
// layout is read from the regressor_type argument and checked against
// the action count and output shape. Trees without regressor_type are
// inferred: generic when there is no action count, action-indexed for a
// single output and joint otherwise.
func (f FactoryArgs) layout() (approximator.Layout, error) {
	inferred, err := f.inferLayout()
	if err != nil {
		return "", err
	}
	if f.IsUnset(RegressorKey) {
		return inferred, nil
	}

	s, err := f.String(RegressorKey)
	if err != nil {
		return "", err
	}
	layout := approximator.Layout(s)
	if err := layout.Valid(); err != nil {
		return "", err
	}

	consistent := layout == inferred
	if layout == approximator.Joint && inferred == approximator.ActionIndexed {
		// A joint head over a single action has a single output
		n, err := f.Int(NActionsKey)
		if err != nil {
			return "", err
		}
		consistent = n == 1
	}
	if !consistent {
		return "", fmt.Errorf("%v %v does not match %v and %v", RegressorKey,
			layout, NActionsKey, OutputShapeKey)
	}
	return layout, nil
}

func (f FactoryArgs) inferLayout() (approximator.Layout, error) {
	if f.IsUnset(NActionsKey) {
		return approximator.Generic, nil
	}
	out, err := f.Shape(OutputShapeKey)
	if err != nil {
		return "", err
	}
	if len(out) == 1 && out[0] == 1 {
		return approximator.ActionIndexed, nil
	}
	return approximator.Joint, nil
}
