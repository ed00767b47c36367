// Package hyperparam implements typed hyperparameter leaves with
// declared domains, and nested sets of them which mirror the shape of
// the constructor arguments of a learning algorithm.
package hyperparam

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r1"
)

// Kind is the type of value a Hyperparameter holds
type Kind int

const (
	Real Kind = iota
	Integer
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Real:
		return "real"
	case Integer:
		return "integer"
	case Categorical:
		return "categorical"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case Real, Integer, Categorical:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("marshalText: unknown kind %d", int(k))
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "real":
		*k = Real
	case "integer":
		*k = Integer
	case "categorical":
		*k = Categorical
	default:
		return fmt.Errorf("unmarshalText: unknown kind %q", text)
	}
	return nil
}

// UnsetValue is the type of the Unset sentinel
type UnsetValue struct{}

func (UnsetValue) String() string { return "unset" }

// Unset is the value of a Hyperparameter which deliberately holds no
// value. It is distinct from every zero value: an unset step count
// means "use episode count control instead", not "zero steps".
var Unset = UnsetValue{}

// IsUnset returns whether v is the Unset sentinel
func IsUnset(v any) bool {
	_, ok := v.(UnsetValue)
	return ok
}

// Hyperparameter is a named, typed value with a declared domain. If a
// Hyperparameter is mutable, its value always lies in its domain.
//
// Hyperparameters are values: every method that changes the value
// returns a new Hyperparameter.
type Hyperparameter struct {
	name    string
	kind    Kind
	value   any
	domain  Domain
	mutable bool
}

// New returns a new Hyperparameter. The value is converted to the
// representation of the kind (float64 for Real, int for Integer) and,
// if mutable is true, validated against the domain.
func New(name string, kind Kind, value any, domain Domain,
	mutable bool) (Hyperparameter, error) {
	if name == "" {
		return Hyperparameter{}, errors.New("new: name cannot be empty")
	}
	if kind < Real || kind > Categorical {
		return Hyperparameter{}, fmt.Errorf("new: %v: unknown kind %d", name,
			int(kind))
	}
	if err := domain.validFor(kind); err != nil {
		return Hyperparameter{}, fmt.Errorf("new: %v: %w", name, err)
	}

	value, err := convert(kind, value)
	if err != nil {
		return Hyperparameter{}, fmt.Errorf("new: %v: %w", name, err)
	}

	if mutable {
		if domain.Empty() {
			return Hyperparameter{}, fmt.Errorf("new: %v: mutable "+
				"hyperparameter requires a domain", name)
		}
		if !domain.Contains(value) {
			return Hyperparameter{}, fmt.Errorf("new: %v: value %v ∉ %v",
				name, value, domain)
		}
	}

	return Hyperparameter{name, kind, value, domain, mutable}, nil
}

// Must panics if err is not nil and otherwise returns h. It is intended
// for schema literals whose validity is known ahead of time.
func Must(h Hyperparameter, err error) Hyperparameter {
	if err != nil {
		panic(err)
	}
	return h
}

// NewReal returns a new mutable Real Hyperparameter in [min, max]
func NewReal(name string, value, min, max float64) (Hyperparameter, error) {
	return New(name, Real, value, Range(min, max), true)
}

// NewInteger returns a new mutable Integer Hyperparameter in [min, max]
func NewInteger(name string, value, min, max int) (Hyperparameter, error) {
	return New(name, Integer, value, Range(float64(min), float64(max)), true)
}

// NewCategorical returns a new mutable Categorical Hyperparameter
// which takes one of the given choices
func NewCategorical(name string, value any,
	choices ...any) (Hyperparameter, error) {
	return New(name, Categorical, value, Choice(choices...), true)
}

// NewFixed returns a new immutable Hyperparameter with no domain
func NewFixed(name string, kind Kind, value any) (Hyperparameter, error) {
	return New(name, kind, value, Domain{}, false)
}

// NewUnset returns a new immutable Hyperparameter holding Unset
func NewUnset(name string, kind Kind) Hyperparameter {
	return Hyperparameter{name: name, kind: kind, value: Unset}
}

// Name returns the name of the Hyperparameter
func (h Hyperparameter) Name() string { return h.name }

// Kind returns the kind of the Hyperparameter
func (h Hyperparameter) Kind() Kind { return h.kind }

// Value returns the current value of the Hyperparameter
func (h Hyperparameter) Value() any { return h.value }

// Domain returns the domain of the Hyperparameter
func (h Hyperparameter) Domain() Domain { return h.domain }

// Mutable returns whether the Hyperparameter may be mutated
func (h Hyperparameter) Mutable() bool { return h.mutable }

// IsUnset returns whether the Hyperparameter holds Unset
func (h Hyperparameter) IsUnset() bool { return IsUnset(h.value) }

// With returns a copy of the Hyperparameter holding value v
func (h Hyperparameter) With(v any) (Hyperparameter, error) {
	return New(h.name, h.kind, v, h.domain, h.mutable)
}

// Cleared returns an immutable copy of the Hyperparameter holding
// Unset. The domain is kept so that the value can later be restored
// with With.
func (h Hyperparameter) Cleared() Hyperparameter {
	h.value = Unset
	h.mutable = false
	return h
}

// Renamed returns a copy of the Hyperparameter with a new name
func (h Hyperparameter) Renamed(name string) Hyperparameter {
	h.name = name
	return h
}

// Mutate returns a copy of the Hyperparameter holding a value sampled
// uniformly from its domain. Immutable Hyperparameters are returned
// unchanged.
func (h Hyperparameter) Mutate(rng *rand.Rand) Hyperparameter {
	if !h.mutable {
		return h
	}

	switch h.kind {
	case Real:
		iv := *h.domain.Interval
		h.value = iv.Min + rng.Float64()*(iv.Max-iv.Min)

	case Integer:
		lo := int(math.Ceil(h.domain.Interval.Min))
		hi := int(math.Floor(h.domain.Interval.Max))
		h.value = lo + rng.Intn(hi-lo+1)

	case Categorical:
		h.value = h.domain.Choices[rng.Intn(len(h.domain.Choices))]
	}
	return h
}

// Float returns the value of a Real or Integer Hyperparameter as a
// float64. The boolean is false if the Hyperparameter is unset or not
// numeric.
func (h Hyperparameter) Float() (float64, bool) {
	switch v := h.value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Int returns the value of an Integer Hyperparameter. The boolean is
// false if the Hyperparameter is unset or not an integer.
func (h Hyperparameter) Int() (int, bool) {
	v, ok := h.value.(int)
	return v, ok
}

func (h Hyperparameter) String() string {
	mut := "fixed"
	if h.mutable {
		mut = "mutable"
	}
	return fmt.Sprintf("%v(%v=%v, %v, %v)", h.kind, h.name, h.value,
		h.domain, mut)
}

// Equal returns whether two Hyperparameters have the same name, kind,
// value, domain, and mutability
func (h Hyperparameter) Equal(other Hyperparameter) bool {
	return h.name == other.name && h.kind == other.kind &&
		h.mutable == other.mutable && valuesEqual(h.value, other.value) &&
		h.domain.Equal(other.domain)
}

type jsonHyperparameter struct {
	Name    string          `json:"name"`
	Kind    Kind            `json:"kind"`
	Value   json.RawMessage `json:"value"`
	Domain  *Domain         `json:"domain,omitempty"`
	Mutable bool            `json:"mutable"`
}

// MarshalJSON implements the json.Marshaler interface. Unset values
// are encoded as null.
func (h Hyperparameter) MarshalJSON() ([]byte, error) {
	value := []byte("null")
	if !h.IsUnset() {
		var err error
		if value, err = json.Marshal(h.value); err != nil {
			return nil, fmt.Errorf("marshalJSON: %v: %w", h.name, err)
		}
	}

	var domain *Domain
	if !h.domain.Empty() {
		domain = &h.domain
	}

	return json.Marshal(jsonHyperparameter{h.name, h.kind, value, domain,
		h.mutable})
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (h *Hyperparameter) UnmarshalJSON(data []byte) error {
	var j jsonHyperparameter
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}

	var domain Domain
	if j.Domain != nil {
		domain = *j.Domain
	}

	var value any = Unset
	if len(j.Value) > 0 && string(j.Value) != "null" {
		var raw any
		if err := json.Unmarshal(j.Value, &raw); err != nil {
			return fmt.Errorf("unmarshalJSON: %v: %w", j.Name, err)
		}
		value = raw
	}

	decoded, err := New(j.Name, j.Kind, value, domain, j.Mutable)
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}
	*h = decoded
	return nil
}

// convert converts a value to the canonical representation of a kind
func convert(kind Kind, value any) (any, error) {
	if value == nil {
		return nil, errors.New("value cannot be nil, use Unset")
	}
	if IsUnset(value) {
		return Unset, nil
	}

	switch kind {
	case Real:
		f, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("real value must be numeric, got %T", value)
		}
		return f, nil

	case Integer:
		f, ok := toFloat(value)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("integer value must be integral, got %v",
				value)
		}
		return int(f), nil
	}
	return value, nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint:
		return float64(v), true
	}
	return 0, false
}

// valuesEqual compares hyperparameter values, treating numerically
// equal values of different numeric types as equal
func valuesEqual(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Slice && vb.Kind() == reflect.Slice {
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !valuesEqual(va.Index(i).Interface(), vb.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Domain is the set of values a Hyperparameter may take: an interval
// for Real and Integer kinds, or an enumeration of choices for the
// Categorical kind. The zero Domain is empty.
type Domain struct {
	Interval *r1.Interval `json:"interval,omitempty"`
	Choices  []any        `json:"choices,omitempty"`
}

// Range returns the Domain [min, max]
func Range(min, max float64) Domain {
	return Domain{Interval: &r1.Interval{Min: min, Max: max}}
}

// Choice returns the Domain of the given choices
func Choice(choices ...any) Domain {
	c := make([]any, len(choices))
	copy(c, choices)
	return Domain{Choices: c}
}

// Empty returns whether the Domain declares no values
func (d Domain) Empty() bool {
	return d.Interval == nil && len(d.Choices) == 0
}

// Contains returns whether v lies in the Domain. Unset never lies in a
// Domain.
func (d Domain) Contains(v any) bool {
	if IsUnset(v) {
		return false
	}
	if d.Interval != nil {
		f, ok := toFloat(v)
		return ok && f >= d.Interval.Min && f <= d.Interval.Max
	}
	for _, c := range d.Choices {
		if valuesEqual(c, v) {
			return true
		}
	}
	return false
}

// Equal returns whether two Domains declare the same values
func (d Domain) Equal(other Domain) bool {
	if (d.Interval == nil) != (other.Interval == nil) {
		return false
	}
	if d.Interval != nil && *d.Interval != *other.Interval {
		return false
	}
	if len(d.Choices) != len(other.Choices) {
		return false
	}
	for i := range d.Choices {
		if !valuesEqual(d.Choices[i], other.Choices[i]) {
			return false
		}
	}
	return true
}

func (d Domain) String() string {
	switch {
	case d.Interval != nil:
		return fmt.Sprintf("[%v, %v]", d.Interval.Min, d.Interval.Max)
	case len(d.Choices) > 0:
		return fmt.Sprintf("%v", d.Choices)
	}
	return "unset"
}

// validFor returns an error if the Domain cannot be used with a kind
func (d Domain) validFor(kind Kind) error {
	if d.Interval != nil && len(d.Choices) > 0 {
		return errors.New("domain cannot be both an interval and choices")
	}
	if d.Interval != nil {
		if kind == Categorical {
			return errors.New("categorical domain must be choices")
		}
		if d.Interval.Min > d.Interval.Max {
			return fmt.Errorf("empty interval %v", d)
		}
		if kind == Integer &&
			math.Ceil(d.Interval.Min) > math.Floor(d.Interval.Max) {
			return fmt.Errorf("interval %v contains no integers", d)
		}
	}
	if len(d.Choices) > 0 && kind != Categorical {
		return fmt.Errorf("%v domain must be an interval", kind)
	}
	return nil
}
