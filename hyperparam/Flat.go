package hyperparam

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
)

// Flat is an un-nested mapping of Hyperparameters keyed by name. It is
// the form in which callers supply hyperparameters.
type Flat map[string]Hyperparameter

// NewFlat returns a Flat holding the given Hyperparameters keyed by
// their names
func NewFlat(hs ...Hyperparameter) Flat {
	f := make(Flat, len(hs))
	for _, h := range hs {
		f[h.Name()] = h
	}
	return f
}

// Clone returns a copy of the Flat
func (f Flat) Clone() Flat {
	clone := make(Flat, len(f))
	for k, h := range f {
		clone[k] = h
	}
	return clone
}

// Keys returns the keys of the Flat in sorted order
func (f Flat) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value returns the current value at key, or Unset if the key is not
// present
func (f Flat) Value(key string) any {
	h, ok := f[key]
	if !ok {
		return Unset
	}
	return h.Value()
}

// IsSet returns whether key is present and not Unset
func (f Flat) IsSet(key string) bool {
	h, ok := f[key]
	return ok && !h.IsUnset()
}

// Override returns a copy of the Flat with the raw values applied to
// the existing Hyperparameters. Setting a value to Unset (or nil)
// clears the Hyperparameter. Unknown keys are an error.
func (f Flat) Override(values map[string]any) (Flat, error) {
	out := f.Clone()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		h, ok := out[k]
		if !ok {
			return nil, fmt.Errorf("override: unknown hyperparameter %q", k)
		}

		v := values[k]
		if v == nil || IsUnset(v) {
			out[k] = h.Cleared()
			continue
		}

		updated, err := h.With(v)
		if err != nil {
			return nil, fmt.Errorf("override: %w", err)
		}
		out[k] = updated
	}
	return out, nil
}

// Mutate returns a copy of the Flat with every mutable Hyperparameter
// mutated
func (f Flat) Mutate(rng *rand.Rand) Flat {
	out := make(Flat, len(f))
	for _, k := range f.Keys() {
		out[k] = f[k].Mutate(rng)
	}
	return out
}

// Set returns the Flat as a single-level Set
func (f Flat) Set() *Set {
	s := NewSet()
	for k, h := range f {
		s.Put(k, h)
	}
	return s
}
