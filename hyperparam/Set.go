package hyperparam

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/rand"
)

// Node is an entry of a Set: either a Hyperparameter or a nested *Set
type Node interface {
	node()
}

func (Hyperparameter) node() {}
func (*Set) node()           {}

// Set is a tree of Hyperparameters and nested Sets, keyed by string.
// The shape of a Set mirrors the constructor arguments of the algorithm
// it configures.
//
// A Set is not safe for concurrent mutation.
type Set struct {
	entries map[string]Node
}

// NewSet returns a new, empty Set
func NewSet() *Set {
	return &Set{entries: make(map[string]Node)}
}

// Put adds a Hyperparameter or nested Set at key, replacing any previous
// entry. Put returns the receiver so that calls can be chained.
func (s *Set) Put(key string, n Node) *Set {
	if s.entries == nil {
		s.entries = make(map[string]Node)
	}
	s.entries[key] = n
	return s
}

// PutLeaf adds a Hyperparameter keyed by its name
func (s *Set) PutLeaf(h Hyperparameter) *Set {
	return s.Put(h.Name(), h)
}

// Delete removes the entry at key
func (s *Set) Delete(key string) {
	delete(s.entries, key)
}

// Len returns the number of direct entries in the Set
func (s *Set) Len() int {
	return len(s.entries)
}

// Keys returns the direct keys of the Set in sorted order
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the Node at the given path of keys
func (s *Set) Lookup(path ...string) (Node, bool) {
	if len(path) == 0 {
		return s, true
	}

	n, ok := s.entries[path[0]]
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return n, true
	}

	sub, ok := n.(*Set)
	if !ok {
		return nil, false
	}
	return sub.Lookup(path[1:]...)
}

// Leaf returns the Hyperparameter at the given path of keys
func (s *Set) Leaf(path ...string) (Hyperparameter, bool) {
	n, ok := s.Lookup(path...)
	if !ok {
		return Hyperparameter{}, false
	}
	h, ok := n.(Hyperparameter)
	return h, ok
}

// Sub returns the nested Set at the given path of keys
func (s *Set) Sub(path ...string) (*Set, bool) {
	n, ok := s.Lookup(path...)
	if !ok {
		return nil, false
	}
	sub, ok := n.(*Set)
	return sub, ok
}

// Clone returns a deep copy of the Set
func (s *Set) Clone() *Set {
	clone := NewSet()
	for k, n := range s.entries {
		if sub, ok := n.(*Set); ok {
			clone.entries[k] = sub.Clone()
			continue
		}
		clone.entries[k] = n
	}
	return clone
}

// Walk calls fn on every Hyperparameter in the Set in depth-first,
// sorted key order. The path passed to fn must not be retained.
func (s *Set) Walk(fn func(path []string, h Hyperparameter)) {
	s.walk(nil, fn)
}

func (s *Set) walk(prefix []string, fn func([]string, Hyperparameter)) {
	for _, k := range s.Keys() {
		path := append(prefix, k)
		switch n := s.entries[k].(type) {
		case Hyperparameter:
			fn(path, n)
		case *Set:
			n.walk(path, fn)
		}
	}
}

// Flatten returns the leaves of the Set keyed by their leaf key. An
// error is returned if two leaves in different subtrees share a key.
func (s *Set) Flatten() (Flat, error) {
	flat := make(Flat)
	paths := make(map[string]string)

	var err error
	s.Walk(func(path []string, h Hyperparameter) {
		if err != nil {
			return
		}
		key := path[len(path)-1]
		if prev, ok := paths[key]; ok {
			err = fmt.Errorf("flatten: key %q appears at both %v and %v", key,
				prev, strings.Join(path, "."))
			return
		}
		paths[key] = strings.Join(path, ".")
		flat[key] = h
	})

	if err != nil {
		return nil, err
	}
	return flat, nil
}

// Values returns the Set with every Hyperparameter reduced to its
// current value. Nested Sets become nested map[string]any. Unset values
// are kept as Unset.
func (s *Set) Values() map[string]any {
	values := make(map[string]any, len(s.entries))
	for k, n := range s.entries {
		switch n := n.(type) {
		case Hyperparameter:
			values[k] = n.Value()
		case *Set:
			values[k] = n.Values()
		}
	}
	return values
}

// Mutate returns a copy of the Set with every mutable Hyperparameter
// mutated
func (s *Set) Mutate(rng *rand.Rand) *Set {
	clone := NewSet()
	for _, k := range s.Keys() {
		switch n := s.entries[k].(type) {
		case Hyperparameter:
			clone.entries[k] = n.Mutate(rng)
		case *Set:
			clone.entries[k] = n.Mutate(rng)
		}
	}
	return clone
}

// Equal returns whether two Sets have the same shape and leaves
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for k, n := range s.entries {
		o, ok := other.entries[k]
		if !ok {
			return false
		}
		switch n := n.(type) {
		case Hyperparameter:
			oh, ok := o.(Hyperparameter)
			if !ok || !n.Equal(oh) {
				return false
			}
		case *Set:
			os, ok := o.(*Set)
			if !ok || !n.Equal(os) {
				return false
			}
		}
	}
	return true
}

// jsonNode discriminates leaves from subtrees in the JSON encoding of
// a Set
type jsonNode struct {
	Leaf *Hyperparameter `json:"leaf,omitempty"`
	Set  *Set            `json:"set,omitempty"`
}

// MarshalJSON implements the json.Marshaler interface
func (s *Set) MarshalJSON() ([]byte, error) {
	nodes := make(map[string]jsonNode, len(s.entries))
	for k, n := range s.entries {
		switch n := n.(type) {
		case Hyperparameter:
			leaf := n
			nodes[k] = jsonNode{Leaf: &leaf}
		case *Set:
			nodes[k] = jsonNode{Set: n}
		}
	}
	return json.Marshal(nodes)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (s *Set) UnmarshalJSON(data []byte) error {
	var nodes map[string]jsonNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return err
	}

	s.entries = make(map[string]Node, len(nodes))
	for k, n := range nodes {
		switch {
		case n.Leaf != nil && n.Set == nil:
			s.entries[k] = *n.Leaf
		case n.Set != nil && n.Leaf == nil:
			s.entries[k] = n.Set
		default:
			return fmt.Errorf("unmarshalJSON: key %q must hold exactly one "+
				"of a leaf or a set", k)
		}
	}
	return nil
}

func (s *Set) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, k := range s.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		switch n := s.entries[k].(type) {
		case Hyperparameter:
			fmt.Fprintf(&b, "%v: %v", k, n.Value())
		case *Set:
			fmt.Fprintf(&b, "%v: %v", k, n)
		}
	}
	b.WriteString("}")
	return b.String()
}
