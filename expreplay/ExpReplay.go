// Package expreplay implements experience replay buffers
package expreplay

import (
	"fmt"

	ts "github.com/samuelfneumann/autolearn/timestep"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	SampleMethod      SelectorType
	SampleSize        int
	MaxReplayCapacity int
	MinReplayCapacity int
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(seed uint64) (ExperienceReplayer, error) {
	sampler, err := CreateSelector(c.SampleMethod, c.SampleSize, seed)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	return New(sampler, c.MinReplayCapacity, c.MaxReplayCapacity)
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer, removing the oldest
	// transition if the buffer is at its maximum capacity
	Add(t ts.Transition) error

	// Sample samples a batch of transitions from the buffer
	Sample() ([]ts.Transition, error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int

	// Initialized returns whether the buffer holds at least
	// MinCapacity() samples
	Initialized() bool
}

// ring implements a concrete ExperienceReplayer as a circular buffer
// of transitions. Storage grows as transitions are added, up to the
// maximum capacity, after which the oldest transition is overwritten.
type ring struct {
	data []ts.Transition

	// next is the index at which the next transition will be written
	// once the buffer is full; it is also the index of the oldest
	// transition
	next int

	sampler     Selector
	minCapacity int
	maxCapacity int
}

// New creates and returns a new ExperienceReplayer. The sampler
// determines how data is sampled from the replay buffer.
func New(sampler Selector, minCapacity,
	maxCapacity int) (ExperienceReplayer, error) {
	if sampler == nil {
		return nil, fmt.Errorf("new: sampler cannot be nil")
	}
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if minCapacity > maxCapacity {
		return nil, fmt.Errorf("new: minCapacity (%v) > maxCapacity (%v)",
			minCapacity, maxCapacity)
	}
	if maxCapacity < sampler.BatchSize() {
		return nil, fmt.Errorf("new: cannot have batch size(%v) > max "+
			"buffer capacity (%v)", sampler.BatchSize(), maxCapacity)
	}

	return &ring{
		sampler:     sampler,
		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
	}, nil
}

// Add adds a transition to the buffer
func (r *ring) Add(t ts.Transition) error {
	if t.State == nil || t.Action == nil || t.NextState == nil {
		return &ExpReplayError{Op: "add", Err: errIncompleteTransition}
	}

	if len(r.data) < r.maxCapacity {
		r.data = append(r.data, t)
		return nil
	}

	r.data[r.next] = t
	r.next = (r.next + 1) % r.maxCapacity
	return nil
}

// Sample samples a batch of transitions from the buffer
func (r *ring) Sample() ([]ts.Transition, error) {
	if len(r.data) == 0 {
		return nil, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if !r.Initialized() {
		return nil, &ExpReplayError{Op: "sample", Err: errInsufficientSamples}
	}

	indices := r.sampler.choose(r)
	batch := make([]ts.Transition, len(indices))
	for i, index := range indices {
		batch[i] = r.data[index]
	}
	return batch, nil
}

// insertOrder returns the indices of the n oldest transitions, oldest
// first
func (r *ring) insertOrder(n int) []int {
	if n > len(r.data) {
		n = len(r.data)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = (r.next + i) % len(r.data)
	}
	return order
}

// Capacity returns the current number of samples in the buffer
func (r *ring) Capacity() int {
	return len(r.data)
}

// MaxCapacity returns the maximum allowable samples in the buffer
func (r *ring) MaxCapacity() int {
	return r.maxCapacity
}

// MinCapacity returns the number of samples required to be in the
// buffer before it can be sampled
func (r *ring) MinCapacity() int {
	return r.minCapacity
}

// BatchSize returns the number of samples returned by Sample()
func (r *ring) BatchSize() int {
	return r.sampler.BatchSize()
}

// Initialized returns whether the buffer can be sampled from
func (r *ring) Initialized() bool {
	return len(r.data) >= r.minCapacity
}
