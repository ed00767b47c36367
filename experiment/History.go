package experiment

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// History records the per-episode returns of every evaluation of a run,
// keyed by the number of environment steps counted when the evaluation
// was made. Keys are strictly increasing.
type History struct {
	steps   []int
	returns [][]float64
}

// NewHistory returns a new, empty History
func NewHistory() *History {
	return &History{}
}

// Append records the returns of an evaluation at step
func (h *History) Append(step int, returns []float64) error {
	if n := len(h.steps); n > 0 && step <= h.steps[n-1] {
		return fmt.Errorf("append: step %v does not follow step %v", step,
			h.steps[n-1])
	}
	h.steps = append(h.steps, step)
	h.returns = append(h.returns, append([]float64(nil), returns...))
	return nil
}

// Len returns the number of recorded evaluations
func (h *History) Len() int {
	return len(h.steps)
}

// Steps returns the keys of the History in order
func (h *History) Steps() []int {
	return append([]int(nil), h.steps...)
}

// At returns the i-th recorded evaluation
func (h *History) At(i int) (step int, returns []float64) {
	return h.steps[i], append([]float64(nil), h.returns[i]...)
}

// Returns returns the returns recorded at step
func (h *History) Returns(step int) ([]float64, bool) {
	for i, s := range h.steps {
		if s == step {
			return append([]float64(nil), h.returns[i]...), true
		}
	}
	return nil, false
}

// Point summarizes one evaluation
type Point struct {
	Step int     `json:"step"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Summary returns the mean and population standard deviation of the
// returns of each evaluation
func (h *History) Summary() []Point {
	points := make([]Point, len(h.steps))
	for i, step := range h.steps {
		mean, std := stat.PopMeanStdDev(h.returns[i], nil)
		points[i] = Point{Step: step, Mean: mean, Std: std}
	}
	return points
}

// Clone returns a deep copy of the History
func (h *History) Clone() *History {
	clone := &History{
		steps:   append([]int(nil), h.steps...),
		returns: make([][]float64, len(h.returns)),
	}
	for i, r := range h.returns {
		clone.returns[i] = append([]float64(nil), r...)
	}
	return clone
}

type historyEntry struct {
	Step    int       `json:"step"`
	Returns []float64 `json:"returns"`
}

// MarshalJSON implements the json.Marshaler interface
func (h *History) MarshalJSON() ([]byte, error) {
	entries := make([]historyEntry, len(h.steps))
	for i := range h.steps {
		entries[i] = historyEntry{h.steps[i], h.returns[i]}
	}
	return json.Marshal(entries)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (h *History) UnmarshalJSON(data []byte) error {
	var entries []historyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	decoded := NewHistory()
	for _, e := range entries {
		if err := decoded.Append(e.Step, e.Returns); err != nil {
			return fmt.Errorf("unmarshalJSON: %w", err)
		}
	}
	*h = *decoded
	return nil
}
