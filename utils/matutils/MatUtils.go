// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// MaxVec finds and returns the index of the maximum value in a vector.
// If multiple equal max values exist, only the first one is returned.
func MaxVec(values mat.Vector) int {
	max, idx := values.AtVec(0), 0

	for i := 0; i < values.Len(); i++ {
		if values.AtVec(i) > max {
			max = values.AtVec(i)
			idx = i
		}
	}
	return idx
}

// Concat returns a new vector holding the elements of each argument
// vector in order
func Concat(vecs ...mat.Vector) *mat.VecDense {
	n := 0
	for _, v := range vecs {
		n += v.Len()
	}

	data := make([]float64, 0, n)
	for _, v := range vecs {
		for i := 0; i < v.Len(); i++ {
			data = append(data, v.AtVec(i))
		}
	}
	return mat.NewVecDense(n, data)
}

// VecClip performs an element-wise clipping of a vector's values such
// that each value is at least min and at most max
func VecClip(a *mat.VecDense, min, max float64) {
	for i := 0; i < a.Len(); i++ {
		value := a.AtVec(i)

		if value < min {
			a.SetVec(i, min)
		} else if value > max {
			a.SetVec(i, max)
		}
	}
}

// Softmax returns softmax(scale * x) as a new slice, computed stably
// by subtracting the maximum logit
func Softmax(x []float64, scale float64) []float64 {
	probs := make([]float64, len(x))
	for i := range x {
		probs[i] = scale * x[i]
	}

	logSumExp := floats.LogSumExp(probs)
	for i := range probs {
		probs[i] = math.Exp(probs[i] - logSumExp)
	}
	return probs
}

// Clone returns a copy of a vector, or nil if v is nil
func Clone(v *mat.VecDense) *mat.VecDense {
	if v == nil {
		return nil
	}
	return mat.VecDenseCopyOf(v)
}
