// Package vector holds the numeric primitives used for relevance scoring.
package vector

import (
	"fmt"
	"math"
)

// Similarity returns the dot product of a and b.
// Provider embeddings are unit normalized, so the result equals cosine similarity
// and lies in [-1, 1] for well-formed inputs. No normalization or clamping is applied.
// Panics if the lengths differ: callers validate dimensions at catalog load and
// before ranking, so a mismatch here is a programming error.
func Similarity(a, b []float32) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("vector: similarity of mismatched lengths %d and %d", len(a), len(b)))
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Finite reports whether every component of v is a finite number.
func Finite(v []float32) bool {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}

// Normalize returns a unit-length copy of v. A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	n := Norm(v)
	if n == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}
