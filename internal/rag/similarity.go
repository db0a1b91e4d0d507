package rag

import (
	"math"
	"slices"
)

// CosineSimilarity is dot(a,b) / (|a|*|b|). Mismatched lengths, empty
// vectors and zero vectors give NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Scored pairs a candidate with its similarity to the query.
type Scored[T any] struct {
	Item  T
	Score float64
}

// TopK scores every candidate against query and returns the best min(k, N)
// by descending score. Equal scores keep store order; NaN scores rank last.
func TopK[T any](query []float32, candidates []T, vector func(T) []float32, k int) []Scored[T] {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	scored := make([]Scored[T], len(candidates))
	for i, c := range candidates {
		scored[i] = Scored[T]{Item: c, Score: CosineSimilarity(query, vector(c))}
	}

	slices.SortStableFunc(scored, func(a, b Scored[T]) int {
		an, bn := math.IsNaN(a.Score), math.IsNaN(b.Score)
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}
