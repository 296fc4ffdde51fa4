package util

import (
	"fmt"
	"math"
)

// Norm returns the euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// CosineSimilarity calculates the cosine similarity between two float32 vectors.
// A zero vector has similarity 0 with everything.
func CosineSimilarity(vec1 []float32, vec2 []float32) (float64, error) {
	return CosineWithNorm(vec1, Norm(vec1), vec2)
}

// CosineWithNorm is CosineSimilarity with the norm of query precomputed, for
// scoring one query against many stored vectors.
func CosineWithNorm(query []float32, queryNorm float64, vec []float32) (float64, error) {
	if len(query) == 0 || len(vec) == 0 {
		return 0, fmt.Errorf("input vectors cannot be empty")
	}
	if len(query) != len(vec) {
		return 0, fmt.Errorf("vector dimensions do not match: %d vs %d", len(query), len(vec))
	}

	var dot, sum float64
	for i := range vec {
		f := float64(vec[i])
		dot += float64(query[i]) * f
		sum += f * f
	}

	vecNorm := math.Sqrt(sum)
	if queryNorm == 0 || vecNorm == 0 {
		return 0, nil
	}
	return dot / (queryNorm * vecNorm), nil
}
