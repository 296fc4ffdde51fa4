package util

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
	assert.Error(t, err)
	_, err = CosineSimilarity(nil, []float32{1})
	assert.Error(t, err)
}

func TestCosineWithNorm_MatchesCosineSimilarity(t *testing.T) {
	q := []float32{0.3, -1.2, 4}
	v := []float32{2, 0.5, 1}
	want, _ := CosineSimilarity(q, v)
	got, err := CosineWithNorm(q, Norm(q), v)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}

func TestNewULID(t *testing.T) {
	a, b := NewULID(), NewULID()
	assert.NotEqual(t, a, b)
	_, err := ulid.ParseStrict(a)
	assert.NoError(t, err)
	assert.Less(t, a, b, "ids from one process are monotonic")
}
