package rag

import (
	"math"
	"testing"
)

func Test_CosineSimilarity_SelfSimilarityIsMaximal(t *testing.T) {
	t.Parallel()

	vectors := [][]float32{
		{1, 0, 0},
		{0.3, 0.7, 0.2, 0.9},
		{-1, 2, -3},
	}
	for _, v := range vectors {
		got := CosineSimilarity(v, v)
		if math.Abs(float64(got)-1) > 1e-6 {
			t.Errorf("self-similarity of %v: want 1, got %f", v, got)
		}
	}
}

func Test_CosineSimilarity_ZeroVectorScoresZero(t *testing.T) {
	t.Parallel()

	zero := []float32{0, 0, 0}
	if got := CosineSimilarity(zero, zero); got != 0 {
		t.Errorf("zero self-similarity: want 0, got %f", got)
	}
	if got := CosineSimilarity(zero, []float32{1, 2, 3}); got != 0 {
		t.Errorf("zero vs non-zero: want 0, got %f", got)
	}
}

func Test_CosineSimilarity_MismatchedLengthsScoreZero(t *testing.T) {
	t.Parallel()

	// Mismatched dimensionality degrades to "unrelated", never panics.
	if got := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); got != 0 {
		t.Errorf("mismatched lengths: want 0, got %f", got)
	}
	if got := CosineSimilarity(nil, []float32{1}); got != 0 {
		t.Errorf("nil vs non-empty: want 0, got %f", got)
	}
}

func Test_CosineSimilarity_OrthogonalAndOpposite(t *testing.T) {
	t.Parallel()

	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(float64(got)) > 1e-6 {
		t.Errorf("orthogonal: want 0, got %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{-1, 0}); math.Abs(float64(got)+1) > 1e-6 {
		t.Errorf("opposite: want -1, got %f", got)
	}
}
