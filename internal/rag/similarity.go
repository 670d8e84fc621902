package rag

import (
	"log/slog"
	"math"
)

// CosineSimilarity returns the cosine of the angle between a and b:
// dot(a,b) / (|a|·|b|). The range is conceptually [-1, 1], though text
// embeddings land near [0, 1] in practice.
//
// Two rules keep search resilient:
//   - mismatched lengths score 0 with a logged warning, never an error —
//     a partially corrupted vector must not crash a query;
//   - a zero-magnitude vector scores 0, never NaN.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		mismatch := &DimensionMismatchError{Want: len(a), Got: len(b)}
		slog.Warn("similarity: treating mismatched vectors as unrelated",
			slog.String("error", mismatch.Error()),
		)
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}
