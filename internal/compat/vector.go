package compat

import (
	"log/slog"
	"math"
)

// CosineSimilarity computes the cosine similarity between two equal-length
// vectors: dot(a,b) / (||a|| * ||b||).
//
// The policy is fail-soft: mismatched dimensions log a warning and score 0
// rather than failing, and a zero-magnitude vector scores 0 since it has no
// defined direction. No clamping is applied beyond the zero-norm guard, so
// vectors with negative components may produce negative results.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		slog.Warn("cosine similarity dimension mismatch",
			"len_a", len(a),
			"len_b", len(b))
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
