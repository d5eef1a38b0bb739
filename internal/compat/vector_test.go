package compat

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float64
		b        []float64
		expected float64
	}{
		{"identical vectors", []float64{1, 2, 3}, []float64{1, 2, 3}, 1.0},
		{"orthogonal vectors", []float64{1, 0, 0}, []float64{0, 1, 0}, 0},
		{"scaled vectors keep direction", []float64{1, 2, 3}, []float64{2, 4, 6}, 1.0},
		{"zero vector guard", []float64{0, 0, 0}, []float64{1, 2, 3}, 0},
		{"dimension mismatch guard", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"empty vectors", []float64{}, []float64{}, 0},
		{"opposite vectors", []float64{1, 1}, []float64{-1, -1}, -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestCosineSimilaritySymmetry(t *testing.T) {
	pairs := [][2][]float64{
		{{1, 2, 3}, {4, 5, 6}},
		{{0.1, 0.9}, {0.9, 0.1}},
		{{1, 0, 0, 1}, {0, 1, 1, 0}},
	}

	for _, pair := range pairs {
		ab := CosineSimilarity(pair[0], pair[1])
		ba := CosineSimilarity(pair[1], pair[0])
		if ab != ba {
			t.Errorf("CosineSimilarity not symmetric: %v vs %v", ab, ba)
		}
	}
}

func TestCosineSimilarityRangeForNonNegativeInput(t *testing.T) {
	// Non-negative feature weights must land in [0,1].
	pairs := [][2][]float64{
		{{0.2, 0.5, 0.9}, {0.4, 0.1, 0.7}},
		{{3, 0, 1}, {0, 2, 5}},
		{{1, 1, 1}, {1, 1, 1}},
	}

	for _, pair := range pairs {
		got := CosineSimilarity(pair[0], pair[1])
		if got < 0 || got > 1.0000000001 {
			t.Errorf("CosineSimilarity(%v, %v) = %v, want value in [0,1]", pair[0], pair[1], got)
		}
	}
}
