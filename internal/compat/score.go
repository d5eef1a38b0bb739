package compat

// The five fixed profile dimensions scored by the engine.
const (
	DimensionValues        = "values"
	DimensionPersonality   = "personality"
	DimensionInterests     = "interests"
	DimensionGoals         = "goals"
	DimensionCommunication = "communication"
)

// Dimensions lists the scored dimensions in their canonical order.
var Dimensions = []string{
	DimensionValues,
	DimensionPersonality,
	DimensionInterests,
	DimensionGoals,
	DimensionCommunication,
}

// Profile maps dimension names to attribute values. It is a transient
// scoring input; the engine never mutates or retains it.
type Profile map[string]AttributeValue

// Weights maps dimension names to non-negative importance weights. Weights
// need not sum to 1; aggregation divides by the weight sum.
type Weights map[string]float64

// DefaultWeights returns the reference weight table.
func DefaultWeights() Weights {
	return Weights{
		DimensionValues:        0.25,
		DimensionPersonality:   0.20,
		DimensionInterests:     0.15,
		DimensionGoals:         0.25,
		DimensionCommunication: 0.15,
	}
}

// Result holds the per-dimension similarity scores and the weighted overall
// score, each in [0,1]. A fresh value is produced on every invocation.
type Result struct {
	Values        float64 `json:"valuesSimilarity"`
	Personality   float64 `json:"personalityTraitsSimilarity"`
	Interests     float64 `json:"interestsSimilarity"`
	Goals         float64 `json:"relationshipExpectationsSimilarity"`
	Communication float64 `json:"communicationStyleSimilarity"`
	Overall       float64 `json:"overallSimilarity"`
}

// Dimension returns the stored score for a dimension name, 0 for names the
// engine does not score.
func (r Result) Dimension(name string) float64 {
	switch name {
	case DimensionValues:
		return r.Values
	case DimensionPersonality:
		return r.Personality
	case DimensionInterests:
		return r.Interests
	case DimensionGoals:
		return r.Goals
	case DimensionCommunication:
		return r.Communication
	default:
		return 0
	}
}

// Score computes the compatibility between two profiles. Each fixed
// dimension is scored with StructuralSimilarity (missing dimensions score 0
// through the absent-attribute rule) and the overall score is the weighted
// mean over the supplied weights, renormalized by their sum. A nil weight
// table uses DefaultWeights; a degenerate zero weight sum yields 0 overall.
//
// Scoring never fails: degenerate input degrades to a defined numeric
// result, never to an error.
func Score(a, b Profile, weights Weights) Result {
	if weights == nil {
		weights = DefaultWeights()
	}

	scores := make(map[string]float64, len(Dimensions))
	weightedSum := 0.0
	weightSum := 0.0
	for _, dim := range Dimensions {
		s := StructuralSimilarity(a[dim], b[dim])
		scores[dim] = s

		w := weights[dim]
		if w < 0 {
			w = 0
		}
		weightedSum += w * s
		weightSum += w
	}

	overall := 0.0
	if weightSum > 0 {
		overall = weightedSum / weightSum
	}

	return Result{
		Values:        scores[DimensionValues],
		Personality:   scores[DimensionPersonality],
		Interests:     scores[DimensionInterests],
		Goals:         scores[DimensionGoals],
		Communication: scores[DimensionCommunication],
		Overall:       overall,
	}
}
