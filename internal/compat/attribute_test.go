package compat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeValueUnmarshalDispatch(t *testing.T) {
	tests := []struct {
		name string
		json string
		kind Kind
	}{
		{"array becomes tag set", `["hiking","music"]`, KindTagSet},
		{"number becomes scalar", `3.5`, KindScalar},
		{"string becomes category", `"direct"`, KindCategory},
		{"object becomes group", `{"style":"direct","pace":2}`, KindGroup},
		{"null becomes absent", `null`, KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v AttributeValue
			require.NoError(t, json.Unmarshal([]byte(tt.json), &v))
			assert.Equal(t, tt.kind, v.Kind())
		})
	}
}

func TestAttributeValueUnmarshalRejectsUnknownShapes(t *testing.T) {
	for _, raw := range []string{`true`, `false`, `[1,2,3]`, ``} {
		var v AttributeValue
		assert.Error(t, json.Unmarshal([]byte(raw), &v), "input %q", raw)
	}
}

func TestProfileDecoding(t *testing.T) {
	raw := `{
		"values": ["honesty", "family"],
		"personality": {"openness": 4, "energy": 3},
		"interests": ["hiking", "music", "cooking"],
		"goals": "long_term",
		"communication": {"style": "direct", "pace": 2}
	}`

	var p Profile
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, KindTagSet, p[DimensionValues].Kind())
	assert.Equal(t, KindGroup, p[DimensionPersonality].Kind())
	assert.Equal(t, "long_term", p[DimensionGoals].CategoryValue())
	assert.Equal(t, 4.0, p[DimensionPersonality].GroupValue()["openness"].ScalarValue())

	// Decoded profiles feed straight into scoring.
	res := Score(p, p, nil)
	assert.InDelta(t, 1.0, res.Overall, 1e-12)
}

func TestResultSerializedShape(t *testing.T) {
	res := Score(
		Profile{DimensionInterests: TagSet("hiking", "music", "cooking")},
		Profile{DimensionInterests: TagSet("music", "travel")},
		nil,
	)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var payload map[string]float64
	require.NoError(t, json.Unmarshal(data, &payload))

	for _, field := range []string{
		"valuesSimilarity",
		"personalityTraitsSimilarity",
		"interestsSimilarity",
		"relationshipExpectationsSimilarity",
		"communicationStyleSimilarity",
		"overallSimilarity",
	} {
		_, ok := payload[field]
		assert.True(t, ok, "missing field %s", field)
	}
	assert.InDelta(t, 0.25, payload["interestsSimilarity"], 1e-12)
}

func TestAttributeValueMarshalRoundTrip(t *testing.T) {
	original := Group(map[string]AttributeValue{
		"tags":  TagSet("a", "b"),
		"n":     Scalar(1.5),
		"label": Category("x"),
		"inner": Group(map[string]AttributeValue{"deep": Scalar(0)}),
	})

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded AttributeValue
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 1.0, StructuralSimilarity(original, decoded))
}
