package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int", -100, "-100"},
		{"int64", int64(9223372036854775807), "9223372036854775807"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"float whole", 1.0, "1"},
		{"float fraction", 0.25, "0.25"},
		{"negative zero", math.Copysign(0, -1), "0"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"array of ints", []any{1, 2, 3}, "[1,2,3]"},
		{"html not escaped", "<a&b>", `"<a&b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": 2,
		"beta":  map[string]any{"y": 1, "x": 2},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":{"x":2,"y":1},"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as a surrogate pair (0xD800...) and sorts before U+E000
	obj := map[string]any{
		"\uE000":     1,
		"\U00010000": 2,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"`+"\U00010000"+`":2,"`+"\uE000"+`":1}`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed form
	result, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	result, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(result))

	// a literal backslash followed by the text u2028 stays escaped
	result, err = MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(result))
}

func TestMarshalCanonicalRejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"NaN", math.NaN()},
		{"Inf", math.Inf(1)},
		{"unsupported", struct{}{}},
		{"nested nil", map[string]any{"a": []any{nil}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			assert.Error(t, err)
		})
	}
}

func sampleReading() DailyEnergyReading {
	return DailyEnergyReading{
		ProfileID: "p-1",
		Date:      MustParseDate("2024-03-01"),
		Models: []ModelReading{
			{ModelID: "personal_day", SubScore: 80, Label: "abundance", Weight: 1, EffectiveWeight: 1.25},
		},
		Composite:  80,
		Confidence: 60,
		Alignment:  AlignmentStrong,
		Dominant:   "personal_day",
		BestFor:    []string{"negotiation"},
		Avoid:      nil,
		Skipped:    []ModelID{"daylight"},
	}
}

func TestReadingCanonicalJSON(t *testing.T) {
	r := sampleReading()
	r.ID = "abc"

	data, err := r.CanonicalJSON()
	require.NoError(t, err)

	expected := `{"alignment":"strong","avoid":[],"best_for":["negotiation"],"composite_score":80,` +
		`"confidence":60,"date":"2024-03-01","dominant_model":"personal_day","id":"abc","incomplete":false,` +
		`"models":[{"effective_weight":1.25,"label":"abundance","model_id":"personal_day","sub_score":80,"weight":1}],` +
		`"profile_id":"p-1","skipped":["daylight"]}`
	assert.Equal(t, expected, string(data))
}

func TestPersonalizationCanonicalJSON(t *testing.T) {
	p := PersonalizationProfile{
		ProfileID: "p-1",
		Factors: []AdjustmentFactor{
			{FactorID: "lunar", WeightDelta: 0.25, SampleSize: 4, Confidence: 70,
				LastComputed: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		},
		OverallAccuracy:         75,
		TotalOutcomesConsidered: 6,
	}

	data, err := p.CanonicalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"last_computed":"2024-03-01T12:00:00Z"`)
	assert.Contains(t, string(data), `"computed_at":""`)
	assert.Contains(t, string(data), `"weight_delta":0.25`)
}
