package schema_test

import (
	"testing"

	"github.com/huangsam/conceptrace/schema"
	"github.com/stretchr/testify/assert"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		weight   float64
		expected string
	}{
		{"Strong Upper", 1.0, "Strong"},
		{"Strong Lower", 0.75, "Strong"},
		{"Good Upper", 0.749, "Good"},
		{"Good Lower", 0.5, "Good"},
		{"Weak Upper", 0.499, "Weak"},
		{"Weak Lower", 0.25, "Weak"},
		{"Faint Upper", 0.249, "Faint"},
		{"Zero", 0.0, "Faint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, schema.GetPlainLabel(tt.weight))
		})
	}
}

func TestEnrichMatches(t *testing.T) {
	matches := []schema.MatchResult{
		{MethodID: 1, ConceptName: "Account", Weight: 0.9},
		{MethodID: 2, ConceptName: "Order", Weight: 0.3},
	}

	enriched := schema.EnrichMatches(matches)

	assert.Len(t, enriched, 2)
	assert.Equal(t, 1, enriched[0].Rank)
	assert.Equal(t, "Strong", enriched[0].Label)
	assert.Equal(t, "Account", enriched[0].ConceptName)
	assert.Equal(t, 2, enriched[1].Rank)
	assert.Equal(t, "Weak", enriched[1].Label)
}
