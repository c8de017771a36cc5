package schema

// Match strength labels.
const (
	StrongValue = "Strong"
	GoodValue   = "Good"
	WeakValue   = "Weak"
	FaintValue  = "Faint"
)

// GetPlainLabel returns a plain text label for a similarity weight in [0,1].
func GetPlainLabel(weight float64) string {
	switch {
	case weight >= 0.75:
		return StrongValue
	case weight >= 0.5:
		return GoodValue
	case weight >= 0.25:
		return WeakValue
	default:
		return FaintValue
	}
}

// EnrichMatches adds rank and label to an ordered list of match results.
func EnrichMatches(matches []MatchResult) []EnrichedMatchResult {
	output := make([]EnrichedMatchResult, len(matches))
	for i, m := range matches {
		output[i] = EnrichedMatchResult{
			Rank:        i + 1,
			Label:       GetPlainLabel(m.Weight),
			MatchResult: m,
		}
	}
	return output
}
