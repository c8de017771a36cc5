package algo

import (
	"cmp"
	"slices"
	"strings"

	"github.com/huangsam/conceptrace/schema"
)

// CompareMatches is the one ordering rule for matches: weight descending, then
// concept name, class name and method signature. IDs settle the remaining ties.
func CompareMatches(a, b schema.MatchResult) int {
	if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
		return c
	}
	if c := strings.Compare(a.ConceptName, b.ConceptName); c != 0 {
		return c
	}
	if c := strings.Compare(a.ClassName, b.ClassName); c != 0 {
		return c
	}
	if c := strings.Compare(a.MethodSignature, b.MethodSignature); c != 0 {
		return c
	}
	if c := cmp.Compare(a.MethodID, b.MethodID); c != 0 {
		return c
	}
	return cmp.Compare(a.ConceptID, b.ConceptID)
}

// SortMatches orders matches in place with CompareMatches.
func SortMatches(matches []schema.MatchResult) {
	slices.SortStableFunc(matches, CompareMatches)
}

// RankMatches sorts matches and returns the top 'limit' of them. If limit is
// greater than the number of matches, all matches are returned in sorted order.
func RankMatches(matches []schema.MatchResult, limit int) []schema.MatchResult {
	SortMatches(matches)
	if limit > 0 && len(matches) > limit {
		return matches[:limit]
	}
	return matches
}
