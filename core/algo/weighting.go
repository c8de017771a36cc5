package algo

import (
	"math"

	"github.com/huangsam/conceptrace/schema"
)

// NodeWeigher assigns a weight to every node of a stem tree, in node order.
type NodeWeigher func(tree schema.StemTree) []float64

// StemWeights keeps the weight the stem builder assigned to each node.
func StemWeights(tree schema.StemTree) []float64 {
	out := make([]float64, len(tree.Nodes))
	for i, n := range tree.Nodes {
		out[i] = n.Weight
	}
	return out
}

// KindWeights weighs nodes by the surface they came from. The entity's own
// name and its class tags weigh 1; a root that is one of several attributes,
// parameters or references of the same kind weighs 1/n. Parts split the
// weight of their root evenly.
func KindWeights(tree schema.StemTree) []float64 {
	roots := make(map[schema.StemKind]int)
	children := make(map[int]int)
	for _, n := range tree.Nodes {
		if n.Parent == schema.NoParent {
			roots[n.Kind]++
		} else {
			children[n.Parent]++
		}
	}

	out := make([]float64, len(tree.Nodes))
	for i, n := range tree.Nodes {
		if n.Parent != schema.NoParent {
			continue
		}
		if primaryKind(n.Kind) {
			out[i] = 1
		} else {
			out[i] = 1 / float64(roots[n.Kind])
		}
	}
	for i, n := range tree.Nodes {
		if n.Parent < 0 || n.Parent >= len(out) {
			continue
		}
		out[i] = out[n.Parent] / float64(children[n.Parent])
	}
	return out
}

func primaryKind(k schema.StemKind) bool {
	switch k {
	case schema.MethodFull, schema.ConceptFull, schema.ClassFull, schema.ClassIdentifierFull:
		return true
	}
	return false
}

// BuildIndexFor builds the index an algorithm scores against. The TF-IDF
// algorithms reweigh the vectors after flattening; the others use the stem
// weights as they are.
func BuildIndexFor(methods, concepts []schema.StemTree, alg schema.Algorithm) *Index {
	switch alg {
	case schema.TFIDFAlgorithm:
		ix := buildIndex(methods, concepts, StemWeights)
		ix.ApplyTFIDF()
		return ix
	case schema.WeightedTFIDFAlgorithm:
		ix := buildIndex(methods, concepts, KindWeights)
		ix.ApplyTFIDF()
		return ix
	default:
		return buildIndex(methods, concepts, StemWeights)
	}
}

// ApplyTFIDF replaces every value with tf*idf. The term frequency is the value
// over the total weight of its vector. The inverse document frequency is
// log10(1 + N/df), where N counts methods and concepts and df the vectors
// holding the term, so a term present everywhere keeps a weight of log10(2).
func (ix *Index) ApplyTFIDF() {
	df := make([]int, ix.Vocabulary.Len())
	for _, rows := range [][]SparseVector{ix.Methods, ix.Concepts} {
		for _, v := range rows {
			for _, col := range v.Indices {
				df[col]++
			}
		}
	}
	n := float64(len(ix.Methods) + len(ix.Concepts))
	idf := make([]float64, len(df))
	for col, d := range df {
		if d > 0 {
			idf[col] = math.Log10(1 + n/float64(d))
		}
	}
	reweigh(ix.Methods, idf)
	reweigh(ix.Concepts, idf)
}

func reweigh(rows []SparseVector, idf []float64) {
	for r := range rows {
		total := 0.0
		for _, x := range rows[r].Values {
			total += x
		}
		if total == 0 {
			continue
		}
		// Fresh slice: vectors built elsewhere may share backing arrays.
		values := make([]float64, len(rows[r].Values))
		for k, col := range rows[r].Indices {
			values[k] = rows[r].Values[k] / total * idf[col]
		}
		rows[r].Values = values
	}
}

// Levenshtein scores two vectors by the edit similarity of their terms: the
// average of TermSimilarity over every term pair, each pair weighted by the
// product of the two term values. Unlike the other functions it rewards
// near-miss spellings such as "colour" and "color".
func Levenshtein(vocab *Vocabulary) SimilarityFunc {
	return func(a, b SparseVector) float64 {
		var total, mass float64
		for i, ca := range a.Indices {
			for j, cb := range b.Indices {
				w := a.Values[i] * b.Values[j]
				if w <= 0 {
					continue
				}
				total += w * TermSimilarity(vocab.Term(ca), vocab.Term(cb))
				mass += w
			}
		}
		if mass == 0 {
			return 0
		}
		return clamp01(total / mass)
	}
}

// TermSimilarity returns 1 - distance/maxLen for the Levenshtein distance of
// two terms, counted in runes. Two empty terms are identical.
func TermSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(editDistance(ra, rb))/float64(longest)
}

// editDistance is the classic two-row dynamic program.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
