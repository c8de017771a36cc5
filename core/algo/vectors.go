// Package algo holds the vector space, similarity and ranking math.
package algo

import (
	"math"
	"slices"

	"github.com/huangsam/conceptrace/schema"
)

// Vocabulary is the ordered set of distinct terms, indexed by first occurrence.
type Vocabulary struct {
	terms []string
	index map[string]int
}

// NewVocabulary creates an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{index: make(map[string]int)}
}

// Add registers a term and returns its column.
func (v *Vocabulary) Add(term string) int {
	if i, ok := v.index[term]; ok {
		return i
	}
	i := len(v.terms)
	v.terms = append(v.terms, term)
	v.index[term] = i
	return i
}

// Lookup returns the column of a term.
func (v *Vocabulary) Lookup(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Term returns the term at a column.
func (v *Vocabulary) Term(i int) string { return v.terms[i] }

// Len returns the number of terms.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Terms returns a copy of all terms in column order.
func (v *Vocabulary) Terms() []string { return slices.Clone(v.terms) }

// SparseVector holds the non-zero entries of an entity vector, sorted by column.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Norm returns the Euclidean norm.
func (s SparseVector) Norm() float64 {
	sum := 0.0
	for _, v := range s.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product, summed in column order so that a·b == b·a exactly.
func (s SparseVector) Dot(o SparseVector) float64 {
	sum := 0.0
	i, j := 0, 0
	for i < len(s.Indices) && j < len(o.Indices) {
		switch {
		case s.Indices[i] < o.Indices[j]:
			i++
		case s.Indices[i] > o.Indices[j]:
			j++
		default:
			sum += s.Values[i] * o.Values[j]
			i++
			j++
		}
	}
	return sum
}

// Shared returns the columns present in both vectors, in column order.
func (s SparseVector) Shared(o SparseVector) []int {
	var out []int
	i, j := 0, 0
	for i < len(s.Indices) && j < len(o.Indices) {
		switch {
		case s.Indices[i] < o.Indices[j]:
			i++
		case s.Indices[i] > o.Indices[j]:
			j++
		default:
			out = append(out, s.Indices[i])
			i++
			j++
		}
	}
	return out
}

// NonZero returns the number of non-zero entries.
func (s SparseVector) NonZero() int { return len(s.Indices) }

// Dense expands the vector to the given width.
func (s SparseVector) Dense(width int) []float64 {
	out := make([]float64, width)
	for k, i := range s.Indices {
		if i < width {
			out[i] = s.Values[k]
		}
	}
	return out
}

// Index is the shared vector space of one project: a method index and a
// concept index over the same vocabulary.
type Index struct {
	Vocabulary *Vocabulary
	MethodIDs  []int64
	Methods    []SparseVector
	ConceptIDs []int64
	Concepts   []SparseVector
}

// BuildIndex registers every term of every tree, methods first, then flattens
// each tree into a vector. Duplicate terms within a tree accumulate.
func BuildIndex(methods, concepts []schema.StemTree) *Index {
	return buildIndex(methods, concepts, StemWeights)
}

func buildIndex(methods, concepts []schema.StemTree, weigh NodeWeigher) *Index {
	vocab := NewVocabulary()
	for _, t := range methods {
		for _, n := range t.Nodes {
			vocab.Add(n.Term)
		}
	}
	for _, t := range concepts {
		for _, n := range t.Nodes {
			vocab.Add(n.Term)
		}
	}

	ix := &Index{Vocabulary: vocab}
	for _, t := range methods {
		ix.MethodIDs = append(ix.MethodIDs, t.OwnerID)
		ix.Methods = append(ix.Methods, vectorize(vocab, t, weigh(t)))
	}
	for _, t := range concepts {
		ix.ConceptIDs = append(ix.ConceptIDs, t.OwnerID)
		ix.Concepts = append(ix.Concepts, vectorize(vocab, t, weigh(t)))
	}
	return ix
}

// Vectorize flattens a tree against a vocabulary. Terms missing from the
// vocabulary are ignored.
func Vectorize(vocab *Vocabulary, tree schema.StemTree) SparseVector {
	return vectorize(vocab, tree, StemWeights(tree))
}

func vectorize(vocab *Vocabulary, tree schema.StemTree, weights []float64) SparseVector {
	acc := make(map[int]float64, len(tree.Nodes))
	for k, n := range tree.Nodes {
		if i, ok := vocab.Lookup(n.Term); ok {
			acc[i] += weights[k]
		}
	}
	vec := SparseVector{Indices: make([]int, 0, len(acc))}
	for i := range acc {
		vec.Indices = append(vec.Indices, i)
	}
	slices.Sort(vec.Indices)
	vec.Values = make([]float64, len(vec.Indices))
	for k, i := range vec.Indices {
		vec.Values[k] = acc[i]
	}
	return vec
}

// MethodMatrix returns the dense methods-by-terms matrix.
func (ix *Index) MethodMatrix() [][]float64 { return dense(ix.Methods, ix.Vocabulary.Len()) }

// ConceptMatrix returns the dense concepts-by-terms matrix.
func (ix *Index) ConceptMatrix() [][]float64 { return dense(ix.Concepts, ix.Vocabulary.Len()) }

// SharedTerms returns the vocabulary terms shared by a method row and a concept row.
func (ix *Index) SharedTerms(methodRow, conceptRow int) []string {
	cols := ix.Methods[methodRow].Shared(ix.Concepts[conceptRow])
	terms := make([]string, len(cols))
	for k, c := range cols {
		terms[k] = ix.Vocabulary.Term(c)
	}
	slices.Sort(terms)
	return terms
}

func dense(rows []SparseVector, width int) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Dense(width)
	}
	return out
}
