package algo

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/huangsam/conceptrace/schema"
)

// ErrUnknownAlgorithm is returned for a similarity algorithm that is not supported.
var ErrUnknownAlgorithm = errors.New("unknown similarity algorithm")

// SimilarityFunc scores two vectors in [0,1].
type SimilarityFunc func(a, b SparseVector) float64

// Cosine returns dot(a,b) / (|a|*|b|). A zero-norm vector scores 0.
func Cosine(a, b SparseVector) float64 {
	na, nb := squaredNorm(a), squaredNorm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp01(a.Dot(b) / math.Sqrt(na*nb))
}

// Dice returns 2|A∩B| / (|A|+|B|) over the term sets of both vectors.
// Repeated terms count once and values are ignored, so a stem list with
// duplicates scores the same as its distinct terms.
func Dice(a, b SparseVector) float64 {
	total := a.NonZero() + b.NonZero()
	if total == 0 {
		return 0
	}
	return clamp01(2 * float64(len(a.Shared(b))) / float64(total))
}

// SimilarityFor resolves an algorithm name to its function. The TF-IDF
// algorithms score with Cosine over an index from BuildIndexFor. Levenshtein
// reads terms back from vocab.
func SimilarityFor(alg schema.Algorithm, vocab *Vocabulary) (SimilarityFunc, error) {
	switch alg {
	case schema.CosineAlgorithm, schema.TFIDFAlgorithm, schema.WeightedTFIDFAlgorithm, "":
		return Cosine, nil
	case schema.DiceAlgorithm:
		return Dice, nil
	case schema.LevenshteinAlgorithm:
		if vocab == nil {
			return nil, fmt.Errorf("%w: %s needs a vocabulary", ErrUnknownAlgorithm, alg)
		}
		return Levenshtein(vocab), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, alg)
	}
}

// ScoreOptions configures pairwise scoring.
type ScoreOptions struct {
	Algorithm  schema.Algorithm
	Exhaustive bool // also emit zero-weight pairs
	Workers    int
}

// Score computes the similarity of every (method, concept) pair of the index.
// Rows are distributed over a worker pool and reassembled in row order, so the
// output is the same for any number of workers.
func Score(ix *Index, opts ScoreOptions) ([]schema.MatchRecord, error) {
	sim, err := SimilarityFor(opts.Algorithm, ix.Vocabulary)
	if err != nil {
		return nil, err
	}
	workers := max(opts.Workers, 1)

	rows := make([][]schema.MatchRecord, len(ix.Methods))
	rowCh := make(chan int, len(ix.Methods))
	var wg sync.WaitGroup

	for range workers {
		wg.Go(func() {
			for row := range rowCh {
				// Each worker owns rows[row], so no locking is needed.
				rows[row] = scoreRow(ix, row, sim, opts.Exhaustive)
			}
		})
	}

	for row := range ix.Methods {
		rowCh <- row
	}
	close(rowCh)
	wg.Wait()

	var records []schema.MatchRecord
	for _, r := range rows {
		records = append(records, r...)
	}
	return records, nil
}

// scoreRow scores one method against every concept.
func scoreRow(ix *Index, row int, sim SimilarityFunc, exhaustive bool) []schema.MatchRecord {
	var out []schema.MatchRecord
	method := ix.Methods[row]
	for col, concept := range ix.Concepts {
		weight := sim(method, concept)
		if weight <= 0 && !exhaustive {
			continue
		}
		record := schema.MatchRecord{
			MethodID:  ix.MethodIDs[row],
			ConceptID: ix.ConceptIDs[col],
			Weight:    weight,
		}
		if weight > 0 {
			record.Terms = ix.SharedTerms(row, col)
		}
		out = append(out, record)
	}
	return out
}

func squaredNorm(v SparseVector) float64 {
	sum := 0.0
	for _, x := range v.Values {
		sum += x * x
	}
	return sum
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
