package agg

import (
	"testing"

	"github.com/huangsam/conceptrace/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	conceptA = schema.ConceptRef{ID: 1, Name: "A"}
	conceptB = schema.ConceptRef{ID: 2, Name: "B"}
	conceptC = schema.ConceptRef{ID: 3, Name: "C"}
)

func match(methodID int64, c schema.ConceptRef, weight float64) schema.MatchResult {
	return schema.MatchResult{MethodID: methodID, ConceptID: c.ID, ConceptName: c.Name, Weight: weight}
}

func entering(seq, methodID int64) schema.Trace {
	return schema.Trace{SequenceNumber: seq, Entering: true, MethodID: methodID}
}

func TestProjectScenario(t *testing.T) {
	traces := []schema.Trace{entering(1, 10), entering(2, 11), entering(3, 12), entering(4, 13)}
	matches := []schema.MatchResult{
		match(10, conceptA, 0.9),
		match(11, conceptA, 0.6),
		match(12, conceptB, 0.7),
		match(13, conceptC, 0.2), // below threshold
	}

	ts, err := Project(traces, matches, ProjectionOptions{SegmentCount: 2, Threshold: 0.5})
	require.NoError(t, err)

	assert.Equal(t, []schema.ConceptRef{conceptA, conceptB}, ts.Concepts)
	assert.Equal(t, [][]int{{2, 0}, {0, 1}}, ts.Matrix)
	assert.Equal(t, []schema.Segment{{Index: 0, StartSeq: 1, EndSeq: 2}, {Index: 1, StartSeq: 3, EndSeq: 4}}, ts.Segments)
	assert.Equal(t, []float64{0.9, 0.7}, ts.Weights)
	assert.Equal(t, 3, ts.Total())
}

func TestProjectBestConcept(t *testing.T) {
	traces := []schema.Trace{entering(1, 10), entering(2, 11)}

	t.Run("highest weight wins", func(t *testing.T) {
		matches := []schema.MatchResult{match(10, conceptA, 0.4), match(10, conceptB, 0.8), match(11, conceptA, 0.5)}
		ts, err := Project(traces, matches, ProjectionOptions{SegmentCount: 1})
		require.NoError(t, err)
		assert.Equal(t, []schema.ConceptRef{conceptB, conceptA}, ts.Concepts)
		assert.Equal(t, [][]int{{1, 1}}, ts.Matrix)
	})

	t.Run("ties resolve by concept name", func(t *testing.T) {
		matches := []schema.MatchResult{match(10, conceptB, 0.5), match(10, conceptA, 0.5)}
		ts, err := Project(traces, matches, ProjectionOptions{SegmentCount: 1})
		require.NoError(t, err)
		assert.Equal(t, []schema.ConceptRef{conceptA}, ts.Concepts)
	})

	t.Run("zero weight never resolves", func(t *testing.T) {
		matches := []schema.MatchResult{match(10, conceptA, 0)}
		ts, err := Project(traces, matches, ProjectionOptions{SegmentCount: 1})
		require.NoError(t, err)
		assert.Empty(t, ts.Concepts)
		assert.Equal(t, 0, ts.Total())
	})
}

func TestProjectFilter(t *testing.T) {
	traces := []schema.Trace{entering(1, 10), entering(2, 11), entering(3, 12)}
	matches := []schema.MatchResult{match(10, conceptA, 1), match(11, conceptB, 1), match(12, conceptA, 1)}

	ts, err := Project(traces, matches, ProjectionOptions{
		SegmentCount:  3,
		ConceptFilter: []schema.ConceptRef{conceptC, conceptA, conceptA},
	})
	require.NoError(t, err)
	assert.Equal(t, []schema.ConceptRef{conceptC, conceptA}, ts.Concepts)
	assert.Equal(t, [][]int{{0, 1}, {0, 0}, {0, 1}}, ts.Matrix)
}

func TestProjectTraceHandling(t *testing.T) {
	matches := []schema.MatchResult{match(10, conceptA, 1)}

	t.Run("exiting events are ignored", func(t *testing.T) {
		traces := []schema.Trace{entering(1, 10), {SequenceNumber: 2, MethodID: 10}, entering(3, 10)}
		ts, err := Project(traces, matches, ProjectionOptions{SegmentCount: 1})
		require.NoError(t, err)
		assert.Equal(t, [][]int{{2}}, ts.Matrix)
	})

	t.Run("unknown methods are skipped", func(t *testing.T) {
		traces := []schema.Trace{entering(1, 10), entering(2, 99)}
		ts, err := Project(traces, matches, ProjectionOptions{SegmentCount: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, ts.Total())
	})

	t.Run("out of order input is sorted", func(t *testing.T) {
		traces := []schema.Trace{entering(10, 10), entering(1, 10)}
		ts, err := Project(traces, matches, ProjectionOptions{SegmentCount: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(1), ts.Segments[0].StartSeq)
		assert.Equal(t, int64(10), ts.Segments[1].EndSeq)
		assert.Equal(t, [][]int{{1}, {1}}, ts.Matrix)
	})

	t.Run("last segment absorbs the remainder", func(t *testing.T) {
		var traces []schema.Trace
		for seq := int64(1); seq <= 7; seq++ {
			traces = append(traces, entering(seq, 10))
		}
		ts, err := Project(traces, matches, ProjectionOptions{SegmentCount: 3})
		require.NoError(t, err)
		assert.Equal(t, [][]int{{2}, {2}, {3}}, ts.Matrix)
		assert.Equal(t, schema.Segment{Index: 2, StartSeq: 5, EndSeq: 7}, ts.Segments[2])
	})

	t.Run("more segments than events", func(t *testing.T) {
		traces := []schema.Trace{entering(5, 10), entering(6, 10)}
		ts, err := Project(traces, matches, ProjectionOptions{SegmentCount: 4})
		require.NoError(t, err)
		assert.Len(t, ts.Matrix, 4)
		assert.Equal(t, 2, ts.Total())
	})
}

func TestProjectEmpty(t *testing.T) {
	ts, err := Project(nil, nil, ProjectionOptions{SegmentCount: 3})
	require.NoError(t, err)
	assert.Empty(t, ts.Concepts)
	assert.Equal(t, [][]int{{}, {}, {}}, ts.Matrix)
	assert.Len(t, ts.Segments, 3)
	assert.Equal(t, 0, ts.Total())
}

func TestProjectInvalidSegmentCount(t *testing.T) {
	for _, count := range []int{0, -1} {
		_, err := Project([]schema.Trace{entering(1, 10)}, nil, ProjectionOptions{SegmentCount: count})
		assert.ErrorIs(t, err, ErrInvalidSegmentCount)
	}
}

func TestProjectConservation(t *testing.T) {
	matches := []schema.MatchResult{match(1, conceptA, 0.9), match(2, conceptB, 0.6), match(3, conceptC, 0.3)}
	var traces []schema.Trace
	counted := 0
	for seq := int64(0); seq < 101; seq++ {
		method := seq%4 + 1 // method 4 has no match
		traces = append(traces, entering(seq*3, method))
		if method == 1 || method == 2 {
			counted++
		}
	}

	for _, segments := range []int{1, 2, 7, 10, 101, 500} {
		ts, err := Project(traces, matches, ProjectionOptions{SegmentCount: segments, Threshold: 0.5})
		require.NoError(t, err)
		assert.Equal(t, counted, ts.Total(), "segments=%d", segments)
	}
}
