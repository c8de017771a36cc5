// Package agg aggregates execution traces into per-concept time series.
package agg

import (
	"errors"
	"fmt"
	"slices"

	"github.com/huangsam/conceptrace/core/algo"
	"github.com/huangsam/conceptrace/schema"
)

// ErrInvalidSegmentCount is returned when a projection asks for no segments.
var ErrInvalidSegmentCount = errors.New("segment count must be at least 1")

// ProjectionOptions configures a trace projection.
type ProjectionOptions struct {
	SegmentCount  int
	Threshold     float64
	ConceptFilter []schema.ConceptRef // fixed column order when non-empty
}

// bestMatch is the concept a method resolves to.
type bestMatch struct {
	concept schema.ConceptRef
	weight  float64
}

// Project counts, per segment and per concept, the entering trace events whose
// method resolves to that concept.
//
// The sequence range of the entering events is split into SegmentCount
// equal-width ranges, the last one absorbing the remainder. A method resolves
// to its highest-ranked match with a positive weight at or above Threshold.
// Without a filter the columns are the resolved concepts in order of first
// appearance in the trace.
func Project(traces []schema.Trace, matches []schema.MatchResult, opts ProjectionOptions) (schema.TimeSeries, error) {
	if opts.SegmentCount <= 0 {
		return schema.TimeSeries{}, fmt.Errorf("%w (received %d)", ErrInvalidSegmentCount, opts.SegmentCount)
	}

	entering := make([]schema.Trace, 0, len(traces))
	for _, t := range traces {
		if t.Entering {
			entering = append(entering, t)
		}
	}
	slices.SortStableFunc(entering, func(a, b schema.Trace) int {
		switch {
		case a.SequenceNumber < b.SequenceNumber:
			return -1
		case a.SequenceNumber > b.SequenceNumber:
			return 1
		}
		return 0
	})

	best := bestConcepts(matches, opts.Threshold)
	concepts := workingSet(entering, best, opts.ConceptFilter)
	column := make(map[int64]int, len(concepts))
	for i, c := range concepts {
		column[c.ID] = i
	}

	ts := schema.TimeSeries{
		Concepts:     concepts,
		SegmentCount: opts.SegmentCount,
		Matrix:       make([][]int, opts.SegmentCount),
		Weights:      make([]float64, len(concepts)),
	}
	for s := range ts.Matrix {
		ts.Matrix[s] = make([]int, len(concepts))
	}
	if len(entering) == 0 {
		ts.Segments = make([]schema.Segment, opts.SegmentCount)
		for s := range ts.Segments {
			ts.Segments[s].Index = s
		}
		return ts, nil
	}

	minSeq := entering[0].SequenceNumber
	maxSeq := entering[len(entering)-1].SequenceNumber
	width := segmentWidth(minSeq, maxSeq, opts.SegmentCount)
	ts.Segments = segmentBounds(minSeq, maxSeq, width, opts.SegmentCount)

	for _, t := range entering {
		bm, ok := best[t.MethodID]
		if !ok {
			continue
		}
		col, ok := column[bm.concept.ID]
		if !ok {
			continue
		}
		seg := min(int((t.SequenceNumber-minSeq)/width), opts.SegmentCount-1)
		ts.Matrix[seg][col]++
		ts.Weights[col] = max(ts.Weights[col], bm.weight)
	}
	return ts, nil
}

// bestConcepts maps each method to its top-ranked concept above the threshold.
func bestConcepts(matches []schema.MatchResult, threshold float64) map[int64]bestMatch {
	ranked := slices.Clone(matches)
	algo.SortMatches(ranked)

	best := make(map[int64]bestMatch)
	for _, m := range ranked {
		if m.Weight <= 0 || m.Weight < threshold {
			continue
		}
		if _, ok := best[m.MethodID]; ok {
			continue
		}
		best[m.MethodID] = bestMatch{
			concept: schema.ConceptRef{ID: m.ConceptID, Name: m.ConceptName},
			weight:  m.Weight,
		}
	}
	return best
}

// workingSet returns the filter when given, else the resolved concepts in
// order of first appearance.
func workingSet(entering []schema.Trace, best map[int64]bestMatch, filter []schema.ConceptRef) []schema.ConceptRef {
	if len(filter) > 0 {
		out := make([]schema.ConceptRef, 0, len(filter))
		seen := make(map[int64]struct{}, len(filter))
		for _, c := range filter {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
		return out
	}

	out := []schema.ConceptRef{}
	seen := make(map[int64]struct{})
	for _, t := range entering {
		bm, ok := best[t.MethodID]
		if !ok {
			continue
		}
		if _, dup := seen[bm.concept.ID]; dup {
			continue
		}
		seen[bm.concept.ID] = struct{}{}
		out = append(out, bm.concept)
	}
	return out
}

// segmentWidth is the integer width of every segment but the last.
func segmentWidth(minSeq, maxSeq int64, count int) int64 {
	return max((maxSeq-minSeq+1)/int64(count), 1)
}

// segmentBounds returns the inclusive bounds of every segment.
func segmentBounds(minSeq, maxSeq, width int64, count int) []schema.Segment {
	out := make([]schema.Segment, count)
	for s := range out {
		start := minSeq + int64(s)*width
		end := start + width - 1
		if s == count-1 {
			end = max(maxSeq, start)
		}
		out[s] = schema.Segment{Index: s, StartSeq: start, EndSeq: end}
	}
	return out
}
