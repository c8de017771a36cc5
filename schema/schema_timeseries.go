package schema

import "time"

// Trace is one recorded execution event of a scenario.
type Trace struct {
	SequenceNumber int64     `json:"sequence_number"`
	Entering       bool      `json:"entering"`
	MethodID       int64     `json:"method_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// ConceptRef names one column of a time series.
type ConceptRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Segment is one contiguous range of sequence numbers. Bounds are inclusive.
type Segment struct {
	Index    int   `json:"index"`
	StartSeq int64 `json:"start_seq"`
	EndSeq   int64 `json:"end_seq"`
}

// TimeSeries counts, per segment and per concept, the trace events whose best
// concept is that column.
type TimeSeries struct {
	Scenario     string       `json:"scenario,omitempty"`
	Concepts     []ConceptRef `json:"concepts"`
	SegmentCount int          `json:"segment_count"`
	Segments     []Segment    `json:"segments"`
	Matrix       [][]int      `json:"matrix"`
	Weights      []float64    `json:"weights"`
}

// Total returns the number of counted events across all segments and concepts.
func (ts TimeSeries) Total() int {
	total := 0
	for _, row := range ts.Matrix {
		for _, v := range row {
			total += v
		}
	}
	return total
}
