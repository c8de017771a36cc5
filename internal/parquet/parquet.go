// Package parquet provides data structures and functions for exporting conceptrace
// data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/conceptrace/schema"
	"github.com/parquet-go/parquet-go"
)

// MatchRun represents a single match run with metadata.
// This struct maps to the conceptrace_match_runs database table.
type MatchRun struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	RunUUID string `parquet:"run_uuid,snappy"`
	Project string `parquet:"project,snappy,dict"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	TotalMethods  int32 `parquet:"total_methods,snappy"`
	TotalConcepts int32 `parquet:"total_concepts,snappy"`
	TotalMatches  int32 `parquet:"total_matches,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Match is one ranked (method, concept) pair.
type Match struct {
	Rank            int32    `parquet:"rank,snappy"`
	MethodID        int64    `parquet:"method_id,snappy"`
	ClassName       string   `parquet:"class,snappy,dict"`
	MethodSignature string   `parquet:"method,snappy"`
	ConceptID       int64    `parquet:"concept_id,snappy"`
	ConceptName     string   `parquet:"concept,snappy,dict"`
	Weight          float64  `parquet:"weight,snappy"`
	Label           string   `parquet:"label,snappy,dict"`
	Terms           []string `parquet:"terms,list"`
}

// SegmentCount is one cell of a time series in long form.
type SegmentCount struct {
	Scenario    string `parquet:"scenario,snappy,dict"`
	Segment     int32  `parquet:"segment,snappy"`
	StartSeq    int64  `parquet:"start_seq,snappy"`
	EndSeq      int64  `parquet:"end_seq,snappy"`
	ConceptID   int64  `parquet:"concept_id,snappy"`
	ConceptName string `parquet:"concept,snappy,dict"`
	Count       int32  `parquet:"count,snappy"`
}

// Write encodes rows as a Parquet file on w. The schema is derived from the
// struct tags of T.
func Write[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile writes rows to a Parquet file at outputPath.
func WriteFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// ConvertMatchRunRecords converts schema.MatchRunRecord to MatchRun for Parquet export.
func ConvertMatchRunRecords(records []schema.MatchRunRecord) []MatchRun {
	result := make([]MatchRun, len(records))
	for i, record := range records {
		result[i] = MatchRun{
			RunID:         record.RunID,
			RunUUID:       record.RunUUID,
			Project:       record.Project,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalMethods:  record.TotalMethods,
			TotalConcepts: record.TotalConcepts,
			TotalMatches:  record.TotalMatches,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertMatchResults converts ranked match results to Match rows.
func ConvertMatchResults(results []schema.EnrichedMatchResult) []Match {
	out := make([]Match, len(results))
	for i, r := range results {
		out[i] = Match{
			Rank:            int32(r.Rank),
			MethodID:        r.MethodID,
			ClassName:       r.ClassName,
			MethodSignature: r.MethodSignature,
			ConceptID:       r.ConceptID,
			ConceptName:     r.ConceptName,
			Weight:          r.Weight,
			Label:           r.Label,
			Terms:           r.Terms,
		}
	}
	return out
}

// ConvertTimeSeries flattens a time series into one row per segment and concept.
func ConvertTimeSeries(series schema.TimeSeries) []SegmentCount {
	out := make([]SegmentCount, 0, len(series.Segments)*len(series.Concepts))
	for s, seg := range series.Segments {
		for c, concept := range series.Concepts {
			count := 0
			if s < len(series.Matrix) && c < len(series.Matrix[s]) {
				count = series.Matrix[s][c]
			}
			out = append(out, SegmentCount{
				Scenario:    series.Scenario,
				Segment:     int32(seg.Index),
				StartSeq:    seg.StartSeq,
				EndSeq:      seg.EndSeq,
				ConceptID:   concept.ID,
				ConceptName: concept.Name,
				Count:       int32(count),
			})
		}
	}
	return out
}
