package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/internal/parquet"
	"github.com/huangsam/conceptrace/schema"
)

// WriteTimeSeries outputs a scenario projection in the configured format.
func WriteTimeSeries(series schema.TimeSeries, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, series)
		}, "Wrote JSON time series"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTimeSeriesCSV(w, series)
		}, "Wrote CSV time series"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errParquetNeedsFile
		}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.Write(w, parquet.ConvertTimeSeries(series))
		}, "Wrote Parquet time series"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTimeSeriesTable(w, series, cfg, duration)
		}, "Wrote table"); err != nil {
			return fmt.Errorf("error writing time series table output: %w", err)
		}
	}
	return nil
}

// writeTimeSeriesCSV writes the matrix in long form, one row per segment and concept.
func writeTimeSeriesCSV(w io.Writer, series schema.TimeSeries) error {
	header := []string{"segment", "start_seq", "end_seq", "concept_id", "concept", "count"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, row := range parquet.ConvertTimeSeries(series) {
			rec := []string{
				strconv.Itoa(int(row.Segment)),
				strconv.FormatInt(row.StartSeq, 10),
				strconv.FormatInt(row.EndSeq, 10),
				strconv.FormatInt(row.ConceptID, 10),
				row.ConceptName,
				strconv.Itoa(int(row.Count)),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeTimeSeriesTable prints one row per segment and one column per concept.
func writeTimeSeriesTable(w io.Writer, series schema.TimeSeries, cfg *contract.Config, duration time.Duration) error {
	headers := []string{"Segment", "Sequence"}
	for _, c := range series.Concepts {
		headers = append(headers, contract.TruncateText(c.Name, 20))
	}
	headers = append(headers, "Total")

	rows := make([][]string, 0, len(series.Segments))
	for s, seg := range series.Segments {
		row := []string{strconv.Itoa(seg.Index + 1), fmt.Sprintf("%d-%d", seg.StartSeq, seg.EndSeq)}
		total := 0
		for c := range series.Concepts {
			count := 0
			if s < len(series.Matrix) && c < len(series.Matrix[s]) {
				count = series.Matrix[s][c]
			}
			total += count
			row = append(row, strconv.Itoa(count))
		}
		row = append(row, strconv.Itoa(total))
		rows = append(rows, row)
	}

	if err := writeTable(w, headers, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Projected %d events into %d segments in %v with %d workers. Store backend: %s\n",
		series.Total(), len(series.Segments), duration, cfg.Workers, cfg.StoreBackend)
	return err
}
