package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/internal/parquet"
	"github.com/huangsam/conceptrace/schema"
)

// WriteMatchResults outputs ranked matches, dispatching based on the output format configured.
func WriteMatchResults(results []schema.MatchResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)
	enriched := schema.EnrichMatches(results)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, enriched)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMatchCSV(w, enriched, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errParquetNeedsFile
		}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.Write(w, parquet.ConvertMatchResults(enriched))
		}, "Wrote Parquet"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMatchTable(w, enriched, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

func writeMatchCSV(w io.Writer, results []schema.EnrichedMatchResult, fmtFloat func(float64) string) error {
	header := []string{"rank", "class", "method", "concept", "weight", "label", "method_id", "concept_id", "terms"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range results {
			rec := []string{
				strconv.Itoa(r.Rank),
				r.ClassName,
				r.MethodSignature,
				r.ConceptName,
				fmtFloat(r.Weight),
				r.Label,
				strconv.FormatInt(r.MethodID, 10),
				strconv.FormatInt(r.ConceptID, 10),
				strings.Join(r.Terms, "|"),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeMatchTable(w io.Writer, results []schema.EnrichedMatchResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	headers := []string{"Rank", "Class", "Method", "Concept", "Weight", "Label"}
	fixed := 45
	if cfg.Detail {
		headers = append(headers, "Terms")
		fixed += 30
	}
	width := GetMaxTableTextWidth(cfg, fixed)

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		label := r.Label
		if cfg.UseColors {
			label = contract.GetColorLabel(r.Weight)
		}
		row := []string{
			strconv.Itoa(r.Rank),
			r.ClassName,
			contract.TruncateText(r.MethodSignature, width),
			r.ConceptName,
			fmtFloat(r.Weight),
			label,
		}
		if cfg.Detail {
			row = append(row, strings.Join(r.Terms, " "))
		}
		rows = append(rows, row)
	}

	if err := writeTable(w, headers, rows); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing top %d matches\n", len(results)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Matching completed in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, cfg.StoreBackend)
	return err
}
