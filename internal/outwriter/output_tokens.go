package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/schema"
)

// WriteTokenResults outputs tokenization results in the configured format.
func WriteTokenResults(results []schema.TokenResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, results)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTokenCSV(w, results)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for tokenize; use csv or json")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTokenTable(w, results, cfg, duration)
		}, "Wrote table")
	}
}

func writeTokenCSV(w io.Writer, results []schema.TokenResult) error {
	return writeCSVWithHeader(w, []string{"identifier", "tokens", "terms"}, func(cw *csv.Writer) error {
		for _, r := range results {
			if err := cw.Write([]string{r.Identifier, strings.Join(r.Tokens, "|"), strings.Join(r.Terms, "|")}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeTokenTable(w io.Writer, results []schema.TokenResult, cfg *contract.Config, duration time.Duration) error {
	width := GetMaxTableTextWidth(cfg, 40)
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		terms := strings.Join(r.Terms, " ")
		if terms == "" {
			terms = "-"
		}
		rows = append(rows, []string{
			contract.TruncateText(r.Identifier, width),
			strings.Join(r.Tokens, " "),
			terms,
		})
	}
	if err := writeTable(w, []string{"Identifier", "Tokens", "Terms"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Tokenized %d identifiers in %v\n", len(results), duration)
	return err
}
