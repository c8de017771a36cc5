package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/schema"
)

// WriteStemTrees outputs stem trees in the configured format.
func WriteStemTrees(trees []schema.StemTree, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, trees)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStemCSV(w, trees, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for stems; use csv or json")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStemTable(w, trees, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

func writeStemCSV(w io.Writer, trees []schema.StemTree, fmtFloat func(float64) string) error {
	header := []string{"owner", "owner_id", "name", "node", "parent", "term", "kind", "weight", "origin"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, t := range trees {
			for i, n := range t.Nodes {
				rec := []string{
					string(t.Owner),
					strconv.FormatInt(t.OwnerID, 10),
					t.Name,
					strconv.Itoa(i),
					strconv.Itoa(n.Parent),
					n.Term,
					string(n.Kind),
					fmtFloat(n.Weight),
					string(n.Origin),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeStemTable lists every full stem followed by its parts.
func writeStemTable(w io.Writer, trees []schema.StemTree, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	width := GetMaxTableTextWidth(cfg, 45)
	var rows [][]string
	nodes := 0
	for _, t := range trees {
		name := contract.TruncateText(t.Name, width)
		for _, root := range t.Roots() {
			n := t.Nodes[root]
			rows = append(rows, []string{string(t.Owner), name, n.Term, string(n.Kind), fmtFloat(n.Weight)})
			for _, child := range t.Children(root) {
				c := t.Nodes[child]
				rows = append(rows, []string{"", "", "└ " + c.Term, string(c.Kind), fmtFloat(c.Weight)})
			}
		}
		nodes += len(t.Nodes)
	}
	if err := writeTable(w, []string{"Owner", "Name", "Term", "Kind", "Weight"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Built %d stem trees (%d stems) in %v with %d workers\n", len(trees), nodes, duration, cfg.Workers)
	return err
}
