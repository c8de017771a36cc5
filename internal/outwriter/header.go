package outwriter

import (
	"fmt"
	"io"
	"os"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/schema"
)

// headerWriter keeps machine-readable stdout clean by moving headers to stderr.
func headerWriter(cfg *contract.Config) io.Writer {
	if cfg.Output == schema.TextOut || cfg.Output == "" {
		return os.Stdout
	}
	return os.Stderr
}

// LogMatchHeader prints a concise, 2-line header for a match listing.
func LogMatchHeader(cfg *contract.Config) {
	w := headerWriter(cfg)
	mode := "best concept per method"
	if cfg.Exhaustive {
		mode = "all pairs"
	}
	_, _ = fmt.Fprintf(w, "🔎 Project: %s (Algorithm: %s, Stemmer: %s)\n", cfg.Project, cfg.Algorithm, cfg.Stemmer)
	_, _ = fmt.Fprintf(w, "🧮 Matching: %s (full weight: %.2f)\n", mode, cfg.FullWeight)
}

// LogTimeseriesHeader prints a header for a scenario projection.
func LogTimeseriesHeader(cfg *contract.Config) {
	w := headerWriter(cfg)
	_, _ = fmt.Fprintf(w, "🔎 Project: %s (Scenario: %s)\n", cfg.Project, cfg.Scenario)
	_, _ = fmt.Fprintf(w, "📊 Segments: %d (threshold: %.2f)\n", cfg.Segments, cfg.Threshold)
}
