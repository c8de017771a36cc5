package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/internal/parquet"
)

// ExecuteRunsExport exports the run history of store to a Parquet file.
func ExecuteRunsExport(store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	if store == nil {
		return errors.New("run store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total match runs: %d\n", status.TotalRuns)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve match runs: %w", err)
	}

	rows := parquet.ConvertMatchRunRecords(runs)
	runsFile := outputFile + ".match_runs.parquet"
	if err := parquet.WriteFile(rows, runsFile); err != nil {
		return fmt.Errorf("failed to write match runs: %w", err)
	}
	fmt.Printf("Exported %d match runs to: %s\n", len(rows), runsFile)

	fmt.Println("\nExport complete! The Parquet file can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
