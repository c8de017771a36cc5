package cmd

import (
	"fmt"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsSetup loads minimal configuration needed for run history operations.
func runsSetup() error {
	if err := runsMigrateSetup(); err != nil {
		return err
	}

	// Initialize the run store only (the model store stays closed)
	if err := iocache.InitStores("", "", cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("failed to initialize run tracking: %w", err)
	}

	// Used by the export command
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for runs commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsMigrateSetup loads the run store settings without creating any table.
func runsMigrateSetup() error {
	backend, connStr, err := backendSetup("runs-backend", "runs-db-connect")
	if err != nil {
		return err
	}
	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	return nil
}

// runsMigrateSetupWrapper wraps runsMigrateSetup to provide PreRunE for the migrate and clear commands.
func runsMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsMigrateSetup()
}

// runsCmd focused on match-run history.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage match-run tracking and exports",
	Long: `Manage the history of match runs.

When --runs-backend is set, every match computation records its project,
start and end time, duration, method/concept/match counts and parameters.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show run tracking statistics
  export  - Export runs to Parquet for analytics
  clear   - Remove all run history
  migrate - Run database schema migrations

Examples:
  conceptrace runs status --runs-backend sqlite
  conceptrace runs export --runs-backend sqlite --output-file history`,
}

// runsStatusCmd shows run tracking status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run tracking statistics and connection details",
	Long: `Show the backend, connection state, number of runs, last and oldest run
and the total number of matches recorded.

Examples:
  conceptrace runs status --runs-backend sqlite`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runs := iocache.Manager.GetRunStore()
		if runs == nil {
			contract.LogFatal("Failed to get run status", fmt.Errorf("run store is not initialized"))
		}
		status, err := runs.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(status)
	},
}

// runsExportCmd exports run history to Parquet.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all tracked runs to <output-file>.match_runs.parquet.

Requires: --output-file parameter

Examples:
  conceptrace runs export --runs-backend sqlite --output-file history
  duckdb -c "SELECT project, avg(run_duration_ms) FROM read_parquet('history.match_runs.parquet') GROUP BY 1"`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteRunsExport(iocache.Manager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export runs", err)
		}
	},
}

// runsClearCmd clears the run history.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all match-run history",
	Long: `Delete all tracked runs.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  conceptrace runs export --runs-backend sqlite --output-file backup
  conceptrace runs clear --runs-backend sqlite`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		path := sqliteFilePath(cfg.RunsDBConnect, contract.GetRunsDBFilePath())
		if err := iocache.ClearRuns(cfg.RunsBackend, path, cfg.RunsDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the run store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  conceptrace runs migrate --runs-backend sqlite
  conceptrace runs migrate --runs-backend sqlite --target-version 1`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		targetVersion, _ := cmd.Flags().GetInt("target-version")
		if err := iocache.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
