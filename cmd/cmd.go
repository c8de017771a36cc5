// Package cmd defines the command-line interface for conceptrace.
package cmd

import (
	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(stemsCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(timeseriesCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the import subcommands to the parent import command
	importCmd.AddCommand(importModelCmd)
	importCmd.AddCommand(importTracesCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("project", "p", "", "Project name as imported into the store")
	rootCmd.PersistentFlags().String("scenario", "", "Scenario name of a recorded execution")
	rootCmd.PersistentFlags().Bool("detail", false, "Print the shared terms of every match")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Model store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for run tracking (must differ from store-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("algorithm", string(schema.CosineAlgorithm), "Similarity function: cosine, dice, tfidf, wtfidf or levenshtein")
	rootCmd.PersistentFlags().Bool("exhaustive", false, "Keep every scored pair instead of the best concept per method")
	rootCmd.PersistentFlags().Float64("full-weight", contract.DefaultFullWeight, "Weight of full identifier stems (part stems weigh 1)")
	rootCmd.PersistentFlags().String("stemmer", string(schema.NoStemmer), "Stemmer applied to terms: none or english")
	rootCmd.PersistentFlags().String("rejected-words", "", "Comma-separated words dropped from every identifier")
	rootCmd.PersistentFlags().String("rejected-words-file", "", "File with one rejected word per line")
	rootCmd.PersistentFlags().Int("cache-size", contract.DefaultCacheSize, "Number of stem trees kept in memory (0 disables the cache)")
	rootCmd.PersistentFlags().String("hungarian", "yes", "Trim scope and type decoration (m_strName, CAccount) from identifiers (yes/no)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of stemsCmd to Viper
	stemsCmd.Flags().String("kind", "", "Only print trees of this owner: method or concept")
	if err := viper.BindPFlags(stemsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding stems flags", err)
	}

	// Bind all flags of timeseriesCmd to Viper
	timeseriesCmd.Flags().Int("segments", contract.DefaultSegments, "Number of equal-width segments")
	timeseriesCmd.Flags().Float64("threshold", 0.0, "Minimum match weight for a method to count")
	timeseriesCmd.Flags().String("concepts", "", "Comma-separated concept names fixing the columns")
	if err := viper.BindPFlags(timeseriesCmd.Flags()); err != nil {
		contract.LogFatal("Error binding timeseries flags", err)
	}

	// Both migrate commands read their own flag, so it is not bound to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
}
