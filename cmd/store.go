package cmd

import (
	"fmt"

	"github.com/huangsam/conceptrace/internal/contract"
	"github.com/huangsam/conceptrace/internal/iocache"
	"github.com/huangsam/conceptrace/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// backendSetup loads the backend and connection string under the given keys.
// An empty backend resolves to NoneBackend.
func backendSetup(backendKey, connKey string) (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(viper.GetString(backendKey))
	if backend == "" {
		backend = schema.NoneBackend
	}
	connStr := viper.GetString(connKey)

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// sqliteFilePath returns the SQLite file a connection string points at.
func sqliteFilePath(connStr, defaultPath string) string {
	if connStr == "" {
		return defaultPath
	}
	return connStr
}

// storeSetup loads minimal configuration needed for model store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	backend, connStr, err := backendSetup("store-backend", "store-db-connect")
	if err != nil {
		return err
	}

	// Initialize the model store only (no run tracking for store commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeMigrateSetupWrapper loads the store settings without opening the store,
// so that migrations run on a fresh database.
func storeMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	backend, connStr, err := backendSetup("store-backend", "store-db-connect")
	if err != nil {
		return err
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// storeCmd focused on model store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup. This avoids matching config validation for simple
// maintenance operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the model store (projects, traces, matches)",
	Long: `Manage the store holding imported projects, their traces and computed matches.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (nothing is kept)

Subcommands:
  status  - Show row counts and connection info
  clear   - Remove every stored project
  migrate - Run database schema migrations

Examples:
  conceptrace store status
  CONCEPTRACE_STORE_BACKEND=postgresql CONCEPTRACE_STORE_DB_CONNECT="..." conceptrace store migrate`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show the backend, connection state, number of projects and row count of
every store table.

Examples:
  conceptrace store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetModelStore()
		if store == nil {
			contract.LogFatal("Failed to get store status", fmt.Errorf("model store is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iocache.PrintStoreStatus(status)
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored project, trace and match",
	Long: `Delete all stored data from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the store tables

WARNING: This action cannot be undone. Projects must be imported again.

Examples:
  conceptrace store clear`,
	PreRunE: storeMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		path := sqliteFilePath(cfg.StoreDBConnect, contract.GetStoreDBFilePath())
		if err := iocache.ClearStore(cfg.StoreBackend, path, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// storeMigrateCmd runs database migrations for the model store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the model store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  conceptrace store migrate

  # Rollback to initial state
  conceptrace store migrate --target-version 0`,
	PreRunE: storeMigrateSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		targetVersion, _ := cmd.Flags().GetInt("target-version")
		if err := iocache.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
